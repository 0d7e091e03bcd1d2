// file: internals/route/index.go
package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	bookRoute "perpusku_backend/internals/features/library/books/route"
	authRoute "perpusku_backend/internals/features/users/auth/route"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	authRoute.AuthRoutes(app, db)

	// ===================== BOOKS =====================
	log.Println("[INFO] Setting up BookRoutes...")
	bookRoute.BookRoutes(app, db)
}
