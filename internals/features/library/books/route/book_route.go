// internals/features/library/books/route/book_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	controller "perpusku_backend/internals/features/library/books/controller"
	authMiddleware "perpusku_backend/internals/middlewares/auth"
)

// BookRoutes memasang seluruh endpoint katalog + workflow peminjaman.
// Semua route butuh caller login (identitas dipakai sebagai author snapshot,
// peminjam, dan pemilik reservasi).
func BookRoutes(app *fiber.App, db *gorm.DB) {
	booksController := controller.NewBooksController(db)

	books := app.Group("/api/books", authMiddleware.AuthMiddleware(db))

	// katalog
	books.Post("/create", booksController.Create)
	books.Get("/", booksController.List)

	// workflow peminjaman (harus sebelum /:id supaya tidak ketangkap param)
	books.Post("/borrow/:id", booksController.Borrow)
	books.Post("/return/:id", booksController.Return)
	books.Post("/reserve/:id", booksController.Reserve)
	books.Get("/reservations/:id", booksController.ListReservations)
	books.Delete("/reserve/:id", booksController.CancelReservation)

	// detail by id
	books.Get("/:id", booksController.GetByID)
	books.Patch("/:id", booksController.Update)
	books.Delete("/:id", booksController.Delete)
}
