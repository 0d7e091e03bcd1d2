// internals/features/library/books/controller/book_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	dto "perpusku_backend/internals/features/library/books/dto"
	"perpusku_backend/internals/features/library/books/repository"
	service "perpusku_backend/internals/features/library/books/service"
	helper "perpusku_backend/internals/helpers"
)

type BooksController struct {
	Service *service.LendingService
}

var validate = validator.New()

func NewBooksController(db *gorm.DB) *BooksController {
	return &BooksController{
		Service: service.NewLendingService(repository.NewBookRepository(db)),
	}
}

func parseBookID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "ID buku tidak valid")
	}
	return id, nil
}

// writeLendingError memetakan error service ke status HTTP.
// Catatan: pelanggaran workflow (conflict) dikembalikan 400, bukan 409,
// mengikuti kontrak API lama.
func writeLendingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Buku tidak ditemukan")
	case errors.Is(err, service.ErrTitleGenreRequired):
		return helper.JsonError(c, fiber.StatusBadRequest, "Judul dan genre wajib diisi")
	case errors.Is(err, service.ErrBookNotAvailable):
		return helper.JsonError(c, fiber.StatusBadRequest, "Buku sedang dipinjam, tidak tersedia")
	case errors.Is(err, service.ErrNotBorrower):
		return helper.JsonError(c, fiber.StatusForbidden, "Anda tidak bisa mengembalikan buku yang tidak Anda pinjam")
	case errors.Is(err, service.ErrBookStillAvailable):
		return helper.JsonError(c, fiber.StatusBadRequest, "Buku masih tersedia, tidak perlu reservasi")
	case errors.Is(err, service.ErrAlreadyReserved):
		return helper.JsonError(c, fiber.StatusBadRequest, "Anda sudah mereservasi buku ini")
	case errors.Is(err, service.ErrHolderCannotReserve):
		return helper.JsonError(c, fiber.StatusBadRequest, "Anda sedang meminjam buku ini")
	case errors.Is(err, service.ErrNoReservations):
		return helper.JsonError(c, fiber.StatusBadRequest, "Tidak ada reservasi untuk buku ini")
	case errors.Is(err, service.ErrNoReservationForUser):
		return helper.JsonError(c, fiber.StatusBadRequest, "Anda tidak punya reservasi untuk buku ini")
	}
	return writePGError(c, err)
}

// --- PG error mapping (pgx/libpq) ---
func mapPGError(err error) (int, string) {
	// pgx
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		switch pgxErr.Code {
		case "23503":
			return fiber.StatusBadRequest, "Referensi tidak ditemukan (FK violation)."
		case "23505":
			return fiber.StatusConflict, "Data duplikat (unique violation)."
		default:
			return fiber.StatusInternalServerError, "Server error"
		}
	}
	// lib/pq
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "23503":
			return fiber.StatusBadRequest, "Referensi tidak ditemukan (FK violation)."
		case "23505":
			return fiber.StatusConflict, "Data duplikat (unique violation)."
		default:
			return fiber.StatusInternalServerError, "Server error"
		}
	}
	return fiber.StatusInternalServerError, "Server error"
}

func writePGError(c *fiber.Ctx, err error) error {
	code, msg := mapPGError(err)
	return helper.JsonError(c, code, msg)
}

// =========================================================
// CREATE - POST /api/books/create
// =========================================================
func (h *BooksController) Create(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	userName, err := helper.GetUserNameFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.BookCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := validate.Struct(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Judul dan genre wajib diisi")
	}

	book, err := h.Service.CreateBook(c.UserContext(), &req, userID, userName)
	if err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonCreated(c, "Buku berhasil ditambahkan", dto.ToBookResponse(book))
}

// =========================================================
// LIST - GET /api/books
// =========================================================
func (h *BooksController) List(c *fiber.Ctx) error {
	books, err := h.Service.ListBooks(c.UserContext())
	if err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToBookResponses(books), nil)
}

// =========================================================
// DETAIL - GET /api/books/:id
// =========================================================
func (h *BooksController) GetByID(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	book, err := h.Service.GetBook(c.UserContext(), id)
	if err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToBookResponse(book))
}

// =========================================================
// UPDATE - PATCH /api/books/:id
// Hanya title/genre; status pinjam & antrean lewat endpoint workflow.
// =========================================================
func (h *BooksController) Update(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.BookUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := validate.Struct(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	book, err := h.Service.UpdateBook(c.UserContext(), id, &req)
	if err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonUpdated(c, "Buku berhasil diperbarui", dto.ToBookResponse(book))
}

// =========================================================
// DELETE - DELETE /api/books/:id
// =========================================================
func (h *BooksController) Delete(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	if err := h.Service.DeleteBook(c.UserContext(), id); err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonDeleted(c, "Buku berhasil dihapus", nil)
}

// =========================================================
// BORROW - POST /api/books/borrow/:id
// =========================================================
func (h *BooksController) Borrow(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	book, err := h.Service.Borrow(c.UserContext(), id, userID)
	if err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonOK(c, "Buku berhasil dipinjam", dto.ToBookResponse(book))
}

// =========================================================
// RETURN - POST /api/books/return/:id
// Kalau ada antrean, buku langsung berpindah ke reservasi paling awal.
// =========================================================
func (h *BooksController) Return(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	book, reassigned, err := h.Service.Return(c.UserContext(), id, userID)
	if err != nil {
		return writeLendingError(c, err)
	}

	msg := "Buku berhasil dikembalikan dan sekarang tersedia"
	if reassigned {
		msg = "Buku berhasil dikembalikan dan dialihkan ke reservasi berikutnya"
	}
	return helper.JsonOK(c, msg, dto.ToBookResponse(book))
}

// =========================================================
// RESERVE - POST /api/books/reserve/:id
// =========================================================
func (h *BooksController) Reserve(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	book, err := h.Service.Reserve(c.UserContext(), id, userID)
	if err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonOK(c, "Buku berhasil direservasi", dto.ToBookResponse(book))
}

// =========================================================
// LIST RESERVATIONS - GET /api/books/reservations/:id
// =========================================================
func (h *BooksController) ListReservations(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	resp, err := h.Service.ListReservations(c.UserContext(), id)
	if err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonOK(c, "ok", resp)
}

// =========================================================
// CANCEL RESERVATION - DELETE /api/books/reserve/:id
// =========================================================
func (h *BooksController) CancelReservation(c *fiber.Ctx) error {
	id, err := parseBookID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	if err := h.Service.CancelReservation(c.UserContext(), id, userID); err != nil {
		return writeLendingError(c, err)
	}
	return helper.JsonDeleted(c, "Reservasi berhasil dibatalkan", nil)
}
