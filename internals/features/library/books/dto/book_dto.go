// internals/features/library/books/dto/book_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	model "perpusku_backend/internals/features/library/books/model"
)

/* =========================
   REQUEST
   ========================= */

type BookCreateRequest struct {
	BookTitle string `json:"book_title" validate:"required,max=255"`
	BookGenre string `json:"book_genre" validate:"required,max=100"`
}

// BookUpdateRequest sengaja hanya title/genre: status peminjaman dan antrean
// hanya boleh berubah lewat endpoint borrow/return/reserve.
type BookUpdateRequest struct {
	BookTitle *string `json:"book_title" validate:"omitempty,min=1,max=255"`
	BookGenre *string `json:"book_genre" validate:"omitempty,min=1,max=100"`
}

/* =========================
   NORMALIZER
   ========================= */

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func (r *BookCreateRequest) Normalize() {
	r.BookTitle = strings.TrimSpace(r.BookTitle)
	r.BookGenre = strings.TrimSpace(r.BookGenre)
}

func (r *BookUpdateRequest) Normalize() {
	r.BookTitle = trimPtr(r.BookTitle)
	r.BookGenre = trimPtr(r.BookGenre)
}

/* =========================
   MAPPER
   ========================= */

func (r *BookCreateRequest) ToModel(authorID uuid.UUID, authorName string) *model.BookModel {
	m := &model.BookModel{
		BookTitle:        r.BookTitle,
		BookGenre:        r.BookGenre,
		BookAuthorID:     authorID,
		BookAuthorName:   authorName,
		BookAvailability: true,
	}
	m.SetReservationQueue(nil)
	return m
}

func (r *BookUpdateRequest) ApplyToModel(m *model.BookModel) {
	if r.BookTitle != nil {
		m.BookTitle = *r.BookTitle
	}
	if r.BookGenre != nil {
		m.BookGenre = *r.BookGenre
	}
}

/* =========================
   RESPONSE
   ========================= */

type BookResponse struct {
	BookID uuid.UUID `json:"book_id"`

	BookTitle string `json:"book_title"`
	BookGenre string `json:"book_genre"`

	BookAuthorID   uuid.UUID `json:"book_author_id"`
	BookAuthorName string    `json:"book_author_name"`

	BookAvailability     bool        `json:"book_availability"`
	BookBorrowedBy       *uuid.UUID  `json:"book_borrowed_by,omitempty"`
	BookReservationQueue []uuid.UUID `json:"book_reservation_queue"`

	BookCreatedAt time.Time `json:"book_created_at"`
	BookUpdatedAt time.Time `json:"book_updated_at"`
}

func ToBookResponse(m *model.BookModel) *BookResponse {
	queue := m.ReservationQueue()
	if queue == nil {
		queue = []uuid.UUID{}
	}
	return &BookResponse{
		BookID:               m.BookID,
		BookTitle:            m.BookTitle,
		BookGenre:            m.BookGenre,
		BookAuthorID:         m.BookAuthorID,
		BookAuthorName:       m.BookAuthorName,
		BookAvailability:     m.BookAvailability,
		BookBorrowedBy:       m.BookBorrowedBy,
		BookReservationQueue: queue,
		BookCreatedAt:        m.BookCreatedAt,
		BookUpdatedAt:        m.BookUpdatedAt,
	}
}

func ToBookResponses(items []model.BookModel) []BookResponse {
	out := make([]BookResponse, 0, len(items))
	for i := range items {
		out = append(out, *ToBookResponse(&items[i]))
	}
	return out
}

/* =========================
   RESERVATIONS
   ========================= */

type ReservationUser struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email"`
}

type BookReservationsResponse struct {
	BookTitle    string            `json:"book_title"`
	Reservations []ReservationUser `json:"reservations"`
}
