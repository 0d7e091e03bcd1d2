// internals/features/library/books/model/book_model.go
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BookModel merepresentasikan tabel books.
// book_reservation_queue disimpan sebagai jsonb array of uuid —
// urutan array = urutan antrean (FIFO).
type BookModel struct {
	// PK
	BookID uuid.UUID `json:"book_id" gorm:"column:book_id;type:uuid;default:gen_random_uuid();primaryKey"`

	BookTitle string `json:"book_title" gorm:"column:book_title;type:varchar(255);not null"`
	BookGenre string `json:"book_genre" gorm:"column:book_genre;type:varchar(100);not null"`

	// Snapshot identitas pembuat saat create (tidak di-refresh walau nama user berubah)
	BookAuthorID   uuid.UUID `json:"book_author_id"   gorm:"column:book_author_id;type:uuid;not null;index:idx_books_author"`
	BookAuthorName string    `json:"book_author_name" gorm:"column:book_author_name;type:varchar(100);not null"`

	// Invariant: book_availability == true ⟺ book_borrowed_by IS NULL
	BookAvailability     bool           `json:"book_availability" gorm:"column:book_availability;not null;default:true"`
	BookBorrowedBy       *uuid.UUID     `json:"book_borrowed_by,omitempty" gorm:"column:book_borrowed_by;type:uuid"`
	BookReservationQueue datatypes.JSON `json:"book_reservation_queue" gorm:"column:book_reservation_queue;type:jsonb;not null;default:'[]'"`

	BookCreatedAt time.Time `json:"book_created_at" gorm:"column:book_created_at;type:timestamptz;not null;autoCreateTime"`
	BookUpdatedAt time.Time `json:"book_updated_at" gorm:"column:book_updated_at;type:timestamptz;not null;autoUpdateTime"`
}

func (BookModel) TableName() string { return "books" }

/* =========================
   Reservation queue helpers
   ========================= */

// ReservationQueue membongkar jsonb ke slice uuid. Payload rusak dianggap
// antrean kosong (dipersist ulang saat mutasi berikutnya).
func (b *BookModel) ReservationQueue() []uuid.UUID {
	if len(b.BookReservationQueue) == 0 {
		return nil
	}
	var queue []uuid.UUID
	if err := json.Unmarshal(b.BookReservationQueue, &queue); err != nil {
		return nil
	}
	return queue
}

func (b *BookModel) SetReservationQueue(queue []uuid.UUID) {
	if queue == nil {
		queue = []uuid.UUID{}
	}
	raw, err := json.Marshal(queue)
	if err != nil {
		raw = []byte("[]")
	}
	b.BookReservationQueue = datatypes.JSON(raw)
}

func (b *BookModel) QueueContains(userID uuid.UUID) bool {
	for _, id := range b.ReservationQueue() {
		if id == userID {
			return true
		}
	}
	return false
}
