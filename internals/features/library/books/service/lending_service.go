// internals/features/library/books/service/lending_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	dto "perpusku_backend/internals/features/library/books/dto"
	model "perpusku_backend/internals/features/library/books/model"
	"perpusku_backend/internals/features/library/books/repository"
	logger "perpusku_backend/internals/loggers"
)

/* =========================
   Errors
   ========================= */

var (
	ErrBookNotFound         = errors.New("book not found")
	ErrTitleGenreRequired   = errors.New("title and genre are required")
	ErrBookNotAvailable     = errors.New("book is not available for borrowing")
	ErrNotBorrower          = errors.New("caller did not borrow this book")
	ErrBookStillAvailable   = errors.New("book is available, no need to reserve")
	ErrAlreadyReserved      = errors.New("caller already reserved this book")
	ErrHolderCannotReserve  = errors.New("caller is currently borrowing this book")
	ErrNoReservations       = errors.New("no reservations for this book")
	ErrNoReservationForUser = errors.New("caller has no reservation for this book")
)

/* =========================
   Service
   ========================= */

// LendingService memegang state machine pinjam/kembali/reservasi.
// Semua operasi mutasi diserialisasi per book_id lewat mutex ber-key,
// supaya dua borrow bersamaan tidak sama-sama melihat buku available.
type LendingService struct {
	repo  repository.BookRepository
	locks sync.Map // book_id (uuid.UUID) -> *sync.Mutex
}

func NewLendingService(repo repository.BookRepository) *LendingService {
	return &LendingService{repo: repo}
}

// lockBook mengunci critical section satu buku; pemanggil wajib defer unlock.
func (s *LendingService) lockBook(id uuid.UUID) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

/* =========================
   Catalog CRUD
   ========================= */

func (s *LendingService) CreateBook(ctx context.Context, req *dto.BookCreateRequest, authorID uuid.UUID, authorName string) (*model.BookModel, error) {
	req.Normalize()
	if req.BookTitle == "" || req.BookGenre == "" {
		return nil, ErrTitleGenreRequired
	}

	book := req.ToModel(authorID, authorName)
	if err := s.repo.Create(ctx, book); err != nil {
		logger.Logger.Error("create book: ", err)
		return nil, err
	}
	return book, nil
}

func (s *LendingService) ListBooks(ctx context.Context) ([]model.BookModel, error) {
	return s.repo.FindAll(ctx)
}

func (s *LendingService) GetBook(ctx context.Context, id uuid.UUID) (*model.BookModel, error) {
	book, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookNotFound
	}
	return book, err
}

func (s *LendingService) UpdateBook(ctx context.Context, id uuid.UUID, req *dto.BookUpdateRequest) (*model.BookModel, error) {
	req.Normalize()

	mu := s.lockBook(id)
	defer mu.Unlock()

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyToModel(book)
	if strings.TrimSpace(book.BookTitle) == "" || strings.TrimSpace(book.BookGenre) == "" {
		return nil, ErrTitleGenreRequired
	}
	if err := s.repo.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *LendingService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	mu := s.lockBook(id)
	defer mu.Unlock()

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBookNotFound
	}
	return err
}

/* =========================
   Lending state machine
   ========================= */

// Borrow: Available --borrow(u)--> Borrowed(u, []).
// Borrow tidak melihat antrean: selama buku available siapa pun boleh pinjam.
func (s *LendingService) Borrow(ctx context.Context, id, userID uuid.UUID) (*model.BookModel, error) {
	mu := s.lockBook(id)
	defer mu.Unlock()

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.BookAvailability {
		return nil, ErrBookNotAvailable
	}

	holder := userID
	book.BookAvailability = false
	book.BookBorrowedBy = &holder
	if err := s.repo.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Return: hanya peminjam yang boleh mengembalikan. Kalau antrean tidak
// kosong, kepala antrean langsung jadi peminjam baru (satu transisi,
// tidak ada state available di tengah). reassigned=true kalau buku
// berpindah tangan ke antrean.
func (s *LendingService) Return(ctx context.Context, id, userID uuid.UUID) (book *model.BookModel, reassigned bool, err error) {
	mu := s.lockBook(id)
	defer mu.Unlock()

	book, err = s.GetBook(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if book.BookBorrowedBy == nil || *book.BookBorrowedBy != userID {
		return nil, false, ErrNotBorrower
	}

	queue := book.ReservationQueue()
	if len(queue) > 0 {
		// FIFO: reservasi paling awal menang
		next := queue[0]
		book.BookBorrowedBy = &next
		book.BookAvailability = false
		book.SetReservationQueue(queue[1:])
		reassigned = true
	} else {
		book.BookBorrowedBy = nil
		book.BookAvailability = true
	}

	if err = s.repo.Save(ctx, book); err != nil {
		return nil, false, err
	}
	return book, reassigned, nil
}

// Reserve: hanya berlaku saat buku sedang dipinjam; duplikat & peminjam
// aktif ditolak supaya holder tidak pernah ada di antrean.
func (s *LendingService) Reserve(ctx context.Context, id, userID uuid.UUID) (*model.BookModel, error) {
	mu := s.lockBook(id)
	defer mu.Unlock()

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.BookAvailability {
		return nil, ErrBookStillAvailable
	}
	if book.BookBorrowedBy != nil && *book.BookBorrowedBy == userID {
		return nil, ErrHolderCannotReserve
	}
	if book.QueueContains(userID) {
		return nil, ErrAlreadyReserved
	}

	book.SetReservationQueue(append(book.ReservationQueue(), userID))
	if err := s.repo.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// CancelReservation menghapus tepat satu entri milik caller, urutan
// relatif sisanya dipertahankan.
func (s *LendingService) CancelReservation(ctx context.Context, id, userID uuid.UUID) error {
	mu := s.lockBook(id)
	defer mu.Unlock()

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return err
	}

	queue := book.ReservationQueue()
	if len(queue) == 0 {
		return ErrNoReservations
	}

	idx := -1
	for i, qid := range queue {
		if qid == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNoReservationForUser
	}

	book.SetReservationQueue(append(queue[:idx], queue[idx+1:]...))
	return s.repo.Save(ctx, book)
}

// ListReservations mengembalikan judul buku + daftar peminat sesuai urutan
// antrean, di-expand ke name+email dari tabel users.
func (s *LendingService) ListReservations(ctx context.Context, id uuid.UUID) (*dto.BookReservationsResponse, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	queue := book.ReservationQueue()
	users, err := s.repo.FindUsersByIDs(ctx, queue)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]dto.ReservationUser, len(users))
	for _, u := range users {
		byID[u.ID] = dto.ReservationUser{ID: u.ID, UserName: u.UserName, Email: u.Email}
	}

	// jaga urutan antrean; user yang sudah terhapus dari tabel users di-skip
	reservations := make([]dto.ReservationUser, 0, len(queue))
	for _, qid := range queue {
		if ru, ok := byID[qid]; ok {
			reservations = append(reservations, ru)
		}
	}

	return &dto.BookReservationsResponse{
		BookTitle:    book.BookTitle,
		Reservations: reservations,
	}, nil
}
