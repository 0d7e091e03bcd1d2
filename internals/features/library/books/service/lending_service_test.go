package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "perpusku_backend/internals/features/library/books/dto"
	model "perpusku_backend/internals/features/library/books/model"
	"perpusku_backend/internals/features/library/books/repository"
	userModel "perpusku_backend/internals/features/users/user/model"
)

/* =========================
   In-memory repository fake
   ========================= */

type fakeBookRepo struct {
	mu    sync.Mutex
	books map[uuid.UUID]model.BookModel
	users map[uuid.UUID]userModel.UserModel
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{
		books: make(map[uuid.UUID]model.BookModel),
		users: make(map[uuid.UUID]userModel.UserModel),
	}
}

func (r *fakeBookRepo) Create(_ context.Context, book *model.BookModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if book.BookID == uuid.Nil {
		book.BookID = uuid.New()
	}
	r.books[book.BookID] = *book
	return nil
}

func (r *fakeBookRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BookModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	book, ok := r.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := book
	return &copied, nil
}

func (r *fakeBookRepo) FindAll(_ context.Context) ([]model.BookModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.BookModel, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBookRepo) Save(_ context.Context, book *model.BookModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[book.BookID] = *book
	return nil
}

func (r *fakeBookRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *fakeBookRepo) FindUsersByIDs(_ context.Context, ids []uuid.UUID) ([]userModel.UserModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]userModel.UserModel, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

/* =========================
   Helpers
   ========================= */

func newTestService(t *testing.T) (*LendingService, *fakeBookRepo) {
	t.Helper()
	repo := newFakeBookRepo()
	return NewLendingService(repo), repo
}

func createTestBook(t *testing.T, svc *LendingService, author uuid.UUID) *model.BookModel {
	t.Helper()
	book, err := svc.CreateBook(context.Background(), &dto.BookCreateRequest{
		BookTitle: "Laskar Pelangi",
		BookGenre: "Novel",
	}, author, "Penulis")
	require.NoError(t, err)
	return book
}

// invariant inti: available ⟺ tidak ada peminjam; holder tidak ada di antrean
func assertBookInvariant(t *testing.T, svc *LendingService, id uuid.UUID) {
	t.Helper()
	book, err := svc.GetBook(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, book.BookBorrowedBy == nil, book.BookAvailability,
		"availability harus sinkron dengan borrowed_by")
	if book.BookBorrowedBy != nil {
		assert.False(t, book.QueueContains(*book.BookBorrowedBy),
			"peminjam aktif tidak boleh ada di antrean")
	}
}

/* =========================
   Catalog
   ========================= */

func TestCreateBook(t *testing.T) {
	svc, _ := newTestService(t)
	author := uuid.New()

	book, err := svc.CreateBook(context.Background(), &dto.BookCreateRequest{
		BookTitle: "  Bumi Manusia ",
		BookGenre: " Sejarah ",
	}, author, "Pram")
	require.NoError(t, err)

	assert.Equal(t, "Bumi Manusia", book.BookTitle)
	assert.Equal(t, "Sejarah", book.BookGenre)
	assert.Equal(t, author, book.BookAuthorID)
	assert.Equal(t, "Pram", book.BookAuthorName)
	assert.True(t, book.BookAvailability)
	assert.Nil(t, book.BookBorrowedBy)
	assert.Empty(t, book.ReservationQueue())
	assertBookInvariant(t, svc, book.BookID)
}

func TestCreateBookRequiresTitleAndGenre(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateBook(context.Background(), &dto.BookCreateRequest{BookGenre: "Novel"}, uuid.New(), "A")
	assert.ErrorIs(t, err, ErrTitleGenreRequired)

	_, err = svc.CreateBook(context.Background(), &dto.BookCreateRequest{BookTitle: "Judul"}, uuid.New(), "A")
	assert.ErrorIs(t, err, ErrTitleGenreRequired)

	// whitespace saja tetap dianggap kosong
	_, err = svc.CreateBook(context.Background(), &dto.BookCreateRequest{BookTitle: "   ", BookGenre: "Novel"}, uuid.New(), "A")
	assert.ErrorIs(t, err, ErrTitleGenreRequired)
}

func TestGetBookNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetBook(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestUpdateBookOnlyTitleGenre(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	// pinjam dulu supaya kelihatan update tidak menyentuh status workflow
	borrower := uuid.New()
	_, err := svc.Borrow(context.Background(), book.BookID, borrower)
	require.NoError(t, err)

	newTitle := "Judul Baru"
	updated, err := svc.UpdateBook(context.Background(), book.BookID, &dto.BookUpdateRequest{BookTitle: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "Judul Baru", updated.BookTitle)
	assert.Equal(t, "Novel", updated.BookGenre)
	assert.False(t, updated.BookAvailability)
	require.NotNil(t, updated.BookBorrowedBy)
	assert.Equal(t, borrower, *updated.BookBorrowedBy)
	assertBookInvariant(t, svc, book.BookID)
}

func TestUpdateBookNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	title := "X"
	_, err := svc.UpdateBook(context.Background(), uuid.New(), &dto.BookUpdateRequest{BookTitle: &title})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestDeleteBookNotFound(t *testing.T) {
	svc, repo := newTestService(t)
	err := svc.DeleteBook(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.Empty(t, repo.books, "tidak boleh ada side effect")
}

func TestDeleteBook(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	require.NoError(t, svc.DeleteBook(context.Background(), book.BookID))
	_, err := svc.GetBook(context.Background(), book.BookID)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

/* =========================
   Borrow / Return
   ========================= */

func TestBorrow(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())
	borrower := uuid.New()

	got, err := svc.Borrow(context.Background(), book.BookID, borrower)
	require.NoError(t, err)
	assert.False(t, got.BookAvailability)
	require.NotNil(t, got.BookBorrowedBy)
	assert.Equal(t, borrower, *got.BookBorrowedBy)
	assertBookInvariant(t, svc, book.BookID)
}

func TestBorrowUnavailableConflictLeavesStateUnchanged(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())
	first := uuid.New()

	_, err := svc.Borrow(context.Background(), book.BookID, first)
	require.NoError(t, err)

	_, err = svc.Borrow(context.Background(), book.BookID, uuid.New())
	assert.ErrorIs(t, err, ErrBookNotAvailable)

	got, err := svc.GetBook(context.Background(), book.BookID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.BookBorrowedBy, "peminjam pertama tidak boleh tergeser")
	assertBookInvariant(t, svc, book.BookID)
}

func TestBorrowNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Borrow(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestReturnByNonBorrowerForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())
	borrower := uuid.New()

	_, err := svc.Borrow(context.Background(), book.BookID, borrower)
	require.NoError(t, err)

	_, _, err = svc.Return(context.Background(), book.BookID, uuid.New())
	assert.ErrorIs(t, err, ErrNotBorrower)

	got, err := svc.GetBook(context.Background(), book.BookID)
	require.NoError(t, err)
	assert.Equal(t, borrower, *got.BookBorrowedBy)
	assert.False(t, got.BookAvailability)
}

func TestReturnWithEmptyQueue(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())
	borrower := uuid.New()

	_, err := svc.Borrow(context.Background(), book.BookID, borrower)
	require.NoError(t, err)

	got, reassigned, err := svc.Return(context.Background(), book.BookID, borrower)
	require.NoError(t, err)
	assert.False(t, reassigned)
	assert.True(t, got.BookAvailability)
	assert.Nil(t, got.BookBorrowedBy)
	assertBookInvariant(t, svc, book.BookID)
}

/* =========================
   Reserve / Cancel
   ========================= */

func TestReserveAvailableBookConflict(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	_, err := svc.Reserve(context.Background(), book.BookID, uuid.New())
	assert.ErrorIs(t, err, ErrBookStillAvailable)

	got, err := svc.GetBook(context.Background(), book.BookID)
	require.NoError(t, err)
	assert.Empty(t, got.ReservationQueue())
}

func TestReserveDuplicateConflict(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())
	reserver := uuid.New()

	_, err := svc.Borrow(context.Background(), book.BookID, uuid.New())
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), book.BookID, reserver)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), book.BookID, reserver)
	assert.ErrorIs(t, err, ErrAlreadyReserved)

	got, err := svc.GetBook(context.Background(), book.BookID)
	require.NoError(t, err)
	assert.Len(t, got.ReservationQueue(), 1, "antrean tidak boleh bertambah")
}

func TestReserveByCurrentHolderConflict(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())
	borrower := uuid.New()

	_, err := svc.Borrow(context.Background(), book.BookID, borrower)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), book.BookID, borrower)
	assert.ErrorIs(t, err, ErrHolderCannotReserve)
}

func TestFIFOHandOffAcrossReturns(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	x := uuid.New()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	_, err := svc.Borrow(context.Background(), book.BookID, x)
	require.NoError(t, err)

	for _, u := range []uuid.UUID{u1, u2, u3} {
		_, err = svc.Reserve(context.Background(), book.BookID, u)
		require.NoError(t, err)
	}

	// kembalikan berantai: buku harus jatuh ke u1, lalu u2, lalu u3
	current := x
	for _, want := range []uuid.UUID{u1, u2, u3} {
		got, reassigned, err := svc.Return(context.Background(), book.BookID, current)
		require.NoError(t, err)
		assert.True(t, reassigned)
		require.NotNil(t, got.BookBorrowedBy)
		assert.Equal(t, want, *got.BookBorrowedBy)
		assert.False(t, got.BookAvailability)
		assertBookInvariant(t, svc, book.BookID)
		current = want
	}

	// antrean habis → return terakhir membuat buku available
	got, reassigned, err := svc.Return(context.Background(), book.BookID, current)
	require.NoError(t, err)
	assert.False(t, reassigned)
	assert.True(t, got.BookAvailability)
	assert.Nil(t, got.BookBorrowedBy)
	assert.Empty(t, got.ReservationQueue())
}

func TestCancelReservationKeepsRelativeOrder(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	_, err := svc.Borrow(context.Background(), book.BookID, uuid.New())
	require.NoError(t, err)

	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	for _, u := range []uuid.UUID{u1, u2, u3} {
		_, err = svc.Reserve(context.Background(), book.BookID, u)
		require.NoError(t, err)
	}

	require.NoError(t, svc.CancelReservation(context.Background(), book.BookID, u2))

	got, err := svc.GetBook(context.Background(), book.BookID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u1, u3}, got.ReservationQueue())
}

func TestCancelReservationErrors(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	// buku belum pernah direservasi
	err := svc.CancelReservation(context.Background(), book.BookID, uuid.New())
	assert.ErrorIs(t, err, ErrNoReservations)

	_, err = svc.Borrow(context.Background(), book.BookID, uuid.New())
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), book.BookID, uuid.New())
	require.NoError(t, err)

	// caller tidak ada di antrean
	err = svc.CancelReservation(context.Background(), book.BookID, uuid.New())
	assert.ErrorIs(t, err, ErrNoReservationForUser)

	// buku tidak ada
	err = svc.CancelReservation(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestListReservationsExpandsUsersInQueueOrder(t *testing.T) {
	svc, repo := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	_, err := svc.Borrow(context.Background(), book.BookID, uuid.New())
	require.NoError(t, err)

	u1 := userModel.UserModel{ID: uuid.New(), UserName: "budi", Email: "budi@mail.com"}
	u2 := userModel.UserModel{ID: uuid.New(), UserName: "sari", Email: "sari@mail.com"}
	repo.users[u1.ID] = u1
	repo.users[u2.ID] = u2

	for _, u := range []uuid.UUID{u1.ID, u2.ID} {
		_, err = svc.Reserve(context.Background(), book.BookID, u)
		require.NoError(t, err)
	}

	resp, err := svc.ListReservations(context.Background(), book.BookID)
	require.NoError(t, err)
	assert.Equal(t, "Laskar Pelangi", resp.BookTitle)
	require.Len(t, resp.Reservations, 2)
	assert.Equal(t, "budi", resp.Reservations[0].UserName)
	assert.Equal(t, "budi@mail.com", resp.Reservations[0].Email)
	assert.Equal(t, "sari", resp.Reservations[1].UserName)
}

func TestListReservationsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ListReservations(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBookNotFound)
}

/* =========================
   Scenario & concurrency
   ========================= */

// Skenario lengkap: A buat buku, X pinjam, Y reservasi, X kembalikan
// (buku jatuh ke Y), Z coba pinjam → konflik.
func TestLendingScenario(t *testing.T) {
	svc, _ := newTestService(t)
	a, x, y, z := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	book, err := svc.CreateBook(context.Background(), &dto.BookCreateRequest{
		BookTitle: "T",
		BookGenre: "G",
	}, a, "User A")
	require.NoError(t, err)
	assert.True(t, book.BookAvailability)

	got, err := svc.Borrow(context.Background(), book.BookID, x)
	require.NoError(t, err)
	assert.Equal(t, x, *got.BookBorrowedBy)

	got, err = svc.Reserve(context.Background(), book.BookID, y)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{y}, got.ReservationQueue())

	got, reassigned, err := svc.Return(context.Background(), book.BookID, x)
	require.NoError(t, err)
	assert.True(t, reassigned)
	assert.Equal(t, y, *got.BookBorrowedBy)
	assert.False(t, got.BookAvailability)
	assert.Empty(t, got.ReservationQueue())

	_, err = svc.Borrow(context.Background(), book.BookID, z)
	assert.ErrorIs(t, err, ErrBookNotAvailable)
	assertBookInvariant(t, svc, book.BookID)
}

// Dua borrow bersamaan pada buku yang sama: tepat satu yang menang.
func TestConcurrentBorrowOnlyOneWinner(t *testing.T) {
	svc, _ := newTestService(t)
	book := createTestBook(t, svc, uuid.New())

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Borrow(context.Background(), book.BookID, uuid.New())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrBookNotAvailable)
		}
	}
	assert.Equal(t, 1, winners, "hanya satu borrow yang boleh berhasil")
	assertBookInvariant(t, svc, book.BookID)
}
