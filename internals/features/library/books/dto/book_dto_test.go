package dto

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "perpusku_backend/internals/features/library/books/model"
)

func TestBookCreateRequestNormalize(t *testing.T) {
	req := BookCreateRequest{BookTitle: "  Bumi Manusia ", BookGenre: "\tSejarah\n"}
	req.Normalize()
	assert.Equal(t, "Bumi Manusia", req.BookTitle)
	assert.Equal(t, "Sejarah", req.BookGenre)
}

func TestBookUpdateRequestNormalizeDropsBlankFields(t *testing.T) {
	title := "  Judul Baru "
	blank := "   "
	req := BookUpdateRequest{BookTitle: &title, BookGenre: &blank}
	req.Normalize()

	require.NotNil(t, req.BookTitle)
	assert.Equal(t, "Judul Baru", *req.BookTitle)
	assert.Nil(t, req.BookGenre, "field whitespace-only dianggap tidak dikirim")
}

func TestBookCreateRequestToModel(t *testing.T) {
	author := uuid.New()
	req := BookCreateRequest{BookTitle: "Judul", BookGenre: "Novel"}

	m := req.ToModel(author, "Penulis")
	assert.Equal(t, "Judul", m.BookTitle)
	assert.Equal(t, author, m.BookAuthorID)
	assert.Equal(t, "Penulis", m.BookAuthorName)
	assert.True(t, m.BookAvailability)
	assert.Nil(t, m.BookBorrowedBy)
	assert.JSONEq(t, "[]", string(m.BookReservationQueue))
}

func TestBookUpdateRequestApplyToModel(t *testing.T) {
	m := &model.BookModel{BookTitle: "Lama", BookGenre: "Novel"}
	title := "Baru"

	(&BookUpdateRequest{BookTitle: &title}).ApplyToModel(m)
	assert.Equal(t, "Baru", m.BookTitle)
	assert.Equal(t, "Novel", m.BookGenre, "field nil tidak boleh menimpa")
}

func TestToBookResponseQueueNeverNil(t *testing.T) {
	m := &model.BookModel{BookID: uuid.New(), BookTitle: "T", BookGenre: "G"}

	resp := ToBookResponse(m)
	require.NotNil(t, resp.BookReservationQueue)
	assert.Empty(t, resp.BookReservationQueue)

	u := uuid.New()
	m.SetReservationQueue([]uuid.UUID{u})
	resp = ToBookResponse(m)
	assert.Equal(t, []uuid.UUID{u}, resp.BookReservationQueue)
}
