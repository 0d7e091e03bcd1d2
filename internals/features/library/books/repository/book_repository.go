// internals/features/library/books/repository/book_repository.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "perpusku_backend/internals/features/library/books/model"
	userModel "perpusku_backend/internals/features/users/user/model"
)

// ErrNotFound dikembalikan semua implementasi kalau record tidak ada,
// supaya service tidak perlu tahu soal gorm.
var ErrNotFound = errors.New("record not found")

// BookRepository mengabstraksi penyimpanan buku. Service hanya bicara
// lewat interface ini (implementasi gorm di bawah, fake in-memory di test).
type BookRepository interface {
	Create(ctx context.Context, book *model.BookModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BookModel, error)
	FindAll(ctx context.Context) ([]model.BookModel, error)
	Save(ctx context.Context, book *model.BookModel) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]userModel.UserModel, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *model.BookModel) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.BookModel, error) {
	var book model.BookModel
	if err := r.db.WithContext(ctx).First(&book, "book_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) FindAll(ctx context.Context) ([]model.BookModel, error) {
	var books []model.BookModel
	if err := r.db.WithContext(ctx).
		Order("book_created_at DESC").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) Save(ctx context.Context, book *model.BookModel) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.BookModel{}, "book_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookRepository) FindUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]userModel.UserModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []userModel.UserModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
