package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidEntity = errors.New("invalid entity")
)

// Repository is the CRUD surface shared by every entity table.
type Repository[T any] struct {
	DB *gorm.DB
}

func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{DB: db}
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.DB.WithContext(ctx).Create(entity).Error)
}

func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	return translate(r.DB.WithContext(ctx).Save(entity).Error)
}

func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.DB.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (r *Repository[T]) FindAll(ctx context.Context, offset, limit int) (int64, []T, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(new(T)).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]T, 0, limit)
	if err := r.DB.WithContext(ctx).Model(new(T)).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// FindBy returns every row whose column equals value.
func (r *Repository[T]) FindBy(ctx context.Context, column string, value any) ([]T, error) {
	var items []T
	if err := r.DB.WithContext(ctx).Where(eq(column, value)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository[T]) FindOneBy(ctx context.Context, column string, value any) (*T, error) {
	var entity T
	if err := r.DB.WithContext(ctx).Where(eq(column, value)).First(&entity).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (r *Repository[T]) Exists(ctx context.Context, column string, value any) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(new(T)).Where(eq(column, value)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func eq(column string, value any) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: column}, Value: value}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
