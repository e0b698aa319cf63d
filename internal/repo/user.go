package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/courses/internal/models"
)

type UserRepo struct {
	*Repository[models.User]
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{Repository: NewRepository[models.User](db)}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.FindOneBy(ctx, "email", email)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, "email", email)
}

// FindByEmails loads every user whose email is in the list. Unknown emails are
// simply absent from the result.
func (r *UserRepo) FindByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.DB.WithContext(ctx).Where("email IN ?", emails).Order("email ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LockForUpdate loads the user and holds a row lock on it until the
// surrounding transaction ends. Token issuing for one user is serialized on
// it. SQLite has no row locks and the dialect drops the clause.
func (r *UserRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
