package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/courses/internal/models"
)

type EnrollmentRepo struct {
	*Repository[models.Enrollment]
}

func NewEnrollmentRepo(db *gorm.DB) *EnrollmentRepo {
	return &EnrollmentRepo{Repository: NewRepository[models.Enrollment](db)}
}

func (r *EnrollmentRepo) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Enrollment, error) {
	items := []models.Enrollment{}
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EnrollmentRepo) Find(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := r.DB.WithContext(ctx).Where("course_id = ? AND user_id = ?", courseID, userID).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *EnrollmentRepo) HasRole(ctx context.Context, courseID, userID uuid.UUID, role models.Role) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND user_id = ? AND role = ?", courseID, userID, role).
		Count(&count).Error
	return count > 0, err
}

func (r *EnrollmentRepo) HasInstructor(ctx context.Context, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND role = ?", courseID, models.RoleInstructor).
		Count(&count).Error
	return count > 0, err
}

// CreateMany inserts the enrollments, leaving existing (course, user) pairs untouched.
func (r *EnrollmentRepo) CreateMany(ctx context.Context, items []models.Enrollment) error {
	if len(items) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&items).Error
	return translate(err)
}

func (r *EnrollmentRepo) Remove(ctx context.Context, courseID, userID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("course_id = ? AND user_id = ?", courseID, userID).Delete(&models.Enrollment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
