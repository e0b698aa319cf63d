package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/models"
)

type LessonRepo struct {
	*Repository[models.Lesson]
}

func NewLessonRepo(db *gorm.DB) *LessonRepo {
	return &LessonRepo{Repository: NewRepository[models.Lesson](db)}
}

func (r *LessonRepo) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error) {
	items := []models.Lesson{}
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("date ASC").
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *LessonRepo) DeleteWithHomework(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.Homework{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Lesson{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
