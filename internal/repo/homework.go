package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/models"
)

type HomeworkRepo struct {
	*Repository[models.Homework]
}

func NewHomeworkRepo(db *gorm.DB) *HomeworkRepo {
	return &HomeworkRepo{Repository: NewRepository[models.Homework](db)}
}

func (r *HomeworkRepo) FindByLessonAndStudent(ctx context.Context, lessonID, studentID uuid.UUID) (*models.Homework, error) {
	var h models.Homework
	if err := r.DB.WithContext(ctx).Where("lesson_id = ? AND student_id = ?", lessonID, studentID).First(&h).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (r *HomeworkRepo) ListByLesson(ctx context.Context, lessonID uuid.UUID) ([]models.Homework, error) {
	items := []models.Homework{}
	if err := r.DB.WithContext(ctx).Where("lesson_id = ?", lessonID).Order("submitted_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
