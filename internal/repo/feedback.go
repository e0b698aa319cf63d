package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/models"
)

type FeedbackRepo struct {
	*Repository[models.Feedback]
}

func NewFeedbackRepo(db *gorm.DB) *FeedbackRepo {
	return &FeedbackRepo{Repository: NewRepository[models.Feedback](db)}
}

func (r *FeedbackRepo) FindByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) (*models.Feedback, error) {
	var f models.Feedback
	if err := r.DB.WithContext(ctx).Where("course_id = ? AND student_id = ?", courseID, studentID).First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *FeedbackRepo) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Feedback, error) {
	items := []models.Feedback{}
	if err := r.DB.WithContext(ctx).Where("course_id = ?", courseID).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AverageRating returns the mean rating and the number of ratings for a course.
func (r *FeedbackRepo) AverageRating(ctx context.Context, courseID uuid.UUID) (float64, int64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := r.DB.WithContext(ctx).
		Model(&models.Feedback{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Scan(&row).Error
	return row.Avg, row.Count, err
}
