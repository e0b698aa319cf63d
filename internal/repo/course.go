package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/models"
)

type CourseRepo struct {
	*Repository[models.Course]
}

func NewCourseRepo(db *gorm.DB) *CourseRepo {
	return &CourseRepo{Repository: NewRepository[models.Course](db)}
}

func (r *CourseRepo) FindByTitle(ctx context.Context, title string) (*models.Course, error) {
	return r.FindOneBy(ctx, "title", title)
}

func (r *CourseRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	return r.Exists(ctx, "title", title)
}

// FindByIDs keeps the order of ids, skipping ids that no longer exist.
func (r *CourseRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	var found []models.Course
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]models.Course, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search is the plain SQL match used when no search index is configured.
func (r *CourseRepo) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Course, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
	where := `LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Course{}).Where(where, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Course, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Course{}).
		Where(where, pattern, pattern).
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// DeleteWithChildren removes the course with its lessons, homework,
// enrollments and feedback.
func (r *CourseRepo) DeleteWithChildren(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.Homework{}).Error; err != nil {
			return err
		}
		for _, child := range []any{&models.Lesson{}, &models.Enrollment{}, &models.Feedback{}} {
			if err := tx.Where("course_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Course{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
