package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/pkg/events"
	"github.com/Skotchmaster/courses/pkg/logging"
)

type HomeworkService struct {
	Store  *repo.Store
	Events events.Publisher
}

// Submit stores the student's answer for a lesson. Submitting again replaces
// the answer and clears any previous mark.
func (s *HomeworkService) Submit(ctx context.Context, p Principal, lessonID uuid.UUID, answer string) (*models.Homework, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, validationf("answer is required")
	}

	lesson, err := s.Store.Lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, fromRepo("lesson", err)
	}
	if err := isEnrolledStudent(ctx, s.Store, p, lesson.CourseID); err != nil {
		return nil, err
	}

	var hw *models.Homework
	err = s.Store.InTx(ctx, func(tx *repo.Store) error {
		now := time.Now().UTC()
		existing, err := tx.Homework.FindByLessonAndStudent(ctx, lessonID, p.UserID)
		switch {
		case err == nil:
			existing.Answer = answer
			existing.SubmittedAt = now
			existing.Mark = nil
			existing.GradedBy = nil
			existing.GradedAt = nil
			hw = existing
			return fromRepo("homework", tx.Homework.Update(ctx, existing))
		case errors.Is(err, repo.ErrNotFound):
			hw = &models.Homework{LessonID: lessonID, StudentID: p.UserID, Answer: answer, SubmittedAt: now}
			return fromRepo("homework", tx.Homework.Create(ctx, hw))
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type:     "homework_submitted",
		UserID:   p.UserID.String(),
		CourseID: lesson.CourseID.String(),
		Payload:  map[string]any{"lesson_id": lessonID.String(), "homework_id": hw.ID.String()},
	})
	return hw, nil
}

// ListByLesson returns every submission to course staff and only the
// caller's own submission to an enrolled student.
func (s *HomeworkService) ListByLesson(ctx context.Context, p Principal, lessonID uuid.UUID) ([]models.Homework, error) {
	lesson, err := s.Store.Lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, fromRepo("lesson", err)
	}
	if err := canManageCourse(ctx, s.Store, p, lesson.CourseID); err == nil {
		return s.Store.Homework.ListByLesson(ctx, lessonID)
	} else if !errors.Is(err, ErrForbidden) {
		return nil, err
	}

	if err := isEnrolledStudent(ctx, s.Store, p, lesson.CourseID); err != nil {
		return nil, err
	}
	own, err := s.Store.Homework.FindByLessonAndStudent(ctx, lessonID, p.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return []models.Homework{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []models.Homework{*own}, nil
}

// Grade sets the mark. Only the course's instructors or an admin may grade,
// and the mark must lie within 0..lesson.MaxMark.
func (s *HomeworkService) Grade(ctx context.Context, p Principal, homeworkID uuid.UUID, mark int) (*models.Homework, error) {
	l := logging.FromContext(ctx).With("svc", "homework.grade", "homework_id", homeworkID)

	hw, err := s.Store.Homework.FindByID(ctx, homeworkID)
	if err != nil {
		return nil, fromRepo("homework", err)
	}
	lesson, err := s.Store.Lessons.FindByID(ctx, hw.LessonID)
	if err != nil {
		return nil, fromRepo("lesson", err)
	}
	if err := canManageCourse(ctx, s.Store, p, lesson.CourseID); err != nil {
		return nil, err
	}
	if mark < 0 || mark > lesson.MaxMark {
		return nil, validationf("mark must be between 0 and %d", lesson.MaxMark)
	}

	now := time.Now().UTC()
	grader := p.UserID
	hw.Mark = &mark
	hw.GradedBy = &grader
	hw.GradedAt = &now
	if err := s.Store.Homework.Update(ctx, hw); err != nil {
		return nil, fromRepo("homework", err)
	}

	publish(ctx, s.Events, events.Event{
		Type:     "homework_graded",
		UserID:   hw.StudentID.String(),
		CourseID: lesson.CourseID.String(),
		Payload:  map[string]any{"homework_id": hw.ID.String(), "mark": mark, "max_mark": lesson.MaxMark},
	})
	l.Info("grade_success", "mark", mark)
	return hw, nil
}
