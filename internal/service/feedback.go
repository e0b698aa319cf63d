package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/events"
)

const (
	minRating = 1
	maxRating = 5
)

type FeedbackService struct {
	Store  *repo.Store
	Events events.Publisher
}

// Submit records the student's rating of a course, replacing an earlier one.
func (s *FeedbackService) Submit(ctx context.Context, p Principal, courseID uuid.UUID, req transport.FeedbackRequest) (*models.Feedback, error) {
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, validationf("rating must be between %d and %d", minRating, maxRating)
	}
	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		return nil, fromRepo("course", err)
	}
	if err := isEnrolledStudent(ctx, s.Store, p, courseID); err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(req.Comment)
	var fb *models.Feedback
	err := s.Store.InTx(ctx, func(tx *repo.Store) error {
		existing, err := tx.Feedback.FindByCourseAndStudent(ctx, courseID, p.UserID)
		switch {
		case err == nil:
			existing.Rating = req.Rating
			existing.Comment = comment
			fb = existing
			return fromRepo("feedback", tx.Feedback.Update(ctx, existing))
		case errors.Is(err, repo.ErrNotFound):
			fb = &models.Feedback{CourseID: courseID, StudentID: p.UserID, Rating: req.Rating, Comment: comment}
			return fromRepo("feedback", tx.Feedback.Create(ctx, fb))
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type:     "feedback_submitted",
		UserID:   p.UserID.String(),
		CourseID: courseID.String(),
		Payload:  map[string]any{"rating": req.Rating},
	})
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context, courseID uuid.UUID) (*transport.FeedbackSummary, error) {
	if _, err := s.Store.Courses.FindByID(ctx, courseID); err != nil {
		return nil, fromRepo("course", err)
	}
	items, err := s.Store.Feedback.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.Store.Feedback.AverageRating(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &transport.FeedbackSummary{Average: avg, Count: count, Items: items}, nil
}
