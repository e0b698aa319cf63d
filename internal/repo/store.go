package repo

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the per-entity repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Users       *UserRepo
	Tokens      TokenStore
	Courses     *CourseRepo
	Lessons     *LessonRepo
	Enrollments *EnrollmentRepo
	Homework    *HomeworkRepo
	Feedback    *FeedbackRepo
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepo(db),
		Tokens:      NewTokenRepo(db),
		Courses:     NewCourseRepo(db),
		Lessons:     NewLessonRepo(db),
		Enrollments: NewEnrollmentRepo(db),
		Homework:    NewHomeworkRepo(db),
		Feedback:    NewFeedbackRepo(db),
	}
}

// InTx runs fn against a Store bound to a single transaction. Any error rolls
// the whole unit back. Code inside fn must only use tx, never the outer Store.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB { return s.db }
