package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/testdb"
)

func newUser(t *testing.T, s *Store, email string, role models.Role) *models.User {
	t.Helper()

	u := &models.User{Email: email, PasswordHash: "x", FirstName: "F", LastName: "L", Role: role}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func TestRepository_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))

	c := &models.Course{Title: "Go basics", Description: "intro", Tags: []string{"go", "backend"}}
	require.NoError(t, s.Courses.Create(ctx, c))
	require.NotEqual(t, uuid.Nil, c.ID)

	got, err := s.Courses.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go basics", got.Title)
	assert.Equal(t, []string{"go", "backend"}, []string(got.Tags))

	got.Description = "updated"
	require.NoError(t, s.Courses.Update(ctx, got))

	byTitle, err := s.Courses.FindByTitle(ctx, "Go basics")
	require.NoError(t, err)
	assert.Equal(t, "updated", byTitle.Description)

	ok, err := s.Courses.ExistsByTitle(ctx, "Go basics")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Courses.Delete(ctx, c.ID))
	_, err = s.Courses.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Courses.Delete(ctx, c.ID), ErrNotFound)
}

func TestRepository_Duplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))

	newUser(t, s, "a@x.com", models.RoleStudent)
	err := s.Users.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "x", FirstName: "A", LastName: "B", Role: models.RoleStudent})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRepository_FindAllPaginates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Courses.Create(ctx, &models.Course{Title: title}))
	}

	total, page, err := s.Courses.FindAll(ctx, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)

	_, last, err := s.Courses.FindAll(ctx, 4, 2)
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

func TestUserRepo_Lookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))

	jane := newUser(t, s, "jane@x.com", models.RoleStudent)
	newUser(t, s, "john@x.com", models.RoleInstructor)

	u, err := s.Users.FindByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, jane.ID, u.ID)

	_, err = s.Users.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := s.Users.FindByEmails(ctx, []string{"john@x.com", "jane@x.com", "ghost@x.com"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "jane@x.com", users[0].Email)
	assert.Equal(t, "john@x.com", users[1].Email)

	require.NoError(t, s.Users.UpdateRole(ctx, jane.ID, models.RoleInstructor))
	u, err = s.Users.FindByID(ctx, jane.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, u.Role)

	assert.ErrorIs(t, s.Users.UpdateRole(ctx, uuid.New(), models.RoleAdmin), ErrNotFound)

	err = s.InTx(ctx, func(tx *Store) error {
		locked, err := tx.Users.LockForUpdate(ctx, jane.ID)
		require.NoError(t, err)
		assert.Equal(t, "jane@x.com", locked.Email)
		assert.Equal(t, models.RoleInstructor, locked.Role)

		_, err = tx.Users.LockForUpdate(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestCourseRepo_SearchAndFindByIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))

	goCourse := &models.Course{Title: "Concurrency in Go", Description: "goroutines and channels"}
	sqlCourse := &models.Course{Title: "Databases", Description: "SQL for Go developers"}
	art := &models.Course{Title: "Painting", Description: "oil"}
	for _, c := range []*models.Course{goCourse, sqlCourse, art} {
		require.NoError(t, s.Courses.Create(ctx, c))
	}

	total, items, err := s.Courses.Search(ctx, "GO", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Concurrency in Go", items[0].Title)

	for _, q := range []string{"%", "_", `\`} {
		total, items, err = s.Courses.Search(ctx, q, 0, 10)
		require.NoError(t, err)
		assert.Zero(t, total, q)
		assert.Empty(t, items, q)
	}

	pct := &models.Course{Title: "100% Go", Description: "snake_case names"}
	require.NoError(t, s.Courses.Create(ctx, pct))
	total, items, err = s.Courses.Search(ctx, "0%", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, pct.ID, items[0].ID)
	total, _, err = s.Courses.Search(ctx, "e_c", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	ordered, err := s.Courses.FindByIDs(ctx, []uuid.UUID{art.ID, uuid.New(), goCourse.ID})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, art.ID, ordered[0].ID)
	assert.Equal(t, goCourse.ID, ordered[1].ID)
}

func TestEnrollmentRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))

	course := &models.Course{Title: "Go"}
	require.NoError(t, s.Courses.Create(ctx, course))
	instructor := newUser(t, s, "t@x.com", models.RoleInstructor)
	student := newUser(t, s, "s@x.com", models.RoleStudent)

	has, err := s.Enrollments.HasInstructor(ctx, course.ID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.Enrollments.CreateMany(ctx, []models.Enrollment{
		{CourseID: course.ID, UserID: instructor.ID, Role: models.RoleInstructor},
		{CourseID: course.ID, UserID: student.ID, Role: models.RoleStudent},
	}))
	// re-enrolling is a no-op
	require.NoError(t, s.Enrollments.CreateMany(ctx, []models.Enrollment{
		{CourseID: course.ID, UserID: student.ID, Role: models.RoleStudent},
	}))

	list, err := s.Enrollments.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].User)

	has, err = s.Enrollments.HasInstructor(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, has)

	ok, err := s.Enrollments.HasRole(ctx, course.ID, student.ID, models.RoleStudent)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Enrollments.HasRole(ctx, course.ID, student.ID, models.RoleInstructor)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Enrollments.Remove(ctx, course.ID, student.ID))
	assert.ErrorIs(t, s.Enrollments.Remove(ctx, course.ID, student.ID), ErrNotFound)
}

func TestFeedbackRepo_AverageRating(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))

	course := &models.Course{Title: "Go"}
	require.NoError(t, s.Courses.Create(ctx, course))

	avg, n, err := s.Feedback.AverageRating(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, n)

	a := newUser(t, s, "a@x.com", models.RoleStudent)
	b := newUser(t, s, "b@x.com", models.RoleStudent)
	require.NoError(t, s.Feedback.Create(ctx, &models.Feedback{CourseID: course.ID, StudentID: a.ID, Rating: 4}))
	require.NoError(t, s.Feedback.Create(ctx, &models.Feedback{CourseID: course.ID, StudentID: b.ID, Rating: 5}))

	avg, n, err = s.Feedback.AverageRating(ctx, course.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 0.001)
	assert.EqualValues(t, 2, n)
}

func TestStore_InTxRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore(testdb.Open(t))
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Store) error {
		if err := tx.Courses.Create(ctx, &models.Course{Title: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ok, err := s.Courses.ExistsByTitle(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
