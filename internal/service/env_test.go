package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/internal/testdb"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/events"
	"github.com/Skotchmaster/courses/pkg/metrics"
	"github.com/Skotchmaster/courses/pkg/tokens"
)

type testEnv struct {
	Store      *repo.Store
	Events     *events.Recorder
	Auth       *AuthService
	Users      *UserService
	Courses    *CourseService
	Lessons    *LessonService
	Enrollment *EnrollmentService
	Homework   *HomeworkService
	Feedback   *FeedbackService
}

func newTestIssuer() *tokens.Issuer {
	return tokens.NewIssuer(tokens.Config{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	return newEnvOn(testdb.Open(t))
}

// newPostgresEnv runs against COURSES_TEST_DATABASE_URL and skips without it.
// Tests using it share the database and must not run in parallel.
func newPostgresEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testdb.OpenPostgres(t)
	t.Cleanup(func() { testdb.ClearDB(t, gdb) })
	return newEnvOn(gdb)
}

func newEnvOn(gdb *gorm.DB) *testEnv {
	store := repo.NewStore(gdb)
	rec := &events.Recorder{}
	return &testEnv{
		Store:      store,
		Events:     rec,
		Auth:       &AuthService{Store: store, Issuer: newTestIssuer(), Events: rec, Metrics: metrics.NewAuth()},
		Users:      &UserService{Store: store, Events: rec},
		Courses:    &CourseService{Store: store, Events: rec},
		Lessons:    &LessonService{Store: store, Events: rec},
		Enrollment: &EnrollmentService{Store: store, Events: rec},
		Homework:   &HomeworkService{Store: store, Events: rec},
		Feedback:   &FeedbackService{Store: store, Events: rec},
	}
}

// register creates a user and returns the principal its access token resolves to.
func (env *testEnv) register(t *testing.T, email string, role models.Role) Principal {
	t.Helper()

	ctx := context.Background()
	pair, err := env.Auth.Register(ctx, transport.RegisterRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "pw123",
		Role:      string(role),
	})
	require.NoError(t, err)

	p, err := env.Auth.ValidateAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	return *p
}

func (env *testEnv) admin(t *testing.T) Principal {
	t.Helper()

	require.NoError(t, env.Auth.BootstrapAdmin(context.Background(), "admin@x.com", "admin-pw"))
	u, err := env.Store.Users.FindByEmail(context.Background(), "admin@x.com")
	require.NoError(t, err)
	return Principal{UserID: u.ID, Email: u.Email, Role: models.RoleAdmin}
}

func (env *testEnv) validTokens(t *testing.T, userID uuid.UUID) []models.Token {
	t.Helper()

	items, err := env.Store.Tokens.FindAllValidTokensForUser(context.Background(), userID)
	require.NoError(t, err)
	return items
}

func (env *testEnv) tokenCount(t *testing.T) int64 {
	t.Helper()

	var n int64
	require.NoError(t, env.Store.DB().Model(&models.Token{}).Count(&n).Error)
	return n
}
