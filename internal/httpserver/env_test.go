package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/repo"
	"github.com/Skotchmaster/courses/internal/service"
	"github.com/Skotchmaster/courses/internal/testdb"
	"github.com/Skotchmaster/courses/internal/transport"
	"github.com/Skotchmaster/courses/pkg/events"
	"github.com/Skotchmaster/courses/pkg/metrics"
	"github.com/Skotchmaster/courses/pkg/tokens"
)

type testServer struct {
	E      *echo.Echo
	DB     *gorm.DB
	Auth   *service.AuthService
	Events *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb := testdb.Open(t)
	store := repo.NewStore(gdb)
	rec := &events.Recorder{}
	m := metrics.NewAuth()
	auth := &service.AuthService{
		Store: store,
		Issuer: tokens.NewIssuer(tokens.Config{
			AccessSecret:  []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		}),
		Events:  rec,
		Metrics: m,
	}

	e := echo.New()
	Register(e, &Deps{
		DB:          gdb,
		Metrics:     m,
		Auth:        &AuthHTTP{Svc: auth},
		Users:       &UserHTTP{Svc: &service.UserService{Store: store, Events: rec}},
		Courses:     &CourseHTTP{Svc: &service.CourseService{Store: store, Events: rec}},
		Lessons:     &LessonHTTP{Svc: &service.LessonService{Store: store, Events: rec}},
		Enrollments: &EnrollmentHTTP{Svc: &service.EnrollmentService{Store: store, Events: rec}},
		Homework:    &HomeworkHTTP{Svc: &service.HomeworkService{Store: store, Events: rec}},
		Feedback:    &FeedbackHTTP{Svc: &service.FeedbackService{Store: store, Events: rec}},
	})
	return &testServer{E: e, DB: gdb, Auth: auth, Events: rec}
}

type reqOpt func(*http.Request)

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func withCookie(name, value string) reqOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	s.E.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email, role string) transport.AuthenticationResponse {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", transport.RegisterRequest{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "pw123",
		Role:      role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[transport.AuthenticationResponse](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cookieValue(rec *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
