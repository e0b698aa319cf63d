package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/courses/internal/middleware"
	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/pkg/db"
	"github.com/Skotchmaster/courses/pkg/metrics"
)

type Deps struct {
	DB      *gorm.DB
	Metrics *metrics.Auth

	Auth        *AuthHTTP
	Users       *UserHTTP
	Courses     *CourseHTTP
	Lessons     *LessonHTTP
	Enrollments *EnrollmentHTTP
	Homework    *HomeworkHTTP
	Feedback    *FeedbackHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	bearer := middleware.Bearer(d.Auth.Svc)
	v1 := e.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/authenticate", d.Auth.Authenticate)
	auth.POST("/refresh-token", d.Auth.RefreshToken)
	auth.POST("/logout", d.Auth.Logout, bearer)

	api := v1.Group("", bearer)

	users := api.Group("/users")
	users.GET("/me", d.Users.Me)
	users.GET("", d.Users.GetUsers, middleware.RequireRole(models.RoleAdmin))
	users.GET("/:id", d.Users.GetUser)
	users.PATCH("/:id/role", d.Users.ChangeRole, middleware.RequireRole(models.RoleAdmin))

	courses := api.Group("/courses")
	courses.GET("", d.Courses.GetCourses)
	courses.GET("/search", d.Courses.SearchCourses)
	courses.GET("/:id", d.Courses.GetCourse)
	courses.POST("", d.Courses.CreateCourse, middleware.RequireRole(models.RoleInstructor, models.RoleAdmin))
	courses.PATCH("/:id", d.Courses.PatchCourse)
	courses.DELETE("/:id", d.Courses.DeleteCourse)

	courses.GET("/:id/lessons", d.Lessons.GetLessons)
	courses.POST("/:id/lessons", d.Lessons.CreateLesson)

	courses.GET("/:id/enrollments", d.Enrollments.GetEnrollments)
	courses.POST("/:id/enrollments", d.Enrollments.Enroll)
	courses.DELETE("/:id/enrollments/:userId", d.Enrollments.Unenroll)

	courses.GET("/:id/feedback", d.Feedback.GetFeedback)
	courses.POST("/:id/feedback", d.Feedback.SubmitFeedback)

	lessons := api.Group("/lessons")
	lessons.GET("/:id", d.Lessons.GetLesson)
	lessons.PATCH("/:id", d.Lessons.PatchLesson)
	lessons.DELETE("/:id", d.Lessons.DeleteLesson)
	lessons.GET("/:id/homework", d.Homework.GetHomework)
	lessons.POST("/:id/homework", d.Homework.SubmitHomework)

	api.PATCH("/homework/:id/mark", d.Homework.MarkHomework)
}
