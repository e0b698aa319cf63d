package transport

import (
	"time"

	"github.com/Skotchmaster/courses/internal/models"
	"github.com/Skotchmaster/courses/internal/util"
)

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type AuthenticationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthenticationResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type CreateCourseRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

type PatchCourseRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Tags        *[]string  `json:"tags"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

type CreateLessonRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"`
	MaxMark     *int       `json:"maxMark"`
}

type PatchLessonRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	MaxMark     *int       `json:"maxMark"`
}

type EnrollRequest struct {
	Emails []string `json:"emails"`
	Role   string   `json:"role"`
}

type SubmitHomeworkRequest struct {
	Answer string `json:"answer"`
}

type MarkHomeworkRequest struct {
	Mark *int `json:"mark"`
}

type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type FeedbackSummary struct {
	Average float64           `json:"average"`
	Count   int64             `json:"count"`
	Items   []models.Feedback `json:"items"`
}

type Page[T any] struct {
	Data []T      `json:"data"`
	Meta util.Meta `json:"meta"`
}
