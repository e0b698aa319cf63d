package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

type TokenKind string

const (
	TokenAccess  TokenKind = "ACCESS"
	TokenRefresh TokenKind = "REFRESH"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"           json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"           json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	FirstName    string    `gorm:"not null"                       json:"firstName"`
	LastName     string    `gorm:"not null"                       json:"lastName"`
	Role         Role      `gorm:"type:varchar(16);not null"      json:"role"`
	CreatedAt    time.Time `                                      json:"createdAt"`
	UpdatedAt    time.Time `                                      json:"updatedAt"`
}

// Token is one issued credential. Rows are flagged, never deleted.
type Token struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"                json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"            json:"userId"`
	User      *User     `gorm:"foreignKey:UserID"                   json:"-"`
	Kind      TokenKind `gorm:"type:varchar(16);not null"           json:"kind"`
	Expired   bool      `gorm:"not null;default:false"              json:"expired"`
	Revoked   bool      `gorm:"not null;default:false"              json:"revoked"`
	IssuedAt  time.Time `gorm:"not null"                            json:"issuedAt"`
	ExpiresAt time.Time `gorm:"not null"                            json:"expiresAt"`
}

func (t Token) Valid() bool {
	return !t.Expired && !t.Revoked
}

type Course struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"      json:"id"`
	Title       string         `gorm:"uniqueIndex;not null"      json:"title"`
	Description string         `gorm:"not null;default:''"       json:"description"`
	Tags        pq.StringArray `gorm:"type:text[]"               json:"tags"`
	StartDate   *time.Time     `                                 json:"startDate,omitempty"`
	EndDate     *time.Time     `                                 json:"endDate,omitempty"`
	CreatedAt   time.Time      `                                 json:"createdAt"`
	UpdatedAt   time.Time      `                                 json:"updatedAt"`
}

const DefaultMaxMark = 100

type Lesson struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"      json:"id"`
	CourseID    uuid.UUID  `gorm:"type:uuid;index;not null"  json:"courseId"`
	Course      *Course    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"       json:"-"`
	Title       string     `gorm:"not null"                  json:"title"`
	Description string     `gorm:"not null;default:''"       json:"description"`
	Date        *time.Time `                                 json:"date,omitempty"`
	MaxMark     int        `gorm:"not null"                  json:"maxMark"`
	CreatedAt   time.Time  `                                 json:"createdAt"`
	UpdatedAt   time.Time  `                                 json:"updatedAt"`
}

type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_course_user;not null"      json:"courseId"`
	Course    *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"     json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_course_user;not null"      json:"userId"`
	User      *User     `gorm:"foreignKey:UserID"                                   json:"user,omitempty"`
	Role      Role      `gorm:"type:varchar(16);not null"                           json:"role"`
	CreatedAt time.Time `                                                           json:"createdAt"`
}

type Homework struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"                                  json:"id"`
	LessonID    uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_lesson_student;not null"     json:"lessonId"`
	Lesson      *Lesson    `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE"      json:"-"`
	StudentID   uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_lesson_student;not null"     json:"studentId"`
	Student     *User      `gorm:"foreignKey:StudentID"                                  json:"-"`
	Answer      string     `gorm:"not null"                                              json:"answer"`
	Mark        *int       `                                                             json:"mark,omitempty"`
	GradedBy    *uuid.UUID `gorm:"type:uuid"                                             json:"gradedBy,omitempty"`
	SubmittedAt time.Time  `gorm:"not null"                                              json:"submittedAt"`
	GradedAt    *time.Time `                                                             json:"gradedAt,omitempty"`
}

func (Homework) TableName() string { return "homework" }

type Feedback struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                 json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_course_student;not null"    json:"courseId"`
	Course    *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"      json:"-"`
	StudentID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_course_student;not null"   json:"studentId"`
	Student   *User     `gorm:"foreignKey:StudentID"                                 json:"-"`
	Rating    int       `gorm:"not null"                                             json:"rating"`
	Comment   string    `gorm:"not null;default:''"                                  json:"comment"`
	CreatedAt time.Time `                                                            json:"createdAt"`
	UpdatedAt time.Time `                                                            json:"updatedAt"`
}

func (Feedback) TableName() string { return "feedback" }

func (u *User) BeforeCreate(tx *gorm.DB) error       { u.ID = ensureID(u.ID); return nil }
func (t *Token) BeforeCreate(tx *gorm.DB) error      { t.ID = ensureID(t.ID); return nil }
func (c *Course) BeforeCreate(tx *gorm.DB) error     { c.ID = ensureID(c.ID); return nil }
func (l *Lesson) BeforeCreate(tx *gorm.DB) error     { l.ID = ensureID(l.ID); return nil }
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error { e.ID = ensureID(e.ID); return nil }
func (h *Homework) BeforeCreate(tx *gorm.DB) error   { h.ID = ensureID(h.ID); return nil }
func (f *Feedback) BeforeCreate(tx *gorm.DB) error   { f.ID = ensureID(f.ID); return nil }

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// All lists the models for AutoMigrate, parents first.
func All() []any {
	return []any{&User{}, &Token{}, &Course{}, &Lesson{}, &Enrollment{}, &Homework{}, &Feedback{}}
}
