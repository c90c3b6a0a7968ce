package model

import (
	"context"
	"time"
)

// QuestionKind distinguishes the two answer formats of the questionnaire.
type QuestionKind string

const (
	// KindLikert is a statement rated 1..5.
	KindLikert QuestionKind = "likert"
	// KindScenario is a situational-judgment item with options A..D.
	KindScenario QuestionKind = "scenario"
)

// Option is one labelled choice of a scenario item.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is one entry of the question bank.
type Question struct {
	Number  int          `json:"number"`
	Kind    QuestionKind `json:"kind"`
	Text    string       `json:"text"`
	Options []Option     `json:"options,omitempty"`
}

// Section groups a contiguous range of questions that are scored together.
type Section struct {
	Name     string `json:"name"`
	First    int    `json:"first"`
	Last     int    `json:"last"`
	MaxScore int    `json:"max_score"`
	// Judgment marks the situational-judgment section, classified on raw
	// thresholds instead of percentage of maximum.
	Judgment bool `json:"judgment"`
}

// Contains reports whether question n belongs to the section.
func (s Section) Contains(n int) bool {
	return n >= s.First && n <= s.Last
}

// AnswerSet maps question number to the raw answer token submitted for it.
type AnswerSet map[int]string

// StudentRecord is free-text identity metadata attached to a submission.
type StudentRecord struct {
	Name         string `json:"name" validate:"required"`
	RollNo       string `json:"rollno" validate:"required"`
	Department   string `json:"department" validate:"required"`
	ClassSection string `json:"classSection" validate:"required"`
	Email        string `json:"email" validate:"required"`
}

// Scores is the output of the scoring engine.
type Scores struct {
	// Sections holds raw section scores in section definition order.
	Sections    []SectionScore `json:"sections"`
	PerQuestion map[int]int    `json:"per_question"`
	Total       int            `json:"total"`
	MaxTotal    int            `json:"max_total"`
	Percentage  float64        `json:"percentage"`
}

// SectionScore is the raw score obtained in one section.
type SectionScore struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
}

// Band is a qualitative classification tier with its recommendation text.
type Band struct {
	Label          string `json:"label"`
	Recommendation string `json:"recommendation"`
}

// SectionResult pairs a section's raw score with its band.
type SectionResult struct {
	SectionScore
	Band Band `json:"band"`
}

// RGB is a colour with components in 0..1.
type RGB struct {
	R, G, B float64
}

// SubmissionLogRow is one line of the append-only submissions log.
type SubmissionLogRow struct {
	Timestamp     string         `json:"timestamp"`
	Student       StudentRecord  `json:"student"`
	Total         int            `json:"total"`
	Percentage    float64        `json:"percentage"`
	SectionScores []SectionScore `json:"section_scores"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	Institution   string
	TeacherUser   string
	BasePath      string // URL prefix for sub-path deployments
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}

// TeacherSession is the authenticated state of one teacher-area client.
type TeacherSession struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type teacherCtxKey struct{}

// ContextWithTeacher stores an authenticated teacher session in the request context.
func ContextWithTeacher(ctx context.Context, s *TeacherSession) context.Context {
	return context.WithValue(ctx, teacherCtxKey{}, s)
}

// TeacherFromContext retrieves the teacher session from context, or nil.
func TeacherFromContext(ctx context.Context) *TeacherSession {
	s, _ := ctx.Value(teacherCtxKey{}).(*TeacherSession)
	return s
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
