// Package assessment runs one questionnaire submission end to end: it checks
// the answers, scores and classifies them, renders both reports, archives the
// teacher copy and appends the submissions log.
package assessment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/excelcollege/psychometric/internal/archive"
	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/classify"
	"github.com/excelcollege/psychometric/internal/model"
	"github.com/excelcollege/psychometric/internal/report"
	"github.com/excelcollege/psychometric/internal/scoring"
	"github.com/excelcollege/psychometric/internal/submissions"
	"github.com/excelcollege/psychometric/internal/validator"
)

// ErrIncomplete is returned when one or more questions have no answer.
var ErrIncomplete = errors.New("please answer all questions before submitting")

// maxNameAttempts bounds the suffixes tried when two reports for the same
// student land in the same second.
const maxNameAttempts = 100

// MissingAnswersError lists the unanswered question numbers.
type MissingAnswersError struct {
	Missing []int
}

func (e *MissingAnswersError) Error() string {
	nums := make([]string, len(e.Missing))
	for i, n := range e.Missing {
		nums[i] = strconv.Itoa(n)
	}
	return "missing answers for questions " + strings.Join(nums, ", ")
}

func (e *MissingAnswersError) Unwrap() error { return ErrIncomplete }

// InvalidStudentError carries field → message for bad identity fields.
type InvalidStudentError struct {
	Fields map[string]string
}

func (e *InvalidStudentError) Error() string {
	return fmt.Sprintf("invalid student details: %d field(s)", len(e.Fields))
}

// Outcome is the result of a successful submission.
type Outcome struct {
	StudentPDF      []byte
	StudentFileName string
	TeacherFileName string
	Scores          model.Scores
	Overall         model.Band
	Sections        []model.SectionResult
}

// Service owns the submission pipeline.
type Service struct {
	bank        *bank.Bank
	reports     *archive.Store
	log         *submissions.Log
	validate    *validator.Validator
	institution string
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for report dates, file names and
// log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBank replaces the embedded question bank.
func WithBank(b *bank.Bank) Option {
	return func(s *Service) { s.bank = b }
}

// NewService wires the pipeline to its report archive and submissions log.
func NewService(reports *archive.Store, log *submissions.Log, institution string, opts ...Option) *Service {
	s := &Service{
		bank:        bank.Default(),
		reports:     reports,
		log:         log,
		validate:    validator.New(),
		institution: institution,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bank returns the question bank the service scores against.
func (s *Service) Bank() *bank.Bank {
	return s.bank
}

// Missing returns the question numbers with no answer, in order.
func (s *Service) Missing(answers model.AnswerSet) []int {
	var missing []int
	for _, q := range s.bank.Questions() {
		if _, ok := answers[q.Number]; !ok {
			missing = append(missing, q.Number)
		}
	}
	return missing
}

// Submit scores a complete answer set and produces both reports. Nothing is
// written when the answers are incomplete or the student record is invalid.
func (s *Service) Submit(ctx context.Context, student model.StudentRecord, answers model.AnswerSet) (*Outcome, error) {
	if missing := s.Missing(answers); len(missing) > 0 {
		return nil, &MissingAnswersError{Missing: missing}
	}
	student = trimStudent(student)
	if fields := s.validate.Struct(student); fields != nil {
		return nil, &InvalidStudentError{Fields: fields}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	at := s.now()
	scores := scoring.Compute(s.bank, answers)
	sections := classify.Sections(s.bank, scores)

	studentPDF, err := report.RenderStudent(report.NewStudentInput(s.institution, student, at, scores.Percentage, sections))
	if err != nil {
		return nil, fmt.Errorf("render student report: %w", err)
	}
	teacherPDF, err := report.RenderTeacher(report.NewTeacherInput(student, at, s.bank.Questions(), answers, scores))
	if err != nil {
		return nil, fmt.Errorf("render teacher report: %w", err)
	}
	teacherName, err := s.archiveTeacher(report.TeacherFileName(student.Name, at), teacherPDF)
	if err != nil {
		return nil, err
	}

	if err := s.log.Append(submissions.NewRow(at, student, scores)); err != nil {
		// An unlogged submission must not leave a report behind.
		if rmErr := s.reports.Remove(teacherName); rmErr != nil {
			slog.Error("failed to remove unlogged teacher report", "report", teacherName, "error", rmErr)
		}
		return nil, fmt.Errorf("append submissions log: %w", err)
	}

	slog.Info("submission scored",
		"rollno", student.RollNo,
		"total", scores.Total,
		"percentage", scores.Percentage,
		"report", teacherName,
	)

	return &Outcome{
		StudentPDF:      studentPDF,
		StudentFileName: report.StudentFileName(student.Name),
		TeacherFileName: teacherName,
		Scores:          scores,
		Overall:         classify.Overall(scores.Percentage),
		Sections:        sections,
	}, nil
}

// archiveTeacher stores the teacher report, adding a numeric suffix when the
// name is already taken.
func (s *Service) archiveTeacher(name string, pdf []byte) (string, error) {
	base := strings.TrimSuffix(name, ".pdf")
	candidate := name
	for i := 1; i <= maxNameAttempts; i++ {
		err := s.reports.Put(candidate, bytes.NewReader(pdf))
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, archive.ErrExists) {
			return "", fmt.Errorf("archive teacher report: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d.pdf", base, i)
	}
	return "", fmt.Errorf("archive teacher report %s: %w", name, archive.ErrExists)
}

func trimStudent(r model.StudentRecord) model.StudentRecord {
	return model.StudentRecord{
		Name:         strings.TrimSpace(r.Name),
		RollNo:       strings.TrimSpace(r.RollNo),
		Department:   strings.TrimSpace(r.Department),
		ClassSection: strings.TrimSpace(r.ClassSection),
		Email:        strings.TrimSpace(r.Email),
	}
}
