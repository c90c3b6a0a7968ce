package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/excelcollege/psychometric/internal/model"
)

// wrapAt is the rune length after which a response line is split onto a
// continuation line.
const wrapAt = 120

// ResponseLine is one question of the teacher dump.
type ResponseLine struct {
	Number int
	Text   string
	Answer string
	Score  int
}

// TeacherInput is everything the teacher detail report shows.
type TeacherInput struct {
	Student    model.StudentRecord
	At         time.Time
	Sections   []model.SectionScore
	Total      int
	MaxTotal   int
	Percentage float64
	Responses  []ResponseLine
}

// NewTeacherInput assembles the teacher view from the bank questions, the raw
// answers and the computed scores.
func NewTeacherInput(student model.StudentRecord, at time.Time, questions []model.Question, answers model.AnswerSet, scores model.Scores) TeacherInput {
	in := TeacherInput{
		Student:    student,
		At:         at,
		Sections:   scores.Sections,
		Total:      scores.Total,
		MaxTotal:   scores.MaxTotal,
		Percentage: scores.Percentage,
		Responses:  make([]ResponseLine, 0, len(questions)),
	}
	for _, q := range questions {
		in.Responses = append(in.Responses, ResponseLine{
			Number: q.Number,
			Text:   q.Text,
			Answer: answers[q.Number],
			Score:  scores.PerQuestion[q.Number],
		})
	}
	return in
}

// Teacher draws the teacher detail report on s.
func Teacher(s Surface, in TeacherInput) {
	width, height := s.PageSize()
	margin := 16 * mm

	s.AddPage()
	y := margin
	breakIfFull := func() {
		if y > height-bottomLimit {
			s.AddPage()
			y = margin
		}
	}

	s.SetFont(fontTitle)
	s.Text(margin, y, "Teacher Detailed Report")
	y += 16
	s.SetFont(fontText)
	s.Text(margin, y, fmt.Sprintf("Student: %s   Roll: %s   Dept: %s",
		in.Student.Name, in.Student.RollNo, in.Student.Department))
	drawRight(s, width-margin, y, fontText, "Date: "+in.At.Format("2006-01-02 15:04:05"))
	y += 12
	s.SetFont(fontText)
	s.Text(margin, y, fmt.Sprintf("Class/Section: %s   Email: %s", in.Student.ClassSection, in.Student.Email))
	y += 14

	s.SetFont(fontHeading)
	s.Text(margin, y, "Section Scores (raw)")
	y += 12
	s.SetFont(fontText)
	for _, sec := range in.Sections {
		s.Text(margin, y, fmt.Sprintf("%s: %d / %d", sec.Name, sec.Score, sec.MaxScore))
		y += 12
		breakIfFull()
	}

	s.SetFont(fontHeading)
	s.Text(margin, y, fmt.Sprintf("Total Score: %d / %d   (%.2f%%)", in.Total, in.MaxTotal, in.Percentage))
	y += 16

	s.Text(margin, y, "Per-question responses (Q#, Answer, Score)")
	y += 12
	s.SetFont(fontSmall)
	for _, r := range in.Responses {
		head, tail := splitLine(r.String(), wrapAt)
		s.Text(margin, y, head)
		if tail != "" {
			y += 10
			s.Text(margin+8, y, tail)
		}
		y += 12
		breakIfFull()
	}
}

func (r ResponseLine) String() string {
	return fmt.Sprintf("%d. %s — Answer: %s — Score: %d", r.Number, r.Text, r.Answer, r.Score)
}

// splitLine cuts s after n runes. The tail is empty when s fits.
func splitLine(s string, n int) (string, string) {
	runes := []rune(s)
	if len(runes) <= n {
		return s, ""
	}
	return string(runes[:n]), string(runes[n:])
}

// RenderTeacher renders the teacher detail report to PDF bytes.
func RenderTeacher(in TeacherInput) ([]byte, error) {
	doc := NewPDF("Teacher Detailed Report")
	Teacher(doc, in)
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TeacherFileName derives a collision-resistant report file name from the
// student name and the submission time (second resolution).
func TeacherFileName(name string, at time.Time) string {
	return fmt.Sprintf("TeacherReport_%s_%s.pdf", sanitizeName(name), at.Format("20060102_150405"))
}

// StudentFileName is the download name of the student summary.
func StudentFileName(name string) string {
	n := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if n == "" {
		n = "Unknown"
	}
	return "Student_Report_" + n + ".pdf"
}

// sanitizeName keeps letters, digits, spaces and underscores, trims the
// result and turns spaces into underscores.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if safe == "" {
		return "Unknown"
	}
	return safe
}
