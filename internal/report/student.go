// Package report lays out the student summary and teacher detail documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/excelcollege/psychometric/internal/classify"
	"github.com/excelcollege/psychometric/internal/model"
)

const (
	mm = 72.0 / 25.4

	// bottomLimit is the distance from the page bottom below which a new
	// block starts on a fresh page.
	bottomLimit = 80.0

	reportTitle = "Psychometric Test Report - Navigating the Interview"
	disclaimer  = "This student-facing report contains levels & recommendations only. Raw scores are confidential."
)

var (
	fontTitle    = Font{Family: "Helvetica", Style: "B", Size: 16}
	fontSubtitle = Font{Family: "Helvetica", Style: "B", Size: 14}
	fontHeading  = Font{Family: "Helvetica", Style: "B", Size: 12}
	fontName     = Font{Family: "Helvetica", Style: "B", Size: 11}
	fontBody     = Font{Family: "Helvetica", Size: 11}
	fontLabel    = Font{Family: "Helvetica", Style: "B", Size: 10}
	fontText     = Font{Family: "Helvetica", Size: 10}
	fontSmall    = Font{Family: "Helvetica", Size: 9}
	fontFooter   = Font{Family: "Helvetica", Style: "I", Size: 8}
)

// SectionBand is the qualitative result of one section as shown to students.
type SectionBand struct {
	Name string
	Band model.Band
}

// StudentInput is everything the student summary shows. It deliberately has
// no raw or section scores.
type StudentInput struct {
	Institution string
	Student     model.StudentRecord
	Date        time.Time
	Percentage  float64
	Overall     model.Band
	Sections    []SectionBand
}

// NewStudentInput builds the student view of classified results.
func NewStudentInput(institution string, student model.StudentRecord, at time.Time, pct float64, sections []model.SectionResult) StudentInput {
	in := StudentInput{
		Institution: institution,
		Student:     student,
		Date:        at,
		Percentage:  pct,
		Overall:     classify.Overall(pct),
		Sections:    make([]SectionBand, 0, len(sections)),
	}
	for _, s := range sections {
		in.Sections = append(in.Sections, SectionBand{Name: s.Name, Band: s.Band})
	}
	return in
}

// Student draws the student summary on s.
func Student(s Surface, in StudentInput) {
	width, height := s.PageSize()
	margin := 20 * mm
	content := width - 2*margin

	s.AddPage()
	y := margin
	drawCentered(s, y, fontTitle, in.Institution)
	y += 18
	drawCentered(s, y, fontSubtitle, reportTitle)
	y += 20

	s.SetFont(fontName)
	s.Text(margin, y, "Name: "+in.Student.Name)
	drawRight(s, width-margin, y, fontName, "Date: "+in.Date.Format("2006-01-02"))
	y += 14
	s.SetFont(fontText)
	s.Text(margin, y, "Roll No.: "+in.Student.RollNo)
	s.Text(margin+220, y, "Department: "+in.Student.Department)
	drawRight(s, width-margin, y, fontText, "Class/Section: "+in.Student.ClassSection)
	y += 18

	// Overall progress bar over a light track.
	barH := 8.0
	s.SetFillColor(model.RGB{R: 0.9, G: 0.9, B: 0.9})
	s.FillRect(margin, y, content, barH)
	s.SetFillColor(classify.BarColor(in.Percentage))
	s.FillRect(margin, y, content*clampFraction(in.Percentage/100), barH)
	s.SetFillColor(model.RGB{})
	y += barH + 16

	s.SetFont(fontHeading)
	s.Text(margin, y, "Overall Result")
	y += 12
	s.SetFont(fontBody)
	s.Text(margin, y, fmt.Sprintf("Overall Percentage: %.2f%%", in.Percentage))
	drawRight(s, width-margin, y, fontBody, "Level: "+in.Overall.Label)
	y += 14

	y = drawParagraph(s, in.Overall.Recommendation, margin, y, content, 12, fontText)
	y += 8

	s.SetFont(fontHeading)
	s.Text(margin, y, "Section-wise Levels & Recommendations")
	y += 14

	for _, sec := range in.Sections {
		if y > height-bottomLimit {
			studentFooter(s)
			s.AddPage()
			y = margin
		}
		s.SetFont(fontLabel)
		s.Text(margin, y, sec.Name+": "+sec.Band.Label)
		y += 12
		y = drawParagraph(s, sec.Band.Recommendation, margin+8, y, content-8, 11, fontText)
		y += 10
	}
	studentFooter(s)
}

func studentFooter(s Surface) {
	_, height := s.PageSize()
	drawCentered(s, height-18, fontFooter, disclaimer)
}

// RenderStudent renders the student summary to PDF bytes.
func RenderStudent(in StudentInput) ([]byte, error) {
	doc := NewPDF(reportTitle)
	Student(doc, in)
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
