package report

import "strings"

// Font selects a typeface, style ("", "B", "I", "BI") and size in points.
type Font struct {
	Family string
	Style  string
	Size   float64
}

// MeasureFunc returns the rendered width of text in the given font.
type MeasureFunc func(text string, f Font) float64

// Word is a run of text placed at an absolute horizontal position.
type Word struct {
	X    float64
	Text string
}

// Line is one laid-out line of a paragraph.
type Line struct {
	Y     float64
	Words []Word
	// Justified is set when inter-word spacing was stretched to fill the
	// line width.
	Justified bool
}

// LayoutParagraph breaks text into lines no wider than maxWidth and places
// them starting at (x, y), advancing y by leading per line. Every line but the
// last is justified: the slack is divided evenly between its word gaps. The
// last line, and any line holding a single word, is left-aligned. A word wider
// than maxWidth gets a line of its own.
//
// It returns the lines and the y position below the last line.
func LayoutParagraph(text string, x, y, maxWidth, leading float64, f Font, measure MeasureFunc) ([]Line, float64) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, y
	}

	var groups [][]string
	var cur []string
	for _, w := range words {
		if len(cur) == 0 {
			cur = []string{w}
			continue
		}
		candidate := strings.Join(cur, " ") + " " + w
		if measure(candidate, f) <= maxWidth {
			cur = append(cur, w)
			continue
		}
		groups = append(groups, cur)
		cur = []string{w}
	}
	groups = append(groups, cur)

	lines := make([]Line, 0, len(groups))
	for i, g := range groups {
		line := Line{Y: y}
		last := i == len(groups)-1
		if last || len(g) == 1 {
			line.Words = []Word{{X: x, Text: strings.Join(g, " ")}}
		} else {
			total := 0.0
			widths := make([]float64, len(g))
			for j, w := range g {
				widths[j] = measure(w, f)
				total += widths[j]
			}
			gap := (maxWidth - total) / float64(len(g)-1)
			cx := x
			for j, w := range g {
				line.Words = append(line.Words, Word{X: cx, Text: w})
				cx += widths[j] + gap
			}
			line.Justified = true
		}
		lines = append(lines, line)
		y += leading
	}
	return lines, y
}

// drawParagraph lays out text and draws it on s in font f.
func drawParagraph(s Surface, text string, x, y, maxWidth, leading float64, f Font) float64 {
	s.SetFont(f)
	lines, next := LayoutParagraph(text, x, y, maxWidth, leading, f, s.Measure)
	for _, l := range lines {
		for _, w := range l.Words {
			s.Text(w.X, l.Y, w.Text)
		}
	}
	return next
}

func drawCentered(s Surface, y float64, f Font, text string) {
	w, _ := s.PageSize()
	s.SetFont(f)
	s.Text((w-s.Measure(text, f))/2, y, text)
}

func drawRight(s Surface, right, y float64, f Font, text string) {
	s.SetFont(f)
	s.Text(right-s.Measure(text, f), y, text)
}
