package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/excelcollege/psychometric/internal/model"
)

// Surface is the drawing target of the report renderers. Coordinates are in
// points with the origin at the top-left corner of the page; y grows
// downwards and Text places the baseline at y.
type Surface interface {
	AddPage()
	PageSize() (width, height float64)
	SetFont(f Font)
	SetFillColor(c model.RGB)
	FillRect(x, y, w, h float64)
	Text(x, y float64, s string)
	Measure(s string, f Font) float64
	Output(w io.Writer) error
}

// PDF is a Surface backed by fpdf using the standard core fonts.
type PDF struct {
	doc  *fpdf.Fpdf
	tr   func(string) string
	font Font
}

// NewPDF creates an empty A4 portrait document.
func NewPDF(title string) *PDF {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle(title, true)
	doc.SetCreator("psychometric", true)
	return &PDF{
		doc: doc,
		// Core fonts are cp1252; question texts carry curly quotes and dashes.
		tr: doc.UnicodeTranslatorFromDescriptor(""),
	}
}

func (p *PDF) AddPage() { p.doc.AddPage() }

func (p *PDF) PageSize() (float64, float64) { return p.doc.GetPageSize() }

func (p *PDF) SetFont(f Font) {
	p.font = f
	p.doc.SetFont(f.Family, f.Style, f.Size)
}

func (p *PDF) SetFillColor(c model.RGB) {
	p.doc.SetFillColor(channel(c.R), channel(c.G), channel(c.B))
}

func (p *PDF) FillRect(x, y, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	p.doc.Rect(x, y, w, h, "F")
}

func (p *PDF) Text(x, y float64, s string) {
	p.doc.Text(x, y, p.tr(s))
}

// Measure returns the width of s in font f without changing the current font.
func (p *PDF) Measure(s string, f Font) float64 {
	if f == p.font {
		return p.doc.GetStringWidth(p.tr(s))
	}
	prev := p.font
	p.doc.SetFont(f.Family, f.Style, f.Size)
	w := p.doc.GetStringWidth(p.tr(s))
	if prev != (Font{}) {
		p.doc.SetFont(prev.Family, prev.Style, prev.Size)
	}
	return w
}

func (p *PDF) Output(w io.Writer) error {
	if err := p.doc.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := p.doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func channel(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return int(v*255 + 0.5)
}
