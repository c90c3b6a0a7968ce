// Package views holds the HTML pages. The *.templ files are the source of the
// generated *_templ.go files; run templ generate after editing them.
package views

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/excelcollege/psychometric/internal/archive"
	appI18n "github.com/excelcollege/psychometric/internal/i18n"
	"github.com/excelcollege/psychometric/internal/model"
)

// Dashboard is the data shown on the teacher dashboard.
type Dashboard struct {
	Reports []archive.FileInfo
	Header  []string
	Rows    [][]string
	Flash   string
}

var likertScale = []string{"1", "2", "3", "4", "5"}

func link(ctx context.Context, p string) string {
	return model.BasePathFromContext(ctx) + p
}

func fieldName(q model.Question) string {
	return "q" + strconv.Itoa(q.Number)
}

func questionText(q model.Question) string {
	return fmt.Sprintf("%d. %s", q.Number, q.Text)
}

func optionText(o model.Option) string {
	return o.Letter + ") " + o.Text
}

func reportLink(ctx context.Context, rep archive.FileInfo) string {
	return link(ctx, "/teacher/download/"+url.PathEscape(rep.Name))
}

// reportMeta is the "modified · size" caption next to a report link.
func reportMeta(ctx context.Context, rep archive.FileInfo) string {
	size := appI18n.Td(ctx, "ReportSize", map[string]any{"KB": (rep.Size + 1023) / 1024})
	return rep.ModTime.Format("2006-01-02 15:04:05") + " · " + size
}
