// Package submissions keeps the append-only CSV log of scored submissions.
package submissions

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/excelcollege/psychometric/internal/model"
)

// TimestampLayout is the format of the timestamp column.
const TimestampLayout = "2006-01-02T15:04:05.000000"

var baseColumns = []string{"timestamp", "name", "rollno", "department", "classSection", "email", "total", "percentage"}

// Log is the submissions CSV file. Appends are serialized, so one Log may be
// shared by concurrent request handlers.
type Log struct {
	path     string
	sections []string
	mu       sync.Mutex
}

// Header returns the CSV header for the given section names.
func Header(sections []string) []string {
	h := make([]string, 0, len(baseColumns)+len(sections))
	h = append(h, baseColumns...)
	return append(h, sections...)
}

// Open returns the log at path, writing the header first if the file does
// not exist yet. An existing file is never rewritten.
func Open(path string, sections []string) (*Log, error) {
	l := &Log{path: path, sections: append([]string(nil), sections...)}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create submissions log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header(sections)); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	slog.Info("created submissions log", "path", path)
	return l, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Exists reports whether the log file is present on disk.
func (l *Log) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// NewRow builds a log row from a scored submission.
func NewRow(at time.Time, student model.StudentRecord, scores model.Scores) model.SubmissionLogRow {
	return model.SubmissionLogRow{
		Timestamp:     at.Format(TimestampLayout),
		Student:       student,
		Total:         scores.Total,
		Percentage:    scores.Percentage,
		SectionScores: scores.Sections,
	}
}

func (l *Log) record(row model.SubmissionLogRow) []string {
	rec := []string{
		row.Timestamp,
		row.Student.Name,
		row.Student.RollNo,
		row.Student.Department,
		row.Student.ClassSection,
		row.Student.Email,
		strconv.Itoa(row.Total),
		strconv.FormatFloat(row.Percentage, 'f', 2, 64),
	}
	for _, name := range l.sections {
		score := 0
		for _, s := range row.SectionScores {
			if s.Name == name {
				score = s.Score
				break
			}
		}
		rec = append(rec, strconv.Itoa(score))
	}
	return rec
}

// Append writes one row at the end of the log.
func (l *Log) Append(row model.SubmissionLogRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open submissions log: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(l.record(row)); err != nil {
		f.Close()
		return fmt.Errorf("append row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("append row: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close submissions log: %w", err)
	}
	return nil
}

// Rows reads the log back. It returns the header and at most limit data rows,
// newest first (limit <= 0 means all). A missing file yields no rows.
func (l *Log) Rows(limit int) ([]string, [][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open submissions log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read submissions log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header, data := records[0], records[1:]
	rows := make([][]string, 0, len(data))
	for i := len(data) - 1; i >= 0; i-- {
		rows = append(rows, data[i])
		if limit > 0 && len(rows) == limit {
			break
		}
	}
	return header, rows, nil
}

// CopyTo writes the raw CSV file to w. It returns fs.ErrNotExist when the
// log has not been created.
func (l *Log) CopyTo(w io.Writer) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

// Export writes every logged submission, oldest first, as indented JSON.
func (l *Log) Export(w io.Writer, now time.Time) error {
	header, rows, err := l.Rows(0)
	if err != nil {
		return err
	}

	var sections []string
	if len(header) > len(baseColumns) {
		sections = header[len(baseColumns):]
	}

	doc := model.LogExport{
		Source:      l.path,
		ExportedAt:  now,
		Sections:    sections,
		Submissions: make([]model.SubmissionExport, 0, len(rows)),
	}
	for i := len(rows) - 1; i >= 0; i-- {
		doc.Submissions = append(doc.Submissions, exportRow(rows[i], sections))
	}
	doc.Count = len(doc.Submissions)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}

func exportRow(rec []string, sections []string) model.SubmissionExport {
	field := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	out := model.SubmissionExport{
		Timestamp:    field(0),
		Name:         field(1),
		RollNo:       field(2),
		Department:   field(3),
		ClassSection: field(4),
		Email:        field(5),
		Total:        field(6),
		Percentage:   field(7),
		Sections:     make(map[string]string, len(sections)),
	}
	for i, name := range sections {
		out.Sections[name] = field(len(baseColumns) + i)
	}
	return out
}
