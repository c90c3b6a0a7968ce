package assessment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/excelcollege/psychometric/internal/archive"
	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/classify"
	"github.com/excelcollege/psychometric/internal/model"
	"github.com/excelcollege/psychometric/internal/submissions"
)

var testTime = time.Date(2026, 1, 5, 14, 3, 9, 0, time.UTC)

type fixture struct {
	svc     *Service
	reports *archive.Store
	log     *submissions.Log
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	reports, err := archive.New(filepath.Join(dir, "reports"), "TeacherReport_*.pdf")
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}
	log, err := submissions.Open(filepath.Join(dir, "submissions.csv"), bank.Default().SectionNames())
	if err != nil {
		t.Fatalf("submissions.Open: %v", err)
	}
	svc := NewService(reports, log, "Test College", WithClock(func() time.Time { return testTime }))
	return fixture{svc: svc, reports: reports, log: log}
}

func testStudent() model.StudentRecord {
	return model.StudentRecord{
		Name:         "  Asha Rao ",
		RollNo:       "CS-A-B",
		Department:   "CSE",
		ClassSection: "III-A",
		Email:        "asha@example.com",
	}
}

// mixedAnswers answers "3" to every rating item and "D" to every scenario.
func mixedAnswers() model.AnswerSet {
	a := make(model.AnswerSet, bank.NumQuestions)
	for n := 1; n <= 40; n++ {
		a[n] = "3"
	}
	for n := 41; n <= 50; n++ {
		a[n] = "D"
	}
	return a
}

func storedReports(t *testing.T, s *archive.Store) []archive.FileInfo {
	t.Helper()
	files, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return files
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Submit(context.Background(), testStudent(), mixedAnswers())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if out.Scores.Total != 149 || out.Scores.MaxTotal != 240 {
		t.Errorf("total = %d/%d, want 149/240", out.Scores.Total, out.Scores.MaxTotal)
	}
	if out.Scores.Percentage != 62.08 {
		t.Errorf("percentage = %v, want 62.08", out.Scores.Percentage)
	}
	if out.Overall.Label != classify.Developing {
		t.Errorf("overall = %q, want %q", out.Overall.Label, classify.Developing)
	}
	if len(out.Sections) != 5 {
		t.Fatalf("expected 5 section results, got %d", len(out.Sections))
	}
	if !bytes.HasPrefix(out.StudentPDF, []byte("%PDF")) {
		t.Error("student report is not a PDF")
	}
	if out.StudentFileName != "Student_Report_Asha_Rao.pdf" {
		t.Errorf("student file name = %q", out.StudentFileName)
	}
	if out.TeacherFileName != "TeacherReport_Asha_Rao_20260105_140309.pdf" {
		t.Errorf("teacher file name = %q", out.TeacherFileName)
	}

	files := storedReports(t, f.reports)
	if len(files) != 1 || files[0].Name != out.TeacherFileName {
		t.Fatalf("stored reports = %+v", files)
	}

	_, rows, err := f.log.Rows(0)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 log row, got %d", len(rows))
	}
	if rows[0][1] != "Asha Rao" {
		t.Errorf("logged name = %q, want trimmed name", rows[0][1])
	}
	if rows[0][0] != "2026-01-05T14:03:09.000000" {
		t.Errorf("logged timestamp = %q", rows[0][0])
	}
}

func TestSubmitSameSecondKeepsBothReports(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Submit(context.Background(), testStudent(), mixedAnswers())
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := f.svc.Submit(context.Background(), testStudent(), mixedAnswers())
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first.TeacherFileName == second.TeacherFileName {
		t.Fatalf("reports share a name: %s", first.TeacherFileName)
	}
	if second.TeacherFileName != "TeacherReport_Asha_Rao_20260105_140309_1.pdf" {
		t.Errorf("second name = %q", second.TeacherFileName)
	}
	if n := len(storedReports(t, f.reports)); n != 2 {
		t.Errorf("expected 2 stored reports, got %d", n)
	}
}

func TestSubmitIncomplete(t *testing.T) {
	f := newFixture(t)
	answers := mixedAnswers()
	delete(answers, 7)
	delete(answers, 45)

	_, err := f.svc.Submit(context.Background(), testStudent(), answers)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	var missing *MissingAnswersError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingAnswersError, got %T", err)
	}
	if len(missing.Missing) != 2 || missing.Missing[0] != 7 || missing.Missing[1] != 45 {
		t.Errorf("missing = %v, want [7 45]", missing.Missing)
	}

	if n := len(storedReports(t, f.reports)); n != 0 {
		t.Errorf("incomplete submission stored %d reports", n)
	}
	_, rows, _ := f.log.Rows(0)
	if len(rows) != 0 {
		t.Errorf("incomplete submission logged %d rows", len(rows))
	}
}

func TestSubmitInvalidStudent(t *testing.T) {
	f := newFixture(t)
	student := testStudent()
	student.Email = "   "

	_, err := f.svc.Submit(context.Background(), student, mixedAnswers())
	var invalid *InvalidStudentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidStudentError, got %v", err)
	}
	if invalid.Fields["email"] == "" {
		t.Errorf("expected email field error, got %v", invalid.Fields)
	}
	if n := len(storedReports(t, f.reports)); n != 0 {
		t.Errorf("invalid submission stored %d reports", n)
	}
}

func TestSubmitMalformedTokensScoreZero(t *testing.T) {
	f := newFixture(t)
	answers := mixedAnswers()
	answers[1] = "abc"
	answers[41] = "Z"

	out, err := f.svc.Submit(context.Background(), testStudent(), answers)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// 149 minus the 3 from q1 and the D points of q41.
	want := 149 - 3 - bank.Default().Points(41, "D")
	if out.Scores.Total != want {
		t.Errorf("total = %d, want %d", out.Scores.Total, want)
	}
}

func TestSubmitCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.svc.Submit(ctx, testStudent(), mixedAnswers()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMissingAnswersErrorMessage(t *testing.T) {
	err := &MissingAnswersError{Missing: []int{3, 12}}
	if got := err.Error(); got != "missing answers for questions 3, 12" {
		t.Errorf("Error() = %q", got)
	}
}

// breakPath replaces the file or directory at path with one of the other
// kind so that writes to it fail.
func breakPath(t *testing.T, path string, asDir bool) {
	t.Helper()
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	var err error
	if asDir {
		err = os.Mkdir(path, 0o755)
	} else {
		err = os.WriteFile(path, []byte("not a directory"), 0o644)
	}
	if err != nil {
		t.Fatalf("break %s: %v", path, err)
	}
}

func TestSubmitLogFailureRemovesReport(t *testing.T) {
	f := newFixture(t)
	breakPath(t, f.log.Path(), true)

	_, err := f.svc.Submit(context.Background(), testStudent(), mixedAnswers())
	if err == nil {
		t.Fatal("expected an error when the log cannot be written")
	}
	if errors.Is(err, ErrIncomplete) {
		t.Fatalf("storage failure reported as client error: %v", err)
	}
	if n := len(storedReports(t, f.reports)); n != 0 {
		t.Errorf("unlogged submission left %d reports", n)
	}
}

func TestSubmitArchiveFailureWritesNoRow(t *testing.T) {
	f := newFixture(t)
	breakPath(t, f.reports.Dir(), false)

	if _, err := f.svc.Submit(context.Background(), testStudent(), mixedAnswers()); err == nil {
		t.Fatal("expected an error when the report cannot be stored")
	}
	_, rows, err := f.log.Rows(0)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("failed submission logged %d rows", len(rows))
	}
}
