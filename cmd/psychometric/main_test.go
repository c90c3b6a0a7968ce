package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/model"
	"github.com/excelcollege/psychometric/internal/submissions"
)

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"psy", "/psy"},
		{"/psy/", "/psy"},
		{" /a/b// ", "/a/b"},
	}
	for _, tt := range tests {
		if got := normalizeBasePath(tt.in); got != tt.want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServeRequiresPassword(t *testing.T) {
	t.Setenv("PSYCHOMETRIC_TEACHER_PASSWORD", "")
	cmd := rootCmd()
	cmd.SetArgs([]string{"serve", "--db", filepath.Join(t.TempDir(), "x.db")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error without a teacher password")
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "submissions.csv")
	l, err := submissions.Open(logPath, bank.Default().SectionNames())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	student := model.StudentRecord{Name: "Asha Rao", RollNo: "R1", Department: "CSE", ClassSection: "III-A", Email: "a@example.com"}
	scores := model.Scores{Total: 149, Percentage: 62.08}
	if err := l.Append(submissions.NewRow(time.Date(2026, 1, 5, 14, 3, 9, 0, time.UTC), student, scores)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	out := filepath.Join(dir, "export.json")
	cmd := rootCmd()
	cmd.SetArgs([]string{"export", "--log-file", logPath, "--output", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var doc model.LogExport
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.Count != 1 || doc.Submissions[0].Name != "Asha Rao" || doc.Submissions[0].Total != "149" {
		t.Errorf("export = %+v", doc)
	}
	if len(doc.Sections) != 5 {
		t.Errorf("sections = %v", doc.Sections)
	}
}

func TestExportMissingLog(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"export", "--log-file", filepath.Join(t.TempDir(), "absent.csv")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for a missing log")
	}
}
