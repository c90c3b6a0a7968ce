package validator

import (
	"errors"
	"testing"

	"github.com/excelcollege/psychometric/internal/model"
)

func TestStructValid(t *testing.T) {
	v := New()
	rec := model.StudentRecord{Name: "A", RollNo: "1", Department: "CSE", ClassSection: "A", Email: "a@b"}
	if fields := v.Struct(rec); fields != nil {
		t.Errorf("expected no errors, got %v", fields)
	}
}

func TestStructMissingFields(t *testing.T) {
	v := New()
	fields := v.Struct(model.StudentRecord{Name: "A", RollNo: "1"})
	if len(fields) != 3 {
		t.Fatalf("expected 3 field errors, got %v", fields)
	}
	for _, name := range []string{"department", "classSection", "email"} {
		if fields[name] == "" {
			t.Errorf("missing message for %s: %v", name, fields)
		}
	}
	if got := fields["email"]; got != "email is a required field" {
		t.Errorf("email message = %q", got)
	}
}

func TestTranslateErrorsOther(t *testing.T) {
	fields := New().TranslateErrors(errors.New("boom"))
	if fields["detail"] != "boom" {
		t.Errorf("got %v", fields)
	}
}
