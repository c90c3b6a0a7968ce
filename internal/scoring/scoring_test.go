package scoring

import (
	"math/rand/v2"
	"reflect"
	"strconv"
	"testing"

	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/classify"
	"github.com/excelcollege/psychometric/internal/model"
)

// uniformAnswers answers every Likert item with likert and every scenario item
// with the option worth points (first match in A..D).
func uniformAnswers(t *testing.T, b *bank.Bank, likert string, points int) model.AnswerSet {
	t.Helper()
	answers := make(model.AnswerSet, bank.NumQuestions)
	for _, q := range b.Questions() {
		if q.Kind == model.KindLikert {
			answers[q.Number] = likert
			continue
		}
		found := false
		for _, o := range q.Options {
			if b.Points(q.Number, o.Letter) == points {
				answers[q.Number] = o.Letter
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("question %d has no option worth %d", q.Number, points)
		}
	}
	return answers
}

func sectionValues(s model.Scores) []int {
	out := make([]int, len(s.Sections))
	for i, sec := range s.Sections {
		out[i] = sec.Score
	}
	return out
}

func TestComputeMaximum(t *testing.T) {
	b := bank.Default()
	got := Compute(b, uniformAnswers(t, b, "5", 4))

	if want := []int{50, 50, 50, 50, 40}; !reflect.DeepEqual(sectionValues(got), want) {
		t.Errorf("section scores = %v, want %v", sectionValues(got), want)
	}
	if got.Total != 240 {
		t.Errorf("Total = %d, want 240", got.Total)
	}
	if got.MaxTotal != 240 {
		t.Errorf("MaxTotal = %d, want 240", got.MaxTotal)
	}
	if got.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", got.Percentage)
	}
}

func TestComputeMinimum(t *testing.T) {
	b := bank.Default()
	got := Compute(b, uniformAnswers(t, b, "1", 1))

	if want := []int{10, 10, 10, 10, 10}; !reflect.DeepEqual(sectionValues(got), want) {
		t.Errorf("section scores = %v, want %v", sectionValues(got), want)
	}
	if got.Total != 50 {
		t.Errorf("Total = %d, want 50", got.Total)
	}
	if got.Percentage != 20.83 {
		t.Errorf("Percentage = %v, want 20.83", got.Percentage)
	}
	if band := classify.Overall(got.Percentage); band.Label != classify.NeedsAttention {
		t.Errorf("overall band = %q, want %q", band.Label, classify.NeedsAttention)
	}
}

func TestComputeMixed(t *testing.T) {
	b := bank.Default()
	answers := make(model.AnswerSet)
	for n := 1; n <= 40; n++ {
		answers[n] = "3"
	}
	for n := 41; n <= 50; n++ {
		answers[n] = "D"
	}
	got := Compute(b, answers)

	if want := []int{30, 30, 30, 30, 29}; !reflect.DeepEqual(sectionValues(got), want) {
		t.Errorf("section scores = %v, want %v", sectionValues(got), want)
	}
	if got.Total != 149 {
		t.Errorf("Total = %d, want 149", got.Total)
	}
	if got.Percentage != 62.08 {
		t.Errorf("Percentage = %v, want 62.08", got.Percentage)
	}
	if got.PerQuestion[45] != 2 {
		t.Errorf("PerQuestion[45] = %d, want 2", got.PerQuestion[45])
	}
}

func TestComputeToleratesMalformedTokens(t *testing.T) {
	b := bank.Default()
	answers := uniformAnswers(t, b, "4", 3)
	answers[1] = "x"
	answers[2] = ""
	answers[3] = "9"
	answers[4] = "-1"
	answers[41] = "Z"
	delete(answers, 42)

	got := Compute(b, answers)
	for _, n := range []int{1, 2, 3, 4, 41, 42} {
		if got.PerQuestion[n] != 0 {
			t.Errorf("PerQuestion[%d] = %d, want 0", n, got.PerQuestion[n])
		}
	}
	if got.PerQuestion[5] != 4 {
		t.Errorf("PerQuestion[5] = %d, want 4", got.PerQuestion[5])
	}
}

func TestComputeInvariants(t *testing.T) {
	b := bank.Default()
	rng := rand.New(rand.NewPCG(1, 2))
	letters := []string{"A", "B", "C", "D"}

	for i := 0; i < 200; i++ {
		answers := make(model.AnswerSet)
		for n := 1; n <= 40; n++ {
			answers[n] = strconv.Itoa(1 + rng.IntN(5))
		}
		for n := 41; n <= 50; n++ {
			answers[n] = letters[rng.IntN(4)]
		}

		got := Compute(b, answers)
		sum := 0
		for _, sec := range got.Sections {
			if sec.Score < 0 || sec.Score > sec.MaxScore {
				t.Fatalf("section %q score %d outside [0,%d]", sec.Name, sec.Score, sec.MaxScore)
			}
			sum += sec.Score
		}
		if sum != got.Total {
			t.Fatalf("sum of sections %d != total %d", sum, got.Total)
		}
		if got.Total < 0 || got.Total > 240 {
			t.Fatalf("total %d outside [0,240]", got.Total)
		}

		again := Compute(b, answers)
		if !reflect.DeepEqual(got, again) {
			t.Fatal("Compute is not idempotent")
		}
	}
}

func TestLikertValue(t *testing.T) {
	tests := []struct {
		token string
		want  int
	}{
		{"1", 1},
		{"5", 5},
		{"05", 5},
		{"0", 0},
		{"6", 0},
		{"", 0},
		{" 3", 0},
		{"+3", 0},
		{"3.0", 0},
		{"three", 0},
	}
	for _, tt := range tests {
		t.Run(strconv.Quote(tt.token), func(t *testing.T) {
			if got := LikertValue(tt.token); got != tt.want {
				t.Errorf("LikertValue(%q) = %d, want %d", tt.token, got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		total, max int
		want       float64
	}{
		{240, 240, 100},
		{204, 240, 85},
		{40, 240, 16.67},
		{0, 240, 0},
		{5, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
	}
	for _, tt := range tests {
		if got := Percentage(tt.total, tt.max); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tt.total, tt.max, got, tt.want)
		}
	}
}
