// Package scoring turns a raw answer set into per-question, per-section and
// total scores.
//
// Scoring is lenient on purpose: a Likert token that is not a number in 1..5
// and a scenario letter absent from the scoring key both score 0. Rejecting
// incomplete submissions is the caller's job and happens before Compute.
package scoring

import (
	"math"
	"strconv"

	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/model"
)

const (
	likertMin = 1
	likertMax = 5
)

// Compute scores answers against the bank. It has no side effects.
func Compute(b *bank.Bank, answers model.AnswerSet) model.Scores {
	perQ := make(map[int]int, bank.NumQuestions)
	for _, q := range b.Questions() {
		token := answers[q.Number]
		switch q.Kind {
		case model.KindLikert:
			perQ[q.Number] = LikertValue(token)
		case model.KindScenario:
			perQ[q.Number] = b.Points(q.Number, token)
		}
	}

	sections := b.Sections()
	scores := model.Scores{
		Sections:    make([]model.SectionScore, 0, len(sections)),
		PerQuestion: perQ,
		MaxTotal:    b.MaxTotal(),
	}
	for _, s := range sections {
		sum := 0
		for n, v := range perQ {
			if s.Contains(n) {
				sum += v
			}
		}
		scores.Sections = append(scores.Sections, model.SectionScore{
			Name:     s.Name,
			Score:    sum,
			MaxScore: s.MaxScore,
		})
		scores.Total += sum
	}
	scores.Percentage = Percentage(scores.Total, scores.MaxTotal)
	return scores
}

// LikertValue converts a Likert token to its numeric value, or 0 when the
// token is empty, not a plain decimal number, or outside the 1..5 scale.
func LikertValue(token string) int {
	if token == "" {
		return 0
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0
		}
	}
	v, err := strconv.Atoi(token)
	if err != nil || v < likertMin || v > likertMax {
		return 0
	}
	return v
}

// Percentage returns total/maxTotal*100 rounded to two decimals, or 0 when
// maxTotal is 0.
func Percentage(total, maxTotal int) float64 {
	if maxTotal == 0 {
		return 0
	}
	pct := float64(total) / float64(maxTotal) * 100
	return math.Round(pct*100) / 100
}
