// Package bank holds the fixed questionnaire: question texts, section table
// and the situational-judgment scoring key. The data is embedded at build time
// and parsed once into an immutable Bank shared by all requests.
package bank

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/excelcollege/psychometric/internal/model"
)

// NumQuestions is the fixed length of the questionnaire.
const NumQuestions = 50

//go:embed questions.json
var questionsJSON []byte

var (
	loadOnce    sync.Once
	loadErr     error
	defaultBank *Bank
)

// Bank is the parsed question bank. It is never mutated after construction.
type Bank struct {
	questions []model.Question
	sections  []model.Section
	key       map[int]map[string]int
}

type rawBank struct {
	Sections   []model.Section           `json:"sections"`
	Questions  []model.Question          `json:"questions"`
	ScoringKey map[string]map[string]int `json:"scoring_key"`
}

// Default returns the embedded question bank. It panics if the embedded data
// is invalid, which can only happen with a broken build.
func Default() *Bank {
	loadOnce.Do(func() {
		defaultBank, loadErr = Parse(questionsJSON)
	})
	if loadErr != nil {
		panic(fmt.Sprintf("bank: embedded questions: %v", loadErr))
	}
	return defaultBank
}

// Parse builds a Bank from its JSON description and checks its invariants.
func Parse(data []byte) (*Bank, error) {
	var raw rawBank
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	b := &Bank{
		questions: raw.Questions,
		sections:  raw.Sections,
		key:       make(map[int]map[string]int, len(raw.ScoringKey)),
	}
	for qs, table := range raw.ScoringKey {
		n, err := strconv.Atoi(qs)
		if err != nil {
			return nil, fmt.Errorf("scoring key %q: %w", qs, err)
		}
		b.key[n] = table
	}

	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bank) validate() error {
	if len(b.questions) != NumQuestions {
		return fmt.Errorf("expected %d questions, got %d", NumQuestions, len(b.questions))
	}
	for i, q := range b.questions {
		if q.Number != i+1 {
			return fmt.Errorf("question at position %d has number %d", i+1, q.Number)
		}
		switch q.Kind {
		case model.KindLikert:
			if len(q.Options) != 0 {
				return fmt.Errorf("likert question %d must not have options", q.Number)
			}
		case model.KindScenario:
			if len(q.Options) != 4 {
				return fmt.Errorf("scenario question %d has %d options, want 4", q.Number, len(q.Options))
			}
			table, ok := b.key[q.Number]
			if !ok {
				return fmt.Errorf("scenario question %d has no scoring key", q.Number)
			}
			for _, o := range q.Options {
				pts, ok := table[o.Letter]
				if !ok {
					return fmt.Errorf("scenario question %d: option %s missing from scoring key", q.Number, o.Letter)
				}
				if pts < 1 || pts > 4 {
					return fmt.Errorf("scenario question %d: option %s scores %d, want 1..4", q.Number, o.Letter, pts)
				}
			}
		default:
			return fmt.Errorf("question %d has unknown kind %q", q.Number, q.Kind)
		}
	}

	if len(b.sections) == 0 {
		return errors.New("no sections defined")
	}
	next := 1
	for _, s := range b.sections {
		if s.First != next || s.Last < s.First {
			return fmt.Errorf("section %q range %d-%d does not continue at %d", s.Name, s.First, s.Last, next)
		}
		perItem := 5
		if b.questions[s.First-1].Kind == model.KindScenario {
			perItem = 4
		}
		if want := (s.Last - s.First + 1) * perItem; s.MaxScore != want {
			return fmt.Errorf("section %q max %d, want %d", s.Name, s.MaxScore, want)
		}
		next = s.Last + 1
	}
	if next != NumQuestions+1 {
		return fmt.Errorf("sections cover 1-%d, want 1-%d", next-1, NumQuestions)
	}
	return nil
}

// Questions returns all questions in order.
func (b *Bank) Questions() []model.Question {
	out := make([]model.Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Sections returns the section table in definition order.
func (b *Bank) Sections() []model.Section {
	out := make([]model.Section, len(b.sections))
	copy(out, b.sections)
	return out
}

// Section looks up a section by name.
func (b *Bank) Section(name string) (model.Section, bool) {
	for _, s := range b.sections {
		if s.Name == name {
			return s, true
		}
	}
	return model.Section{}, false
}

// SectionNames returns the section names in definition order.
func (b *Bank) SectionNames() []string {
	names := make([]string, len(b.sections))
	for i, s := range b.sections {
		names[i] = s.Name
	}
	return names
}

// Points returns the scoring-key value of an option letter for a scenario
// question. Unknown questions or letters score 0.
func (b *Bank) Points(n int, letter string) int {
	return b.key[n][letter]
}

// MaxTotal is the sum of all section maxima.
func (b *Bank) MaxTotal() int {
	total := 0
	for _, s := range b.sections {
		total += s.MaxScore
	}
	return total
}
