// Package classify maps scores to qualitative bands with recommendation text.
//
// Two threshold tables are used for sections: the situational-judgment
// section is classified on raw points, every other section on the
// percentage of its own maximum.
package classify

import (
	"github.com/excelcollege/psychometric/internal/bank"
	"github.com/excelcollege/psychometric/internal/model"
)

// Band labels.
const (
	Exceptional      = "Exceptional"
	Proficient       = "Proficient"
	Developing       = "Developing"
	BasicAwareness   = "Basic Awareness"
	NeedsAttention   = "Needs Attention"
	Excellent        = "Excellent"
	Good             = "Good"
	Average          = "Average"
	NeedsImprovement = "Needs Improvement"
	CriticalConcern  = "Critical Concern"
)

// threshold is an inclusive lower bound. Tables are ordered highest first and
// the first bound the value reaches wins.
type threshold struct {
	min  float64
	band model.Band
}

var overallTable = []threshold{
	{85, model.Band{Label: Exceptional, Recommendation: "You are highly prepared for both academic and professional settings. Recommendations: Take on mentoring roles, join advanced training in emotional intelligence or strategic thinking, participate in high-stakes projects."}},
	{70, model.Band{Label: Proficient, Recommendation: "Solid foundation; most skills are well-developed. Recommendations: Real-world exposure, advanced communication and leadership workshops, regular practice with mock interviews."}},
	{55, model.Band{Label: Developing, Recommendation: "Emerging potential; some traits need strengthening. Recommendations: Join personality development and soft skills training programs, work with a mentor, practice role-play and GDs."}},
	{40, model.Band{Label: BasicAwareness, Recommendation: "Foundational awareness but inconsistent application. Recommendations: Foundational workshops on communication and EI, structured self-help tools, weekly improvement goals."}},
}

var overallFloor = model.Band{Label: NeedsAttention, Recommendation: "Significant skill gaps. Recommendations: Attend beginner workshops, one-on-one mentoring, structured PDP."}

var judgmentTable = []threshold{
	{36, model.Band{Label: Exceptional, Recommendation: "Outstanding judgment and professionalism. Keep practicing leadership scenarios."}},
	{31, model.Band{Label: Good, Recommendation: "Strong situational judgment; minor refinements recommended."}},
	{21, model.Band{Label: Average, Recommendation: "Practice mock interviews and situational role-play to build confidence."}},
	{11, model.Band{Label: NeedsImprovement, Recommendation: "Work on basic decision-making skills through workshops."}},
}

var judgmentFloor = model.Band{Label: CriticalConcern, Recommendation: "Immediate support recommended."}

var sectionTable = []threshold{
	{80, model.Band{Label: Excellent, Recommendation: "Strong skill — leverage for leadership and mentoring opportunities."}},
	{60, model.Band{Label: Good, Recommendation: "Solid skill; refine with targeted practice and workshops."}},
	{40, model.Band{Label: Developing, Recommendation: "Work on consistency and applied practice through role-play and training."}},
	{20, model.Band{Label: BasicAwareness, Recommendation: "Start with foundational training and practice."}},
}

var sectionFloor = model.Band{Label: NeedsImprovement, Recommendation: "Immediate guided practice and mentoring recommended."}

// defaultSectionMax is used for section names the bank does not know.
const defaultSectionMax = 50

func pick(table []threshold, floor model.Band, v float64) model.Band {
	for _, th := range table {
		if v >= th.min {
			return th.band
		}
	}
	return floor
}

// Overall classifies an overall percentage.
func Overall(pct float64) model.Band {
	return pick(overallTable, overallFloor, pct)
}

// Section classifies the raw score of the named section.
func Section(b *bank.Bank, name string, raw int) model.Band {
	sec, ok := b.Section(name)
	if !ok {
		sec = model.Section{Name: name, MaxScore: defaultSectionMax}
	}
	if sec.Judgment {
		return pick(judgmentTable, judgmentFloor, float64(raw))
	}
	pct := 0.0
	if sec.MaxScore > 0 {
		pct = float64(raw*100) / float64(sec.MaxScore)
	}
	return pick(sectionTable, sectionFloor, pct)
}

// Sections classifies every section score, keeping definition order.
func Sections(b *bank.Bank, scores model.Scores) []model.SectionResult {
	out := make([]model.SectionResult, 0, len(scores.Sections))
	for _, s := range scores.Sections {
		out = append(out, model.SectionResult{
			SectionScore: s,
			Band:         Section(b, s.Name, s.Score),
		})
	}
	return out
}

var barRamp = []struct {
	min   float64
	color model.RGB
}{
	{85, model.RGB{R: 0.0, G: 0.5, B: 0.0}}, // dark green
	{70, model.RGB{R: 0.0, G: 0.6, B: 0.8}}, // teal
	{55, model.RGB{R: 0.8, G: 0.6, B: 0.0}}, // amber
	{40, model.RGB{R: 0.9, G: 0.4, B: 0.0}}, // orange
}

var barFloor = model.RGB{R: 0.8, G: 0.0, B: 0.0} // red

// BarColor returns the fill colour of the overall progress bar. The steps
// follow the overall band thresholds.
func BarColor(pct float64) model.RGB {
	for _, step := range barRamp {
		if pct >= step.min {
			return step.color
		}
	}
	return barFloor
}
