package ai

import (
	"context"
	"strings"
)

// Result is the parsed outcome of one LLM evaluation of an applicant
// document. Zero values stand in for sections the model did not emit.
type Result struct {
	Summary   string   `json:"summary"`
	Score     int      `json:"score"`
	Issues    string   `json:"issues"`
	FollowUps string   `json:"follow_ups"`
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

// Evaluator produces a qualitative evaluation for a serialized applicant
// document.
type Evaluator interface {
	Evaluate(ctx context.Context, applicantID, payloadJSON string) (*Result, error)
}

// The model is instructed to answer with exactly these labeled sections,
// in this order.
var sectionLabels = []string{"Summary:", "Score:", "Issues:", "Follow-Ups:"}

// ParseEvaluation scans the model response for the four expected section
// labels and slices the text between consecutive labels. A label that is
// absent leaves its field at the zero value and is reported in Missing.
// Success is set only when a Summary section was found. The score is
// accepted only when its section is purely digits.
func ParseEvaluation(text string) *Result {
	result := &Result{}

	sections := make(map[string]string, len(sectionLabels))
	pos := 0
	for i, label := range sectionLabels {
		idx := strings.Index(text[pos:], label)
		if idx == -1 {
			result.Missing = append(result.Missing, strings.TrimSuffix(label, ":"))
			continue
		}

		start := pos + idx + len(label)
		end := len(text)
		// Section runs until the next label that is actually present.
		for _, next := range sectionLabels[i+1:] {
			if nextIdx := strings.Index(text[start:], next); nextIdx != -1 {
				end = start + nextIdx
				break
			}
		}

		sections[label] = strings.TrimSpace(text[start:end])
		pos = start
	}

	if summary, ok := sections["Summary:"]; ok {
		result.Summary = summary
		result.Success = true
	}
	if score, ok := sections["Score:"]; ok {
		result.Score = digitsToScore(score)
	}
	result.Issues = sections["Issues:"]
	result.FollowUps = sections["Follow-Ups:"]

	return result
}

func digitsToScore(s string) int {
	if s == "" {
		return 0
	}

	score := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		score = score*10 + int(r-'0')
	}

	return score
}

// FormatFollowUps flattens a multi-line follow-ups section into a single
// line for storage: bullet markup is stripped, every item is quoted and
// prefixed with a bullet glyph, and items are joined with single spaces.
func FormatFollowUps(text string) string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		item := strings.Trim(line, "*•- \t\r")
		if item == "" {
			continue
		}
		items = append(items, `•"`+item+`"`)
	}

	return strings.Join(items, " ")
}
