// Package answers collects submitted form answers and keeps them in one CSV
// file per form.
package answers

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tbxark/formbuilder/types"
)

var ErrInvalidAnswer = errors.New("invalid answer")

// Columns is the header of every answers file.
var Columns = []string{"submit_id", "form_name", "step_name", "question", "answer"}

const (
	submitIDLayout = "020106-1504"
	answerTimeFmt  = "02/01/2006, 15:04:05"
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Row is one answered question of one submission.
type Row struct {
	SubmitID string `json:"submit_id"`
	FormName string `json:"form_name"`
	StepName string `json:"step_name"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (r Row) record() []string {
	return []string{r.SubmitID, r.FormName, r.StepName, r.Question, r.Answer}
}

// key identifies a row for de-duplication.
func (r Row) key() [4]string {
	return [4]string{r.SubmitID, r.FormName, r.StepName, r.Question}
}

// Key addresses a question by step and question index.
type Key struct {
	Step     int
	Question int
}

// NewSubmitID returns DDMMYY-HHMM-<8 hex>.
func NewSubmitID(now time.Time) string {
	return now.Format(submitIDLayout) + "-" + types.ShortUUID()
}

// Collect turns raw input values into rows in form order. Values that format
// to an empty string are skipped.
func Collect(form *types.FormDocument, values map[Key]any, now time.Time) []Row {
	if form == nil {
		return nil
	}
	submitID := NewSubmitID(now)
	var rows []Row
	for i, step := range form.FormContent.Steps {
		for j, q := range step.StepQuestions {
			answer := FormatAnswer(values[Key{Step: i, Question: j}])
			if answer == "" {
				continue
			}
			rows = append(rows, Row{
				SubmitID: submitID,
				FormName: form.FormContent.FormTitle,
				StepName: step.StepName,
				Question: q.QuestionText,
				Answer:   answer,
			})
		}
	}
	return rows
}

// FormatAnswer renders one input value as stored text.
func FormatAnswer(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	case time.Time:
		return val.Format(answerTimeFmt)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(answerTimeFmt)
	default:
		return fmt.Sprint(val)
	}
}

// ValidateAnswer checks a typed answer against its question. Empty answers
// are accepted; the question is then skipped by Collect.
func ValidateAnswer(q types.Question, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	switch q.QuestionType {
	case types.QuestionEmail:
		if !emailPattern.MatchString(value) {
			return fmt.Errorf("%w: %q is not an email address", ErrInvalidAnswer, value)
		}
	case types.QuestionDate:
		if _, err := time.Parse(dateLayout, value); err != nil {
			return fmt.Errorf("%w: %q is not a date (YYYY-MM-DD)", ErrInvalidAnswer, value)
		}
	case types.QuestionTime:
		if _, err := time.Parse(clockLayout, value); err != nil {
			return fmt.Errorf("%w: %q is not a time (HH:MM)", ErrInvalidAnswer, value)
		}
	case types.QuestionSliderRating:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidAnswer, value)
		}
		lo, hi, _ := types.ParseSliderRange(q.QuestionExample)
		if n < lo || n > hi {
			return fmt.Errorf("%w: %d is outside %d-%d", ErrInvalidAnswer, n, lo, hi)
		}
	default:
		if q.QuestionType.IsChoice() {
			return validateChoice(q, value)
		}
	}
	return nil
}

func validateChoice(q types.Question, value string) error {
	options := q.Options()
	if len(options) == 0 {
		return nil
	}
	picked := []string{value}
	if q.QuestionType.IsMultiValue() {
		picked = splitPicked(value)
	}
	for _, p := range picked {
		if !containsFold(options, p) {
			return fmt.Errorf("%w: %q is not one of %s", ErrInvalidAnswer, p, strings.Join(options, " / "))
		}
	}
	return nil
}

func splitPicked(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsFold(options []string, s string) bool {
	for _, o := range options {
		if strings.EqualFold(o, s) {
			return true
		}
	}
	return false
}
