package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedQuestionType = errors.New("unsupported question type")
	ErrInvalidForm             = errors.New("invalid form content")
)

// Valid reports whether t is one of QuestionTypes. The comparison is exact.
func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseQuestionType accepts user supplied text, tolerating case and
// surrounding whitespace. Anything outside the enumeration is rejected.
func ParseQuestionType(s string) (QuestionType, error) {
	t := QuestionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, s)
	}
	return t, nil
}

// IsChoice reports whether the question_example encodes an option list.
func (t QuestionType) IsChoice() bool {
	switch t {
	case QuestionSingleOption, QuestionMultipleOption, QuestionDropdownSingleOption, QuestionMultipleChoiceDropdownMenu:
		return true
	default:
		return false
	}
}

// IsMultiValue reports whether more than one option can be picked.
func (t QuestionType) IsMultiValue() bool {
	return t == QuestionMultipleOption || t == QuestionMultipleChoiceDropdownMenu
}

// Issues lists every problem in the content. An empty result means the
// content can be persisted.
func (c FormContent) Issues() []Issue {
	var issues []Issue
	if strings.TrimSpace(c.FormTitle) == "" {
		issues = append(issues, Issue{JSONPointer: "/form_title", Message: "form title is required"})
	}
	if len(c.Steps) == 0 {
		issues = append(issues, Issue{JSONPointer: "/steps", Message: "form must contain at least one step"})
	}
	for i, step := range c.Steps {
		for j, q := range step.StepQuestions {
			if !q.QuestionType.Valid() {
				issues = append(issues, Issue{
					JSONPointer: fmt.Sprintf("/steps/%d/step_questions/%d/question_type", i, j),
					Message:     fmt.Sprintf("%s: %q", ErrUnsupportedQuestionType, q.QuestionType),
				})
			}
		}
	}
	return issues
}

// Validate returns an error wrapping ErrInvalidForm (and
// ErrUnsupportedQuestionType when relevant) if the content has issues.
func (c FormContent) Validate() error {
	issues := c.Issues()
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(issues))
	unsupported := false
	for _, issue := range issues {
		msgs = append(msgs, issue.JSONPointer+": "+issue.Message)
		if strings.HasSuffix(issue.JSONPointer, "/question_type") {
			unsupported = true
		}
	}
	if unsupported {
		return fmt.Errorf("%w: %w: %s", ErrInvalidForm, ErrUnsupportedQuestionType, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(msgs, "; "))
}

// ValidateQuestions checks only the question types of a flat list.
func ValidateQuestions(questions []Question) error {
	for i, q := range questions {
		if !q.QuestionType.Valid() {
			return fmt.Errorf("question %d: %w: %q", i, ErrUnsupportedQuestionType, q.QuestionType)
		}
	}
	return nil
}
