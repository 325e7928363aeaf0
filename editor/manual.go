package editor

import (
	"fmt"

	"github.com/tbxark/formbuilder/patch"
	"github.com/tbxark/formbuilder/types"
)

// ManualPaths are the document locations a person may edit directly.
var ManualPaths = []string{
	"/form_content/form_title",
	"/form_content/description",
	"/form_content/steps/-/step_name",
	"/form_content/steps/-/step_description",
	"/form_content/steps/-/step_questions",
}

// Apply runs explicit operations against doc. doc itself is not modified.
func Apply(doc *types.FormDocument, ops []patch.Operation) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no form loaded", ErrEditApply)
	}
	if err := patch.ValidatePatchOperations(ops, ManualPaths); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditApply, err)
	}
	next, err := patch.ApplyRFC6902(*doc, ops)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditApply, err)
	}
	return finish(doc, next.FormContent)
}

// ReplaceStepQuestions swaps the question list of one step. Option lists are
// normalized to the "A / B / C" form before saving.
func ReplaceStepQuestions(doc *types.FormDocument, stepIndex int, questions []types.Question) (*Result, error) {
	if err := checkStep(doc, stepIndex); err != nil {
		return nil, err
	}
	normalized := make([]types.Question, len(questions))
	for i, q := range questions {
		normalized[i] = types.NormalizeExample(q)
	}
	return Apply(doc, []patch.Operation{{
		Op:    patch.OperationReplace,
		Path:  fmt.Sprintf("/form_content/steps/%d/step_questions", stepIndex),
		Value: normalized,
	}})
}

// UpdateStep changes the name and description of one step.
func UpdateStep(doc *types.FormDocument, stepIndex int, name, description string) (*Result, error) {
	if err := checkStep(doc, stepIndex); err != nil {
		return nil, err
	}
	return Apply(doc, []patch.Operation{
		{Op: patch.OperationReplace, Path: fmt.Sprintf("/form_content/steps/%d/step_name", stepIndex), Value: name},
		{Op: patch.OperationReplace, Path: fmt.Sprintf("/form_content/steps/%d/step_description", stepIndex), Value: description},
	})
}

func SetDescription(doc *types.FormDocument, description string) (*Result, error) {
	return Apply(doc, []patch.Operation{{Op: patch.OperationReplace, Path: "/form_content/description", Value: description}})
}

func SetTitle(doc *types.FormDocument, title string) (*Result, error) {
	return Apply(doc, []patch.Operation{{Op: patch.OperationReplace, Path: "/form_content/form_title", Value: title}})
}

func checkStep(doc *types.FormDocument, stepIndex int) error {
	if doc == nil {
		return fmt.Errorf("%w: no form loaded", ErrEditApply)
	}
	if stepIndex < 0 || stepIndex >= len(doc.FormContent.Steps) {
		return fmt.Errorf("%w: step index %d out of range [0, %d)", ErrEditApply, stepIndex, len(doc.FormContent.Steps))
	}
	return nil
}
