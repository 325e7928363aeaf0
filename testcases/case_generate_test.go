package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/formbuilder/types"
)

func TestGenerateRegistrationForm(t *testing.T) {
	t.Parallel()
	chatModel := InitChatModel(t)

	forms, doc := GenerateForm(t, chatModel, "A registration form for a weekend Go workshop with dietary preferences and t-shirt size")
	if !types.ValidFormID(doc.FormID) {
		t.Errorf("unexpected form id %q", doc.FormID)
	}
	if doc.FormContent.FormTitle == "" {
		t.Error("form title should not be empty")
	}
	if len(doc.FormContent.Steps) == 0 {
		t.Fatal("form should have at least one step")
	}
	if err := doc.FormContent.Validate(); err != nil {
		t.Errorf("generated form is invalid: %v", err)
	}

	saved, err := forms.Read(context.Background(), doc.FormID)
	if err != nil {
		t.Fatalf("read saved form: %v", err)
	}
	if saved.FormContent.QuestionCount() != doc.FormContent.QuestionCount() {
		t.Errorf("saved form differs: %d vs %d questions", saved.FormContent.QuestionCount(), doc.FormContent.QuestionCount())
	}
	t.Logf("generated form:\n%s", types.FormatOutline(doc.FormContent))
}
