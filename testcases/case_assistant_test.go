package testcases

import (
	"context"
	"strings"
	"testing"

	"github.com/tbxark/formbuilder/assistant"
)

func TestConfirmedTitleEdit(t *testing.T) {
	t.Parallel()
	chatModel := InitChatModel(t)
	ctx := context.Background()

	forms, doc := GenerateForm(t, chatModel, "A short customer feedback form for a coffee shop")
	asst, err := assistant.NewFromChatModel(forms, chatModel)
	if err != nil {
		t.Fatalf("create assistant: %v", err)
	}

	resp, err := asst.Turn(ctx, doc.FormID, "", "Change the form title to Bean There Feedback")
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if resp.FormUpdated {
		t.Error("form should not change before confirmation")
	}
	t.Logf("first reply: %s", resp.Answer)

	resp, err = asst.Turn(ctx, doc.FormID, "", "yes")
	if err != nil {
		t.Fatalf("confirmation turn failed: %v", err)
	}
	if !resp.FormUpdated {
		t.Fatalf("form should be updated after confirmation, errors: %v warnings: %v", resp.Errors, resp.Warnings)
	}
	saved, err := forms.Read(ctx, doc.FormID)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	if !strings.Contains(strings.ToLower(saved.FormContent.FormTitle), "bean there") {
		t.Errorf("unexpected title %q", saved.FormContent.FormTitle)
	}
	if saved.FormID != doc.FormID || saved.CreatedAt != doc.CreatedAt {
		t.Error("form identity should be kept")
	}
	t.Logf("second reply: %s", resp.Answer)
}

func TestSuggestQuestionsTurn(t *testing.T) {
	t.Parallel()
	chatModel := InitChatModel(t)
	ctx := context.Background()

	forms, doc := GenerateForm(t, chatModel, "An onboarding form for new employees")
	asst, err := assistant.NewFromChatModel(forms, chatModel)
	if err != nil {
		t.Fatalf("create assistant: %v", err)
	}
	resp, err := asst.Turn(ctx, doc.FormID, "", "What else could I ask new hires about their equipment needs?")
	if err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	if resp.FormUpdated {
		t.Error("suggesting questions must not edit the form")
	}
	if resp.Answer == "" {
		t.Error("reply should not be empty")
	}
	t.Logf("reply: %s", resp.Answer)
}
