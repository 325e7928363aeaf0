package intent

import (
	"context"
	"fmt"
	"strings"
)

var errNoKeyword = fmt.Errorf("%w: no confirmation keyword matched", ErrClassification)

// LocalConfirmer resolves short, unambiguous replies without a model call.
// Anything else returns an error so a FailbackConfirmer moves on.
type LocalConfirmer struct {
	YesKeywords []string
	NoKeywords  []string
}

func NewLocalConfirmer() *LocalConfirmer {
	return &LocalConfirmer{
		YesKeywords: []string{"yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm", "apply", "apply it", "go ahead", "do it", "please do"},
		NoKeywords:  []string{"no", "n", "nope", "cancel", "don't", "do not", "stop", "never mind"},
	}
}

func (c *LocalConfirmer) Confirm(ctx context.Context, req *ConfirmRequest) (Decision, error) {
	normalized := normalizeReply(req.UserInput)
	for _, keyword := range c.YesKeywords {
		if normalized == keyword {
			return Yes, nil
		}
	}
	for _, keyword := range c.NoKeywords {
		if normalized == keyword {
			return No, nil
		}
	}
	return Unknown, errNoKeyword
}

func normalizeReply(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, ".!?, ")
}

// ParseDecision reads a free text classifier answer. Only the three literal
// tokens are accepted, optionally quoted or followed by punctuation.
func ParseDecision(s string) (Decision, error) {
	normalized := strings.Trim(normalizeReply(s), `"'`+"`")
	switch Decision(normalized) {
	case Yes, No, Unknown:
		return Decision(normalized), nil
	}
	return Unknown, fmt.Errorf("%w: unexpected decision %q", ErrClassification, s)
}

type FailbackConfirmer struct {
	confirmers []Confirmer
}

func NewFailbackConfirmer(confirmers ...Confirmer) *FailbackConfirmer {
	return &FailbackConfirmer{confirmers: confirmers}
}

func (c *FailbackConfirmer) Confirm(ctx context.Context, req *ConfirmRequest) (Decision, error) {
	var lastErr error
	for _, confirmer := range c.confirmers {
		decision, err := confirmer.Confirm(ctx, req)
		if err == nil {
			return decision, nil
		}
		lastErr = err
	}
	return Unknown, lastErr
}
