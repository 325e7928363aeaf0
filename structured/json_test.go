package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line", "```json{\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[sample]("```json\n{\"title\":\"Intake\",\"count\":2}\n```")
	require.NoError(t, err)
	assert.Equal(t, sample{Title: "Intake", Count: 2}, got)
}

func TestDecodeJSONWithProse(t *testing.T) {
	got, err := DecodeJSON[sample]("Here is the form:\n{\"title\":\"a {b}\",\"count\":1}\nThanks")
	require.NoError(t, err)
	assert.Equal(t, "a {b}", got.Title)
}

func TestDecodeJSONInvalid(t *testing.T) {
	for _, raw := range []string{"", "```json\n```", "not json at all", `{"title": `} {
		_, err := DecodeJSON[sample](raw)
		assert.ErrorIs(t, err, ErrInvalidOutput, "input %q", raw)
	}
}
