package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templateCSV = `Type of Form, Form Template Name ,Link,Context
Feedback,Event feedback,https://example.com/a,"Collect event feedback: rating of the event, favourite session and comments"
HR,Leave request,https://example.com/b,"Employee leave request with start date, end date and reason"
HR,Empty,https://example.com/c,"  "
`

func TestLoadTemplatesCSV(t *testing.T) {
	templates, err := LoadTemplatesCSV(strings.NewReader(templateCSV))
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, Template{
		TypeOfForm:   "Feedback",
		TemplateName: "Event feedback",
		Link:         "https://example.com/a",
		Context:      "Collect event feedback: rating of the event, favourite session and comments",
	}, templates[0])
}

func TestLoadTemplatesCSVRequiresContext(t *testing.T) {
	_, err := LoadTemplatesCSV(strings.NewReader("name,link\nx,y\n"))
	assert.Error(t, err)

	templates, err := LoadTemplatesCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestMemoryRetrieverRanksAndFilters(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRetriever(3, 0)
	require.NoError(t, r.Add(ctx,
		&schema.Document{ID: "a", Content: "event feedback rating"},
		&schema.Document{ID: "b", Content: "event registration"},
		&schema.Document{ID: "c", Content: "tax return"},
	))

	docs, err := r.Retrieve(ctx, "Event feedback rating!")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.InDelta(t, 1.0, docs[0].Score(), 1e-9)
	assert.Equal(t, "b", docs[1].ID)

	docs, err = r.Retrieve(ctx, "event feedback rating", retriever.WithTopK(1))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = r.Retrieve(ctx, "event feedback rating", retriever.WithScoreThreshold(0.7))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
}

func TestMemoryRetrieverReplacesByID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRetriever(0, 0)
	require.NoError(t, r.Add(ctx, &schema.Document{ID: "a", Content: "old words"}))
	require.NoError(t, r.Add(ctx, &schema.Document{ID: "a", Content: "new words"}))
	assert.Equal(t, 1, r.Len())

	docs, err := r.Retrieve(ctx, "new")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Error(t, r.Add(ctx, &schema.Document{Content: "no id"}))
}

func TestTemplateRetrieverDefaults(t *testing.T) {
	templates, err := LoadTemplatesCSV(strings.NewReader(templateCSV))
	require.NoError(t, err)
	r := NewTemplateRetriever(templates)
	assert.Equal(t, 2, r.Len())

	docs, err := r.Retrieve(context.Background(), "something unrelated entirely")
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = r.Retrieve(context.Background(), "employee leave request with start date, end date and reason")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Leave request", docs[0].MetaData["template_name"])
}
