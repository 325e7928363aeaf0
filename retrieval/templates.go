// Package retrieval finds form templates similar to a request.
package retrieval

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Template is one row of the template corpus.
type Template struct {
	TypeOfForm   string `json:"type_of_form"`
	TemplateName string `json:"template_name"`
	Link         string `json:"link"`
	Context      string `json:"context"`
}

// Document converts t for a retriever. The context is the searchable text.
func (t Template) Document(id string) *schema.Document {
	return &schema.Document{
		ID:      id,
		Content: strings.TrimSpace(t.Context),
		MetaData: map[string]any{
			"type_of_form":  t.TypeOfForm,
			"template_name": t.TemplateName,
			"link":          t.Link,
		},
	}
}

// LoadTemplatesFile reads a template CSV from disk.
func LoadTemplatesFile(path string) ([]Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open templates: %w", err)
	}
	defer f.Close()
	return LoadTemplatesCSV(f)
}

// LoadTemplatesCSV reads rows with the columns type_of_form, template_name,
// link and context. Header names are trimmed, lower cased and have spaces
// replaced by underscores; form_template_name is accepted for template_name.
// Rows without context are skipped.
func LoadTemplatesCSV(r io.Reader) ([]Template, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeHeader(name)] = i
	}
	if _, ok := columns["context"]; !ok {
		return nil, errors.New("template csv has no context column")
	}
	if _, ok := columns["template_name"]; !ok {
		if i, ok := columns["form_template_name"]; ok {
			columns["template_name"] = i
		}
	}

	var templates []Template
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read template row: %w", err)
		}
		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		t := Template{
			TypeOfForm:   field("type_of_form"),
			TemplateName: field("template_name"),
			Link:         field("link"),
			Context:      field("context"),
		}
		if t.Context == "" {
			continue
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func normalizeHeader(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
