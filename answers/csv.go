package answers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName makes a form id or title usable as a file name.
func SanitizeName(name string) string {
	if name == "" {
		return "form"
	}
	return unsafeName.ReplaceAllString(name, "_")
}

// CSVStore keeps <dir>/<sanitized name>.csv per form.
type CSVStore struct {
	dir string
	mu  sync.Mutex
}

func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create answers directory: %w", err)
	}
	return &CSVStore{dir: dir}, nil
}

func (s *CSVStore) Path(name string) string {
	return filepath.Join(s.dir, SanitizeName(name)+".csv")
}

// Load returns the stored rows of name, or nothing when no answers exist.
func (s *CSVStore) Load(name string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(name)
}

// Save merges rows into the file of name. Rows sharing submit_id, form_name,
// step_name and question keep the last answer; other rows keep their order.
func (s *CSVStore) Save(name string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.load(name)
	if err != nil {
		return err
	}
	merged := Merge(existing, rows)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, r := range merged {
		if err := w.Write(r.record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	path := s.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write answers: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace answers: %w", err)
	}
	slog.Info("Answers saved", "file", path, "rows", len(merged), "submitted", len(rows))
	return nil
}

func (s *CSVStore) load(name string) ([]Row, error) {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[h] = i
	}
	get := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{
			SubmitID: get(rec, "submit_id"),
			FormName: get(rec, "form_name"),
			StepName: get(rec, "step_name"),
			Question: get(rec, "question"),
			Answer:   get(rec, "answer"),
		})
	}
	return rows, nil
}

// Merge appends next to existing and drops earlier duplicates.
func Merge(existing, next []Row) []Row {
	combined := make([]Row, 0, len(existing)+len(next))
	combined = append(combined, existing...)
	combined = append(combined, next...)
	last := make(map[[4]string]int, len(combined))
	for i, r := range combined {
		last[r.key()] = i
	}
	out := make([]Row, 0, len(last))
	for i, r := range combined {
		if last[r.key()] == i {
			out = append(out, r)
		}
	}
	return out
}

// Table is a pivoted view: one row per submission, one column per question.
type Table struct {
	Header []string
	Rows   [][]string
}

// Pivot groups rows by submit id in ascending order. When a question repeats
// within a submission the first answer is kept.
func Pivot(rows []Row) Table {
	var questions []string
	seenQuestion := map[string]bool{}
	answers := map[string]map[string]string{}
	for _, r := range rows {
		if !seenQuestion[r.Question] {
			seenQuestion[r.Question] = true
			questions = append(questions, r.Question)
		}
		byQuestion, ok := answers[r.SubmitID]
		if !ok {
			byQuestion = map[string]string{}
			answers[r.SubmitID] = byQuestion
		}
		if _, ok := byQuestion[r.Question]; !ok {
			byQuestion[r.Question] = r.Answer
		}
	}
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := Table{Header: append([]string{"submit_id"}, questions...)}
	for _, id := range ids {
		line := make([]string, 0, len(table.Header))
		line = append(line, id)
		for _, q := range questions {
			line = append(line, answers[id][q])
		}
		table.Rows = append(table.Rows, line)
	}
	return table
}
