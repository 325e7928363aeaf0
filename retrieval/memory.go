package retrieval

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

const (
	DefaultTopK     = 3
	DefaultMinScore = 0.7
)

var _ retriever.Retriever = (*MemoryRetriever)(nil)

type entry struct {
	doc    *schema.Document
	vector map[string]float64
}

// MemoryRetriever ranks documents by cosine similarity of term frequency
// vectors. Documents scoring below the threshold are dropped.
type MemoryRetriever struct {
	mu       sync.RWMutex
	entries  []entry
	topK     int
	minScore float64
}

func NewMemoryRetriever(topK int, minScore float64) *MemoryRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &MemoryRetriever{topK: topK, minScore: minScore}
}

// NewTemplateRetriever indexes templates with the default k and threshold.
func NewTemplateRetriever(templates []Template) *MemoryRetriever {
	r := NewMemoryRetriever(DefaultTopK, DefaultMinScore)
	docs := make([]*schema.Document, 0, len(templates))
	for i, t := range templates {
		docs = append(docs, t.Document("template_"+strconv.Itoa(i)))
	}
	_ = r.Add(context.Background(), docs...)
	return r
}

// Add indexes docs. A document with an existing id replaces the old one.
func (r *MemoryRetriever) Add(ctx context.Context, docs ...*schema.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.ID == "" {
			return errors.New("document id required")
		}
		e := entry{doc: doc, vector: termFrequency(doc.Content)}
		replaced := false
		for i := range r.entries {
			if r.entries[i].doc.ID == doc.ID {
				r.entries[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			r.entries = append(r.entries, e)
		}
	}
	return nil
}

func (r *MemoryRetriever) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *MemoryRetriever) GetType() string {
	return "MemoryRetriever"
}

// Retrieve honors retriever.WithTopK and retriever.WithScoreThreshold.
// Returned documents carry their score.
func (r *MemoryRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) (docs []*schema.Document, err error) {
	topK, minScore := r.topK, r.minScore
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK, ScoreThreshold: &minScore}, opts...)
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}
	if options.ScoreThreshold != nil {
		minScore = *options.ScoreThreshold
	}

	ctx = callbacks.EnsureRunInfo(ctx, r.GetType(), components.ComponentOfRetriever)
	ctx = callbacks.OnStart(ctx, &retriever.CallbackInput{
		Query:          query,
		TopK:           topK,
		ScoreThreshold: &minScore,
	})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
			return
		}
		callbacks.OnEnd(ctx, &retriever.CallbackOutput{Docs: docs})
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	queryVector := termFrequency(query)

	type scored struct {
		doc   *schema.Document
		score float64
	}
	r.mu.RLock()
	matches := make([]scored, 0, len(r.entries))
	for _, e := range r.entries {
		score := cosineSimilarity(queryVector, e.vector)
		if score == 0 || score < minScore {
			continue
		}
		matches = append(matches, scored{doc: e.doc, score: score})
	}
	r.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	docs = make([]*schema.Document, 0, len(matches))
	for _, m := range matches {
		doc := *m.doc
		doc.MetaData = make(map[string]any, len(m.doc.MetaData)+1)
		for k, v := range m.doc.MetaData {
			doc.MetaData[k] = v
		}
		docs = append(docs, doc.WithScore(m.score))
	}
	return docs, nil
}

func termFrequency(text string) map[string]float64 {
	vector := make(map[string]float64)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	for _, token := range tokens {
		vector[token]++
	}
	return vector
}

func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, weight := range a {
		dot += weight * b[term]
		normA += weight * weight
	}
	for _, weight := range b {
		normB += weight * weight
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
