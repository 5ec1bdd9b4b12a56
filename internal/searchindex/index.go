// Package searchindex provides the full-text index used to search cached
// document units. Callers depend only on the Index interface.
package searchindex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Index is a full-text index over numbered units of text.
// Search returns ids of units matching the query, in no guaranteed order.
type Index interface {
	Add(id int, text string) error
	Search(q string) ([]int, error)
}

// Factory creates an empty Index.
type Factory func() (Index, error)

const (
	contentField = "content"
	// plainAnalyzer lowercases unicode word tokens and keeps stop words,
	// so every word that appears in a unit can be searched.
	plainAnalyzer = "plain"
)

// BleveIndex is an in-memory Index backed by bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleve creates an empty in-memory bleve index.
func NewBleve() (Index, error) {
	m, err := newMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveIndex{index: idx}, nil
}

func newMapping() (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()
	err := m.AddCustomAnalyzer(plainAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("register analyzer: %w", err)
	}
	m.DefaultAnalyzer = plainAnalyzer
	return m, nil
}

// Add indexes text under the given unit id, replacing any previous text for it.
func (b *BleveIndex) Add(id int, text string) error {
	if err := b.index.Index(strconv.Itoa(id), map[string]any{contentField: text}); err != nil {
		return fmt.Errorf("index unit %d: %w", id, err)
	}
	return nil
}

// Search matches units containing every term of q. A single-term query
// also matches words that start with the term.
func (b *BleveIndex) Search(q string) ([]int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	count, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	match := bleve.NewMatchQuery(q)
	match.SetField(contentField)
	match.SetOperator(query.MatchQueryOperatorAnd)

	var search query.Query = match
	if terms := strings.Fields(q); len(terms) == 1 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(terms[0]))
		prefix.SetField(contentField)
		search = bleve.NewDisjunctionQuery(match, prefix)
	}

	req := bleve.NewSearchRequestOptions(search, int(count), 0, false)
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	ids := make([]int, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close releases the underlying index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
