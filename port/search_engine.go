package port

import (
	"context"

	"forms-search-indexer/domain"
)

// SearchEngine is the search-engine boundary. Writes are upserts keyed
// by document uid; DeleteByUIDPrefix is "delete everything whose uid
// starts with X" — the query language behind it belongs to the client.
type SearchEngine interface {
	IndexDocuments(ctx context.Context, docs []domain.Document) error
	IndexDocument(ctx context.Context, doc *domain.Document) error
	DeleteByUIDPrefix(ctx context.Context, prefix string) error
	EnsureIndex(ctx context.Context) error
}

type SearchEngineError struct {
	Op  string
	Err string
}

func (e *SearchEngineError) Error() string {
	return e.Op + ": " + e.Err
}
