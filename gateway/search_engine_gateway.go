package gateway

import (
	"context"

	"forms-search-indexer/domain"
	"forms-search-indexer/driver"
	"forms-search-indexer/port"
	appOtel "forms-search-indexer/utils/otel"
)

// SearchDriver is the engine-facing surface the gateway needs.
type SearchDriver interface {
	IndexDocuments(ctx context.Context, docs []driver.DocumentPayload) error
	DeleteByUIDPrefix(ctx context.Context, prefix string) error
	EnsureIndex(ctx context.Context) error
}

// SearchEngineGateway flattens domain documents into engine payloads.
type SearchEngineGateway struct {
	driver SearchDriver
}

func NewSearchEngineGateway(driver SearchDriver) *SearchEngineGateway {
	return &SearchEngineGateway{
		driver: driver,
	}
}

func (g *SearchEngineGateway) IndexDocuments(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	payloads := make([]driver.DocumentPayload, len(docs))
	for i := range docs {
		payloads[i] = toPayload(&docs[i])
	}

	if err := g.driver.IndexDocuments(ctx, payloads); err != nil {
		return &port.SearchEngineError{
			Op:  "IndexDocuments",
			Err: err.Error(),
		}
	}

	if m := appOtel.Metrics; m != nil {
		m.IndexedTotal.Add(ctx, int64(len(docs)))
	}

	return nil
}

func (g *SearchEngineGateway) IndexDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return nil
	}

	if err := g.driver.IndexDocuments(ctx, []driver.DocumentPayload{toPayload(doc)}); err != nil {
		return &port.SearchEngineError{
			Op:  "IndexDocument",
			Err: err.Error(),
		}
	}

	if m := appOtel.Metrics; m != nil {
		m.IndexedTotal.Add(ctx, 1)
	}

	return nil
}

func (g *SearchEngineGateway) DeleteByUIDPrefix(ctx context.Context, prefix string) error {
	if err := g.driver.DeleteByUIDPrefix(ctx, prefix); err != nil {
		return &port.SearchEngineError{
			Op:  "DeleteByUIDPrefix",
			Err: err.Error(),
		}
	}

	if m := appOtel.Metrics; m != nil {
		m.DeletedTotal.Add(ctx, 1)
	}

	return nil
}

func (g *SearchEngineGateway) EnsureIndex(ctx context.Context) error {
	if err := g.driver.EnsureIndex(ctx); err != nil {
		return &port.SearchEngineError{
			Op:  "EnsureIndex",
			Err: err.Error(),
		}
	}

	return nil
}

// toPayload flattens the fixed attributes and every dynamic field into
// one top-level object, so each field key is searchable and filterable
// on its own.
func toPayload(doc *domain.Document) driver.DocumentPayload {
	payload := driver.DocumentPayload{
		"id":      doc.ID,
		"site":    doc.Site,
		"role":    doc.Role,
		"type":    doc.Type,
		"uid":     doc.UID,
		"title":   doc.Title,
		"date":    doc.Date,
		"url":     doc.URL,
		"content": doc.Content,
	}
	for key, value := range doc.Fields {
		payload[key] = value
	}
	return payload
}
