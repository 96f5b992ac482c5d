package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all OTel metric instruments of the indexer.
var Metrics *FormsIndexerMetrics

// FormsIndexerMetrics contains all metric instruments.
type FormsIndexerMetrics struct {
	IndexedTotal    metric.Int64Counter
	DeletedTotal    metric.Int64Counter
	ErrorsTotal     metric.Int64Counter
	ReindexDuration metric.Float64Histogram
}

// InitMetrics initializes all metric instruments.
func InitMetrics() error {
	meter := otel.Meter("forms-search-indexer")

	indexedTotal, err := meter.Int64Counter("forms_indexer_indexed_total",
		metric.WithDescription("Total number of form response documents indexed"),
	)
	if err != nil {
		return err
	}

	deletedTotal, err := meter.Int64Counter("forms_indexer_deleted_total",
		metric.WithDescription("Total number of delete operations against the index"),
	)
	if err != nil {
		return err
	}

	errorsTotal, err := meter.Int64Counter("forms_indexer_errors_total",
		metric.WithDescription("Total number of indexing errors"),
	)
	if err != nil {
		return err
	}

	reindexDuration, err := meter.Float64Histogram("forms_indexer_reindex_duration_seconds",
		metric.WithDescription("Full reindex run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	Metrics = &FormsIndexerMetrics{
		IndexedTotal:    indexedTotal,
		DeletedTotal:    deletedTotal,
		ErrorsTotal:     errorsTotal,
		ReindexDuration: reindexDuration,
	}

	return nil
}
