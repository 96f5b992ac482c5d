package driver

import (
	"context"
	"fmt"

	"github.com/meilisearch/meilisearch-go"
)

const meiliTaskTimeout = 15 * 1000 // milliseconds

// DocumentPayload is the flattened JSON object sent to Meilisearch:
// the fixed document attributes plus every dynamic field at top level.
type DocumentPayload map[string]any

// MeilisearchDriver writes form response documents to a Meilisearch
// index. Documents are keyed by uid, so re-adding is an upsert.
type MeilisearchDriver struct {
	client    meilisearch.ServiceManager
	indexName string
	index     meilisearch.IndexManager
}

func NewMeilisearchDriver(client meilisearch.ServiceManager, indexName string) *MeilisearchDriver {
	return &MeilisearchDriver{
		client:    client,
		indexName: indexName,
		index:     client.Index(indexName),
	}
}

func (d *MeilisearchDriver) IndexDocuments(ctx context.Context, docs []DocumentPayload) error {
	if len(docs) == 0 {
		return nil
	}

	task, err := d.index.AddDocuments(docs)
	if err != nil {
		return &DriverError{
			Op:  "IndexDocuments",
			Err: err.Error(),
		}
	}

	_, err = d.index.WaitForTask(task.TaskUID, meiliTaskTimeout)
	if err != nil {
		return &DriverError{
			Op:  "IndexDocuments",
			Err: "failed to wait for indexing task: " + err.Error(),
		}
	}

	return nil
}

// DeleteByUIDPrefix removes every document whose uid starts with the
// given prefix. uid must be a filterable attribute (see EnsureIndex).
func (d *MeilisearchDriver) DeleteByUIDPrefix(ctx context.Context, prefix string) error {
	task, err := d.index.DeleteDocumentsByFilter(fmt.Sprintf("uid STARTS WITH %q", prefix))
	if err != nil {
		return &DriverError{
			Op:  "DeleteByUIDPrefix",
			Err: err.Error(),
		}
	}

	_, err = d.index.WaitForTask(task.TaskUID, meiliTaskTimeout)
	if err != nil {
		return &DriverError{
			Op:  "DeleteByUIDPrefix",
			Err: "failed to wait for delete task: " + err.Error(),
		}
	}

	return nil
}

// EnsureIndex creates the index keyed by uid when missing and registers
// the filterable attributes the delete path and facet queries rely on.
func (d *MeilisearchDriver) EnsureIndex(ctx context.Context) error {
	_, err := d.index.FetchInfo()
	if err != nil {
		task, err := d.client.CreateIndex(&meilisearch.IndexConfig{
			Uid:        d.indexName,
			PrimaryKey: "uid",
		})
		if err != nil {
			return &DriverError{
				Op:  "EnsureIndex",
				Err: "failed to create index: " + err.Error(),
			}
		}

		_, err = d.index.WaitForTask(task.TaskUID, meiliTaskTimeout)
		if err != nil {
			return &DriverError{
				Op:  "EnsureIndex",
				Err: "failed to wait for index creation: " + err.Error(),
			}
		}
	}

	task, err := d.index.UpdateFilterableAttributes(&[]string{
		"uid",
		"type",
		"role",
		"id_form",
		"id_workflow_state",
	})
	if err != nil {
		return &DriverError{
			Op:  "EnsureIndex",
			Err: "failed to set filterable attributes: " + err.Error(),
		}
	}

	_, err = d.index.WaitForTask(task.TaskUID, meiliTaskTimeout)
	if err != nil {
		return &DriverError{
			Op:  "EnsureIndex",
			Err: "failed to wait for filterable attributes: " + err.Error(),
		}
	}

	return nil
}
