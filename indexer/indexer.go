package indexer

import (
	"context"
	"strconv"

	"forms-search-indexer/config"
	"forms-search-indexer/domain"
	"forms-search-indexer/port"
	"forms-search-indexer/usecase"
)

// FormsIndexer is the indexing surface the rest of the platform sees:
// a named, versioned component that can describe which resource types
// it serves, rebuild single resources, and reindex the whole corpus.
type FormsIndexer struct {
	cfg          config.IndexerConfig
	responseRepo port.ResponseRepository
	syncResponse *usecase.SyncResponseUsecase
	reindex      *usecase.ReindexEngine
}

func New(
	cfg config.IndexerConfig,
	responseRepo port.ResponseRepository,
	syncResponse *usecase.SyncResponseUsecase,
	reindex *usecase.ReindexEngine,
) *FormsIndexer {
	return &FormsIndexer{
		cfg:          cfg,
		responseRepo: responseRepo,
		syncResponse: syncResponse,
		reindex:      reindex,
	}
}

func (i *FormsIndexer) Name() string {
	return i.cfg.Name
}

func (i *FormsIndexer) Description() string {
	return i.cfg.Description
}

func (i *FormsIndexer) Version() string {
	return i.cfg.Version
}

func (i *FormsIndexer) IsEnabled() bool {
	return i.cfg.Enabled
}

// ResourceUID builds the index-wide unique id of a resource.
func (i *FormsIndexer) ResourceUID(resourceID, resourceType string) string {
	return domain.ResourceUID(resourceID, resourceType)
}

// ResourceTypeNames lists the resource types this indexer serves: the
// base type plus one form-scoped type per existing form.
func (i *FormsIndexer) ResourceTypeNames(ctx context.Context) ([]string, error) {
	forms, err := i.responseRepo.ListForms(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(forms)+1)
	names = append(names, domain.ResourceType)
	for _, form := range forms {
		names = append(names, domain.ResourceType+"_"+strconv.Itoa(form.ID()))
	}
	return names, nil
}

// GetDocuments returns the index documents of one resource: one
// document for a published response, none for an unpublished one
// (whose index entries are removed as a side effect).
func (i *FormsIndexer) GetDocuments(ctx context.Context, responseID int) ([]domain.Document, error) {
	doc, err := i.syncResponse.Execute(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []domain.Document{}, nil
	}
	return []domain.Document{*doc}, nil
}

// IndexAll rebuilds the whole corpus synchronously and returns the
// accumulated error messages, one per failure, empty on full success.
// The run goes through the reindex engine, so a rebuild triggered from
// another entry point is joined instead of raced.
func (i *FormsIndexer) IndexAll(ctx context.Context) []string {
	if !i.cfg.Enabled {
		return []string{"indexer is disabled"}
	}
	if task := i.reindex.RequestFullReindex(); task != nil {
		return task.Wait()
	}
	if current := i.reindex.Current(); current != nil {
		return current.Wait()
	}
	return []string{}
}
