package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"forms-search-indexer/domain"
	"forms-search-indexer/port"
)

const (
	defaultBatchSize   = 100
	defaultConcurrency = 4
)

// IndexAllResponsesUsecase reindexes the whole response corpus in
// bounded-size batches. Failures are accumulated as error strings; one
// failing batch never aborts the remaining batches.
type IndexAllResponsesUsecase struct {
	responseRepo port.ResponseRepository
	workflow     port.WorkflowService
	searchEngine port.SearchEngine
	builder      *domain.DocumentBuilder
	batchSize    int
	concurrency  int
	logger       *slog.Logger
}

func NewIndexAllResponsesUsecase(
	responseRepo port.ResponseRepository,
	workflow port.WorkflowService,
	searchEngine port.SearchEngine,
	builder *domain.DocumentBuilder,
	batchSize int,
	concurrency int,
	logger *slog.Logger,
) *IndexAllResponsesUsecase {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexAllResponsesUsecase{
		responseRepo: responseRepo,
		workflow:     workflow,
		searchEngine: searchEngine,
		builder:      builder,
		batchSize:    batchSize,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// Execute walks every response id in fixed-size batches, including the
// final partial batch, and returns the accumulated error messages. An
// empty slice means full success.
func (u *IndexAllResponsesUsecase) Execute(ctx context.Context) []string {
	var errors []string

	ids, err := u.responseRepo.ListAllResponseIDs(ctx)
	if err != nil {
		u.logger.Error("failed to list response ids", "err", err)
		return []string{err.Error()}
	}

	forms, err := u.responseRepo.ListForms(ctx)
	if err != nil {
		u.logger.Error("failed to list forms", "err", err)
		return []string{err.Error()}
	}
	formsByID := make(map[int]*domain.Form, len(forms))
	for _, form := range forms {
		formsByID[form.ID()] = form
	}

	states, err := u.workflow.ListStates(ctx)
	if err != nil {
		// Workflow enrichment degrades to the sentinel state; the
		// corpus is still indexed.
		u.logger.Error("failed to list workflow states", "err", err)
		errors = append(errors, err.Error())
		states = nil
	}
	statesByID := make(map[int]domain.WorkflowState, len(states))
	for _, state := range states {
		statesByID[state.ID] = state
	}

	for start := 0; start < len(ids); start += u.batchSize {
		end := start + u.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		if err := u.indexBatch(ctx, ids[start:end], forms, formsByID, statesByID); err != nil {
			u.logger.Error("batch indexing failed",
				"from_id", ids[start],
				"batch_size", end-start,
				"err", err,
			)
			errors = append(errors, err.Error())
		}
	}

	u.logger.Info("full reindex finished", "responses", len(ids), "errors", len(errors))
	return errors
}

// indexBatch loads one id batch with its answers and sub-field roles,
// builds the documents with bounded concurrency, and flushes them in a
// single write. All documents of the batch are written (or skipped with
// a diagnostic) before the next batch starts.
func (u *IndexAllResponsesUsecase) indexBatch(ctx context.Context, batch []int, forms []*domain.Form, formsByID map[int]*domain.Form, statesByID map[int]domain.WorkflowState) error {
	responses, err := u.responseRepo.GetResponsesByIDs(ctx, batch)
	if err != nil {
		return err
	}

	published := make([]*domain.FormResponse, 0, len(responses))
	publishedIDs := make([]int, 0, len(responses))
	for _, response := range responses {
		if response.IsPublished() {
			published = append(published, response)
			publishedIDs = append(publishedIDs, response.ID())
		}
	}
	if len(published) == 0 {
		return nil
	}

	stateIDByResponse := make(map[int]int)
	for _, form := range forms {
		m, err := u.workflow.ListStatesByResponseIDs(ctx, publishedIDs, form.WorkflowID(), form.ID())
		if err != nil {
			return err
		}
		for responseID, stateID := range m {
			stateIDByResponse[responseID] = stateID
		}
	}

	answersByResponse, err := u.responseRepo.GetQuestionAnswersByResponseIDs(ctx, publishedIDs)
	if err != nil {
		return err
	}

	fieldRoles, err := u.responseRepo.GetFieldRolesByEntryIDs(ctx, collectEntryIDs(answersByResponse))
	if err != nil {
		return err
	}

	docs := u.buildDocuments(ctx, published, formsByID, statesByID, stateIDByResponse, answersByResponse, fieldRoles)

	return u.searchEngine.IndexDocuments(ctx, docs)
}

// buildDocuments builds the batch's documents across a bounded worker
// pool. Each build owns its private key set, so there is no shared
// mutable state between documents; a failing document is logged and
// excluded without failing the batch.
func (u *IndexAllResponsesUsecase) buildDocuments(
	ctx context.Context,
	responses []*domain.FormResponse,
	formsByID map[int]*domain.Form,
	statesByID map[int]domain.WorkflowState,
	stateIDByResponse map[int]int,
	answersByResponse map[int][]domain.QuestionAnswer,
	fieldRoles map[int]domain.FieldRole,
) []domain.Document {
	var (
		mu   sync.Mutex
		docs = make([]domain.Document, 0, len(responses))
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for _, response := range responses {
		g.Go(func() error {
			doc, err := u.buildOne(response, formsByID, statesByID, stateIDByResponse, answersByResponse, fieldRoles)
			if err != nil {
				u.logger.Error("failed to build document, excluding from batch",
					"response_id", response.ID(),
					"err", err,
				)
				return nil
			}

			mu.Lock()
			docs = append(docs, *doc)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return docs
}

func (u *IndexAllResponsesUsecase) buildOne(
	response *domain.FormResponse,
	formsByID map[int]*domain.Form,
	statesByID map[int]domain.WorkflowState,
	stateIDByResponse map[int]int,
	answersByResponse map[int][]domain.QuestionAnswer,
	fieldRoles map[int]domain.FieldRole,
) (*domain.Document, error) {
	form, ok := formsByID[response.FormID()]
	if !ok {
		return nil, fmt.Errorf("form %d not found for response %d", response.FormID(), response.ID())
	}

	state := domain.SentinelState()
	if stateID, ok := stateIDByResponse[response.ID()]; ok {
		if s, ok := statesByID[stateID]; ok {
			state = s
		}
	}

	return u.builder.Build(response, form, state, answersByResponse[response.ID()], fieldRoles)
}

func collectEntryIDs(answersByResponse map[int][]domain.QuestionAnswer) []int {
	seen := make(map[int]struct{})
	var entryIDs []int
	for _, answers := range answersByResponse {
		for _, qa := range answers {
			if _, ok := seen[qa.Question.ID]; ok {
				continue
			}
			seen[qa.Question.ID] = struct{}{}
			entryIDs = append(entryIDs, qa.Question.ID)
		}
	}
	return entryIDs
}
