package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"forms-search-indexer/domain"
	"forms-search-indexer/port"
)

// SyncResponseUsecase synchronizes one response with the index: a
// published response is rebuilt and upserted, an unpublished one has
// its documents removed by uid prefix. Unlike the batch path, a missing
// response id is an error here — the caller is waiting for a result.
type SyncResponseUsecase struct {
	responseRepo port.ResponseRepository
	workflow     port.WorkflowService
	searchEngine port.SearchEngine
	builder      *domain.DocumentBuilder
	logger       *slog.Logger
}

func NewSyncResponseUsecase(
	responseRepo port.ResponseRepository,
	workflow port.WorkflowService,
	searchEngine port.SearchEngine,
	builder *domain.DocumentBuilder,
	logger *slog.Logger,
) *SyncResponseUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncResponseUsecase{
		responseRepo: responseRepo,
		workflow:     workflow,
		searchEngine: searchEngine,
		builder:      builder,
		logger:       logger,
	}
}

// Execute returns the freshly indexed document, or nil when the
// response is unpublished and its index entries were deleted instead.
func (u *SyncResponseUsecase) Execute(ctx context.Context, responseID int) (*domain.Document, error) {
	response, err := u.responseRepo.GetResponseByID(ctx, responseID)
	if err != nil {
		return nil, err
	}

	if !response.IsPublished() {
		// Unpublishing removes stale content without a separate
		// purge job.
		uid := domain.ResourceUID(strconv.Itoa(responseID), domain.ResourceType)
		if err := u.searchEngine.DeleteByUIDPrefix(ctx, uid); err != nil {
			u.logger.Error("failed to delete documents of unpublished response",
				"response_id", responseID,
				"err", err,
			)
			return nil, err
		}
		u.logger.Info("removed unpublished response from index", "response_id", responseID)
		return nil, nil
	}

	form, err := u.responseRepo.GetFormByID(ctx, response.FormID())
	if err != nil {
		return nil, err
	}

	state, err := u.workflow.FindState(ctx, responseID, domain.ResourceType, form.WorkflowID())
	if err != nil {
		return nil, err
	}

	answers := response.FlattenAnswers()

	fieldRoles, err := u.responseRepo.GetFieldRolesByEntryIDs(ctx, entryIDsOf(answers))
	if err != nil {
		return nil, err
	}

	doc, err := u.builder.Build(response, form, state, answers, fieldRoles)
	if err != nil {
		u.logger.Error("failed to build document", "response_id", responseID, "err", err)
		return nil, err
	}

	if err := u.searchEngine.IndexDocument(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func entryIDsOf(answers []domain.QuestionAnswer) []int {
	seen := make(map[int]struct{}, len(answers))
	var entryIDs []int
	for _, qa := range answers {
		if _, ok := seen[qa.Question.ID]; ok {
			continue
		}
		seen[qa.Question.ID] = struct{}{}
		entryIDs = append(entryIDs, qa.Question.ID)
	}
	return entryIDs
}
