package port

import (
	"context"

	"forms-search-indexer/domain"
)

// WorkflowService is the optional workflow/state collaborator. A
// deployment may have none at all; resolution then falls back to the
// sentinel state instead of failing.
type WorkflowService interface {
	// FindState resolves the current workflow state of one resource.
	FindState(ctx context.Context, responseID int, resourceType string, workflowID int) (domain.WorkflowState, error)
	// ListStatesByResponseIDs maps response ids to state ids for one
	// workflow, scoped to one form.
	ListStatesByResponseIDs(ctx context.Context, responseIDs []int, workflowID, formID int) (map[int]int, error)
	// ListStates returns every known workflow state.
	ListStates(ctx context.Context) ([]domain.WorkflowState, error)
}

type WorkflowError struct {
	Op  string
	Err string
}

func (e *WorkflowError) Error() string {
	return e.Op + ": " + e.Err
}
