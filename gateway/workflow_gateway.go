package gateway

import (
	"context"

	"forms-search-indexer/domain"
	"forms-search-indexer/driver"
	"forms-search-indexer/port"
)

// StateDriver is the workflow-facing surface the gateway needs.
type StateDriver interface {
	FindStateByResource(ctx context.Context, resourceID int, resourceType string, workflowID int) (*driver.StateRow, error)
	ListStateIDsByResourceIDs(ctx context.Context, resourceIDs []int, resourceType string, workflowID int) (map[int]int, error)
	ListStates(ctx context.Context) ([]driver.StateRow, error)
}

// WorkflowGateway resolves workflow states. The driver may be nil when
// the deployment has no workflow service at all; every lookup then
// yields the sentinel state, never an error.
type WorkflowGateway struct {
	driver StateDriver
}

func NewWorkflowGateway(driver StateDriver) *WorkflowGateway {
	return &WorkflowGateway{
		driver: driver,
	}
}

func (g *WorkflowGateway) FindState(ctx context.Context, responseID int, resourceType string, workflowID int) (domain.WorkflowState, error) {
	if g.driver == nil {
		return domain.SentinelState(), nil
	}

	row, err := g.driver.FindStateByResource(ctx, responseID, resourceType, workflowID)
	if err != nil {
		return domain.SentinelState(), &port.WorkflowError{Op: "FindState", Err: err.Error()}
	}
	if row == nil {
		return domain.SentinelState(), nil
	}

	return domain.WorkflowState{ID: row.ID, Name: row.Name}, nil
}

func (g *WorkflowGateway) ListStatesByResponseIDs(ctx context.Context, responseIDs []int, workflowID, formID int) (map[int]int, error) {
	if g.driver == nil {
		return map[int]int{}, nil
	}

	states, err := g.driver.ListStateIDsByResourceIDs(ctx, responseIDs, domain.ResourceType, workflowID)
	if err != nil {
		return nil, &port.WorkflowError{Op: "ListStatesByResponseIDs", Err: err.Error()}
	}

	return states, nil
}

func (g *WorkflowGateway) ListStates(ctx context.Context) ([]domain.WorkflowState, error) {
	if g.driver == nil {
		return []domain.WorkflowState{}, nil
	}

	rows, err := g.driver.ListStates(ctx)
	if err != nil {
		return nil, &port.WorkflowError{Op: "ListStates", Err: err.Error()}
	}

	states := make([]domain.WorkflowState, 0, len(rows))
	for _, row := range rows {
		states = append(states, domain.WorkflowState{ID: row.ID, Name: row.Name})
	}

	return states, nil
}
