package driver

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowDriver reads workflow states from the workflow schema. The
// workflow tables may be entirely absent in a deployment; wiring then
// leaves the gateway without a driver and resolution falls back to the
// sentinel state.
type WorkflowDriver struct {
	pool *pgxpool.Pool
}

func NewWorkflowDriver(pool *pgxpool.Pool) *WorkflowDriver {
	return &WorkflowDriver{
		pool: pool,
	}
}

// FindStateByResource returns the state row of one resource, or nil
// when the resource has no workflow record.
func (d *WorkflowDriver) FindStateByResource(ctx context.Context, resourceID int, resourceType string, workflowID int) (*StateRow, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT ws.id, ws.name
		FROM workflow_resource_state wrs
		JOIN workflow_state ws ON ws.id = wrs.id_state
		WHERE wrs.id_resource = $1
		  AND wrs.resource_type = $2
		  AND wrs.id_workflow = $3`, resourceID, resourceType, workflowID)

	var s StateRow
	if err := row.Scan(&s.ID, &s.Name); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, &DriverError{Op: "FindStateByResource", Err: err.Error()}
	}

	return &s, nil
}

// ListStateIDsByResourceIDs maps resource ids to state ids for one
// workflow in a single query.
func (d *WorkflowDriver) ListStateIDsByResourceIDs(ctx context.Context, resourceIDs []int, resourceType string, workflowID int) (map[int]int, error) {
	if len(resourceIDs) == 0 {
		return map[int]int{}, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id_resource, id_state
		FROM workflow_resource_state
		WHERE id_resource = ANY($1)
		  AND resource_type = $2
		  AND id_workflow = $3`, resourceIDs, resourceType, workflowID)
	if err != nil {
		return nil, &DriverError{Op: "ListStateIDsByResourceIDs", Err: err.Error()}
	}
	defer rows.Close()

	states := make(map[int]int)
	for rows.Next() {
		var resourceID, stateID int
		if err := rows.Scan(&resourceID, &stateID); err != nil {
			return nil, &DriverError{Op: "ListStateIDsByResourceIDs", Err: err.Error()}
		}
		states[resourceID] = stateID
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "ListStateIDsByResourceIDs", Err: err.Error()}
	}

	return states, nil
}

func (d *WorkflowDriver) ListStates(ctx context.Context) ([]StateRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name
		FROM workflow_state
		ORDER BY id`)
	if err != nil {
		return nil, &DriverError{Op: "ListStates", Err: err.Error()}
	}
	defer rows.Close()

	var states []StateRow
	for rows.Next() {
		var s StateRow
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, &DriverError{Op: "ListStates", Err: err.Error()}
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "ListStates", Err: err.Error()}
	}

	return states, nil
}
