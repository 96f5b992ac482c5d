package driver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseDriver reads form responses and their nested answers from
// Postgres. Batch queries load a whole id list in one round trip.
type DatabaseDriver struct {
	pool *pgxpool.Pool
}

func NewDatabaseDriver(pool *pgxpool.Pool) *DatabaseDriver {
	return &DatabaseDriver{
		pool: pool,
	}
}

// Close closes the database connection pool
func (d *DatabaseDriver) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

func (d *DatabaseDriver) ListAllResponseIDs(ctx context.Context) ([]int, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id
		FROM form_response
		ORDER BY id`)
	if err != nil {
		return nil, &DriverError{Op: "ListAllResponseIDs", Err: err.Error()}
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, &DriverError{Op: "ListAllResponseIDs", Err: err.Error()}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "ListAllResponseIDs", Err: err.Error()}
	}

	return ids, nil
}

func (d *DatabaseDriver) GetFormResponseByID(ctx context.Context, id int) (*FormResponseRow, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, id_form, creation_date, update_date, published
		FROM form_response
		WHERE id = $1`, id)

	var r FormResponseRow
	if err := row.Scan(&r.ID, &r.FormID, &r.Creation, &r.Update, &r.Published); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &DriverError{Op: "GetFormResponseByID", Err: fmt.Sprintf("form response %d not found", id)}
		}
		return nil, &DriverError{Op: "GetFormResponseByID", Err: err.Error()}
	}

	return &r, nil
}

func (d *DatabaseDriver) GetFormResponsesByIDs(ctx context.Context, ids []int) ([]*FormResponseRow, error) {
	if len(ids) == 0 {
		return []*FormResponseRow{}, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, id_form, creation_date, update_date, published
		FROM form_response
		WHERE id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, &DriverError{Op: "GetFormResponsesByIDs", Err: err.Error()}
	}
	defer rows.Close()

	var responses []*FormResponseRow
	for rows.Next() {
		var r FormResponseRow
		if err := rows.Scan(&r.ID, &r.FormID, &r.Creation, &r.Update, &r.Published); err != nil {
			return nil, &DriverError{Op: "GetFormResponsesByIDs", Err: err.Error()}
		}
		responses = append(responses, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "GetFormResponsesByIDs", Err: err.Error()}
	}

	return responses, nil
}

// GetAnswersByResponseIDs loads every answer value of a batch of
// responses in one query, in traversal order.
func (d *DatabaseDriver) GetAnswersByResponseIDs(ctx context.Context, ids []int) ([]AnswerRow, error) {
	if len(ids) == 0 {
		return []AnswerRow{}, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT fqr.id_form_response,
		       q.id, q.code, q.entry_type, q.indexed,
		       qa.id, qa.iteration_number,
		       COALESCE(qa.id_field, 0),
		       COALESCE(ef.code, ''),
		       COALESCE(ef.title, ''),
		       COALESCE(qa.response_value, '')
		FROM form_question_response fqr
		JOIN question q ON q.id = fqr.id_question
		JOIN question_answer qa ON qa.id_form_question_response = fqr.id
		LEFT JOIN entry_field ef ON ef.id_field = qa.id_field
		WHERE fqr.id_form_response = ANY($1)
		ORDER BY fqr.id_form_response, fqr.id, qa.iteration_number, qa.id`, ids)
	if err != nil {
		return nil, &DriverError{Op: "GetAnswersByResponseIDs", Err: err.Error()}
	}
	defer rows.Close()

	var answers []AnswerRow
	for rows.Next() {
		var a AnswerRow
		if err := rows.Scan(
			&a.ResponseID,
			&a.QuestionID, &a.QuestionCode, &a.EntryType, &a.Indexed,
			&a.AnswerID, &a.Iteration,
			&a.SubFieldID, &a.SubFieldCode, &a.SubFieldTitle,
			&a.Value,
		); err != nil {
			return nil, &DriverError{Op: "GetAnswersByResponseIDs", Err: err.Error()}
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "GetAnswersByResponseIDs", Err: err.Error()}
	}

	return answers, nil
}

func (d *DatabaseDriver) ListForms(ctx context.Context) ([]*FormRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, title, COALESCE(id_workflow, 0)
		FROM form
		ORDER BY id`)
	if err != nil {
		return nil, &DriverError{Op: "ListForms", Err: err.Error()}
	}
	defer rows.Close()

	var forms []*FormRow
	for rows.Next() {
		var f FormRow
		if err := rows.Scan(&f.ID, &f.Title, &f.WorkflowID); err != nil {
			return nil, &DriverError{Op: "ListForms", Err: err.Error()}
		}
		forms = append(forms, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "ListForms", Err: err.Error()}
	}

	return forms, nil
}

func (d *DatabaseDriver) GetFormByID(ctx context.Context, id int) (*FormRow, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, title, COALESCE(id_workflow, 0)
		FROM form
		WHERE id = $1`, id)

	var f FormRow
	if err := row.Scan(&f.ID, &f.Title, &f.WorkflowID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &DriverError{Op: "GetFormByID", Err: fmt.Sprintf("form %d not found", id)}
		}
		return nil, &DriverError{Op: "GetFormByID", Err: err.Error()}
	}

	return &f, nil
}

// GetFieldRolesByEntryIDs loads the declared role of every sub-field
// belonging to the given entries, one query per batch.
func (d *DatabaseDriver) GetFieldRolesByEntryIDs(ctx context.Context, entryIDs []int) ([]FieldRoleRow, error) {
	if len(entryIDs) == 0 {
		return []FieldRoleRow{}, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id_field, COALESCE(field_value, '')
		FROM entry_field
		WHERE id_entry = ANY($1)`, entryIDs)
	if err != nil {
		return nil, &DriverError{Op: "GetFieldRolesByEntryIDs", Err: err.Error()}
	}
	defer rows.Close()

	var roles []FieldRoleRow
	for rows.Next() {
		var r FieldRoleRow
		if err := rows.Scan(&r.FieldID, &r.Role); err != nil {
			return nil, &DriverError{Op: "GetFieldRolesByEntryIDs", Err: err.Error()}
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "GetFieldRolesByEntryIDs", Err: err.Error()}
	}

	return roles, nil
}
