package gateway

import (
	"context"
	"strconv"

	"forms-search-indexer/domain"
	"forms-search-indexer/driver"
	"forms-search-indexer/port"
)

// ResponseDriver is the database-facing surface the gateway needs.
type ResponseDriver interface {
	ListAllResponseIDs(ctx context.Context) ([]int, error)
	GetFormResponseByID(ctx context.Context, id int) (*driver.FormResponseRow, error)
	GetFormResponsesByIDs(ctx context.Context, ids []int) ([]*driver.FormResponseRow, error)
	GetAnswersByResponseIDs(ctx context.Context, ids []int) ([]driver.AnswerRow, error)
	ListForms(ctx context.Context) ([]*driver.FormRow, error)
	GetFormByID(ctx context.Context, id int) (*driver.FormRow, error)
	GetFieldRolesByEntryIDs(ctx context.Context, entryIDs []int) ([]driver.FieldRoleRow, error)
}

// ResponseRepositoryGateway converts database rows into domain objects.
type ResponseRepositoryGateway struct {
	driver ResponseDriver
}

func NewResponseRepositoryGateway(driver ResponseDriver) *ResponseRepositoryGateway {
	return &ResponseRepositoryGateway{
		driver: driver,
	}
}

func (g *ResponseRepositoryGateway) ListAllResponseIDs(ctx context.Context) ([]int, error) {
	ids, err := g.driver.ListAllResponseIDs(ctx)
	if err != nil {
		return nil, &port.RepositoryError{Op: "ListAllResponseIDs", Err: err.Error()}
	}
	return ids, nil
}

// GetResponseByID loads one response with its answers attached. The
// step boundaries are not persisted in a way the pipeline needs, so the
// answers come back as a single step in traversal order.
func (g *ResponseRepositoryGateway) GetResponseByID(ctx context.Context, id int) (*domain.FormResponse, error) {
	row, err := g.driver.GetFormResponseByID(ctx, id)
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetResponseByID", Err: err.Error()}
	}

	answerRows, err := g.driver.GetAnswersByResponseIDs(ctx, []int{id})
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetResponseByID", Err: err.Error()}
	}

	answers := groupAnswerRows(answerRows)[id]
	response, err := domain.NewFormResponse(row.ID, row.FormID, row.Creation, row.Update, row.Published, []domain.Step{{Answers: answers}})
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetResponseByID", Err: err.Error()}
	}

	return response, nil
}

func (g *ResponseRepositoryGateway) GetResponsesByIDs(ctx context.Context, ids []int) ([]*domain.FormResponse, error) {
	rows, err := g.driver.GetFormResponsesByIDs(ctx, ids)
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetResponsesByIDs", Err: err.Error()}
	}

	responses := make([]*domain.FormResponse, 0, len(rows))
	for _, row := range rows {
		response, err := domain.NewFormResponse(row.ID, row.FormID, row.Creation, row.Update, row.Published, nil)
		if err != nil {
			return nil, &port.RepositoryError{
				Op:  "GetResponsesByIDs",
				Err: "failed to convert response to domain: id=" + strconv.Itoa(row.ID) + ", " + err.Error(),
			}
		}
		responses = append(responses, response)
	}

	return responses, nil
}

func (g *ResponseRepositoryGateway) GetQuestionAnswersByResponseIDs(ctx context.Context, ids []int) (map[int][]domain.QuestionAnswer, error) {
	rows, err := g.driver.GetAnswersByResponseIDs(ctx, ids)
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetQuestionAnswersByResponseIDs", Err: err.Error()}
	}
	return groupAnswerRows(rows), nil
}

func (g *ResponseRepositoryGateway) ListForms(ctx context.Context) ([]*domain.Form, error) {
	rows, err := g.driver.ListForms(ctx)
	if err != nil {
		return nil, &port.RepositoryError{Op: "ListForms", Err: err.Error()}
	}

	forms := make([]*domain.Form, 0, len(rows))
	for _, row := range rows {
		form, err := domain.NewForm(row.ID, row.Title, row.WorkflowID)
		if err != nil {
			return nil, &port.RepositoryError{
				Op:  "ListForms",
				Err: "failed to convert form to domain: id=" + strconv.Itoa(row.ID) + ", " + err.Error(),
			}
		}
		forms = append(forms, form)
	}

	return forms, nil
}

func (g *ResponseRepositoryGateway) GetFormByID(ctx context.Context, id int) (*domain.Form, error) {
	row, err := g.driver.GetFormByID(ctx, id)
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetFormByID", Err: err.Error()}
	}

	form, err := domain.NewForm(row.ID, row.Title, row.WorkflowID)
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetFormByID", Err: err.Error()}
	}

	return form, nil
}

func (g *ResponseRepositoryGateway) GetFieldRolesByEntryIDs(ctx context.Context, entryIDs []int) (map[int]domain.FieldRole, error) {
	rows, err := g.driver.GetFieldRolesByEntryIDs(ctx, entryIDs)
	if err != nil {
		return nil, &port.RepositoryError{Op: "GetFieldRolesByEntryIDs", Err: err.Error()}
	}

	roles := make(map[int]domain.FieldRole, len(rows))
	for _, row := range rows {
		roles[row.FieldID] = domain.FieldRole(row.Role)
	}

	return roles, nil
}

// groupAnswerRows folds the flat per-value rows into question answers
// grouped by response id, preserving traversal order within each
// response.
func groupAnswerRows(rows []driver.AnswerRow) map[int][]domain.QuestionAnswer {
	grouped := make(map[int][]domain.QuestionAnswer)
	for _, row := range rows {
		answers := grouped[row.ResponseID]

		value := domain.AnswerValue{
			ID:        row.AnswerID,
			Iteration: row.Iteration,
			SubField:  toSubField(row),
			Value:     row.Value,
		}

		n := len(answers)
		if n > 0 && answers[n-1].Question.ID == row.QuestionID {
			answers[n-1].Values = append(answers[n-1].Values, value)
		} else {
			answers = append(answers, domain.QuestionAnswer{
				Question: domain.Question{
					ID:        row.QuestionID,
					Code:      row.QuestionCode,
					EntryType: domain.EntryType(row.EntryType),
					Indexed:   row.Indexed,
				},
				Values: []domain.AnswerValue{value},
			})
		}

		grouped[row.ResponseID] = answers
	}
	return grouped
}

func toSubField(row driver.AnswerRow) *domain.SubField {
	if row.SubFieldID == 0 && row.SubFieldCode == "" && row.SubFieldTitle == "" {
		return nil
	}
	return &domain.SubField{
		ID:    row.SubFieldID,
		Code:  row.SubFieldCode,
		Title: row.SubFieldTitle,
	}
}
