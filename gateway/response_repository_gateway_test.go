package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"forms-search-indexer/domain"
	"forms-search-indexer/driver"
	"forms-search-indexer/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponseDriver struct {
	ids        []int
	response   *driver.FormResponseRow
	responses  []*driver.FormResponseRow
	answers    []driver.AnswerRow
	forms      []*driver.FormRow
	fieldRoles []driver.FieldRoleRow

	err error
}

func (f *fakeResponseDriver) ListAllResponseIDs(ctx context.Context) ([]int, error) {
	return f.ids, f.err
}

func (f *fakeResponseDriver) GetFormResponseByID(ctx context.Context, id int) (*driver.FormResponseRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeResponseDriver) GetFormResponsesByIDs(ctx context.Context, ids []int) ([]*driver.FormResponseRow, error) {
	return f.responses, f.err
}

func (f *fakeResponseDriver) GetAnswersByResponseIDs(ctx context.Context, ids []int) ([]driver.AnswerRow, error) {
	return f.answers, f.err
}

func (f *fakeResponseDriver) ListForms(ctx context.Context) ([]*driver.FormRow, error) {
	return f.forms, f.err
}

func (f *fakeResponseDriver) GetFormByID(ctx context.Context, id int) (*driver.FormRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, row := range f.forms {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, errors.New("form not found")
}

func (f *fakeResponseDriver) GetFieldRolesByEntryIDs(ctx context.Context, entryIDs []int) ([]driver.FieldRoleRow, error) {
	return f.fieldRoles, f.err
}

func answerRow(responseID, questionID int, code, entryType, value string, iteration int) driver.AnswerRow {
	return driver.AnswerRow{
		ResponseID:   responseID,
		QuestionID:   questionID,
		QuestionCode: code,
		EntryType:    entryType,
		Indexed:      true,
		Iteration:    iteration,
		Value:        value,
	}
}

func TestGroupAnswerRows_MergesConsecutiveRowsOfSameQuestion(t *testing.T) {
	rows := []driver.AnswerRow{
		answerRow(1, 10, "Q1", "text", "alpha", -1),
		answerRow(1, 20, "Q2", "checkbox", "red", -1),
		answerRow(1, 20, "Q2", "checkbox", "blue", -1),
		answerRow(1, 10, "Q1", "text", "beta", -1),
	}

	grouped := groupAnswerRows(rows)

	require.Len(t, grouped, 1)
	answers := grouped[1]
	require.Len(t, answers, 3)

	assert.Equal(t, 10, answers[0].Question.ID)
	assert.Len(t, answers[0].Values, 1)

	assert.Equal(t, 20, answers[1].Question.ID)
	require.Len(t, answers[1].Values, 2)
	assert.Equal(t, "red", answers[1].Values[0].Value)
	assert.Equal(t, "blue", answers[1].Values[1].Value)

	// Non-consecutive rows of a question start a fresh answer.
	assert.Equal(t, 10, answers[2].Question.ID)
	assert.Equal(t, "beta", answers[2].Values[0].Value)
}

func TestGroupAnswerRows_GroupsByResponse(t *testing.T) {
	rows := []driver.AnswerRow{
		answerRow(1, 10, "Q1", "text", "from one", -1),
		answerRow(2, 10, "Q1", "text", "from two", -1),
	}

	grouped := groupAnswerRows(rows)

	require.Len(t, grouped, 2)
	assert.Equal(t, "from one", grouped[1][0].Values[0].Value)
	assert.Equal(t, "from two", grouped[2][0].Values[0].Value)
}

func TestGroupAnswerRows_SubField(t *testing.T) {
	withSub := answerRow(1, 10, "Q1", "geolocation", "12 rue des Halles", 0)
	withSub.SubFieldID = 7
	withSub.SubFieldCode = "address"
	withSub.SubFieldTitle = "Address"

	grouped := groupAnswerRows([]driver.AnswerRow{
		withSub,
		answerRow(1, 20, "Q2", "text", "plain", -1),
	})

	answers := grouped[1]
	require.Len(t, answers, 2)

	sub := answers[0].Values[0].SubField
	require.NotNil(t, sub)
	assert.Equal(t, "address", sub.Code)
	assert.Equal(t, "Address", sub.Title)

	// Rows without sub-field columns yield a nil SubField.
	assert.Nil(t, answers[1].Values[0].SubField)
}

func TestGetResponseByID_AttachesAnswersAsSingleStep(t *testing.T) {
	creation := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	drv := &fakeResponseDriver{
		response: &driver.FormResponseRow{ID: 5, FormID: 2, Creation: creation, Update: creation, Published: true},
		answers: []driver.AnswerRow{
			answerRow(5, 10, "Q1", "text", "hello", -1),
		},
	}
	g := NewResponseRepositoryGateway(drv)

	response, err := g.GetResponseByID(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 5, response.ID())
	assert.Equal(t, 2, response.FormID())
	assert.True(t, response.IsPublished())

	steps := response.Steps()
	require.Len(t, steps, 1)
	require.Len(t, steps[0].Answers, 1)
	assert.Equal(t, "Q1", steps[0].Answers[0].Question.Code)
}

func TestGetResponseByID_WrapsDriverError(t *testing.T) {
	g := NewResponseRepositoryGateway(&fakeResponseDriver{err: errors.New("connection reset")})

	_, err := g.GetResponseByID(context.Background(), 5)

	var repoErr *port.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "GetResponseByID", repoErr.Op)
}

func TestListForms_ConvertsRows(t *testing.T) {
	drv := &fakeResponseDriver{
		forms: []*driver.FormRow{
			{ID: 1, Title: "Contact", WorkflowID: 3},
			{ID: 2, Title: "Survey", WorkflowID: 0},
		},
	}
	g := NewResponseRepositoryGateway(drv)

	forms, err := g.ListForms(context.Background())
	require.NoError(t, err)

	require.Len(t, forms, 2)
	assert.Equal(t, 1, forms[0].ID())
	assert.Equal(t, "Contact", forms[0].Title())
	assert.Equal(t, 3, forms[0].WorkflowID())
}

func TestGetFieldRolesByEntryIDs_MapsByFieldID(t *testing.T) {
	drv := &fakeResponseDriver{
		fieldRoles: []driver.FieldRoleRow{
			{FieldID: 7, Role: "address"},
			{FieldID: 8, Role: "X"},
		},
	}
	g := NewResponseRepositoryGateway(drv)

	roles, err := g.GetFieldRolesByEntryIDs(context.Background(), []int{7, 8})
	require.NoError(t, err)

	assert.Equal(t, domain.FieldRole("address"), roles[7])
	assert.Equal(t, domain.FieldRole("X"), roles[8])
}
