package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forms-search-indexer/domain"
	"forms-search-indexer/port"
)

// Mock implementations shared by the usecase tests.

type mockResponseRepo struct {
	ids        []int
	responses  map[int]*domain.FormResponse
	answers    map[int][]domain.QuestionAnswer
	forms      []*domain.Form
	fieldRoles map[int]domain.FieldRole

	listErr  error
	batchErr map[int]error // keyed by first id of the failing batch

	mu         sync.Mutex
	batchLoads [][]int
	listCalls  int
	listGate   chan struct{} // when set, ListAllResponseIDs blocks on it
}

func (m *mockResponseRepo) ListAllResponseIDs(ctx context.Context) ([]int, error) {
	m.mu.Lock()
	m.listCalls++
	gate := m.listGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.ids, nil
}

func (m *mockResponseRepo) GetResponseByID(ctx context.Context, id int) (*domain.FormResponse, error) {
	response, ok := m.responses[id]
	if !ok {
		return nil, &port.RepositoryError{Op: "GetResponseByID", Err: fmt.Sprintf("form response %d not found", id)}
	}
	return response, nil
}

func (m *mockResponseRepo) GetResponsesByIDs(ctx context.Context, ids []int) ([]*domain.FormResponse, error) {
	m.mu.Lock()
	m.batchLoads = append(m.batchLoads, ids)
	m.mu.Unlock()

	if len(ids) > 0 && m.batchErr != nil {
		if err, ok := m.batchErr[ids[0]]; ok {
			return nil, err
		}
	}

	responses := make([]*domain.FormResponse, 0, len(ids))
	for _, id := range ids {
		if response, ok := m.responses[id]; ok {
			responses = append(responses, response)
		}
	}
	return responses, nil
}

func (m *mockResponseRepo) GetQuestionAnswersByResponseIDs(ctx context.Context, ids []int) (map[int][]domain.QuestionAnswer, error) {
	grouped := make(map[int][]domain.QuestionAnswer)
	for _, id := range ids {
		if answers, ok := m.answers[id]; ok {
			grouped[id] = answers
		}
	}
	return grouped, nil
}

func (m *mockResponseRepo) ListForms(ctx context.Context) ([]*domain.Form, error) {
	return m.forms, nil
}

func (m *mockResponseRepo) GetFormByID(ctx context.Context, id int) (*domain.Form, error) {
	for _, form := range m.forms {
		if form.ID() == id {
			return form, nil
		}
	}
	return nil, &port.RepositoryError{Op: "GetFormByID", Err: fmt.Sprintf("form %d not found", id)}
}

func (m *mockResponseRepo) GetFieldRolesByEntryIDs(ctx context.Context, entryIDs []int) (map[int]domain.FieldRole, error) {
	if m.fieldRoles == nil {
		return map[int]domain.FieldRole{}, nil
	}
	return m.fieldRoles, nil
}

func (m *mockResponseRepo) batchLoadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batchLoads)
}

type mockWorkflow struct {
	states       []domain.WorkflowState
	statesByResp map[int]int
	findErr      error
}

func (m *mockWorkflow) FindState(ctx context.Context, responseID int, resourceType string, workflowID int) (domain.WorkflowState, error) {
	if m.findErr != nil {
		return domain.SentinelState(), m.findErr
	}
	if stateID, ok := m.statesByResp[responseID]; ok {
		for _, state := range m.states {
			if state.ID == stateID {
				return state, nil
			}
		}
	}
	return domain.SentinelState(), nil
}

func (m *mockWorkflow) ListStatesByResponseIDs(ctx context.Context, responseIDs []int, workflowID, formID int) (map[int]int, error) {
	result := make(map[int]int)
	for _, id := range responseIDs {
		if stateID, ok := m.statesByResp[id]; ok {
			result[id] = stateID
		}
	}
	return result, nil
}

func (m *mockWorkflow) ListStates(ctx context.Context) ([]domain.WorkflowState, error) {
	return m.states, nil
}

type mockSearchEngine struct {
	indexErr  error
	deleteErr error

	mu              sync.Mutex
	indexedDocs     []domain.Document
	writeBatches    [][]domain.Document
	deletedPrefixes []string
}

func (m *mockSearchEngine) IndexDocuments(ctx context.Context, docs []domain.Document) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeBatches = append(m.writeBatches, docs)
	m.indexedDocs = append(m.indexedDocs, docs...)
	return nil
}

func (m *mockSearchEngine) IndexDocument(ctx context.Context, doc *domain.Document) error {
	return m.IndexDocuments(ctx, []domain.Document{*doc})
}

func (m *mockSearchEngine) DeleteByUIDPrefix(ctx context.Context, prefix string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedPrefixes = append(m.deletedPrefixes, prefix)
	return nil
}

func (m *mockSearchEngine) EnsureIndex(ctx context.Context) error {
	return nil
}

func (m *mockSearchEngine) indexedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.indexedDocs)
}

func newTestResponse(id, formID int, published bool, steps []domain.Step) *domain.FormResponse {
	creation := time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC)
	response, err := domain.NewFormResponse(id, formID, creation, creation, published, steps)
	if err != nil {
		panic(err)
	}
	return response
}

func newTestForm(id int, workflowID int) *domain.Form {
	form, err := domain.NewForm(id, fmt.Sprintf("Form %d", id), workflowID)
	if err != nil {
		panic(err)
	}
	return form
}
