package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"forms-search-indexer/config"
	"forms-search-indexer/domain"
	"forms-search-indexer/port"
	"forms-search-indexer/usecase"
)

type fakeRepo struct {
	forms     []*domain.Form
	responses map[int]*domain.FormResponse
	listErr   error

	mu          sync.Mutex
	listCalls   int
	listEntered chan struct{} // when set, signals each corpus walk
	listGate    chan struct{} // when set, blocks the walk until closed
}

func (f *fakeRepo) ListAllResponseIDs(ctx context.Context) ([]int, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listEntered != nil {
		f.listEntered <- struct{}{}
	}
	if f.listGate != nil {
		<-f.listGate
	}
	ids := make([]int, 0, len(f.responses))
	for id := range f.responses {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeRepo) GetResponseByID(ctx context.Context, id int) (*domain.FormResponse, error) {
	response, ok := f.responses[id]
	if !ok {
		return nil, &port.RepositoryError{Op: "GetResponseByID", Err: fmt.Sprintf("form response %d not found", id)}
	}
	return response, nil
}

func (f *fakeRepo) GetResponsesByIDs(ctx context.Context, ids []int) ([]*domain.FormResponse, error) {
	responses := make([]*domain.FormResponse, 0, len(ids))
	for _, id := range ids {
		if response, ok := f.responses[id]; ok {
			responses = append(responses, response)
		}
	}
	return responses, nil
}

func (f *fakeRepo) GetQuestionAnswersByResponseIDs(ctx context.Context, ids []int) (map[int][]domain.QuestionAnswer, error) {
	return map[int][]domain.QuestionAnswer{}, nil
}

func (f *fakeRepo) ListForms(ctx context.Context) ([]*domain.Form, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.forms, nil
}

func (f *fakeRepo) GetFormByID(ctx context.Context, id int) (*domain.Form, error) {
	for _, form := range f.forms {
		if form.ID() == id {
			return form, nil
		}
	}
	return nil, &port.RepositoryError{Op: "GetFormByID", Err: fmt.Sprintf("form %d not found", id)}
}

func (f *fakeRepo) GetFieldRolesByEntryIDs(ctx context.Context, entryIDs []int) (map[int]domain.FieldRole, error) {
	return map[int]domain.FieldRole{}, nil
}

type fakeWorkflow struct{}

func (fakeWorkflow) FindState(ctx context.Context, responseID int, resourceType string, workflowID int) (domain.WorkflowState, error) {
	return domain.SentinelState(), nil
}

func (fakeWorkflow) ListStatesByResponseIDs(ctx context.Context, responseIDs []int, workflowID, formID int) (map[int]int, error) {
	return map[int]int{}, nil
}

func (fakeWorkflow) ListStates(ctx context.Context) ([]domain.WorkflowState, error) {
	return nil, nil
}

type fakeSearchEngine struct {
	indexed []domain.Document
	deleted []string
}

func (f *fakeSearchEngine) IndexDocuments(ctx context.Context, docs []domain.Document) error {
	f.indexed = append(f.indexed, docs...)
	return nil
}

func (f *fakeSearchEngine) IndexDocument(ctx context.Context, doc *domain.Document) error {
	f.indexed = append(f.indexed, *doc)
	return nil
}

func (f *fakeSearchEngine) DeleteByUIDPrefix(ctx context.Context, prefix string) error {
	f.deleted = append(f.deleted, prefix)
	return nil
}

func (f *fakeSearchEngine) EnsureIndex(ctx context.Context) error {
	return nil
}

func mustForm(id int, title string) *domain.Form {
	form, err := domain.NewForm(id, title, 0)
	if err != nil {
		panic(err)
	}
	return form
}

func mustResponse(id, formID int, published bool) *domain.FormResponse {
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	response, err := domain.NewFormResponse(id, formID, now, now, published, nil)
	if err != nil {
		panic(err)
	}
	return response
}

func newIndexer(repo *fakeRepo, engine *fakeSearchEngine, cfg config.IndexerConfig) (*FormsIndexer, *usecase.ReindexEngine) {
	builder := domain.NewDocumentBuilder("portal", slog.Default())
	sync := usecase.NewSyncResponseUsecase(repo, fakeWorkflow{}, engine, builder, slog.Default())
	indexAll := usecase.NewIndexAllResponsesUsecase(repo, fakeWorkflow{}, engine, builder, cfg.BatchSize, cfg.Concurrency, slog.Default())
	reindex := usecase.NewReindexEngine(context.Background(), indexAll, slog.Default())
	return New(cfg, repo, sync, reindex), reindex
}

func defaultConfig() config.IndexerConfig {
	return config.IndexerConfig{
		Site:        "portal",
		BatchSize:   100,
		Concurrency: 2,
		Name:        "FormsIndexer",
		Description: "Indexer service for form responses",
		Version:     "1.0.0",
		Enabled:     true,
	}
}

func TestFormsIndexer_Identity(t *testing.T) {
	idx, _ := newIndexer(&fakeRepo{}, &fakeSearchEngine{}, defaultConfig())

	if idx.Name() != "FormsIndexer" {
		t.Errorf("Name() = %q", idx.Name())
	}
	if idx.Description() != "Indexer service for form responses" {
		t.Errorf("Description() = %q", idx.Description())
	}
	if idx.Version() != "1.0.0" {
		t.Errorf("Version() = %q", idx.Version())
	}
	if !idx.IsEnabled() {
		t.Errorf("IsEnabled() = false, want true")
	}
}

func TestFormsIndexer_ResourceUID(t *testing.T) {
	idx, _ := newIndexer(&fakeRepo{}, &fakeSearchEngine{}, defaultConfig())

	if got := idx.ResourceUID("42", "forms_response"); got != "42_forms_response" {
		t.Errorf("ResourceUID() = %q", got)
	}
}

func TestFormsIndexer_ResourceTypeNames(t *testing.T) {
	repo := &fakeRepo{forms: []*domain.Form{mustForm(3, "Permits"), mustForm(8, "Grants")}}
	idx, _ := newIndexer(repo, &fakeSearchEngine{}, defaultConfig())

	names, err := idx.ResourceTypeNames(context.Background())
	if err != nil {
		t.Fatalf("ResourceTypeNames() error = %v", err)
	}

	want := []string{"forms_response", "forms_response_3", "forms_response_8"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFormsIndexer_GetDocuments(t *testing.T) {
	repo := &fakeRepo{
		forms:     []*domain.Form{mustForm(3, "Permits")},
		responses: map[int]*domain.FormResponse{7: mustResponse(7, 3, true)},
	}
	engine := &fakeSearchEngine{}
	idx, _ := newIndexer(repo, engine, defaultConfig())

	docs, err := idx.GetDocuments(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetDocuments() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("GetDocuments() returned %d documents, want 1", len(docs))
	}
	if docs[0].UID != "7_forms_response" {
		t.Errorf("UID = %q", docs[0].UID)
	}
}

func TestFormsIndexer_GetDocumentsUnpublished(t *testing.T) {
	repo := &fakeRepo{
		forms:     []*domain.Form{mustForm(3, "Permits")},
		responses: map[int]*domain.FormResponse{7: mustResponse(7, 3, false)},
	}
	engine := &fakeSearchEngine{}
	idx, _ := newIndexer(repo, engine, defaultConfig())

	docs, err := idx.GetDocuments(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetDocuments() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("GetDocuments() returned %d documents, want 0", len(docs))
	}
	if len(engine.deleted) != 1 || engine.deleted[0] != "7_forms_response" {
		t.Errorf("deleted prefixes = %v", engine.deleted)
	}
}

func TestFormsIndexer_IndexAll(t *testing.T) {
	repo := &fakeRepo{
		forms: []*domain.Form{mustForm(3, "Permits")},
		responses: map[int]*domain.FormResponse{
			1: mustResponse(1, 3, true),
			2: mustResponse(2, 3, true),
		},
	}
	engine := &fakeSearchEngine{}
	idx, _ := newIndexer(repo, engine, defaultConfig())

	if errs := idx.IndexAll(context.Background()); len(errs) != 0 {
		t.Fatalf("IndexAll() errors = %v", errs)
	}
	if len(engine.indexed) != 2 {
		t.Errorf("indexed %d documents, want 2", len(engine.indexed))
	}
}

func TestFormsIndexer_IndexAllDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Enabled = false
	repo := &fakeRepo{
		forms:     []*domain.Form{mustForm(3, "Permits")},
		responses: map[int]*domain.FormResponse{1: mustResponse(1, 3, true)},
	}
	engine := &fakeSearchEngine{}
	idx, _ := newIndexer(repo, engine, cfg)

	errs := idx.IndexAll(context.Background())
	if len(errs) != 1 {
		t.Fatalf("IndexAll() errors = %v, want one", errs)
	}
	if len(engine.indexed) != 0 {
		t.Errorf("indexed %d documents, want 0 when disabled", len(engine.indexed))
	}
}

func TestFormsIndexer_IndexAllJoinsRunningReindex(t *testing.T) {
	repo := &fakeRepo{
		forms: []*domain.Form{mustForm(3, "Permits")},
		responses: map[int]*domain.FormResponse{
			1: mustResponse(1, 3, true),
			2: mustResponse(2, 3, true),
		},
		listEntered: make(chan struct{}, 2),
		listGate:    make(chan struct{}),
	}
	engine := &fakeSearchEngine{}
	idx, reindex := newIndexer(repo, engine, defaultConfig())

	task := reindex.RequestFullReindex()
	if task == nil {
		t.Fatalf("request should have started a run")
	}
	<-repo.listEntered // the worker is inside the corpus walk

	done := make(chan []string, 1)
	go func() { done <- idx.IndexAll(context.Background()) }()

	select {
	case <-repo.listEntered:
		t.Fatalf("IndexAll started a second corpus walk during a run")
	case <-time.After(100 * time.Millisecond):
	}

	close(repo.listGate)
	if errs := <-done; len(errs) != 0 {
		t.Fatalf("IndexAll() errors = %v", errs)
	}
	task.Wait()

	repo.mu.Lock()
	listCalls := repo.listCalls
	repo.mu.Unlock()
	if listCalls != 1 {
		t.Errorf("corpus walked %d times, want 1", listCalls)
	}
	if len(engine.indexed) != 2 {
		t.Errorf("indexed %d documents, want 2", len(engine.indexed))
	}
}
