package port

import (
	"context"

	"forms-search-indexer/domain"
)

// ResponseRepository is the record-store boundary. Answers and sub-field
// metadata are fetched once per batch, keeping round trips at
// O(batches) instead of O(records).
type ResponseRepository interface {
	// ListAllResponseIDs returns every response id in store order.
	ListAllResponseIDs(ctx context.Context) ([]int, error)
	// GetResponseByID loads one response with its nested steps and
	// answers. Missing ids are an error on this path.
	GetResponseByID(ctx context.Context, id int) (*domain.FormResponse, error)
	// GetResponsesByIDs loads a batch of responses without nested
	// answers; missing ids are silently absent from the result.
	GetResponsesByIDs(ctx context.Context, ids []int) ([]*domain.FormResponse, error)
	// GetQuestionAnswersByResponseIDs loads the answers of a whole
	// batch, grouped by response id.
	GetQuestionAnswersByResponseIDs(ctx context.Context, ids []int) (map[int][]domain.QuestionAnswer, error)
	ListForms(ctx context.Context) ([]*domain.Form, error)
	GetFormByID(ctx context.Context, id int) (*domain.Form, error)
	// GetFieldRolesByEntryIDs maps sub-field ids to their declared
	// geolocation role for the given entry ids.
	GetFieldRolesByEntryIDs(ctx context.Context, entryIDs []int) (map[int]domain.FieldRole, error)
}

type RepositoryError struct {
	Op  string
	Err string
}

func (e *RepositoryError) Error() string {
	return e.Op + ": " + e.Err
}
