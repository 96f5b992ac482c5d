package driver

import "time"

// FormResponseRow represents a form response row from the database,
// without its nested answers.
type FormResponseRow struct {
	ID        int
	FormID    int
	Creation  time.Time
	Update    time.Time
	Published bool
}

// AnswerRow represents one answer value row joined with its question.
type AnswerRow struct {
	ResponseID    int
	QuestionID    int
	QuestionCode  string
	EntryType     string
	Indexed       bool
	AnswerID      int
	Iteration     int
	SubFieldID    int
	SubFieldCode  string
	SubFieldTitle string
	Value         string
}

// FormRow represents a form row from the database.
type FormRow struct {
	ID         int
	Title      string
	WorkflowID int
}

// FieldRoleRow maps a sub-field id to its declared role value.
type FieldRoleRow struct {
	FieldID int
	Role    string
}

// StateRow represents a workflow state row.
type StateRow struct {
	ID   int
	Name string
}

// DriverError represents an error from the driver layer
type DriverError struct {
	Op  string
	Err string
}

func (e *DriverError) Error() string {
	return e.Op + ": " + e.Err
}
