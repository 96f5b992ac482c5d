package domain

import "errors"

// Form describes the questionnaire a response belongs to.
type Form struct {
	id         int
	title      string
	workflowID int
}

func NewForm(id int, title string, workflowID int) (*Form, error) {
	if id <= 0 {
		return nil, errors.New("form ID must be positive")
	}
	if title == "" {
		return nil, errors.New("form title cannot be empty")
	}

	return &Form{
		id:         id,
		title:      title,
		workflowID: workflowID,
	}, nil
}

func (f *Form) ID() int {
	return f.id
}

func (f *Form) Title() string {
	return f.title
}

func (f *Form) WorkflowID() int {
	return f.workflowID
}
