package domain

import (
	"errors"
	"time"
)

// ResourceType is the logical type tag shared by every indexed form
// response. It is part of the document uid, so it must stay stable
// across deployments.
const ResourceType = "forms_response"

// SubField identifies one named field inside a composite question
// (e.g. the address part of a geolocation question).
type SubField struct {
	ID    int
	Code  string
	Title string
}

// AnswerValue is a single raw value submitted for a question. Iteration
// is -1 when the question is not iterated; key resolution normalizes
// that to 0.
type AnswerValue struct {
	ID        int
	Iteration int
	SubField  *SubField
	Value     string
}

// Question carries the declared shape of one form question.
type Question struct {
	ID        int
	Code      string
	EntryType EntryType
	// Indexed marks the question's values as part of the free-text
	// content blob.
	Indexed bool
}

// QuestionAnswer groups the values submitted for one question within
// one response.
type QuestionAnswer struct {
	Question Question
	Values   []AnswerValue
}

// Step is one page of a multi-step response.
type Step struct {
	Answers []QuestionAnswer
}

// FormResponse is one submitted response. It is owned by the record
// store; the indexing pipeline only ever reads it.
type FormResponse struct {
	id        int
	formID    int
	creation  time.Time
	update    time.Time
	published bool
	steps     []Step
}

func NewFormResponse(id, formID int, creation, update time.Time, published bool, steps []Step) (*FormResponse, error) {
	if id <= 0 {
		return nil, errors.New("form response ID must be positive")
	}
	if formID <= 0 {
		return nil, errors.New("form ID must be positive")
	}

	return &FormResponse{
		id:        id,
		formID:    formID,
		creation:  creation,
		update:    update,
		published: published,
		steps:     steps,
	}, nil
}

func (r *FormResponse) ID() int {
	return r.id
}

func (r *FormResponse) FormID() int {
	return r.formID
}

func (r *FormResponse) Creation() time.Time {
	return r.creation
}

func (r *FormResponse) Update() time.Time {
	return r.update
}

func (r *FormResponse) IsPublished() bool {
	return r.published
}

func (r *FormResponse) Steps() []Step {
	return r.steps
}

// FlattenAnswers returns every question answer of the response in step
// order. Used by the single-document path; the batch path loads grouped
// answers separately.
func (r *FormResponse) FlattenAnswers() []QuestionAnswer {
	var answers []QuestionAnswer
	for _, step := range r.steps {
		answers = append(answers, step.Answers...)
	}
	return answers
}
