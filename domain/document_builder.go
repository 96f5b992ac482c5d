package domain

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// RoleForms is the portal role tag carried by every response document.
	RoleForms = "formResponse"

	responseURLTemplate = "jsp/site/Portal.jsp?page=formsResponse&id_response=%s"
)

// ResourceUID composes the stable external identifier of a resource.
// The search engine deduplicates on it, so re-indexing is an update.
func ResourceUID(resourceID, resourceType string) string {
	return resourceID + "_" + resourceType
}

// DocumentBuilder assembles one search document from one form response
// and its resolved workflow state. Build is a pure function of its
// inputs: no store or network access happens here, only diagnostics.
type DocumentBuilder struct {
	site   string
	logger *slog.Logger
}

func NewDocumentBuilder(site string, logger *slog.Logger) *DocumentBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentBuilder{
		site:   site,
		logger: logger,
	}
}

// Build produces the document for a response. answers is the flattened
// question-answer list (the batch path loads it grouped, the
// single-document path flattens the response's steps); fieldRoles maps
// sub-field ids to their geolocation role.
func (b *DocumentBuilder) Build(response *FormResponse, form *Form, state WorkflowState, answers []QuestionAnswer, fieldRoles map[int]FieldRole) (*Document, error) {
	if response == nil {
		return nil, fmt.Errorf("form response is nil")
	}
	if form == nil {
		return nil, fmt.Errorf("form is nil for response %d", response.ID())
	}

	doc := b.initDocument(response, form, state, answers)

	used := NewKeySet()
	for _, qa := range answers {
		for _, value := range qa.Values {
			if qa.Question.EntryType == EntryTypeGeolocation {
				// Geolocation questions are assembled once per
				// iteration group, not once per coordinate.
				b.addGeolocFields(doc, qa, fieldRoles, used, response.ID())
				break
			}
			b.addAnswerValue(doc, qa.Question, value, response.ID(), used)
		}
	}

	return doc, nil
}

func (b *DocumentBuilder) initDocument(response *FormResponse, form *Form, state WorkflowState, answers []QuestionAnswer) *Document {
	id := strconv.Itoa(response.ID())

	doc := &Document{
		ID:      id,
		Site:    b.site,
		Role:    RoleForms,
		Type:    ResourceType + "_" + strconv.Itoa(form.ID()),
		UID:     ResourceUID(id, ResourceType),
		Title:   RoleForms + " #" + id,
		Date:    response.Creation().UnixMilli(),
		URL:     fmt.Sprintf(responseURLTemplate, id),
		Content: contentToIndex(answers),
		Fields:  make(map[string]any),
	}

	doc.SetField(FieldIDFormResponse, int64(response.ID()))
	doc.SetField(FieldFormTitle, form.Title())
	doc.SetField(FieldIDForm, int64(form.ID()))
	doc.SetField(FieldDateCreation, response.Creation().UnixMilli())
	doc.SetField(FieldDateUpdate, response.Update().UnixMilli())
	doc.SetField(FieldIDWorkflowState, int64(state.ID))
	doc.SetField(FieldTitleWorkflowState, state.Name)

	return doc
}

// addAnswerValue resolves the field key for one answer value, applies
// the collision policy, and sets the coerced value. Empty raw values
// never occupy a key.
func (b *DocumentBuilder) addAnswerValue(doc *Document, q Question, value AnswerValue, responseID int, used KeySet) {
	if value.Value == "" {
		return
	}

	key := AnswerKey(q.Code, value)
	merging := IsListMerging(q.EntryType)

	if !used.Claim(key) && !merging {
		b.logger.Error("field key already used, dropping value",
			"key", key,
			"response_id", responseID,
			"question_code", q.Code,
			"answer_id", value.ID,
		)
		return
	}

	if merging {
		doc.AppendListField(key, value.Value)
		return
	}

	fieldKey, encoded, err := CoercerFor(q.EntryType)(key, value.Value)
	if err != nil {
		b.logger.Warn("skipping unparseable answer value",
			"response_id", responseID,
			"question_code", q.Code,
			"answer_id", value.ID,
			"err", err,
		)
		return
	}
	doc.SetField(fieldKey, encoded)
}

// addGeolocFields emits one geolocation field per iteration group of a
// geolocation question. The field is produced only when the address and
// both coordinates are present; a coordinate of exactly 0 counts as
// unset, same as the missing case.
func (b *DocumentBuilder) addGeolocFields(doc *Document, qa QuestionAnswer, fieldRoles map[int]FieldRole, used KeySet, responseID int) {
	groups := make(map[int][]AnswerValue)
	for _, value := range qa.Values {
		groups[value.Iteration] = append(groups[value.Iteration], value)
	}

	iterations := make([]int, 0, len(groups))
	for iteration := range groups {
		iterations = append(iterations, iteration)
	}
	sort.Ints(iterations)

	for _, iteration := range iterations {
		key := EntryKey(qa.Question.Code, iteration)
		if !used.Claim(key) {
			b.logger.Error("field key already used, dropping geolocation",
				"key", key,
				"response_id", responseID,
				"question_code", qa.Question.Code,
			)
			continue
		}

		var x, y float64
		var address string
		for _, value := range groups[iteration] {
			if value.SubField == nil {
				continue
			}
			switch fieldRoles[value.SubField.ID] {
			case RoleAddress:
				address = value.Value
			case RoleX:
				x = b.parseCoordinate(value, qa.Question.Code, responseID)
			case RoleY:
				y = b.parseCoordinate(value, qa.Question.Code, responseID)
			}
		}

		if address != "" && x != 0 && y != 0 {
			doc.SetField(key+FieldGeolocSuffix, GeolocValue{
				Address: address,
				X:       x,
				Y:       y,
				Type:    ResourceType,
			})
		}
	}
}

func (b *DocumentBuilder) parseCoordinate(value AnswerValue, questionCode string, responseID int) float64 {
	if value.Value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value.Value, 64)
	if err != nil {
		b.logger.Warn("skipping unparseable coordinate",
			"response_id", responseID,
			"question_code", questionCode,
			"answer_id", value.ID,
			"err", err,
		)
		return 0
	}
	return f
}

// contentToIndex concatenates the export-formatted value of every
// answer belonging to an indexable question, space-joined in traversal
// order. Non-indexable questions still get discrete fields; they just
// stay out of the free-text blob.
func contentToIndex(answers []QuestionAnswer) string {
	var sb strings.Builder
	for _, qa := range answers {
		if !qa.Question.Indexed {
			continue
		}
		for _, value := range qa.Values {
			s := exportValue(qa.Question.EntryType, value.Value)
			if s == "" {
				continue
			}
			sb.WriteString(s)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// exportValue renders a raw value for the content blob. Dates are
// rendered as calendar dates when the raw epoch parses; everything else
// is indexed verbatim.
func exportValue(t EntryType, raw string) string {
	if t == EntryTypeDate {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return time.Unix(epoch, 0).UTC().Format("2006-01-02")
		}
	}
	return raw
}
