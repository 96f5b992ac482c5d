package domain

// Fixed metadata field keys shared by every form response document.
const (
	FieldIDFormResponse     = "id_form_response"
	FieldFormTitle          = "form_title"
	FieldIDForm             = "id_form"
	FieldDateCreation       = "date_creation"
	FieldDateUpdate         = "date_update"
	FieldIDWorkflowState    = "id_workflow_state"
	FieldTitleWorkflowState = "title_workflow_state"
)

// Document is the flat unit handed to the search engine. UID is the
// stable external identifier: re-indexing the same response overwrites
// the previous document instead of inserting a duplicate.
type Document struct {
	ID      string `json:"id"`
	Site    string `json:"site"`
	Role    string `json:"role"`
	Type    string `json:"type"`
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Date    int64  `json:"date"`
	URL     string `json:"url"`
	Content string `json:"content"`
	// Fields holds the dynamic per-answer values keyed by field key.
	// Values are strings, integers, string lists, or GeolocValue.
	Fields map[string]any `json:"fields"`
}

// SetField stores a value under a field key, replacing any previous
// value. Collision policy lives in the builder, not here.
func (d *Document) SetField(key string, value any) {
	if d.Fields == nil {
		d.Fields = make(map[string]any)
	}
	d.Fields[key] = value
}

// AppendListField accumulates a value into a list field, preserving
// insertion order. Used for list-merging entry types.
func (d *Document) AppendListField(key, value string) {
	if d.Fields == nil {
		d.Fields = make(map[string]any)
	}
	if existing, ok := d.Fields[key].([]string); ok {
		d.Fields[key] = append(existing, value)
		return
	}
	d.Fields[key] = []string{value}
}
