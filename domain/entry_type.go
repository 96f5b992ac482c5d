package domain

import (
	"fmt"
	"strconv"
)

// EntryType is the declared semantic kind of a question. The set is
// closed: coercion behavior is selected through a lookup table keyed by
// the type tag, never through type switches at the call sites.
type EntryType string

const (
	EntryTypeText        EntryType = "text"
	EntryTypeTextArea    EntryType = "textarea"
	EntryTypeSelect      EntryType = "select"
	EntryTypeRadio       EntryType = "radio"
	EntryTypeDate        EntryType = "date"
	EntryTypeNumbering   EntryType = "number"
	EntryTypeCheckBox    EntryType = "checkbox"
	EntryTypeGeolocation EntryType = "geolocation"
)

// Dynamic field suffixes by value kind.
const (
	FieldDateSuffix   = "_date"
	FieldIntSuffix    = "_int"
	FieldGeolocSuffix = "_geoloc"
)

// FieldRole is the declared role of a geolocation sub-field.
type FieldRole string

const (
	RoleAddress FieldRole = "address"
	RoleX       FieldRole = "X"
	RoleY       FieldRole = "Y"
)

// GeolocValue is the encoded value of one geolocation iteration.
type GeolocValue struct {
	Address string  `json:"address"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Type    string  `json:"type"`
}

// CoerceFunc converts a non-empty raw value into its document field
// representation: the (possibly suffixed) field key and the encoded
// value. A CoercionError means the single value must be skipped, never
// that the document fails.
type CoerceFunc func(key, raw string) (string, any, error)

// CoercionError reports an unparseable raw value for one answer.
type CoercionError struct {
	EntryType EntryType
	Raw       string
	Err       error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %q as %s: %v", e.Raw, e.EntryType, e.Err)
}

func coerceDate(key, raw string) (string, any, error) {
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", nil, &CoercionError{EntryType: EntryTypeDate, Raw: raw, Err: err}
	}
	return key + FieldDateSuffix, epoch, nil
}

func coerceNumber(key, raw string) (string, any, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", nil, &CoercionError{EntryType: EntryTypeNumbering, Raw: raw, Err: err}
	}
	return key + FieldIntSuffix, n, nil
}

func coerceRaw(key, raw string) (string, any, error) {
	return key, raw, nil
}

// coercers is the closed dispatch table. Types without an entry fall
// back to the raw-string coercion.
var coercers = map[EntryType]CoerceFunc{
	EntryTypeDate:      coerceDate,
	EntryTypeNumbering: coerceNumber,
	EntryTypeCheckBox:  coerceRaw,
}

// CoercerFor returns the coercion function for an entry type.
// Geolocation values never go through here: they are assembled per
// iteration from their sub-field roles by the document builder.
func CoercerFor(t EntryType) CoerceFunc {
	if fn, ok := coercers[t]; ok {
		return fn
	}
	return coerceRaw
}

// IsListMerging reports whether repeated values of the type accumulate
// into one list field instead of colliding.
func IsListMerging(t EntryType) bool {
	return t == EntryTypeCheckBox
}
