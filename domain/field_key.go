package domain

import (
	"strconv"
	"strings"
)

const (
	entryKeyPrefix        = "entry_"
	iterationKeySeparator = "_iter"
	subFieldKeySeparator  = "_"
)

// EntryKey builds the base field key for a question code and iteration
// number. A negative iteration (non-iterated answer) normalizes to 0,
// so a non-iterated answer and the first iteration share one key on
// purpose.
func EntryKey(questionCode string, iteration int) string {
	if iteration < 0 {
		iteration = 0
	}

	var b strings.Builder
	b.WriteString(entryKeyPrefix)
	b.WriteString(questionCode)
	b.WriteString(iterationKeySeparator)
	b.WriteString(strconv.Itoa(iteration))
	return b.String()
}

// AnswerKey builds the full field key for one answer value, appending a
// sub-field label when the value belongs to a composite question. The
// label falls back through sub-field id, code, and title so that even a
// malformed configuration yields a non-empty, mostly-stable label; the
// answer value's own id is the last resort.
func AnswerKey(questionCode string, value AnswerValue) string {
	key := EntryKey(questionCode, value.Iteration)
	if value.SubField == nil {
		return key
	}
	return key + subFieldKeySeparator + subFieldLabel(value)
}

func subFieldLabel(value AnswerValue) string {
	sf := value.SubField
	switch {
	case sf.ID > 0:
		return strconv.Itoa(sf.ID)
	case sf.Code != "":
		return sf.Code
	case sf.Title != "":
		return sf.Title
	default:
		return strconv.Itoa(value.ID)
	}
}

// KeySet tracks the field keys already used within one document build.
// It is created per document and never shared across builds.
type KeySet map[string]struct{}

func NewKeySet() KeySet {
	return make(KeySet)
}

// Claim records the key and reports whether it was free. List-merging
// types re-claim their key on every value, so callers check
// IsListMerging before treating a taken key as a collision.
func (s KeySet) Claim(key string) bool {
	if _, taken := s[key]; taken {
		return false
	}
	s[key] = struct{}{}
	return true
}

func (s KeySet) Contains(key string) bool {
	_, taken := s[key]
	return taken
}
