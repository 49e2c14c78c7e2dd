package progress

import (
	"encoding/json"
	"log/slog"
	"maps"
	"slices"
	"strconv"
)

// Answers maps a question id to the option the user selected.
type Answers map[int]string

// IDSet is a set of question ids.
type IDSet map[int]struct{}

// Bookmarks maps a question id to its bookmark flag.
type Bookmarks map[int]bool

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}

// The persisted blobs are JSON. Maps are written as objects keyed by the
// decimal question id; id sets are written as sorted arrays.

// EncodeAnswers serializes an answers map.
func EncodeAnswers(a Answers) string {
	out := make(map[string]string, len(a))
	for id, option := range a {
		out[strconv.Itoa(id)] = option
	}
	return mustMarshal(out)
}

// DecodeAnswers parses an answers blob. Absent or malformed input yields an
// empty map; malformed input is logged.
func DecodeAnswers(raw string, present bool) Answers {
	out := Answers{}
	if !present {
		return out
	}
	var in map[string]string
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		slog.Warn("discarding corrupt answers blob", "error", err)
		return out
	}
	for k, option := range in {
		id, err := strconv.Atoi(k)
		if err != nil {
			slog.Warn("discarding corrupt answers blob", "error", err)
			return Answers{}
		}
		out[id] = option
	}
	return out
}

// EncodeIDSet serializes an id set as a sorted JSON array.
func EncodeIDSet(s IDSet) string {
	ids := s.Sorted()
	if ids == nil {
		ids = []int{}
	}
	return mustMarshal(ids)
}

// DecodeIDSet parses an id-set blob, returning an empty set on absent or
// malformed input.
func DecodeIDSet(raw string, present bool) IDSet {
	if !present {
		return IDSet{}
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		slog.Warn("discarding corrupt completed-questions blob", "error", err)
		return IDSet{}
	}
	return NewIDSet(ids...)
}

// EncodeBookmarks serializes a bookmarks map.
func EncodeBookmarks(b Bookmarks) string {
	out := make(map[string]bool, len(b))
	for id, on := range b {
		out[strconv.Itoa(id)] = on
	}
	return mustMarshal(out)
}

// DecodeBookmarks parses a bookmarks blob, returning an empty map on absent
// or malformed input.
func DecodeBookmarks(raw string, present bool) Bookmarks {
	out := Bookmarks{}
	if !present {
		return out
	}
	var in map[string]bool
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		slog.Warn("discarding corrupt bookmarks blob", "error", err)
		return out
	}
	for k, on := range in {
		id, err := strconv.Atoi(k)
		if err != nil {
			slog.Warn("discarding corrupt bookmarks blob", "error", err)
			return Bookmarks{}
		}
		out[id] = on
	}
	return out
}

// mustMarshal encodes values that cannot fail to marshal (string/int/bool
// maps and int slices).
func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic("progress: marshal: " + err.Error())
	}
	return string(b)
}
