package extensions

import (
	"fmt"
	"strings"
	"time"
)

// FilterMultiple return all elements that satisfy the predicate
func FilterMultiple[T any](elements []T, predicate func(T) bool) (results []T) {
	for _, element := range elements {
		if predicate(element) {
			results = append(results, element)
		}
	}
	return
}

// FilterSingle return the single element that satisfies the predicate.
// If zero or more than one, default T and an error is returned.
func FilterSingle[T any](elements []T, predicate func(T) bool) (T, error) {
	res := FilterMultiple(elements, predicate)

	if len(res) != 1 {
		var zero T
		return zero, fmt.Errorf("error getting single, found %d matches", len(res))
	}

	return res[0], nil
}

// FirstDuplicate returns the first value that shows up more than once, ok is false when all values are unique
func FirstDuplicate[T comparable](values []T) (dup T, ok bool) {
	seen := make(map[T]struct{}, len(values))
	for _, v := range values {
		if _, exists := seen[v]; exists {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return
}

// AreEqual is a simple case invariant string comparason, surrounding whitespace is ignored
func AreEqual(s, c string) bool {
	return strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(c))
}

// SplitList splits a comma separated list, dropping empty entries
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}

// ToDate drops the clock and zone of a time, two observations on the same calendar day compare equal after this
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate tries each layout in order and returns the first that parses
func ParseDate(value string, layouts []string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %q to time.Time", value)
}

// FmtShort formats a time in a date only string
func FmtShort(t time.Time) string {
	return t.Format(time.DateOnly)
}
