package extensions

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"
)

func AssertAreEqual[T comparable](t *testing.T, name string, expected T, actual T) {
	t.Helper()
	if expected != actual {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, expected, actual)
	}
}

func AssertNillability[T comparable](t *testing.T, name string, expected bool, actual *T) {
	t.Helper()
	if (actual == nil) != expected {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, expected, (actual == nil))
	}
}

// AssertNullFloat checks a nullable cell against an expected value within tolerance, a nil expected means the cell must be null
func AssertNullFloat(t *testing.T, name string, expected *float64, actual null.Float, tolerance float64) {
	t.Helper()
	if expected == nil {
		if actual.Valid {
			t.Fatalf("value mismatch for %s, expected null, got %v", name, actual.Float64)
		}
		return
	}
	if !actual.Valid {
		t.Fatalf("value mismatch for %s, expected %v, got null", name, *expected)
	}
	if math.Abs(*expected-actual.Float64) > tolerance {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, *expected, actual.Float64)
	}
}
