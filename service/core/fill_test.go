package core

import (
	"errors"
	"testing"
	"time"

	ex "findash/data/extensions"
	m "findash/data/models"
)

func fillFixture() m.Table {
	t := m.NewTable([]time.Time{day(0), day(1), day(2), day(3)}, []string{"A", "B"})
	t.Values["A"] = column(nil, fp(1), nil, fp(3))
	t.Values["B"] = column(fp(10), fp(11), fp(12), nil)
	return t
}

func Test_ForwardFill_CarriesLastValue(t *testing.T) {
	input := fillFixture()
	res := ForwardFill(input)

	assertColumn(t, "A", []*float64{nil, fp(1), fp(1), fp(3)}, res.Values["A"])
	assertColumn(t, "B", []*float64{fp(10), fp(11), fp(12), fp(12)}, res.Values["B"])

	// input untouched
	assertColumn(t, "input A", []*float64{nil, fp(1), nil, fp(3)}, input.Values["A"])
}

func Test_DropIncompleteRows_KeepsCompleteDates(t *testing.T) {
	res := DropIncompleteRows(fillFixture())

	ex.AssertAreEqual(t, "rows", 1, res.Len())
	ex.AssertAreEqual(t, "date", day(1), res.Dates[0])
	assertColumn(t, "B", []*float64{fp(11)}, res.Values["B"])
}

func Test_FillPolicy_Apply(t *testing.T) {
	input := fillFixture()

	res, err := FillNone.Apply(input)
	if err != nil {
		t.Fatalf("error applying none: %s", err)
	}
	res.Values["A"][0] = column(fp(99))[0]
	ex.AssertAreEqual(t, "none copies", false, input.Values["A"][0].Valid)

	if _, err := FillPolicy("interpolate").Apply(input); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config for unknown policy, got %v", err)
	}
}
