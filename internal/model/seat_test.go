package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowLabel(t *testing.T) {
	cases := map[int]string{
		0:  "A",
		1:  "B",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
	}
	for idx, want := range cases {
		assert.Equal(t, want, RowLabel(idx))
	}
	assert.Equal(t, "", RowLabel(-1))
}

func TestParseSeatLabel(t *testing.T) {
	row, col, ok := ParseSeatLabel("A1")
	assert.True(t, ok)
	assert.Equal(t, 0, row)
	assert.Equal(t, 1, col)

	row, col, ok = ParseSeatLabel("AB12")
	assert.True(t, ok)
	assert.Equal(t, 27, row)
	assert.Equal(t, 12, col)

	// Lowercase and surrounding whitespace are tolerated.
	row, col, ok = ParseSeatLabel(" c7 ")
	assert.True(t, ok)
	assert.Equal(t, 2, row)
	assert.Equal(t, 7, col)

	for _, bad := range []string{"", "A", "12", "A0", "A-1", "A1B", "1A"} {
		_, _, ok := ParseSeatLabel(bad)
		assert.False(t, ok, "label %q should not parse", bad)
	}
}

func TestSeatLabelRoundTrip(t *testing.T) {
	for _, tc := range []struct{ row, col int }{{0, 1}, {5, 10}, {26, 3}, {51, 99}} {
		label := SeatLabel(tc.row, tc.col)
		row, col, ok := ParseSeatLabel(label)
		assert.True(t, ok)
		assert.Equal(t, tc.row, row)
		assert.Equal(t, tc.col, col)
	}
}

func TestClassForRow(t *testing.T) {
	assert.Equal(t, SeatClassVIP, ClassForRow(0))
	assert.Equal(t, SeatClassVIP, ClassForRow(1))
	assert.Equal(t, SeatClassPremium, ClassForRow(2))
	assert.Equal(t, SeatClassPremium, ClassForRow(4))
	assert.Equal(t, SeatClassRegular, ClassForRow(5))
	assert.Equal(t, SeatClassRegular, ClassForRow(40))
}

func TestPricingFor(t *testing.T) {
	p := Pricing{VIPCents: 50000, PremiumCents: 30000, RegularCents: 15000}
	assert.Equal(t, int64(50000), p.For(SeatClassVIP))
	assert.Equal(t, int64(30000), p.For(SeatClassPremium))
	assert.Equal(t, int64(15000), p.For(SeatClassRegular))
}

func TestEventContains(t *testing.T) {
	ev := &Event{SeatRows: 3, SeatCols: 4}
	assert.True(t, ev.Contains("A1"))
	assert.True(t, ev.Contains("C4"))
	assert.False(t, ev.Contains("D1"), "row beyond layout")
	assert.False(t, ev.Contains("A5"), "column beyond layout")
	assert.False(t, ev.Contains("A0"))
	assert.False(t, ev.Contains("not-a-seat"))
}
