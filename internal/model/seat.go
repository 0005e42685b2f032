package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SeatClass categorizes seats by row position. The class determines the
// price charged for the seat at booking time.
type SeatClass string

const (
	SeatClassVIP     SeatClass = "vip"
	SeatClassPremium SeatClass = "premium"
	SeatClassRegular SeatClass = "regular"
)

// ClassForRow derives the seat class from a zero-based row index. Rows 0-1
// are vip, rows 2-4 are premium and all rows below are regular.
func ClassForRow(row int) SeatClass {
	switch {
	case row <= 1:
		return SeatClassVIP
	case row <= 4:
		return SeatClassPremium
	default:
		return SeatClassRegular
	}
}

// RowLabel converts a zero-based row index to an alphabetical row label
// like A, B, ..., Z, AA, AB.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// rowLabelToIndex converts a row label like A or AA into its zero-based index.
func rowLabelToIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// SeatLabel builds a seat identifier from a zero-based row index and a
// one-based column number, e.g. row 0, col 1 -> "A1".
func SeatLabel(row, col int) string {
	return fmt.Sprintf("%s%d", RowLabel(row), col)
}

// ParseSeatLabel splits a seat identifier such as "A1" or "AB12" into its
// zero-based row index and one-based column number. It returns ok=false
// when the label is empty, malformed or contains no column digits.
func ParseSeatLabel(label string) (row, col int, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return 0, 0, false
	}
	row, ok = rowLabelToIndex(s[:i])
	if !ok {
		return 0, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return row, n, true
}
