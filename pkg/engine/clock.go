// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import "time"

// Clock abstracts time retrieval so the date-elapse rules are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// dateToken is the layout of the 8-digit yyyymmdd calendar token.
const dateToken = "20060102"

// today renders the clock's current UTC day as a date token. Tokens
// are fixed-width digits, so lexical comparison is date comparison.
func today(c Clock) string {
	return c.Now().UTC().Format(dateToken)
}

// validDate reports whether s is a well-formed 8-digit date token.
func validDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
