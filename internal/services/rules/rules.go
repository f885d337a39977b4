// Package rules holds the pure game rules: secret/guess validation and
// positional match counting. It carries no state.
package rules

import "fmt"

const (
	// DigitCount is the number of digits in a secret or guess
	DigitCount = 4
	// MinSecret is the smallest valid value (inclusive)
	MinSecret = 1000
	// MaxSecret is the largest valid value (inclusive)
	MaxSecret = 9999
)

// WinOutcome is the outcome string recorded for an exact match
const WinOutcome = "Correct! You win!"

// IsValidNumber reports whether value is exactly DigitCount digits and,
// as an integer, within [MinSecret, MaxSecret]. Whitespace is not trimmed;
// " 1234" is invalid.
func IsValidNumber(value string) bool {
	if len(value) != DigitCount {
		return false
	}
	n := 0
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	return n >= MinSecret && n <= MaxSecret
}

// MatchCount returns the number of positions where guess and secret hold
// the same digit. Both inputs must already be validated equal-length digit
// strings. A result of DigitCount is a win.
func MatchCount(guess, secret string) int {
	matches := 0
	for i := 0; i < DigitCount; i++ {
		if guess[i] == secret[i] {
			matches++
		}
	}
	return matches
}

// Outcome renders the recorded outcome string for a match count
func Outcome(matches int) string {
	if matches == DigitCount {
		return WinOutcome
	}
	return fmt.Sprintf("%d correct", matches)
}

// IsWin reports whether an outcome string denotes a winning guess
func IsWin(outcome string) bool {
	return outcome == WinOutcome
}
