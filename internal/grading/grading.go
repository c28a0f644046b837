// Package grading evaluates submitted selections against answer keys and
// computes exam scores. Scoring is exact-match: a question is correct only if
// the selected option set equals the key set; no partial credit.
package grading

import "github.com/shopspring/decimal"

// Outcome classifies one question in a submission.
type Outcome int

const (
	Empty Outcome = iota // no selection submitted
	Correct
	Wrong
)

// Evaluate applies the exact-match rule. An empty selection is Empty; a
// superset or subset of the key is Wrong. Order of ids never matters.
func Evaluate(key, selected []int64) Outcome {
	if len(selected) == 0 {
		return Empty
	}
	if setEqual(toSet(key), toSet(selected)) {
		return Correct
	}
	return Wrong
}

var hundred = decimal.NewFromInt(100)

// Score maps a correct/total tally onto [0, 100] with half-up rounding at
// two decimal places. Fixed-point arithmetic keeps the rounding reproducible.
func Score(correct, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero.Round(2)
	}
	return decimal.NewFromInt(int64(correct)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}

func toSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
