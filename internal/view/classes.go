package view

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// cn joins class lists, dropping empty parts.
func cn(parts ...string) string {
	trimmed := lo.Map(parts, func(p string, _ int) string { return strings.TrimSpace(p) })
	return strings.Join(lo.Compact(trimmed), " ")
}

// when returns class if cond holds and "" otherwise.
func when(cond bool, class string) string {
	if cond {
		return class
	}
	return ""
}

// pick returns a when cond holds and b otherwise.
func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// Percent formats a 0..1 confidence as "92.0%".
func Percent(confidence float64) string {
	return decimal.NewFromFloat(confidence).Mul(hundred).StringFixed(1) + "%"
}

// BarWidth is confidence×100 clamped to [0, 100], formatted for a CSS width.
func BarWidth(confidence float64) string {
	w := decimal.NewFromFloat(confidence).Mul(hundred)
	switch {
	case w.LessThan(decimal.Zero):
		w = decimal.Zero
	case w.GreaterThan(hundred):
		w = hundred
	}
	return w.StringFixed(1)
}

// Megabytes formats a byte count as "1.50 MB".
func Megabytes(size int64) string {
	return decimal.NewFromInt(size).Div(decimal.NewFromInt(1024*1024)).StringFixed(2) + " MB"
}
