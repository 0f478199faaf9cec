// Package num is the decimal arithmetic substrate for money values. All
// prices, amounts and fees move through it as exact base-10 strings so no
// binary floating point error can creep into a monetary quantity.
package num

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how RoundToTick resolves values that fall between
// two tick steps.
type RoundingMode int

const (
	// RoundDown truncates toward zero. Used for outgoing order amounts so
	// the connector never asks for more size than the caller holds.
	RoundDown RoundingMode = iota
	// RoundNearest rounds half away from zero. Used for outgoing prices.
	RoundNearest
)

func parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// Add returns a+b exactly.
func Add(a, b string) (string, error) {
	da, err := parse(a)
	if err != nil {
		return "", err
	}
	db, err := parse(b)
	if err != nil {
		return "", err
	}
	return da.Add(db).String(), nil
}

// Sub returns a-b exactly.
func Sub(a, b string) (string, error) {
	da, err := parse(a)
	if err != nil {
		return "", err
	}
	db, err := parse(b)
	if err != nil {
		return "", err
	}
	return da.Sub(db).String(), nil
}

// Mul returns a*b exactly.
func Mul(a, b string) (string, error) {
	da, err := parse(a)
	if err != nil {
		return "", err
	}
	db, err := parse(b)
	if err != nil {
		return "", err
	}
	return da.Mul(db).String(), nil
}

// Div returns a/b rounded to the requested number of fractional digits.
// True decimal division is not always exact, so the caller must pick the
// output scale.
func Div(a, b string, places int32) (string, error) {
	da, err := parse(a)
	if err != nil {
		return "", err
	}
	db, err := parse(b)
	if err != nil {
		return "", err
	}
	if db.IsZero() {
		return "", fmt.Errorf("division by zero")
	}
	return da.DivRound(db, places).String(), nil
}

// Cmp compares two decimals mathematically: -1 if a<b, 0 if equal, 1 if
// a>b. Differing representations of the same value compare equal
// ("1.0" == "1.00").
func Cmp(a, b string) (int, error) {
	da, err := parse(a)
	if err != nil {
		return 0, err
	}
	db, err := parse(b)
	if err != nil {
		return 0, err
	}
	return da.Cmp(db), nil
}

// Equal reports whether a and b denote the same value.
func Equal(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// RoundToTick snaps value to a multiple of tick, which must be a positive
// decimal magnitude such as "0.01", so no more precision than the venue
// accepts is ever transmitted.
func RoundToTick(value, tick string, mode RoundingMode) (string, error) {
	v, err := parse(value)
	if err != nil {
		return "", err
	}
	t, err := parse(tick)
	if err != nil {
		return "", err
	}
	if t.Sign() <= 0 {
		return "", fmt.Errorf("tick size %q must be positive", tick)
	}
	steps := v.DivRound(t, 28)
	switch mode {
	case RoundDown:
		steps = steps.Truncate(0)
	default:
		steps = steps.Round(0)
	}
	return steps.Mul(t).String(), nil
}

// TickFromDecimals converts a decimal-place count as reported by the venue
// ("2") into the equivalent tick size ("0.01").
func TickFromDecimals(decimals string) (string, error) {
	n, err := strconv.Atoi(decimals)
	if err != nil {
		return "", fmt.Errorf("invalid decimal count %q: %w", decimals, err)
	}
	if n < 0 {
		return "", fmt.Errorf("decimal count %q must not be negative", decimals)
	}
	return decimal.New(1, -int32(n)).String(), nil
}
