package models

import (
	"fmt"
	"strings"
)

// DiscountKind selects how a proposal discount is computed.
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// ParseDiscountKind accepts the canonical kind names and the legacy
// single-character codes ("%" for percentage, "R" for a fixed amount).
func ParseDiscountKind(s string) (DiscountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DiscountNone, nil
	case "percentage", "percent", "%":
		return DiscountPercentage, nil
	case "fixed", "amount", "r":
		return DiscountFixed, nil
	}
	return "", fmt.Errorf("%w: unknown discount kind %q", ErrInvalidInput, s)
}

// Discount is either no discount, a percentage of the subtotal, or a fixed
// amount. The zero value is no discount.
type Discount struct {
	kind  DiscountKind
	value float64
}

// NoDiscount returns the empty discount.
func NoDiscount() Discount { return Discount{} }

// PercentageDiscount returns a discount of p percent of the subtotal.
// Negative values are clamped to zero.
func PercentageDiscount(p float64) Discount {
	return Discount{kind: DiscountPercentage, value: max(0, p)}
}

// FixedDiscount returns a discount of v currency units.
// Negative values are clamped to zero.
func FixedDiscount(v float64) Discount {
	return Discount{kind: DiscountFixed, value: max(0, v)}
}

// NewDiscount builds a discount of the given kind.
func NewDiscount(kind DiscountKind, value float64) Discount {
	switch kind {
	case DiscountPercentage:
		return PercentageDiscount(value)
	case DiscountFixed:
		return FixedDiscount(value)
	default:
		return NoDiscount()
	}
}

func (d Discount) Kind() DiscountKind {
	if d.kind == "" {
		return DiscountNone
	}
	return d.kind
}

// Value is the percentage or the fixed amount, depending on Kind.
func (d Discount) Value() float64 { return d.value }

// Percentage returns the percentage, or 0 when the discount is not a percentage.
func (d Discount) Percentage() float64 {
	if d.kind == DiscountPercentage {
		return d.value
	}
	return 0
}

// FixedAmount returns the fixed amount, or 0 when the discount is not fixed.
func (d Discount) FixedAmount() float64 {
	if d.kind == DiscountFixed {
		return d.value
	}
	return 0
}

// Amount computes the deduction applied to subtotal.
func (d Discount) Amount(subtotal float64) float64 {
	switch d.kind {
	case DiscountPercentage:
		return subtotal * (d.value / 100.0)
	case DiscountFixed:
		return d.value
	default:
		return 0
	}
}

func (d Discount) String() string {
	switch d.kind {
	case DiscountPercentage:
		return fmt.Sprintf("%.2f%%", d.value)
	case DiscountFixed:
		return fmt.Sprintf("%.2f", d.value)
	default:
		return "none"
	}
}
