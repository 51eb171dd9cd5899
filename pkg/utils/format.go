// Package utils provides shared formatting and retry helpers.
package utils

import (
	"fmt"
	"strings"
)

// FormatMoney formats an amount with thousands separators and two
// decimal places, e.g. 97499 -> "97,499.00".
func FormatMoney(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := groupThousands(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a fraction as a signed percentage,
// e.g. 0.0825 -> "+8.25%".
func FormatPercent(fraction float64) string {
	sign := ""
	if fraction > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, fraction*100)
}

// FormatPnL formats a profit or loss with an explicit sign.
func FormatPnL(pnl float64) string {
	formatted := FormatMoney(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatQuantity formats a share count with thousands separators.
func FormatQuantity(qty int) string {
	s := fmt.Sprintf("%d", qty)
	if qty < 0 {
		return "-" + groupThousands(s[1:])
	}
	return groupThousands(s)
}
