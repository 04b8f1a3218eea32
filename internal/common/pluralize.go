// Package common — pluralize.go: знаковые суммы и числа с разделителями.
package common

import "fmt"

// FormatSparksAmount создаёт строку вида "+100 искр" или "-50 искр".
//
//	FormatSparksAmount(100) → "+100 искр"
//	FormatSparksAmount(-50) → "-50 искр"
//	FormatSparksAmount(1)   → "+1 искра"
func FormatSparksAmount(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%s %s", FormatNumber(amount), PluralizeSparks(amount))
	}
	return fmt.Sprintf("%s %s", FormatNumber(amount), PluralizeSparks(amount))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
