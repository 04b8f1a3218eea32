package balance

import "math"

// Курсы обмена фиксированы политикой приложения, а не вычисляются.
const (
	SparksPerCurrencyUnit = 1000 // Искр за единицу валюты (цена товара × 1000)
	SparksPerMinute       = 1    // Искр за минуту экранного времени
)

// CostInSparks переводит цену товара в искры.
func CostInSparks(dollarValue float64) int64 {
	return int64(math.Round(dollarValue * SparksPerCurrencyUnit))
}

// MinutesFor переводит баланс в минуты экранного времени.
// Отрицательный баланс — 0 минут.
func MinutesFor(available int64) int64 {
	if available <= 0 {
		return 0
	}
	return available / SparksPerMinute
}

// SparksForMinutes — стоимость указанного числа минут.
func SparksForMinutes(minutes int64) int64 {
	return minutes * SparksPerMinute
}

// CanAfford сообщает, хватает ли доступного баланса на cost.
func CanAfford(available, cost int64) bool {
	return available >= cost
}
