package activity

import "math/rand/v2"

// Generator выдаёт правдоподобную дневную активность для демо-режима,
// когда реальный трекер не подключён.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator создаёт генератор. nil rng — глобальный источник.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

func (g *Generator) intN(n int) int {
	if g.rng == nil {
		return rand.IntN(n)
	}
	return g.rng.IntN(n)
}

// Day возвращает шаги (2000–11999), активные минуты (30–118) и пульс (65–98).
// Сумма двух случайных слагаемых сдвигает распределение к середине диапазона.
func (g *Generator) Day() (steps int64, activeMinutes, avgHeartRate float64) {
	steps = int64(g.intN(8000) + 2000 + g.intN(2000))
	activeMinutes = float64(g.intN(60) + 30 + g.intN(30))
	avgHeartRate = float64(g.intN(20) + 65 + g.intN(15))
	return steps, activeMinutes, avgHeartRate
}
