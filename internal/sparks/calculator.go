// Package sparks — calculator.go переводит шаги, активные минуты и средний пульс
// в искры. Расчёт чистый: без I/O и без состояния, можно вызывать из любых горутин.
package sparks

import "math"

// DefaultCoefficient применяется, если значение не попало ни в один диапазон.
const DefaultCoefficient = 1.0

// Result — итог расчёта вместе с промежуточными коэффициентами.
// Коэффициенты и сырое произведение нужны, чтобы объяснить пользователю число.
type Result struct {
	SparkPoints          int64   `json:"sparkPoints"`
	StepsCoefficient     float64 `json:"stepsCoefficient"`
	TimeCoefficient      float64 `json:"timeCoefficient"`
	HeartRateCoefficient float64 `json:"heartRateCoefficient"`
	RawProduct           float64 `json:"rawProduct"`
	// Valid == false, если результат деления не конечен или не помещается в int64.
	// Тогда SparkPoints = 0, а RawProduct сохраняет исходное значение.
	Valid bool `json:"valid"`
}

// Calculator считает искры по своей таблице коэффициентов.
// Таблица копируется при создании и дальше не меняется.
type Calculator struct {
	cfg ScoringConfig
}

// NewCalculator создаёт калькулятор с указанной таблицей.
func NewCalculator(cfg ScoringConfig) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg.Clone()}, nil
}

// NewDefaultCalculator создаёт калькулятор со стандартной таблицей.
func NewDefaultCalculator() *Calculator {
	return &Calculator{cfg: DefaultConfig()}
}

// WithConfig возвращает новый калькулятор с другой таблицей; исходный не меняется.
func (c *Calculator) WithConfig(cfg ScoringConfig) (*Calculator, error) {
	return NewCalculator(cfg)
}

// Config возвращает копию текущей таблицы.
func (c *Calculator) Config() ScoringConfig {
	return c.cfg.Clone()
}

// CoefficientFor возвращает коэффициент первого диапазона, в который попадает value.
// Если ни один не подошёл (в том числе для пустого списка, отрицательных значений и NaN) —
// DefaultCoefficient. Никогда не завершается ошибкой.
func CoefficientFor(value float64, bands []ThresholdBand) float64 {
	for _, b := range bands {
		if b.Contains(value) {
			return b.Coefficient
		}
	}
	return DefaultCoefficient
}

// Calculate считает искры:
//
//	raw    = (steps·kSteps) · (minutes·kTime) · (hr·kHR)
//	sparks = floor(raw / SparkCoefficient)
//
// Вся арифметика в float64, округление только на последнем шаге.
// Отрицательные значения не отклоняются.
func (c *Calculator) Calculate(steps, activeMinutes, avgHeartRate float64) Result {
	stepsCoef := CoefficientFor(steps, c.cfg.StepThresholds)
	timeCoef := CoefficientFor(activeMinutes, c.cfg.TimeThresholds)
	heartRateCoef := CoefficientFor(avgHeartRate, c.cfg.HeartRateThresholds)

	raw := (steps * stepsCoef) * (activeMinutes * timeCoef) * (avgHeartRate * heartRateCoef)

	res := Result{
		StepsCoefficient:     stepsCoef,
		TimeCoefficient:      timeCoef,
		HeartRateCoefficient: heartRateCoef,
		RawProduct:           raw,
	}

	points := math.Floor(raw / c.cfg.SparkCoefficient)
	if math.IsNaN(points) || points >= math.MaxInt64 || points < math.MinInt64 {
		return res
	}
	res.SparkPoints = int64(points)
	res.Valid = true
	return res
}
