// Package sparks считает искры — награду за дневную активность.
// config.go описывает таблицу порогов и коэффициентов и её загрузку из YAML.
package sparks

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig — таблица коэффициентов не может использоваться для расчёта.
var ErrInvalidConfig = errors.New("некорректная конфигурация искр")

// ThresholdBand — диапазон значения метрики и множитель для него.
// Max == nil означает «без верхней границы».
type ThresholdBand struct {
	Min         float64  `yaml:"min" json:"min"`
	Max         *float64 `yaml:"max" json:"max"`
	Coefficient float64  `yaml:"coefficient" json:"coefficient"`
}

// Contains проверяет, попадает ли значение в диапазон (границы включительно).
func (b ThresholdBand) Contains(value float64) bool {
	return value >= b.Min && (b.Max == nil || value <= *b.Max)
}

// ScoringConfig — таблица коэффициентов для трёх метрик и итоговый делитель.
// Списки порогов упорядочены: при пересечении выигрывает первый подходящий.
type ScoringConfig struct {
	StepThresholds      []ThresholdBand `yaml:"step_thresholds" json:"stepThresholds"`
	TimeThresholds      []ThresholdBand `yaml:"time_thresholds" json:"timeThresholds"`
	HeartRateThresholds []ThresholdBand `yaml:"heart_rate_thresholds" json:"heartRateThresholds"`
	SparkCoefficient    float64         `yaml:"spark_coefficient" json:"sparkCoefficient"`
}

// DefaultConfig возвращает стандартную таблицу коэффициентов.
//
//	Шаги:  0–3000 → 0.8, 3001–6000 → 1.0, 6001–9000 → 1.2, 9001–12000 → 1.5
//	Минуты: 0–30 → 0.5, 31–60 → 1.0, 61–120 → 1.5, 121+ → 2.0
//	Пульс: 0–60 → 0.75, 61–80 → 1.0, 81+ → 1.25
//	Делитель: 1 000 000
func DefaultConfig() ScoringConfig {
	return ScoringConfig{
		StepThresholds: []ThresholdBand{
			{Min: 0, Max: upTo(3000), Coefficient: 0.8},
			{Min: 3001, Max: upTo(6000), Coefficient: 1.0},
			{Min: 6001, Max: upTo(9000), Coefficient: 1.2},
			{Min: 9001, Max: upTo(12000), Coefficient: 1.5},
		},
		TimeThresholds: []ThresholdBand{
			{Min: 0, Max: upTo(30), Coefficient: 0.5},
			{Min: 31, Max: upTo(60), Coefficient: 1.0},
			{Min: 61, Max: upTo(120), Coefficient: 1.5},
			{Min: 121, Max: nil, Coefficient: 2.0},
		},
		HeartRateThresholds: []ThresholdBand{
			{Min: 0, Max: upTo(60), Coefficient: 0.75},
			{Min: 61, Max: upTo(80), Coefficient: 1.0},
			{Min: 81, Max: nil, Coefficient: 1.25},
		},
		SparkCoefficient: 1_000_000,
	}
}

// Validate проверяет делитель. Пустые списки порогов допустимы:
// для них всегда применяется коэффициент 1.0.
func (c ScoringConfig) Validate() error {
	if math.IsNaN(c.SparkCoefficient) || math.IsInf(c.SparkCoefficient, 0) || c.SparkCoefficient <= 0 {
		return fmt.Errorf("%w: spark_coefficient должен быть > 0, получено %v", ErrInvalidConfig, c.SparkCoefficient)
	}
	return nil
}

// Clone возвращает глубокую копию, чтобы таблицу нельзя было изменить снаружи.
func (c ScoringConfig) Clone() ScoringConfig {
	return ScoringConfig{
		StepThresholds:      cloneBands(c.StepThresholds),
		TimeThresholds:      cloneBands(c.TimeThresholds),
		HeartRateThresholds: cloneBands(c.HeartRateThresholds),
		SparkCoefficient:    c.SparkCoefficient,
	}
}

// LoadConfig читает таблицу коэффициентов из YAML-файла.
// Пустой путь или отсутствующий файл — стандартная таблица.
// Ключи, не указанные в файле, берутся из стандартной таблицы.
//
// Пример файла:
//
//	spark_coefficient: 1000000
//	time_thresholds:
//	  - {min: 0, max: 30, coefficient: 0.5}
//	  - {min: 31, max: null, coefficient: 1.0}
func LoadConfig(path string) (ScoringConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return ScoringConfig{}, fmt.Errorf("чтение %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ScoringConfig{}, fmt.Errorf("разбор %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return ScoringConfig{}, err
	}
	return cfg, nil
}

func cloneBands(bands []ThresholdBand) []ThresholdBand {
	if bands == nil {
		return nil
	}
	out := make([]ThresholdBand, len(bands))
	for i, b := range bands {
		out[i] = ThresholdBand{Min: b.Min, Coefficient: b.Coefficient}
		if b.Max != nil {
			out[i].Max = upTo(*b.Max)
		}
	}
	return out
}

func upTo(v float64) *float64 {
	return &v
}
