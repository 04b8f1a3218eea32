package sparks

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestCoefficientForEmptyBands(t *testing.T) {
	for _, v := range []float64{-10, 0, 1, 4500, 1e9, math.NaN(), math.Inf(1)} {
		if got := CoefficientFor(v, nil); got != 1.0 {
			t.Fatalf("CoefficientFor(%v, nil) = %v, want 1.0", v, got)
		}
		if got := CoefficientFor(v, []ThresholdBand{}); got != 1.0 {
			t.Fatalf("CoefficientFor(%v, []) = %v, want 1.0", v, got)
		}
	}
}

func TestCoefficientForFirstMatchWins(t *testing.T) {
	bands := []ThresholdBand{
		{Min: 0, Max: nil, Coefficient: 3.0},
		{Min: 10, Max: upTo(20), Coefficient: 7.0},
	}
	if got := CoefficientFor(15, bands); got != 3.0 {
		t.Fatalf("overlap: got %v, want earlier band 3.0", got)
	}

	reversed := []ThresholdBand{bands[1], bands[0]}
	if got := CoefficientFor(15, reversed); got != 7.0 {
		t.Fatalf("overlap reversed: got %v, want 7.0", got)
	}
}

func TestCoefficientForBoundaries(t *testing.T) {
	steps := DefaultConfig().StepThresholds
	cases := []struct {
		value float64
		want  float64
	}{
		{0, 0.8},
		{3000, 0.8},
		{3000.5, 1.0}, // щель между диапазонами
		{3001, 1.0},
		{6000, 1.0},
		{9001, 1.5},
		{12000, 1.5},
		{12001, 1.0}, // выше последнего диапазона
		{-1, 1.0},
	}
	for _, tc := range cases {
		if got := CoefficientFor(tc.value, steps); got != tc.want {
			t.Errorf("steps %v: got %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestCalculateDefaultConfig(t *testing.T) {
	calc := NewDefaultCalculator()

	cases := []struct {
		name                string
		steps, minutes, hr  float64
		wantSteps, wantTime float64
		wantHR, wantRaw     float64
		wantPoints          int64
	}{
		{"average day", 4500, 45, 75, 1.0, 1.0, 1.0, 15_187_500, 15},
		{"active day", 12000, 150, 85, 1.5, 2.0, 1.25, 573_750_000, 573},
		{"zero", 0, 0, 0, 0.8, 0.5, 0.75, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := calc.Calculate(tc.steps, tc.minutes, tc.hr)
			if res.StepsCoefficient != tc.wantSteps || res.TimeCoefficient != tc.wantTime || res.HeartRateCoefficient != tc.wantHR {
				t.Fatalf("coefficients = %v/%v/%v, want %v/%v/%v",
					res.StepsCoefficient, res.TimeCoefficient, res.HeartRateCoefficient,
					tc.wantSteps, tc.wantTime, tc.wantHR)
			}
			if res.RawProduct != tc.wantRaw {
				t.Fatalf("raw = %v, want %v", res.RawProduct, tc.wantRaw)
			}
			if res.SparkPoints != tc.wantPoints || !res.Valid {
				t.Fatalf("points = %d (valid=%v), want %d", res.SparkPoints, res.Valid, tc.wantPoints)
			}
		})
	}
}

func TestCalculateZeroIgnoresCoefficients(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepThresholds = []ThresholdBand{{Min: 0, Max: nil, Coefficient: 99}}
	calc, err := NewCalculator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res := calc.Calculate(0, 0, 0)
	if res.RawProduct != 0 || res.SparkPoints != 0 {
		t.Fatalf("got raw=%v points=%d, want 0/0", res.RawProduct, res.SparkPoints)
	}
}

func TestCalculateDivisorScaling(t *testing.T) {
	base := NewDefaultCalculator()
	cfg := DefaultConfig()
	cfg.SparkCoefficient *= 2
	doubled, err := base.WithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for _, in := range [][3]float64{{12000, 150, 85}, {4500, 45, 75}, {8000, 90, 70}} {
		a := base.Calculate(in[0], in[1], in[2]).SparkPoints
		b := doubled.Calculate(in[0], in[1], in[2]).SparkPoints
		if b != a/2 && b != (a-1)/2 && b != (a+1)/2 {
			t.Errorf("%v: base=%d doubled=%d, want about half", in, a, b)
		}
	}
	if got := base.Calculate(12000, 150, 85).SparkPoints; got != 573 {
		t.Fatalf("WithConfig mutated the original calculator: %d", got)
	}
}

func TestCalculateNegativeInputIsPermissive(t *testing.T) {
	res := NewDefaultCalculator().Calculate(-1000, 45, 75)
	if res.StepsCoefficient != 1.0 {
		t.Fatalf("negative steps coefficient = %v, want default 1.0", res.StepsCoefficient)
	}
	if res.RawProduct != -3_375_000 || res.SparkPoints != -4 {
		t.Fatalf("got raw=%v points=%d, want -3375000/-4", res.RawProduct, res.SparkPoints)
	}
}

func TestCalculateNonFinite(t *testing.T) {
	calc := NewDefaultCalculator()

	nan := calc.Calculate(math.NaN(), 45, 75)
	if nan.Valid || nan.SparkPoints != 0 || !math.IsNaN(nan.RawProduct) {
		t.Fatalf("NaN input: %+v", nan)
	}

	inf := calc.Calculate(math.Inf(1), 45, 75)
	if inf.Valid || inf.SparkPoints != 0 || !math.IsInf(inf.RawProduct, 1) {
		t.Fatalf("Inf input: %+v", inf)
	}
}

func TestNewCalculatorRejectsBadDivisor(t *testing.T) {
	for _, div := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		cfg := DefaultConfig()
		cfg.SparkCoefficient = div
		if _, err := NewCalculator(cfg); err == nil {
			t.Errorf("divisor %v accepted", div)
		}
	}
}

func TestCalculatorOwnsItsConfig(t *testing.T) {
	cfg := DefaultConfig()
	calc, err := NewCalculator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	*cfg.StepThresholds[1].Max = 1
	cfg.StepThresholds[1].Coefficient = 42

	if got := calc.Calculate(4500, 45, 75).StepsCoefficient; got != 1.0 {
		t.Fatalf("external mutation leaked into calculator: %v", got)
	}

	out := calc.Config()
	out.TimeThresholds[0].Coefficient = 42
	if got := calc.Calculate(4500, 10, 75).TimeCoefficient; got != 0.5 {
		t.Fatalf("Config() exposed internal slice: %v", got)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.SparkCoefficient != 1_000_000 || len(cfg.StepThresholds) != 4 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})

	t.Run("partial override", func(t *testing.T) {
		path := filepath.Join(dir, "sparks.yaml")
		data := []byte(`
spark_coefficient: 500000
time_thresholds:
  - {min: 0, max: 30, coefficient: 0.25}
  - {min: 31, max: null, coefficient: 3}
heart_rate_thresholds: []
`)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.SparkCoefficient != 500000 {
			t.Fatalf("divisor = %v", cfg.SparkCoefficient)
		}
		if len(cfg.StepThresholds) != 4 {
			t.Fatalf("step thresholds should keep defaults, got %d", len(cfg.StepThresholds))
		}
		if len(cfg.TimeThresholds) != 2 || cfg.TimeThresholds[1].Max != nil {
			t.Fatalf("time thresholds = %+v", cfg.TimeThresholds)
		}
		if len(cfg.HeartRateThresholds) != 0 {
			t.Fatalf("heart rate thresholds should be empty, got %d", len(cfg.HeartRateThresholds))
		}
	})

	t.Run("zero divisor rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("spark_coefficient: 0\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatal("expected error")
		}
	})
}
