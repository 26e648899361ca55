package scoring

import "testing"

func TestApplyMetricAndOverallFactors(t *testing.T) {
	a := NewApplier(DefaultWeights(), false)
	v := fullVector(80)
	v.Metrics[MetricGrip] = 70

	factors := ZeroFactors()
	factors.Overall = -2
	factors.Metrics[MetricGrip] = 3

	out, adjusted := a.Apply(v, factors, "", "swing-1")
	if !adjusted {
		t.Fatalf("adjusted = false, want true")
	}
	if out.Metrics[MetricGrip] != 73 {
		t.Fatalf("grip = %d, want 73", out.Metrics[MetricGrip])
	}
	if out.Overall < 76 || out.Overall > 80 {
		t.Fatalf("overall = %d, want within [76,80]", out.Overall)
	}
}

func TestApplyZeroFactorsNoJitter(t *testing.T) {
	a := NewApplier(DefaultWeights(), false)
	v := fullVector(64)
	v.Metrics[MetricPacing] = 81
	out, adjusted := a.Apply(v, ZeroFactors(), SkillAmateur, "swing-2")
	if adjusted {
		t.Fatalf("adjusted = true for zero factors")
	}
	if out.Overall != v.Overall {
		t.Fatalf("overall moved with jitter disabled: %d -> %d", v.Overall, out.Overall)
	}
	for m, s := range v.Metrics {
		if out.Metrics[m] != s {
			t.Fatalf("%s moved with zero factors: %d -> %d", m, s, out.Metrics[m])
		}
	}
}

func TestApplyZeroFactorsJitterBand(t *testing.T) {
	a := NewApplier(DefaultWeights(), true)
	v := fullVector(64)
	out, _ := a.Apply(v, ZeroFactors(), "", "swing-3")
	if d := abs(out.Overall - v.Overall); d > 1 {
		t.Fatalf("jitter moved overall by %d, want at most 1", d)
	}
	// Same seed, same jitter.
	again, _ := a.Apply(v, ZeroFactors(), "", "swing-3")
	if again.Overall != out.Overall {
		t.Fatalf("jitter not deterministic: %d vs %d", out.Overall, again.Overall)
	}
}

func TestApplyClampsStoredFactors(t *testing.T) {
	a := NewApplier(DefaultWeights(), false)
	v := fullVector(50)
	v.Metrics[MetricFocus] = 60 // keep the vector off the all-flat path

	factors := ZeroFactors()
	factors.Overall = -10
	factors.Metrics[MetricGrip] = 20

	out, _ := a.Apply(v, factors, "", "swing-4")
	if out.Metrics[MetricGrip] != 50+MaxMetricAdjustment {
		t.Fatalf("grip = %d, want clamp to +%d", out.Metrics[MetricGrip], MaxMetricAdjustment)
	}
	// Metric moved, so the overall is the recomputed weighted mean, which sits
	// well inside the ±3 band around the original 50.
	if d := abs(out.Overall - 50); d > MaxOverallAdjustment {
		t.Fatalf("overall moved by %d, want at most %d", d, MaxOverallAdjustment)
	}
}

func TestApplyPrefersSkillSlice(t *testing.T) {
	a := NewApplier(DefaultWeights(), false)
	v := fullVector(70)

	factors := ZeroFactors()
	factors.Overall = 3
	factors.BySkillLevel = map[SkillLevel]FactorSet{
		SkillBeginner: {Overall: -2},
	}

	out, _ := a.Apply(v, factors, SkillBeginner, "swing-5")
	if out.Overall != 68 {
		t.Fatalf("overall = %d, want 68 from the beginner slice", out.Overall)
	}
	top, _ := a.Apply(v, factors, SkillAdvanced, "swing-5")
	if top.Overall != 73 {
		t.Fatalf("overall = %d, want 73 from the top-level factors", top.Overall)
	}
}

func TestApplyIsPure(t *testing.T) {
	a := NewApplier(DefaultWeights(), false)
	v := fullVector(55)
	factors := ZeroFactors()
	factors.Metrics[MetricStance] = 4
	before := v.Clone()
	_, _ = a.Apply(v, factors, "", "swing-6")
	for m, s := range before.Metrics {
		if v.Metrics[m] != s {
			t.Fatalf("Apply mutated its input at %s", m)
		}
	}
}
