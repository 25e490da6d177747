package model

import "testing"

func TestMergeAppliesOnlySetFields(t *testing.T) {
	base := DefaultSettings()

	country := "CA"
	merged := base.Merge(SettingsPatch{SelectedCountry: &country})

	if merged.SelectedCountry != "CA" {
		t.Fatalf("SelectedCountry = %q, want CA", merged.SelectedCountry)
	}
	if merged.DisplayFormat != base.DisplayFormat {
		t.Fatalf("DisplayFormat changed by unrelated patch: %q", merged.DisplayFormat)
	}
	if base.SelectedCountry != "US" {
		t.Fatalf("Merge mutated the receiver: %q", base.SelectedCountry)
	}
}

func TestMergeCombinesExtraEntries(t *testing.T) {
	base := Settings{Extra: map[string]string{"theme": "dark", "units": "metric"}}

	merged := base.Merge(SettingsPatch{Extra: map[string]string{"units": "imperial", "grid": "on"}})

	if merged.Extra["theme"] != "dark" || merged.Extra["units"] != "imperial" || merged.Extra["grid"] != "on" {
		t.Fatalf("merged Extra = %v", merged.Extra)
	}
	if base.Extra["units"] != "metric" {
		t.Fatalf("Merge mutated the receiver's Extra map")
	}
}

func TestPriorityForRiskBoundaries(t *testing.T) {
	for _, tc := range []struct {
		risk float64
		want AlertPriority
	}{
		{0, PriorityLow},
		{0.29, PriorityLow},
		{0.3, PriorityMedium},
		{0.59, PriorityMedium},
		{0.6, PriorityHigh},
		{0.79, PriorityHigh},
		{0.8, PriorityCritical},
		{1, PriorityCritical},
	} {
		if got := PriorityForRisk(tc.risk); got != tc.want {
			t.Fatalf("PriorityForRisk(%v) = %s, want %s", tc.risk, got, tc.want)
		}
	}
}

func TestCriticalActive(t *testing.T) {
	a := AlertItem{Risk: 0.8, Status: AlertActive}
	if !a.CriticalActive() {
		t.Fatalf("risk 0.8 active not critical-active")
	}
	a.Status = AlertAcknowledged
	if a.CriticalActive() {
		t.Fatalf("acknowledged alert reported critical-active")
	}
	a = AlertItem{Risk: 0.79, Status: AlertActive}
	if a.CriticalActive() {
		t.Fatalf("risk below threshold reported critical-active")
	}
}
