package main

import "testing"

func TestEffectiveCompress(t *testing.T) {
	cases := []struct {
		name        string
		configValue bool
		flagSet     bool
		flagValue   bool
		want        bool
	}{
		{"config on, flag untouched", true, false, false, true},
		{"config on, flag explicitly off", true, true, false, false},
		{"config off, flag untouched", false, false, false, false},
		{"config off, flag explicitly on", false, true, true, true},
	}
	for _, tc := range cases {
		if got := effectiveCompress(tc.configValue, tc.flagSet, tc.flagValue); got != tc.want {
			t.Errorf("%s: effectiveCompress = %t, want %t", tc.name, got, tc.want)
		}
	}
}

func TestFlagPhysiology(t *testing.T) {
	if flagPhysiology(0, 0, 0, 0) != nil {
		t.Fatal("no overrides should yield nil physiology")
	}
	phys := flagPhysiology(170, 0, 192, 0)
	if phys == nil || phys.ThresholdHR == nil || *phys.ThresholdHR != 170 {
		t.Fatalf("threshold override missing: %+v", phys)
	}
	if phys.MaxHR == nil || *phys.MaxHR != 192 {
		t.Fatalf("max HR override missing: %+v", phys)
	}
	if phys.RestingHR != nil || phys.ThresholdPaceSKm != nil {
		t.Fatalf("unset overrides must stay nil: %+v", phys)
	}
}
