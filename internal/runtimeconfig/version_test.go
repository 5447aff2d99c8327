package runtimeconfig

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"8.2.0", "8.2.0", 0},
		{"8.2.0", "8.1.27", 1},
		{"7.4.33", "8.0", -1},
		{"8.10.0", "8.9.0", 1},
		{"1.0", "1.0.0", -1},
		{"1.0.1", "1.0", 1},
		{"5.3", "5.3.0", -1},
		{"8.1.0RC1", "8.1.0", -1},
		{"8.1.0", "8.1.0RC1", 1},
		{"8.1.0-dev", "8.1.0alpha1", -1},
		{"8.1.0alpha1", "8.1.0beta1", -1},
		{"8.1.0beta2", "8.1.0RC1", -1},
		{"8.1.0rc2", "8.1.0RC1", 1},
		{"8.1.0Alpha1", "8.1.0-dev", -1},
		{"1.0BETA", "1.0dev", -1},
		{"1.0DEV", "1.0alpha", -1},
		{"1.0Rc1", "1.0dev", -1},
		{"1.0pl1", "1.0", 1},
		{"1.0pl1", "1.0.1", 1},
		{"1.0-dev", "1.0", -1},
		{"1.0_1", "1.0.1", 0},
		{"1.0+1", "1.0.1", 0},
		{"8.3.6-1ubuntu1", "8.3.6", 1},
		{"08.1", "8.1", 0},
		{"", "", 0},
		{"", "1", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := CompareVersions(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := CompareVersions(tt.b, tt.a); got != -tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d (antisymmetry)", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestCompareVersions_Reflexive(t *testing.T) {
	for _, v := range []string{"8.2.12", "7.4.0RC3", "5.6.40-dev", "1", "8.3.6-1ubuntu1"} {
		if got := CompareVersions(v, v); got != 0 {
			t.Errorf("CompareVersions(%q, %q) = %d, want 0", v, v, got)
		}
	}
}

func TestCanonicalSegments(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"8.1.0RC1", []string{"8", "1", "0", "RC", "1"}},
		{"5.4.0-dev", []string{"5", "4", "0", "dev"}},
		{"1..2", []string{"1", "2"}},
		{" 7.4 ", []string{"7", "4"}},
	}
	for _, tt := range tests {
		got := canonicalSegments(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("canonicalSegments(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("canonicalSegments(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
