package taxonomy_test

import (
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   taxonomy.Category
		wantOK bool
	}{
		{"KTD", taxonomy.CategoryKTD, true},
		{"kpcs", taxonomy.CategoryKPCS, true},
		{" sentinel ", taxonomy.CategorySentinel, true},
		{"KPC", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := taxonomy.ParseCategory(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCategoryFromLabel(t *testing.T) {
	tests := []struct {
		label  string
		want   taxonomy.Category
		wantOK bool
	}{
		{"KNC - Kejadian Nyaris Cedera", taxonomy.CategoryKNC, true},
		{"KPC - Kejadian Potensial Cedera", taxonomy.CategoryKPCS, true},
		{"KTC - Kejadian Tidak Cedera", taxonomy.CategoryKTC, true},
		{"KTD - Kejadian Tidak Diharapkan", taxonomy.CategoryKTD, true},
		{"SENTINEL - Insiden KTD dengan dampak sedang - berat", taxonomy.CategorySentinel, true},
		{"ktd", taxonomy.CategoryKTD, true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := taxonomy.CategoryFromLabel(tt.label)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CategoryFromLabel(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseStatusAndGrade(t *testing.T) {
	if s, ok := taxonomy.ParseStatus("submitted"); !ok || s != taxonomy.StatusSubmitted {
		t.Errorf("ParseStatus(submitted) = %q, %v", s, ok)
	}
	if _, ok := taxonomy.ParseStatus("REVIEW"); ok {
		t.Error("ParseStatus(REVIEW) should fail")
	}
	if g, ok := taxonomy.ParseGrade("merah"); !ok || g != taxonomy.GradeMerah {
		t.Errorf("ParseGrade(merah) = %q, %v", g, ok)
	}
}

func TestParseSKP(t *testing.T) {
	tests := []struct {
		raw    string
		want   taxonomy.SKPCode
		wantOK bool
	}{
		{"3", "skp3", true},
		{"SKP 3", "skp3", true},
		{"skp6: Pengurangan risiko jatuh", "skp6", true},
		{"SKP-1", "skp1", true},
		{"skp", "", false},
		{"7", "", false},
		{"0", "", false},
		{"", "", false},
		{"lain-lain", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := taxonomy.ParseSKP(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseSKP(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseMDP(t *testing.T) {
	tests := []struct {
		raw    string
		want   taxonomy.MDPCode
		wantOK bool
	}{
		{"12", "mdp12", true},
		{"MDP 17", "mdp17", true},
		{"mdp01", "mdp1", true},
		{"18", "", false},
		{"none", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := taxonomy.ParseMDP(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseMDP(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAgeGroupOf(t *testing.T) {
	tests := []struct {
		age  int
		want taxonomy.AgeGroup
	}{
		{0, taxonomy.AgeBayi},
		{1, taxonomy.AgeBalita},
		{4, taxonomy.AgeBalita},
		{5, taxonomy.AgeAnak},
		{10, taxonomy.AgeAnak},
		{11, taxonomy.AgeRemaja},
		{18, taxonomy.AgeRemaja},
		{19, taxonomy.AgeDewasa},
		{59, taxonomy.AgeDewasa},
		{60, taxonomy.AgeLansia},
		{97, taxonomy.AgeLansia},
	}

	for _, tt := range tests {
		if got := taxonomy.AgeGroupOf(tt.age); got != tt.want {
			t.Errorf("AgeGroupOf(%d) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestIsReviewer(t *testing.T) {
	if taxonomy.IsReviewer([]string{"perawat"}) {
		t.Error("perawat is not a reviewer")
	}
	for _, r := range []string{"pj", "mutu", "admin"} {
		if !taxonomy.IsReviewer([]string{"perawat", r}) {
			t.Errorf("%s should be a reviewer", r)
		}
	}
}

func TestAllowed(t *testing.T) {
	v := "ugd"
	bad := "icu"
	if !taxonomy.Allowed(taxonomy.PatientContexts, nil) {
		t.Error("nil should be allowed")
	}
	if !taxonomy.Allowed(taxonomy.PatientContexts, &v) {
		t.Error("ugd should be allowed")
	}
	if taxonomy.Allowed(taxonomy.PatientContexts, &bad) {
		t.Error("icu should not be allowed")
	}
}
