package cache

import (
	"testing"

	"github.com/tbourn/go-tally-backend/internal/tally/request"
)

func TestNormalizeFilter(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Sharma   Traders ", "sharma traders"},
		{"ACME", "acme"},
		{"", ""},
		{"a\t b\n c", "a b c"},
	}
	for _, tc := range cases {
		if got := NormalizeFilter(tc.in); got != tc.want {
			t.Errorf("NormalizeFilter(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint{
		Kind:     request.KindSalesVouchers,
		FromDate: "20240401",
		ToDate:   "20240630",
		Company:  "ACME (2024-25)",
		Page:     1,
		PageSize: 100,
		Filter:   "  Sharma   Traders ",
	}
	b := a
	b.Filter = "sharma traders" // normalizes to the same text
	if a.Key() != b.Key() {
		t.Fatalf("equivalent filters produced distinct keys:\n%q\n%q", a.Key(), b.Key())
	}
}

func TestFingerprint_DistinctPerField(t *testing.T) {
	base := Fingerprint{
		Kind:     request.KindSalesVouchers,
		FromDate: "20240401",
		ToDate:   "20240630",
		Company:  "ACME",
		Page:     1,
		PageSize: 100,
	}
	variants := []Fingerprint{}
	v := base
	v.Kind = request.KindVoucherCount
	variants = append(variants, v)
	v = base
	v.FromDate = "20240402"
	variants = append(variants, v)
	v = base
	v.ToDate = "20240701"
	variants = append(variants, v)
	v = base
	v.Company = "Beta"
	variants = append(variants, v)
	v = base
	v.Page = 2
	variants = append(variants, v)
	v = base
	v.PageSize = 50
	variants = append(variants, v)
	v = base
	v.Filter = "sharma"
	variants = append(variants, v)

	seen := map[string]bool{base.Key(): true}
	for i, fp := range variants {
		k := fp.Key()
		if seen[k] {
			t.Errorf("variant %d collides: %q", i, k)
		}
		seen[k] = true
	}
}

func TestFingerprint_SeparatorDefeatsInjection(t *testing.T) {
	// A crafted company name must not collide with a different field split.
	a := Fingerprint{Kind: request.KindSalesVouchers, Company: "x", Filter: "y"}
	b := Fingerprint{Kind: request.KindSalesVouchers, Company: "x\x1fy"}
	if a.Key() == b.Key() {
		t.Fatalf("field-boundary collision")
	}
}
