package rank

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty defaults to member", "", []string{DefaultTag}},
		{"blank defaults to member", "  ,  , ", []string{DefaultTag}},
		{"single tag", "მომხმარებელი", []string{"მომხმარებელი"}},
		{"two tags with space", "მომხმარებელი, ბუსტერი", []string{"მომხმარებელი", "ბუსტერი"}},
		{"untrimmed", "  მომხმარებელი ,ბუსტერი  ", []string{"მომხმარებელი", "ბუსტერი"}},
		{"duplicates removed", "ბუსტერი, ბუსტერი, მომხმარებელი", []string{"ბუსტერი", "მომხმარებელი"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestSerialize_EmptyNeverBlank(t *testing.T) {
	if got := Serialize(nil); got != DefaultTag {
		t.Fatalf("Serialize(nil) = %q, want %q", got, DefaultTag)
	}
	if got := Serialize([]string{}); got != DefaultTag {
		t.Fatalf("Serialize(empty) = %q, want %q", got, DefaultTag)
	}
}

func TestRoundTrip_FixedPoint(t *testing.T) {
	inputs := []string{
		"",
		"მომხმარებელი",
		"მომხმარებელი, ბუსტერი",
		" ბუსტერი ,მომხმარებელი,ბუსტერი ",
		"owner, სპონსორი, პარტნიორი",
	}
	for _, raw := range inputs {
		once := Serialize(Parse(raw))
		twice := Serialize(Parse(once))
		if once != twice {
			t.Fatalf("normalization of %q not a fixed point: %q -> %q", raw, once, twice)
		}
		if len(Parse(once)) == 0 {
			t.Fatalf("normalized %q parsed to empty set", raw)
		}
	}
}

func TestAdd(t *testing.T) {
	got := Add("მომხმარებელი", BoosterTag)
	if got != "მომხმარებელი, ბუსტერი" {
		t.Fatalf("Add = %q", got)
	}

	// Adding a present tag changes nothing.
	again := Add(got, BoosterTag)
	if again != got {
		t.Fatalf("Add idempotence: %q -> %q", got, again)
	}

	// Empty input picks up the default tag first.
	if got := Add("", BoosterTag); got != "მომხმარებელი, ბუსტერი" {
		t.Fatalf("Add on empty = %q", got)
	}
}

func TestRemove(t *testing.T) {
	got := Remove("მომხმარებელი, ბუსტერი", BoosterTag)
	if got != "მომხმარებელი" {
		t.Fatalf("Remove = %q", got)
	}

	// Removing an absent tag is a no-op.
	if got := Remove("მომხმარებელი", BoosterTag); got != "მომხმარებელი" {
		t.Fatalf("Remove absent = %q", got)
	}

	// Removing the last tag falls back to the default.
	if got := Remove("ბუსტერი", BoosterTag); got != DefaultTag {
		t.Fatalf("Remove last = %q, want default", got)
	}

	// Even the default tag itself regenerates.
	if got := Remove(DefaultTag, DefaultTag); got != DefaultTag {
		t.Fatalf("Remove default = %q, want default", got)
	}
}

func TestHas(t *testing.T) {
	if !Has("მომხმარებელი, ბუსტერი", BoosterTag) {
		t.Fatal("expected booster tag present")
	}
	if Has("მომხმარებელი", BoosterTag) {
		t.Fatal("expected booster tag absent")
	}
	if !Has("", DefaultTag) {
		t.Fatal("empty rank should contain the default tag")
	}
}
