package util

import (
	"reflect"
	"testing"
)

func TestChunk(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	chunks := Chunk(items, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	sizes := []int{len(chunks[0]), len(chunks[1]), len(chunks[2])}
	if !reflect.DeepEqual(sizes, []int{20, 20, 5}) {
		t.Errorf("unexpected chunk sizes %v", sizes)
	}
	if chunks[1][0] != 20 || chunks[2][4] != 44 {
		t.Error("chunks are not contiguous")
	}
}

func TestChunk_Edges(t *testing.T) {
	if Chunk([]string{}, 20) != nil {
		t.Error("expected nil for empty input")
	}
	if got := Chunk([]string{"a", "b"}, 20); len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("expected single chunk, got %v", got)
	}
	if got := Chunk([]string{"a", "b"}, 0); len(got) != 1 {
		t.Errorf("expected non-positive size to yield one chunk, got %v", got)
	}
	if got := Chunk([]string{"a", "b", "c", "d"}, 2); len(got) != 2 {
		t.Errorf("expected exact split into 2 chunks, got %v", got)
	}
}

func TestChunk_AppendDoesNotClobberNeighbour(t *testing.T) {
	items := []int{1, 2, 3, 4}
	chunks := Chunk(items, 2)
	_ = append(chunks[0], 99)
	if chunks[1][0] != 3 {
		t.Errorf("append to first chunk overwrote the second: %v", chunks[1])
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"a", "b", "a", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected result %v", got)
	}
}

func TestPtrDeref(t *testing.T) {
	p := Ptr("x")
	if Deref(p) != "x" {
		t.Error("expected round trip through pointer")
	}
	var nilPtr *string
	if Deref(nilPtr) != "" {
		t.Error("expected zero value for nil pointer")
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "", "c"); got != "c" {
		t.Errorf("expected c, got %q", got)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10MB", 10 << 20},
		{"512kb", 512 << 10},
		{"2GB", 2 << 30},
		{"100B", 100},
		{"4096", 4096},
		{"", 7},
		{"lots", 7},
		{"-5MB", 7},
	}
	for _, tt := range tests {
		if got := ParseSize(tt.in, 7); got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("AKIAEXAMPLE", 4); got != "AKIA***" {
		t.Errorf("unexpected mask %q", got)
	}
	if got := MaskSecret("ab", 4); got != "***" {
		t.Errorf("unexpected mask %q", got)
	}
}

func TestSanitizePathSegment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Listings", "listings"},
		{"../etc", "etc"},
		{"unit 4B/photos", "unit-4b-photos"},
		{"  applicant_docs ", "applicant_docs"},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := SanitizePathSegment(tt.in); got != tt.want {
			t.Errorf("SanitizePathSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
