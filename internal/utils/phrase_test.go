package utils

import (
	"reflect"
	"testing"
)

func TestFindPhrase(t *testing.T) {
	tests := []struct {
		text   string
		phrase string
		want   int
	}{
		{"flat in split", "split", 8},
		{"splitu centar", "split", -1},
		{"a lift and a liftom", "liftom", 13},
		{"sea view apartment", "sea view", 0},
		{"seaview", "sea", -1},
		{"3 sobe", "sobe", 2},
		{"anything", "", -1},
	}

	for _, tt := range tests {
		if got := FindPhrase(tt.text, tt.phrase); got != tt.want {
			t.Errorf("FindPhrase(%q, %q) = %d, want %d", tt.text, tt.phrase, got, tt.want)
		}
	}
}

func TestMaskPhrase(t *testing.T) {
	got, ok := MaskPhrase("commercial land in zadar", "commercial land")
	if !ok {
		t.Fatal("MaskPhrase() did not match")
	}
	if ContainsPhrase(got, "land") || ContainsPhrase(got, "commercial") {
		t.Errorf("MaskPhrase() left words behind: %q", got)
	}
	if !ContainsPhrase(got, "zadar") {
		t.Errorf("MaskPhrase() removed too much: %q", got)
	}
}

func TestLongestFirst(t *testing.T) {
	got := LongestFirst([]string{"land", "commercial land", "plot"})
	want := []string{"commercial land", "land", "plot"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LongestFirst() = %v, want %v", got, want)
	}
}

func TestWords(t *testing.T) {
	got := Words("3-bedroom, sea view!")
	want := []string{"3", "bedroom", "sea", "view"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
}
