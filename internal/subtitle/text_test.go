package subtitle_test

import (
	"testing"

	"easyaisubbing/internal/subtitle"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`Hello\Nworld`, "Hello world"},
		{"Hello\nworld", "Hello world"},
		{"  lots   of\t space  ", "lots of space"},
		{"wait…", "wait..."},
		{`a\hb`, "a b"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := subtitle.CleanText(tc.in); got != tc.want {
			t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripSDH(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[door slams] Hello", "Hello"},
		{"Hello [laughs] there", "Hello there"},
		{"[music]", ""},
		{"no annotations", "no annotations"},
	}
	for _, tc := range cases {
		if got := subtitle.StripSDH(tc.in); got != tc.want {
			t.Errorf("StripSDH(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
