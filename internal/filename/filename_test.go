package filename

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"already safe", "My_Video-01", "My_Video-01"},
		{"colon slash and spaces", "My Video: Part 1/2", "My_Video__Part_1_2"},
		{"single slash", "Test/Video", "Test_Video"},
		{"windows reserved", `a<b>c:d"e\f|g?h*i`, "a_b_c_d_e_f_g_h_i"},
		{"dots kept out", "../../etc/passwd", "______etc_passwd"},
		{"leading and trailing spaces", "  padded  ", "__padded__"},
		{"tabs and newlines", "line\tone\nline two", "line_one_line_two"},
		{"non ascii letters", "Café déjà vu", "Caf__d_j__vu"},
		{"emoji is one rune", "hi 👋", "hi__"},
		{"null byte", "a\x00b", "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeAllowList(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"My Video: Part 1/2",
		"Ünïcödé — “quotes” ‘and’ dashes",
		"C:\\Windows\\System32",
		"what?! *really* <yes>",
		"日本語のタイトル",
		string([]byte{0xff, 0xfe, 'a'}),
	}

	for _, in := range inputs {
		out := Sanitize(in)
		if strings.Contains(out, " ") {
			t.Errorf("Sanitize(%q) = %q contains a space", in, out)
		}
		for _, r := range out {
			if !isAllowed(r) {
				t.Errorf("Sanitize(%q) = %q contains disallowed rune %q", in, out, r)
			}
		}
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"My Video: Part 1/2",
		"Test/Video",
		"__--__",
		"Ünïcödé titles 🎧",
		"tab\tand\nnewline",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
