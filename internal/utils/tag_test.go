package utils

import "testing"

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"golang", "golang"},
		{"  Go lang  ", "Go-lang"},
		{"c++", "c"},
		{"web dev  stuff", "web-dev-stuff"},
		{"already-dashed", "already-dashed"},
		{"개발", "개발"},
	}
	for _, tc := range cases {
		if got := NormalizeTag(tc.in); got != tc.want {
			t.Fatalf("NormalizeTag(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
