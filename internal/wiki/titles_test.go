package wiki

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Foo_Bar", "Foo Bar"},
		{"Caf%C3%A9", "Café"},
		{"C%2B%2B", "C++"},
		{"A%20B_C", "A B C"},
		{"100%", "100%"},
		{"foo", "foo"},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
