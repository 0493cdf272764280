package util

import "testing"

func TestNormalizeContainerName(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Assets", "assets", true},
		{"TEST", "test", true},
		{"my-container-01", "my-container-01", true},
		{"$web", "$web", true},
		{"$ROOT", "$root", true},
		{"", "", false},
		{"ab", "", false},
		{"-abc", "", false},
		{"abc-", "", false},
		{"a--b", "", false},
		{"has space", "", false},
		{"under_score", "", false},
		{"$other", "", false},
		{string(make([]byte, 64)), "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeContainerName(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("NormalizeContainerName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("NormalizeContainerName(%q) = %q; want error", tc.in, got)
		}
	}
}
