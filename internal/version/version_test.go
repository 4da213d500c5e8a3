package version

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		version string
		commit  string
		want    string
	}{
		{"dev", "", "dev"},
		{"v1.2.0", "abc", "v1.2.0 (abc)"},
		{"v1.2.0", "0123456789abcdef", "v1.2.0 (0123456)"},
	}
	for _, tt := range tests {
		if got := format(tt.version, tt.commit); got != tt.want {
			t.Errorf("format(%q, %q) = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}
