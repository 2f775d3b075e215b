package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "exports/u/w1/file.pdf", want: "exports/u/w1/file.pdf"},
		{name: "simple prefix", prefix: "dashboard", key: "exports/u/w1/file.pdf", want: "dashboard/exports/u/w1/file.pdf"},
		{name: "prefix trailing slash", prefix: "dashboard/", key: "exports/file.pdf", want: "dashboard/exports/file.pdf"},
		{name: "prefix and key slashes", prefix: "/dashboard/", key: "/exports/file.pdf", want: "dashboard/exports/file.pdf"},
		{name: "empty key", prefix: "dashboard", key: "", want: "dashboard"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	if got := normalizePrefix("  /exports/ "); got != "exports" {
		t.Fatalf("normalizePrefix = %q", got)
	}
}
