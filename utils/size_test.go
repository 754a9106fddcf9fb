package utils

import "testing"

func TestHumanReadableSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{10 * 1024 * 1024, "10.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, c := range cases {
		if got := HumanReadableSize(c.size); got != c.want {
			t.Fatalf("HumanReadableSize(%d): 期望 %q, 实际 %q", c.size, c.want, got)
		}
	}
}
