package repositories

import "testing"

func TestChunkCacheKey(t *testing.T) {
	got := chunkCacheKey("abc_1_100")
	want := "upload:abc_1_100:chunks"
	if got != want {
		t.Fatalf("期望 %q, 实际 %q", want, got)
	}
}
