package kv

import "testing"

// New and Close don't require a live Redis server: redis.NewClient defers
// connection establishment to the first command.
func TestNew_SetsNameAndClosesCleanly(t *testing.T) {
	src := New("s", Config{Addr: "127.0.0.1:0", KeyPrefix: "customer:"})
	if src.Name() != "s" {
		t.Errorf("Name() = %q, want s", src.Name())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
