package auth

import (
	"context"
	"testing"
	"time"
)

func TestDenylistWithoutRedisFailsOpen(t *testing.T) {
	d := NewDenylist(nil)

	if err := d.Revoke(context.Background(), "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke without redis: %v", err)
	}
	if d.IsRevoked(context.Background(), "jti-1") {
		t.Fatal("nil-client denylist must report not revoked")
	}

	var nilList *Denylist
	if nilList.IsRevoked(context.Background(), "jti-1") {
		t.Fatal("nil denylist must report not revoked")
	}
}
