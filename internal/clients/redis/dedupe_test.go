package redis

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDeduperFirstSeen(t *testing.T) {
	d := newMemoryDeduper(time.Minute)
	ctx := context.Background()

	if !d.FirstSeen(ctx, "Ev1") {
		t.Error("first delivery should be seen")
	}
	if d.FirstSeen(ctx, "Ev1") {
		t.Error("second delivery should be deduped")
	}
	if !d.FirstSeen(ctx, "Ev2") {
		t.Error("different event should be seen")
	}
}

func TestMemoryDeduperExpiry(t *testing.T) {
	d := newMemoryDeduper(10 * time.Millisecond)
	ctx := context.Background()

	d.FirstSeen(ctx, "Ev1")
	time.Sleep(20 * time.Millisecond)
	if !d.FirstSeen(ctx, "Ev1") {
		t.Error("expired entry should be seen again")
	}
}

func TestMemoryDeduperPerCallTTL(t *testing.T) {
	d := newMemoryDeduper(10 * time.Millisecond)
	ctx := context.Background()

	if !d.FirstSeenFor(ctx, "oauthstate:abc", time.Minute) {
		t.Error("first use should be seen")
	}
	time.Sleep(20 * time.Millisecond)
	if d.FirstSeenFor(ctx, "oauthstate:abc", time.Minute) {
		t.Error("per-call TTL should outlive the store default")
	}
}

func TestMemoryDeduperEmptyID(t *testing.T) {
	d := newMemoryDeduper(time.Minute)
	ctx := context.Background()

	if !d.FirstSeen(ctx, "") {
		t.Error("empty event id should never dedupe")
	}
	if !d.FirstSeen(ctx, "") {
		t.Error("empty event id should never dedupe")
	}
}
