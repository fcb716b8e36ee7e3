package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"interview-scoring-service/internal/domain"
)

func TestKeyLockerSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewKeyLocker(newClient(mr), time.Minute, 50*time.Millisecond)

	unlock, err := locker.Lock(context.Background(), "session:s1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("lock:session:s1") {
		t.Fatalf("expected redis key to be set")
	}

	if _, err := locker.Lock(context.Background(), "session:s1"); !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Fatalf("expected contended lock to time out, got %v", err)
	}

	unlock()
	if mr.Exists("lock:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}

	unlock2, err := locker.Lock(context.Background(), "session:s1")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	unlock2()
}

func TestKeyLockerDoesNotReleaseForeignLock(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewKeyLocker(newClient(mr), time.Second, 0)
	unlock, err := locker.Lock(context.Background(), "user:u1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// The lock expires and another holder takes it over.
	mr.FastForward(2 * time.Second)
	if err := mr.Set("lock:user:u1", "someone-else"); err != nil {
		t.Fatalf("set: %v", err)
	}

	unlock()
	if got, _ := mr.Get("lock:user:u1"); got != "someone-else" {
		t.Fatalf("expected foreign lock to survive, got %q", got)
	}
}
