package locks

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"tinacopro/config"
)

func TestLocalSerializesSameKey(t *testing.T) {
	m := NewLocalManager()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Acquire(context.Background(), MaterialKey(1))
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
}

func TestLocalDuplicateKeysDoNotSelfDeadlock(t *testing.T) {
	m := NewLocalManager()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := m.Acquire(ctx, MaterialKey(3), MaterialKey(3), BatchKey(3))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	unlock()
	unlock()
}

func TestLocalTimeoutReleasesHeldKeys(t *testing.T) {
	m := NewLocalManager()
	held, err := m.Acquire(context.Background(), MaterialKey(2))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	// MaterialKey(1) sorts first and is taken, then MaterialKey(2) blocks
	_, err = m.Acquire(ctx, MaterialKey(2), MaterialKey(1))
	if !errors.Is(err, ErrNotObtained) {
		t.Fatalf("err = %v, want ErrNotObtained", err)
	}
	held()

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	unlock, err := m.Acquire(ctx2, MaterialKey(1))
	if err != nil {
		t.Fatalf("key 1 should have been released: %v", err)
	}
	unlock()
}

func TestKeysAreDistinctPerKind(t *testing.T) {
	keys := map[string]bool{}
	for _, k := range []string{MaterialKey(5), BatchKey(5), OrderKey(5), ShipmentKey(5)} {
		if keys[k] {
			t.Errorf("key %q shared between kinds", k)
		}
		keys[k] = true
	}
}

func TestRedisManager(t *testing.T) {
	addr := os.Getenv("TINACO_TEST_REDIS")
	if addr == "" {
		t.Skip("TINACO_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	m := NewRedisManager(rdb, config.LocksConfig{TTL: 5 * time.Second, RetryInterval: 10 * time.Millisecond, RetryCount: 3}, nil)
	ctx := context.Background()
	key := BatchKey(time.Now().UnixNano())

	unlock, err := m.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := m.Acquire(ctx, key); !errors.Is(err, ErrNotObtained) {
		t.Errorf("second acquire err = %v, want ErrNotObtained", err)
	}
	unlock()

	again, err := m.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}
