// Package locks serializes read-validate-write sequences on stock and on
// order and shipment status. Every depletion or restore of a raw material or
// finished-goods batch runs while holding the lock for that resource key.
package locks

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNotObtained is returned when a key stays held past the retry budget or
// the context ends first.
var ErrNotObtained = errors.New("locks: not obtained")

// Unlock releases everything taken by one Acquire call. It is safe to call
// more than once.
type Unlock func()

// Manager hands out exclusive locks by key.
type Manager interface {
	// Acquire takes every key or none. Keys are deduplicated and taken in
	// sorted order so two callers with overlapping sets cannot deadlock.
	Acquire(ctx context.Context, keys ...string) (Unlock, error)
}

func MaterialKey(id int64) string { return fmt.Sprintf("tinacopro:lock:material:%d", id) }

func BatchKey(id int64) string { return fmt.Sprintf("tinacopro:lock:batch:%d", id) }

// OrderKey guards a production order's status. It is always taken before
// any material key.
func OrderKey(id int64) string { return fmt.Sprintf("tinacopro:lock:order:%d", id) }

// ShipmentKey guards a shipment's status and batch link. It is always taken
// before any batch key.
func ShipmentKey(id int64) string { return fmt.Sprintf("tinacopro:lock:shipment:%d", id) }

func normalize(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// acquireAll takes each key with take, unwinding the ones already held if a
// later key fails.
func acquireAll(ctx context.Context, keys []string, take func(context.Context, string) (func(), error)) (Unlock, error) {
	keys = normalize(keys)
	releases := make([]func(), 0, len(keys))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
		releases = nil
	}
	for _, k := range keys {
		release, err := take(ctx, k)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	done := false
	return func() {
		if done {
			return
		}
		done = true
		releaseAll()
	}, nil
}
