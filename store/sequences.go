package store

import (
	"fmt"
	"time"
)

// NextSequence returns the next value of the counter for (scope, day),
// starting at 1. The increment is a single upsert so concurrent callers
// never receive the same value.
func (db *DB) NextSequence(scope, day string) (int, error) {
	var n int
	err := db.QueryRow(db.Q(`INSERT INTO number_sequences (scope, day, last_value) VALUES (?, ?, 1)
ON CONFLICT (scope, day) DO UPDATE SET last_value = number_sequences.last_value + 1
RETURNING last_value`), scope, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s/%s: %w", scope, day, err)
	}
	return n, nil
}

// NextNumber allocates a document number PREFIX-yyyyMMdd-NNNN from the
// per-day counter for prefix.
func (db *DB) NextNumber(prefix string, at time.Time) (string, error) {
	day := at.Format("20060102")
	n, err := db.NextSequence(prefix, day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day, n), nil
}
