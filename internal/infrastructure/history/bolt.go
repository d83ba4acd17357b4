package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/barcodelens/backend/internal/domain"
)

var bucketSessions = []byte("scan_sessions")

// BoltStore persists scan-session summaries in an embedded bbolt database.
// Keys are session ULIDs, which sort by creation time, so Recent can walk
// the bucket tail backwards.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the history database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create history bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// SaveSummary stores one finished session's summary.
func (s *BoltStore) SaveSummary(ctx context.Context, summary domain.SessionSummary) error {
	if summary.SessionID == "" {
		return fmt.Errorf("%w: summary without session id", domain.ErrInvalidRequest)
	}

	value, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(summary.SessionID), value)
	})
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}

	log.Printf("[HISTORY] Saved session %s (%d frames, %d distinct codes)",
		summary.SessionID, summary.Frames, len(summary.Detections))
	return nil
}

// Recent returns up to limit summaries, newest first.
func (s *BoltStore) Recent(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []domain.SessionSummary
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSessions).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var summary domain.SessionSummary
			if err := json.Unmarshal(v, &summary); err != nil {
				log.Printf("[HISTORY] Skipping corrupt summary %s: %v", k, err)
				continue
			}
			out = append(out, summary)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	return out, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
