package activity

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketActivity = []byte("activity")

const keyLastProviderActivity = "last_provider_activity_at"

// Store is a single-bucket, single-key bbolt database recording
// last_provider_activity_at across supervisor restarts (resolves the
// open question around initializing idle-timeout state on restart).
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the activity database under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "activity.db")

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("activity: open %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketActivity)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("activity: create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LastProviderActivity returns the persisted timestamp, or the zero
// value if none has ever been recorded.
func (s *Store) LastProviderActivity() (time.Time, error) {
	var ts time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivity)
		data := b.Get([]byte(keyLastProviderActivity))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &ts)
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("activity: read %s: %w", keyLastProviderActivity, err)
	}
	return ts, nil
}

// SetLastProviderActivity persists ts, overwriting any prior value.
func (s *Store) SetLastProviderActivity(ts time.Time) error {
	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("activity: marshal timestamp: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketActivity)
		return b.Put([]byte(keyLastProviderActivity), data)
	})
	if err != nil {
		return fmt.Errorf("activity: write %s: %w", keyLastProviderActivity, err)
	}
	return nil
}
