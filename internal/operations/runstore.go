package operations

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"charmcli/internal/config"
	"charmcli/pkg/contracts/domain"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// ErrRunNotFound is returned when a run ID is unknown to the store
var ErrRunNotFound = errors.New("run not found")

// RunStore persists run history
type RunStore interface {
	CreateRun(rec domain.RunRecord) error
	UpdateRun(rec domain.RunRecord) error
	GetRun(id string) (domain.RunRecord, error)
	ListRuns(filter RunFilter) ([]domain.RunRecord, error)
	Close() error
}

// RunFilter for querying runs
type RunFilter struct {
	Status domain.RunStatus
	Step   string
	Since  time.Time
	Limit  int
}

// Match reports whether rec passes the filter, ignoring Limit
func (f RunFilter) Match(rec domain.RunRecord) bool {
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Step != "" && rec.Step != f.Step {
		return false
	}
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

// newestFirst sorts records by creation time, newest first, and applies the limit
func newestFirst(recs []domain.RunRecord, limit int) []domain.RunRecord {
	slices.SortFunc(recs, func(a, b domain.RunRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

var runsBucket = []byte("runs")

// BoltRunStore keeps run history in a bbolt file, one msgpack value per run
type BoltRunStore struct {
	db *bbolt.DB
}

// OpenBoltRunStore opens or creates the run store at path
func OpenBoltRunStore(path string) (*BoltRunStore, error) {
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open run store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise run store: %w", err)
	}

	return &BoltRunStore{db: db}, nil
}

// CreateRun stores a new run
func (s *BoltRunStore) CreateRun(rec domain.RunRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("run %s already exists", rec.ID)
		}
		return putRun(b, rec)
	})
}

// UpdateRun replaces an existing run
func (s *BoltRunStore) UpdateRun(rec domain.RunRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b.Get([]byte(rec.ID)) == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, rec.ID)
		}
		return putRun(b, rec)
	})
}

// GetRun retrieves a run by ID
func (s *BoltRunStore) GetRun(id string) (domain.RunRecord, error) {
	var rec domain.RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(runsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return msgpack.Unmarshal(data, &rec)
	})
	return rec, err
}

// ListRuns returns runs matching the filter, newest first
func (s *BoltRunStore) ListRuns(filter RunFilter) ([]domain.RunRecord, error) {
	recs := make([]domain.RunRecord, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(_, v []byte) error {
			var rec domain.RunRecord
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return err
			}
			if filter.Match(rec) {
				recs = append(recs, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return newestFirst(recs, filter.Limit), nil
}

// Close releases the database file
func (s *BoltRunStore) Close() error {
	return s.db.Close()
}

func putRun(b *bbolt.Bucket, rec domain.RunRecord) error {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", rec.ID, err)
	}
	return b.Put([]byte(rec.ID), data)
}
