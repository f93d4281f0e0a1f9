// Package docstore is a hierarchical document store on top of GORM.
//
// Documents are addressed by slash separated paths that alternate collection
// and document ids ("users/u1/enrollments/c1"). Every document carries a
// version that is bumped on each write, so callers can compare-and-swap.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrExists          = errors.New("document already exists")
	ErrVersionConflict = errors.New("document version conflict")
	ErrInvalidPath     = errors.New("invalid document path")
)

// maxMutateAttempts bounds the read-modify-write loop in Mutate.
const maxMutateAttempts = 5

// Document is the single table backing every collection.
type Document struct {
	Path       string         `gorm:"primaryKey;size:512"`
	Collection string         `gorm:"size:512;index;not null"`
	DocID      string         `gorm:"size:255;not null"`
	Data       datatypes.JSON `gorm:"not null"`
	Version    int64          `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Snapshot is a read view of one document.
type Snapshot struct {
	Path      string
	ID        string
	Version   int64
	Data      []byte
	UpdatedAt time.Time
}

// DataTo decodes the document body into v.
func (s *Snapshot) DataTo(v any) error {
	if err := json.Unmarshal(s.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return nil
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the documents table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Document{}); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get reads the document at path.
func (s *Store) Get(ctx context.Context, path string) (*Snapshot, error) {
	if _, _, err := Split(path); err != nil {
		return nil, err
	}

	var doc Document
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return toSnapshot(&doc), nil
}

// Create writes a new document at version 1. It fails with ErrExists when the
// path is taken.
func (s *Store) Create(ctx context.Context, path string, v any) (int64, error) {
	collection, id, err := Split(path)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}

	doc := Document{
		Path:       path,
		Collection: collection,
		DocID:      id,
		Data:       datatypes.JSON(body),
		Version:    1,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&doc)
	if res.Error != nil {
		return 0, fmt.Errorf("write %s: %w", path, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrExists
	}
	return doc.Version, nil
}

// Update replaces the document body only if its stored version still equals
// version. The new version is returned.
func (s *Store) Update(ctx context.Context, path string, version int64, v any) (int64, error) {
	if _, _, err := Split(path); err != nil {
		return 0, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", path, err)
	}

	res := s.db.WithContext(ctx).Model(&Document{}).
		Where("path = ? AND version = ?", path, version).
		Updates(map[string]any{
			"data":       datatypes.JSON(body),
			"version":    version + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("write %s: %w", path, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, path); err != nil {
			return 0, err
		}
		return 0, ErrVersionConflict
	}
	return version + 1, nil
}

// Set writes v at path whether or not a document exists there.
func (s *Store) Set(ctx context.Context, path string, v any) error {
	_, err := s.Mutate(ctx, path, func(*Snapshot) (any, error) {
		return v, nil
	})
	return err
}

// MutateFunc receives the current document (nil when absent) and returns the
// value to store. Returning an error aborts the write and the error is passed
// through to the caller of Mutate unchanged.
type MutateFunc func(current *Snapshot) (any, error)

// Mutate runs a read-modify-write cycle guarded by the document version. On a
// version conflict the document is re-read and fn is called again, so fn must
// not keep state across calls.
func (s *Store) Mutate(ctx context.Context, path string, fn MutateFunc) (int64, error) {
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		current, err := s.Get(ctx, path)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return 0, err
		}

		next, err := fn(current)
		if err != nil {
			return 0, err
		}

		var version int64
		if current == nil {
			version, err = s.Create(ctx, path, next)
		} else {
			version, err = s.Update(ctx, path, current.Version, next)
		}
		switch {
		case err == nil:
			return version, nil
		case errors.Is(err, ErrExists), errors.Is(err, ErrVersionConflict), errors.Is(err, ErrNotFound):
			// raced with another writer
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			continue
		default:
			return 0, err
		}
	}
	return 0, fmt.Errorf("mutate %s: %w", path, ErrVersionConflict)
}

// Delete removes the document at path. Deleting a missing document is not an
// error. Child collections are not touched.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, _, err := Split(path); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("path = ?", path).Delete(&Document{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// List returns every document directly inside collection, ordered by id.
func (s *Store) List(ctx context.Context, collection string) ([]*Snapshot, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	var docs []Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	snaps := make([]*Snapshot, 0, len(docs))
	for i := range docs {
		snaps = append(snaps, toSnapshot(&docs[i]))
	}
	return snaps, nil
}

// DeleteCollection removes every document directly inside collection and
// returns how many were removed.
func (s *Store) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Where("collection = ?", collection).Delete(&Document{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", collection, res.Error)
	}
	return res.RowsAffected, nil
}

func toSnapshot(doc *Document) *Snapshot {
	return &Snapshot{
		Path:      doc.Path,
		ID:        doc.DocID,
		Version:   doc.Version,
		Data:      []byte(doc.Data),
		UpdatedAt: doc.UpdatedAt,
	}
}
