package vault

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStorage implements Storage in process memory. It backs local
// development runs without a MongoDB deployment and the test suites; data
// does not survive a restart.
type MemoryStorage struct {
	mu      sync.Mutex
	records map[string]Record // by id hex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]Record)}
}

func (s *MemoryStorage) FindByID(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return Record{}, ErrInvalidID
	}
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStorage) FindByLabel(_ context.Context, label string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Label == label {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *MemoryStorage) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

func (s *MemoryStorage) Upsert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.records {
		if existing.Label == rec.Label {
			rec.ID = existing.ID
			s.records[id] = rec
			return nil
		}
	}
	rec.ID = bson.NewObjectID()
	s.records[rec.ID.Hex()] = rec
	return nil
}

func (s *MemoryStorage) UpdateNote(_ context.Context, id, note string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return ErrInvalidID
	}
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Note = note
	rec.UpdatedAt = at
	s.records[id] = rec
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return ErrInvalidID
	}
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}
