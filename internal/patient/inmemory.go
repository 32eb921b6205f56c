package patient

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	order    []string
	patients map[string]Patient
	logs     map[string][]LogEntry
	selfPay  map[string][]SelfPayItem
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		patients: make(map[string]Patient),
		logs:     make(map[string][]LogEntry),
		selfPay:  make(map[string][]SelfPayItem),
	}
}

func (s *InMemoryStore) Create(_ context.Context, name string) (Patient, error) {
	p := Patient{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) FindByNameLike(_ context.Context, name string) ([]Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Patient
	for _, id := range s.order {
		p := s.patients[id]
		if strings.Contains(p.Name, name) || strings.Contains(name, p.Name) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CommitIntake(_ context.Context, id string, update IntakeUpdate, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.Age = update.Age
	p.Sex = update.Sex
	p.Operation = update.Operation
	p.CFS = update.CFS
	p.MedicalHistory = update.MedicalHistory
	p.Worry = update.Worry
	s.patients[id] = p
	s.logs[id] = append(s.logs[id], LogEntry{
		ID:        uuid.NewString(),
		PatientID: id,
		Category:  CategorySummary,
		Response:  summary,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryStore) AppendLog(_ context.Context, entry LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[entry.PatientID]; !ok {
		return ErrNotFound
	}
	s.logs[entry.PatientID] = append(s.logs[entry.PatientID], entry)
	return nil
}

func (s *InMemoryStore) ListLog(_ context.Context, patientID string, category Category) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LogEntry
	for _, e := range s.logs[patientID] {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Patient, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.patients[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.patients {
		if !p.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) AddSelfPayItems(_ context.Context, patientID string, items []SelfPayItem) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[patientID]; !ok {
		return ErrNotFound
	}
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.PatientID = patientID
		if item.SelectedAt.IsZero() {
			item.SelectedAt = now
		}
		s.selfPay[patientID] = append(s.selfPay[patientID], item)
	}
	return nil
}

func (s *InMemoryStore) ListSelfPayItems(_ context.Context, patientID string) ([]SelfPayItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SelfPayItem(nil), s.selfPay[patientID]...), nil
}

func (s *InMemoryStore) Close() error { return nil }
