package contact

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory Store keyed by owner
type memoryStore struct {
	mu      sync.Mutex
	byOwner map[uuid.UUID][]*Contact
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byOwner: map[uuid.UUID][]*Contact{}}
}

func (m *memoryStore) List(_ context.Context, userID uuid.UUID, f Filter) ([]*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var out []*Contact
	for _, c := range m.byOwner[userID] {
		if contains(c.Name, f.Name) && contains(c.Surname, f.Surname) && contains(c.Email, f.Email) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Surname < out[j].Surname })

	if f.Skip >= len(out) {
		return []*Contact{}, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memoryStore) ListAll(_ context.Context, userID uuid.UUID) ([]*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]*Contact(nil), m.byOwner[userID]...), nil
}

func (m *memoryStore) FindByID(_ context.Context, userID, id uuid.UUID) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byOwner[userID] {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) ExistsByEmailOrPhone(_ context.Context, userID uuid.UUID, email, phone string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, c := range m.byOwner[userID] {
		if c.Email == email || c.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Create(_ context.Context, userID uuid.UUID, c *Contact) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	m.byOwner[userID] = append(m.byOwner[userID], &cp)
	return &cp, nil
}

func (m *memoryStore) Update(_ context.Context, userID, id uuid.UUID, c *Contact) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.byOwner[userID] {
		if existing.ID == id {
			cp := *c
			cp.ID = id
			cp.CreatedAt = existing.CreatedAt
			now := time.Now()
			cp.UpdatedAt = &now
			m.byOwner[userID][i] = &cp
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) Delete(_ context.Context, userID, id uuid.UUID) (*Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byOwner[userID]
	for i, c := range list {
		if c.ID == id {
			m.byOwner[userID] = append(list[:i], list[i+1:]...)
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) seed(userID uuid.UUID, c *Contact) *Contact {
	created, err := m.Create(context.Background(), userID, c)
	if err != nil {
		panic(err)
	}
	return created
}

var errStoreDown = errors.New("store down")

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 15, 4, 0, 0, time.UTC) }
}
