package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"car-showroom/internal/domain"
	"car-showroom/internal/repository"
	"car-showroom/internal/storage"

	"github.com/google/uuid"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for k, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

// mockListingRepository keeps documents in insertion order and mimics the
// store's filtering and ordering.
type mockListingRepository struct {
	mu        sync.Mutex
	docs      []*domain.ListingDocument
	clock     time.Time
	createErr error
	updateErr error
	lists     int
}

func newMockListingRepository() *mockListingRepository {
	return &mockListingRepository{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func toDocument(l *domain.Listing) *domain.ListingDocument {
	str := func(s string) *string { return &s }
	price := l.Price
	created := l.CreatedAt
	images := append([]domain.ImageRef{}, l.Images...)
	doc := &domain.ListingDocument{
		ID:          l.ID,
		Name:        str(l.Name),
		Model:       str(l.Model),
		Color:       str(l.Color),
		Year:        str(l.Year),
		Km:          str(l.Km),
		City:        str(l.City),
		WhatsApp:    str(l.WhatsApp),
		Description: str(l.Description),
		Price:       &price,
		Images:      images,
		Created:     &created,
	}
	if l.Featured != "" {
		doc.Featured = str(string(l.Featured))
	}
	if l.OwnerUID != "" {
		doc.OwnerUID = str(l.OwnerUID)
	}
	return doc
}

func (m *mockListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.clock = m.clock.Add(time.Minute)
	l.ID = uuid.NewString()
	l.CreatedAt = m.clock
	m.docs = append(m.docs, toDocument(l))
	return nil
}

func (m *mockListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for i, d := range m.docs {
		if d.ID == l.ID {
			created := d.Created
			uid := d.OwnerUID
			doc := toDocument(l)
			doc.Created = created
			doc.OwnerUID = uid
			m.docs[i] = doc
			return nil
		}
	}
	return repository.ErrListingNotFound
}

func (m *mockListingRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return repository.ErrListingNotFound
}

func (m *mockListingRepository) FindByID(ctx context.Context, id string) (*domain.ListingDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, repository.ErrListingNotFound
}

func (m *mockListingRepository) List(ctx context.Context, q repository.ListingQuery) ([]*domain.ListingDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := []*domain.ListingDocument{}
	for _, d := range m.docs {
		if q.FeaturedOnly && (d.Featured == nil || *d.Featured != string(domain.Featured)) {
			continue
		}
		if q.NamePrefix != "" && (d.Name == nil || !strings.HasPrefix(*d.Name, q.NamePrefix)) {
			continue
		}
		out = append(out, d)
	}
	if q.OrderByCreated {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Created.After(*out[j].Created) })
	}
	return out, nil
}

func (m *mockListingRepository) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

// failingStore fails deletes for the configured keys.
type failingStore struct {
	*storage.MemoryStore
	fail map[string]error
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if err, ok := s.fail[key]; ok {
		return err
	}
	return s.MemoryStore.Delete(ctx, key)
}
