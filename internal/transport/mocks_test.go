package transport

import (
	"context"
	"sync"
	"time"

	"car-showroom/internal/domain"
	"car-showroom/internal/repository"
	"car-showroom/internal/service"

	"github.com/google/uuid"
)

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

type mockRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

type mockSettingsRepository struct {
	settings *domain.Settings
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	if m.settings == nil {
		return nil, repository.ErrSettingsNotFound
	}
	s := *m.settings
	return &s, nil
}

func (m *mockSettingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	if m.settings == nil {
		return repository.ErrSettingsNotFound
	}
	settings.UpdatedAt = time.Now().UTC()
	s := *settings
	m.settings = &s
	return nil
}

// stubQueries answers catalog queries from a fixed slice.
type stubQueries struct {
	cars     []service.CarView
	err      error
	lastTerm string
}

func (s *stubQueries) ListFeatured(ctx context.Context) ([]service.CarView, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []service.CarView{}
	for _, c := range s.cars {
		if c.Featured != nil && *c.Featured == string(domain.Featured) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubQueries) ListAll(ctx context.Context) ([]service.CarView, error) {
	return s.cars, s.err
}

func (s *stubQueries) ListForDashboard(ctx context.Context) ([]service.CarView, error) {
	return s.cars, s.err
}

func (s *stubQueries) SearchByNamePrefix(ctx context.Context, term string) ([]service.CarView, error) {
	s.lastTerm = term
	return s.cars, s.err
}

func (s *stubQueries) Get(ctx context.Context, id string) (*service.CarView, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.cars {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, service.ErrListingNotFound
}

// recordingListings captures listing writes made through the dashboard.
type recordingListings struct {
	mu      sync.Mutex
	created []*domain.Listing
	updated []*domain.Listing
	deleted []string
	err     error
}

func (r *recordingListings) Create(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	l.ID = uuid.NewString()
	r.created = append(r.created, l)
	return nil
}

func (r *recordingListings) Update(ctx context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.updated = append(r.updated, l)
	return nil
}

func (r *recordingListings) Delete(ctx context.Context, id string) (*service.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if id == "missing" {
		return nil, service.ErrListingNotFound
	}
	r.deleted = append(r.deleted, id)
	return &service.DeleteResult{ListingID: id}, nil
}
