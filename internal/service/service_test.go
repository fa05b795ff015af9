package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaultgate/card-token-service/internal/domain"
	"github.com/vaultgate/card-token-service/internal/repository"
)

// In-memory repository fakes mirroring the SQL implementations,
// including their state checks and sentinel errors.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	return nil
}

type memCardRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.CardToken
}

func newMemCardRepo() *memCardRepo {
	return &memCardRepo{tokens: make(map[string]*domain.CardToken)}
}

func (r *memCardRepo) Create(ctx context.Context, token *domain.CardToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.SignedToken == token.SignedToken {
			return repository.ErrDuplicateToken
		}
	}

	token.ID = uuid.NewString()
	token.CreatedAt = time.Now().UTC()
	r.tokens[token.ID] = token
	return nil
}

func (r *memCardRepo) GetBySignedToken(ctx context.Context, signedToken string) (*domain.CardToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.SignedToken == signedToken {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCardRepo) GetByID(ctx context.Context, id, userID string) (*domain.CardToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(id, userID)
}

func (r *memCardRepo) lookup(id, userID string) (*domain.CardToken, error) {
	t, ok := r.tokens[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r *memCardRepo) ListActive(ctx context.Context, userID string) ([]*domain.CardToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var out []*domain.CardToken
	for _, t := range r.tokens {
		if t.UserID == userID && t.IsActive(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memCardRepo) Revoke(ctx context.Context, id, userID, presentedToken string) (*domain.CardToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	if t.SignedToken != presentedToken {
		return nil, repository.ErrTokenMismatch
	}
	if t.IsRevoked {
		return nil, repository.ErrAlreadyRevoked
	}
	t.IsRevoked = true
	return t, nil
}

func (r *memCardRepo) Refresh(ctx context.Context, id, userID, presentedToken, newSignedToken string, newExpiresAt time.Time) (*domain.CardToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.lookup(id, userID)
	if err != nil {
		return nil, err
	}
	if t.SignedToken != presentedToken {
		return nil, repository.ErrTokenMismatch
	}
	if t.IsRevoked {
		return nil, repository.ErrAlreadyRevoked
	}
	if !t.ExpiresAt.After(time.Now().UTC()) {
		return nil, repository.ErrTokenExpired
	}
	t.SignedToken = newSignedToken
	t.ExpiresAt = newExpiresAt
	return t, nil
}

func (r *memCardRepo) Delete(ctx context.Context, id, userID, presentedToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.lookup(id, userID)
	if err != nil {
		return err
	}
	if t.SignedToken != presentedToken {
		return repository.ErrTokenMismatch
	}
	delete(r.tokens, id)
	return nil
}

func (r *memCardRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var removed int64
	for id, t := range r.tokens {
		if !t.ExpiresAt.After(now) {
			delete(r.tokens, id)
			removed++
		}
	}
	return removed, nil
}

type memRevocations struct {
	mu     sync.Mutex
	marked map[string]bool
}

func newMemRevocations() *memRevocations {
	return &memRevocations{marked: make(map[string]bool)}
}

func (m *memRevocations) MarkRevoked(ctx context.Context, signedToken string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked[signedToken] = true
	return nil
}

func (m *memRevocations) IsRevoked(ctx context.Context, signedToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marked[signedToken], nil
}
