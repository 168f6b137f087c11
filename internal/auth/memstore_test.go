package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store used by the package tests. It hashes
// passwords on write like the Postgres repository does.
type memStore struct {
	mu    sync.Mutex
	users map[string]User

	findErr       error
	setRefreshErr error
	setRefreshN   int
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]User)}
}

func (m *memStore) FindByID(_ context.Context, id string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return User{}, false, m.findErr
	}
	user, ok := m.users[id]
	return user, ok, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return User{}, false, m.findErr
	}
	for _, user := range m.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *memStore) FindByRefreshToken(_ context.Context, token string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return User{}, false, m.findErr
	}
	if token == "" {
		return User{}, false, nil
	}
	for _, user := range m.users {
		if user.RefreshToken == token {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *memStore) Create(_ context.Context, reg Registration, role Role) (User, error) {
	hash, err := HashPassword(reg.Password)
	if err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == reg.Email {
			return User{}, ErrEmailTaken
		}
		if reg.Mobile != "" && user.Mobile == reg.Mobile {
			return User{}, ErrMobileTaken
		}
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
		Mobile:       reg.Mobile,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memStore) SetRefreshToken(_ context.Context, id, token string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setRefreshN++
	if m.setRefreshErr != nil {
		return false, m.setRefreshErr
	}
	user, ok := m.users[id]
	if !ok {
		return false, nil
	}
	user.RefreshToken = token
	user.RefreshExpiresAt = nil
	if token != "" {
		user.RefreshExpiresAt = &expiresAt
	}
	m.users[id] = user
	return true, nil
}

func (m *memStore) List(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, update ProfileUpdate) (User, bool, error) {
	var hash string
	if update.Password != "" {
		var err error
		if hash, err = HashPassword(update.Password); err != nil {
			return User{}, false, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return User{}, false, nil
	}
	if update.Email != "" {
		for otherID, other := range m.users {
			if otherID != id && other.Email == update.Email {
				return User{}, false, ErrEmailTaken
			}
		}
		user.Email = update.Email
	}
	if update.FirstName != "" {
		user.FirstName = update.FirstName
	}
	if update.LastName != "" {
		user.LastName = update.LastName
	}
	if update.Mobile != "" {
		user.Mobile = update.Mobile
	}
	if hash != "" {
		user.PasswordHash = hash
	}
	m.users[id] = user
	return user, true, nil
}

func (m *memStore) Delete(_ context.Context, id string) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return User{}, false, nil
	}
	delete(m.users, id)
	return user, true, nil
}

func (m *memStore) SetBlocked(_ context.Context, id string, blocked bool) (User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return User{}, false, nil
	}
	user.Blocked = blocked
	if blocked {
		user.RefreshToken = ""
		user.RefreshExpiresAt = nil
	}
	m.users[id] = user
	return user, true, nil
}

func (m *memStore) UpsertAdmin(ctx context.Context, email, password string) error {
	if existing, ok, _ := m.FindByEmail(ctx, email); ok {
		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		m.mu.Lock()
		existing.Role = RoleAdmin
		existing.PasswordHash = hash
		existing.Blocked = false
		m.users[existing.ID] = existing
		m.mu.Unlock()
		return nil
	}
	_, err := m.Create(ctx, Registration{Email: email, Password: password}, RoleAdmin)
	return err
}

func (m *memStore) get(id string) User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}
