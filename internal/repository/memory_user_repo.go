package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"papaya-users/internal/domain"
)

// MemoryUserRepository guarda usuarios en memoria. Sirve para desarrollo
// local sin DATABASE_URL y para tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.User
	order []string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID: make(map[string]domain.User),
	}
}

// Insert chequea e inserta bajo el mismo lock, igual que el indice unico parcial.
func (r *MemoryUserRepository) Insert(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[user.ID]; exists {
		return fmt.Errorf("insert user: id %s exists", user.ID)
	}
	if !user.IsDeleted {
		for _, existing := range r.byID {
			if !existing.IsDeleted && existing.Email == user.Email {
				return domain.ErrDuplicateEmail
			}
		}
	}
	r.byID[user.ID] = clone(user)
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok || u.IsDeleted {
		return domain.User{}, domain.ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if !u.IsDeleted && u.Email == email {
			return clone(u), nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *MemoryUserRepository) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok || current.IsDeleted {
		return domain.ErrNotFound
	}
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	current.Avatar = user.Avatar
	current.IsDeleted = user.IsDeleted
	current.UpdatedAt = user.UpdatedAt
	r.byID[user.ID] = clone(current)
	return nil
}

func (r *MemoryUserRepository) CountNotDeleted(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, u := range r.byID {
		if !u.IsDeleted {
			total++
		}
	}
	return total, nil
}

// PageNotDeleted ordena por (created_at, id) como la implementacion Postgres.
// Un offset negativo es error, igual que OFFSET negativo en SQL.
func (r *MemoryUserRepository) PageNotDeleted(_ context.Context, offset, limit int) ([]domain.User, error) {
	if offset < 0 {
		return nil, fmt.Errorf("page users: negative offset %d", offset)
	}

	r.mu.RLock()
	active := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		if u := r.byID[id]; !u.IsDeleted {
			active = append(active, clone(u))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].ID < active[j].ID
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})

	if offset >= len(active) || limit <= 0 {
		return []domain.User{}, nil
	}
	end := offset + limit
	if end > len(active) {
		end = len(active)
	}
	return active[offset:end], nil
}

func clone(u domain.User) domain.User {
	if u.Avatar != nil {
		a := *u.Avatar
		u.Avatar = &a
	}
	return u
}

var _ UserRepository = (*MemoryUserRepository)(nil)
