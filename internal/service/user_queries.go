package service

import (
	"context"
	"fmt"
	"math"

	"papaya-users/internal/cqrs"
	"papaya-users/internal/domain"
	"papaya-users/internal/repository"
)

type GetUserHandler struct {
	users repository.UserRepository
}

func NewGetUserHandler(users repository.UserRepository) *GetUserHandler {
	return &GetUserHandler{users: users}
}

func (h *GetUserHandler) Handle(ctx context.Context, q cqrs.GetUserQuery) (domain.UserView, error) {
	user, err := h.users.FindByID(ctx, q.UserID)
	if err != nil {
		return domain.UserView{}, err
	}
	return user.View(), nil
}

type ListUsersHandler struct {
	users repository.UserRepository
}

func NewListUsersHandler(users repository.UserRepository) *ListUsersHandler {
	return &ListUsersHandler{users: users}
}

// Handle rechaza page < 1, limit fuera de [1, 100] y pages cuyo offset
// desborda int; no ajusta valores.
func (h *ListUsersHandler) Handle(ctx context.Context, q cqrs.ListUsersQuery) (domain.UserPage, error) {
	if err := validate.Struct(q); err != nil {
		return domain.UserPage{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if q.Page > math.MaxInt/q.Limit {
		return domain.UserPage{}, fmt.Errorf("%w: page %d too large for limit %d", domain.ErrInvalidArgument, q.Page, q.Limit)
	}

	total, err := h.users.CountNotDeleted(ctx)
	if err != nil {
		return domain.UserPage{}, err
	}
	users, err := h.users.PageNotDeleted(ctx, domain.Offset(q.Page, q.Limit), q.Limit)
	if err != nil {
		return domain.UserPage{}, err
	}

	views := make([]domain.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return domain.UserPage{
		Data: views,
		Meta: domain.NewPageMeta(q.Page, q.Limit, total),
	}, nil
}
