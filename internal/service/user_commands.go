package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"papaya-users/internal/cqrs"
	"papaya-users/internal/domain"
	"papaya-users/internal/events"
	"papaya-users/internal/repository"
)

const tokenTypeBearer = "Bearer"

// TokenSigner es lo que el login necesita del TokenIssuer.
type TokenSigner interface {
	Issue(subjectID, email string) (string, error)
	TTL() time.Duration
}

var validate = NewValidator()

type CreateUserHandler struct {
	logger    *zap.Logger
	users     repository.UserRepository
	hasher    PasswordHasher
	publisher events.Publisher
	now       func() time.Time
}

func NewCreateUserHandler(logger *zap.Logger, users repository.UserRepository, hasher PasswordHasher, publisher events.Publisher) *CreateUserHandler {
	return &CreateUserHandler{
		logger:    orNop(logger),
		users:     users,
		hasher:    hasher,
		publisher: orNopPublisher(publisher),
		now:       time.Now,
	}
}

func (h *CreateUserHandler) Handle(ctx context.Context, cmd cqrs.CreateUserCommand) (domain.UserView, error) {
	if err := validate.Struct(cmd); err != nil {
		return domain.UserView{}, err
	}
	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return domain.UserView{}, err
	}

	now := h.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        cmd.Email,
		PasswordHash: hash,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.Insert(ctx, user); err != nil {
		return domain.UserView{}, err
	}

	publishQuietly(ctx, h.logger, h.publisher, events.UserCreated, events.UserCreatedPayload{
		UserID: user.ID,
		Email:  user.Email,
	})
	return user.View(), nil
}

type UpdateUserHandler struct {
	logger    *zap.Logger
	users     repository.UserRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewUpdateUserHandler(logger *zap.Logger, users repository.UserRepository, publisher events.Publisher) *UpdateUserHandler {
	return &UpdateUserHandler{
		logger:    orNop(logger),
		users:     users,
		publisher: orNopPublisher(publisher),
		now:       time.Now,
	}
}

// Handle aplica solo los campos presentes del comando.
func (h *UpdateUserHandler) Handle(ctx context.Context, cmd cqrs.UpdateUserCommand) (domain.UserView, error) {
	if err := validate.Struct(cmd); err != nil {
		return domain.UserView{}, err
	}
	user, err := h.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return domain.UserView{}, err
	}

	if cmd.FirstName != nil {
		user.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		user.LastName = *cmd.LastName
	}
	if cmd.Avatar != nil {
		avatar := *cmd.Avatar
		user.Avatar = &avatar
	}
	user.Touch(h.now())

	if err := h.users.Update(ctx, user); err != nil {
		return domain.UserView{}, err
	}
	publishQuietly(ctx, h.logger, h.publisher, events.UserUpdated, events.UserChangedPayload{UserID: user.ID})
	return user.View(), nil
}

type DeleteUserHandler struct {
	logger    *zap.Logger
	users     repository.UserRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewDeleteUserHandler(logger *zap.Logger, users repository.UserRepository, publisher events.Publisher) *DeleteUserHandler {
	return &DeleteUserHandler{
		logger:    orNop(logger),
		users:     users,
		publisher: orNopPublisher(publisher),
		now:       time.Now,
	}
}

// Handle marca el usuario como eliminado. Un segundo delete devuelve ErrNotFound.
func (h *DeleteUserHandler) Handle(ctx context.Context, cmd cqrs.DeleteUserCommand) (struct{}, error) {
	user, err := h.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		return struct{}{}, err
	}
	user.IsDeleted = true
	user.Touch(h.now())

	if err := h.users.Update(ctx, user); err != nil {
		return struct{}{}, err
	}
	publishQuietly(ctx, h.logger, h.publisher, events.UserDeleted, events.UserChangedPayload{UserID: user.ID})
	return struct{}{}, nil
}

// dummyPassword solo se hashea para igualar el costo de un email desconocido.
const dummyPassword = "papaya-users-dummy-password"

type LoginUserHandler struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	tokens    TokenSigner
	limiter   LoginRateLimiter
	dummyHash string
}

func NewLoginUserHandler(users repository.UserRepository, hasher PasswordHasher, tokens TokenSigner, limiter LoginRateLimiter) *LoginUserHandler {
	if limiter == nil {
		limiter = noopLoginRateLimiter{}
	}
	h := &LoginUserHandler{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
	}
	if hasher != nil {
		// con error queda vacio y Verify corta sin costo
		h.dummyHash, _ = hasher.Hash(dummyPassword)
	}
	return h
}

// Handle no distingue email desconocido de contrasena incorrecta.
func (h *LoginUserHandler) Handle(ctx context.Context, cmd cqrs.LoginUserCommand) (domain.LoginResult, error) {
	if !h.limiter.Allow(cmd.Email) {
		return domain.LoginResult{}, domain.ErrRateLimited
	}

	user, err := h.users.FindByEmail(ctx, cmd.Email)
	if errors.Is(err, domain.ErrNotFound) {
		// mismo trabajo de bcrypt que una contrasena incorrecta
		h.hasher.Verify(cmd.Password, h.dummyHash)
		h.limiter.Fail(cmd.Email)
		return domain.LoginResult{}, domain.ErrAuthenticationFailed
	}
	if err != nil {
		return domain.LoginResult{}, err
	}
	if !h.hasher.Verify(cmd.Password, user.PasswordHash) {
		h.limiter.Fail(cmd.Email)
		return domain.LoginResult{}, domain.ErrAuthenticationFailed
	}
	h.limiter.Reset(cmd.Email)

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return domain.LoginResult{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	}, nil
}

// publishQuietly publica sin propagar el error: la mutacion ya fue confirmada.
func publishQuietly(ctx context.Context, logger *zap.Logger, publisher events.Publisher, eventName string, payload any) {
	if err := publisher.Publish(ctx, eventName, payload); err != nil {
		logger.Warn("publish event failed", zap.String("event", eventName), zap.Error(err))
	}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func orNopPublisher(p events.Publisher) events.Publisher {
	if p == nil {
		return events.NopPublisher{}
	}
	return p
}
