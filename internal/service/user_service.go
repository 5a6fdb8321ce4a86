package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"papaya-users/internal/cqrs"
	"papaya-users/internal/domain"
	"papaya-users/internal/events"
	"papaya-users/internal/repository"
)

// Dependencies agrupa lo que necesitan los handlers de usuarios.
type Dependencies struct {
	Logger    *zap.Logger
	Users     repository.UserRepository
	Hasher    PasswordHasher
	Tokens    TokenSigner
	Publisher events.Publisher
	Limiter   LoginRateLimiter
}

// NewBuses registra todos los handlers y verifica que cada comando y query tenga uno.
func NewBuses(deps Dependencies) (commands *cqrs.Bus, queries *cqrs.Bus, err error) {
	if deps.Users == nil || deps.Hasher == nil || deps.Tokens == nil {
		return nil, nil, fmt.Errorf("%w: users, hasher and tokens are required", domain.ErrConfiguration)
	}
	logger := orNop(deps.Logger)

	commands, err = cqrs.NewCommandBus(logger,
		cqrs.Bind[cqrs.CreateUserCommand, domain.UserView](NewCreateUserHandler(logger, deps.Users, deps.Hasher, deps.Publisher)),
		cqrs.Bind[cqrs.UpdateUserCommand, domain.UserView](NewUpdateUserHandler(logger, deps.Users, deps.Publisher)),
		cqrs.Bind[cqrs.DeleteUserCommand, struct{}](NewDeleteUserHandler(logger, deps.Users, deps.Publisher)),
		cqrs.Bind[cqrs.LoginUserCommand, domain.LoginResult](NewLoginUserHandler(deps.Users, deps.Hasher, deps.Tokens, deps.Limiter)),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := commands.Require(cqrs.Commands()...); err != nil {
		return nil, nil, err
	}

	queries, err = cqrs.NewQueryBus(logger,
		cqrs.Bind[cqrs.GetUserQuery, domain.UserView](NewGetUserHandler(deps.Users)),
		cqrs.Bind[cqrs.ListUsersQuery, domain.UserPage](NewListUsersHandler(deps.Users)),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := queries.Require(cqrs.Queries()...); err != nil {
		return nil, nil, err
	}
	return commands, queries, nil
}

// UserService expone una llamada por comando o query y registra el resultado.
type UserService struct {
	logger   *zap.Logger
	commands *cqrs.Bus
	queries  *cqrs.Bus
}

func NewUserService(logger *zap.Logger, commands, queries *cqrs.Bus) *UserService {
	return &UserService{
		logger:   orNop(logger),
		commands: commands,
		queries:  queries,
	}
}

func (s *UserService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (domain.UserView, error) {
	view, err := cqrs.Execute[domain.UserView](ctx, s.commands, cmd)
	if err != nil {
		s.logFailure("create user failed", err, zap.String("email", cmd.Email))
		return domain.UserView{}, err
	}
	s.logger.Info("user created", zap.String("user_id", view.ID))
	return view, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.UserView, error) {
	view, err := cqrs.Execute[domain.UserView](ctx, s.queries, cqrs.GetUserQuery{UserID: id})
	if err != nil {
		s.logFailure("get user failed", err, zap.String("user_id", id))
		return domain.UserView{}, err
	}
	return view, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) (domain.UserPage, error) {
	result, err := cqrs.Execute[domain.UserPage](ctx, s.queries, cqrs.ListUsersQuery{Page: page, Limit: limit})
	if err != nil {
		s.logFailure("list users failed", err, zap.Int("page", page), zap.Int("limit", limit))
		return domain.UserPage{}, err
	}
	return result, nil
}

func (s *UserService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (domain.UserView, error) {
	view, err := cqrs.Execute[domain.UserView](ctx, s.commands, cmd)
	if err != nil {
		s.logFailure("update user failed", err, zap.String("user_id", cmd.UserID))
		return domain.UserView{}, err
	}
	s.logger.Info("user updated", zap.String("user_id", view.ID))
	return view, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if _, err := cqrs.Execute[struct{}](ctx, s.commands, cqrs.DeleteUserCommand{UserID: id}); err != nil {
		s.logFailure("delete user failed", err, zap.String("user_id", id))
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	result, err := cqrs.Execute[domain.LoginResult](ctx, s.commands, cqrs.LoginUserCommand{Email: email, Password: password})
	if err != nil {
		s.logFailure("login failed", err, zap.String("email", email))
		return domain.LoginResult{}, err
	}
	s.logger.Info("login succeeded", zap.String("email", email))
	return result, nil
}

// logFailure baja a warn los errores esperados del dominio.
func (s *UserService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if isDomainError(err) {
		s.logger.Warn(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrDuplicateEmail,
		domain.ErrAuthenticationFailed,
		domain.ErrValidationFailed,
		domain.ErrInvalidArgument,
		domain.ErrRateLimited,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
