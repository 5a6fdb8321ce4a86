package cqrs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrHandlerNotFound = errors.New("handler not found")
	ErrHandlerConflict = errors.New("handler conflict")
	ErrResultMismatch  = errors.New("handler result type mismatch")
)

// Message es un comando o query; MessageName identifica su tipo declarado.
type Message interface {
	MessageName() string
}

// Handler procesa exactamente un tipo de mensaje.
type Handler[M Message, R any] interface {
	Handle(ctx context.Context, msg M) (R, error)
}

// Registration asocia el nombre de un mensaje con su handler.
type Registration struct {
	name   string
	invoke func(ctx context.Context, msg Message) (any, error)
}

// Name devuelve el tipo de mensaje que atiende la registracion.
func (r Registration) Name() string {
	return r.name
}

// Bind construye la registracion a partir del tipo de mensaje que declara el handler.
func Bind[M Message, R any](h Handler[M, R]) Registration {
	var zero M
	return Registration{
		name: zero.MessageName(),
		invoke: func(ctx context.Context, msg Message) (any, error) {
			m, ok := msg.(M)
			if !ok {
				return nil, fmt.Errorf("%w: %s got %T", ErrHandlerNotFound, zero.MessageName(), msg)
			}
			return h.Handle(ctx, m)
		},
	}
}

// Bus enruta cada mensaje al unico handler registrado para su tipo.
// Es inmutable despues de NewBus, por lo que Dispatch no toma locks.
type Bus struct {
	kind     string
	logger   *zap.Logger
	handlers map[string]func(ctx context.Context, msg Message) (any, error)
}

// NewBus registra los handlers y falla si dos reclaman el mismo tipo.
func NewBus(kind string, logger *zap.Logger, regs ...Registration) (*Bus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{
		kind:     kind,
		logger:   logger,
		handlers: make(map[string]func(ctx context.Context, msg Message) (any, error), len(regs)),
	}
	for _, reg := range regs {
		if reg.name == "" || reg.invoke == nil {
			return nil, fmt.Errorf("%s bus: empty registration", kind)
		}
		if _, exists := b.handlers[reg.name]; exists {
			return nil, fmt.Errorf("%w: %s bus already has a handler for %q", ErrHandlerConflict, kind, reg.name)
		}
		b.handlers[reg.name] = reg.invoke
	}
	return b, nil
}

// NewCommandBus construye el bus de comandos.
func NewCommandBus(logger *zap.Logger, regs ...Registration) (*Bus, error) {
	return NewBus("command", logger, regs...)
}

// NewQueryBus construye el bus de queries.
func NewQueryBus(logger *zap.Logger, regs ...Registration) (*Bus, error) {
	return NewBus("query", logger, regs...)
}

// Require verifica que cada mensaje tenga handler; se usa al arrancar el proceso.
func (b *Bus) Require(msgs ...Message) error {
	var missing []error
	for _, msg := range msgs {
		if _, ok := b.handlers[msg.MessageName()]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s bus has no handler for %q", ErrHandlerNotFound, b.kind, msg.MessageName()))
		}
	}
	return errors.Join(missing...)
}

// Dispatch invoca al handler del mensaje y espera su resultado.
func (b *Bus) Dispatch(ctx context.Context, msg Message) (any, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: %s bus got nil message", ErrHandlerNotFound, b.kind)
	}
	name := msg.MessageName()
	invoke, ok := b.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s bus has no handler for %q", ErrHandlerNotFound, b.kind, name)
	}

	start := time.Now()
	result, err := invoke(ctx, msg)
	b.logger.Debug("dispatch",
		zap.String("bus", b.kind),
		zap.String("message", name),
		zap.Duration("latency", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return result, err
}

// Execute despacha el mensaje y convierte el resultado al tipo esperado.
func Execute[R any](ctx context.Context, b *Bus, msg Message) (R, error) {
	var zero R
	result, err := b.Dispatch(ctx, msg)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrResultMismatch, msg.MessageName(), result)
	}
	return typed, nil
}
