package todo

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"todoapp/contracts/mq"
	"todoapp/internal/model"
)

var (
	// ErrTitleRequired means the title was empty after trimming.
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong means the title exceeds the 60-character limit.
	ErrTitleTooLong = errors.New("title cannot be more than 60 characters")
)

type Store interface {
	ListByOwner(ctx context.Context, userID int64) ([]model.Todo, error)
	Insert(ctx context.Context, userID int64, title string) (*model.Todo, error)
	SetCompleted(ctx context.Context, userID, todoID int64, completed bool) (*model.Todo, error)
	Delete(ctx context.Context, userID, todoID int64) error
}

type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Service implements the four todo operations, always scoped to the
// resolved principal's user id. Events are advisory: the store write is
// authoritative and a publish failure never fails the request.
type Service struct {
	store     Store
	publisher EventPublisher
	logger    *zap.Logger
}

func NewService(store Store, publisher EventPublisher, logger *zap.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

func (s *Service) List(ctx context.Context, userID int64) ([]model.Todo, error) {
	return s.store.ListByOwner(ctx, userID)
}

// Create adds a todo for userID with completed=false. The id, owner, and
// completed flag are never caller-supplied.
func (s *Service) Create(ctx context.Context, userID int64, title string) (*model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > model.MaxTitleLen {
		return nil, ErrTitleTooLong
	}

	t, err := s.store.Insert(ctx, userID, title)
	if err != nil {
		return nil, err
	}

	s.publish(mq.RoutingTodoCreated, mq.TodoCreatedPayload{
		TodoID:    t.ID,
		UserID:    userID,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
	})
	return t, nil
}

// SetCompleted flips the completed flag of one of userID's todos. A wrong
// id and another user's id are indistinguishable: both come back as the
// store's not-found.
func (s *Service) SetCompleted(ctx context.Context, userID, todoID int64, completed bool) (*model.Todo, error) {
	t, err := s.store.SetCompleted(ctx, userID, todoID, completed)
	if err != nil {
		return nil, err
	}

	if t.Completed {
		s.publish(mq.RoutingTodoCompleted, mq.TodoCompletedPayload{TodoID: t.ID, UserID: userID})
	}
	return t, nil
}

// Delete removes one of userID's todos.
func (s *Service) Delete(ctx context.Context, userID, todoID int64) error {
	if err := s.store.Delete(ctx, userID, todoID); err != nil {
		return err
	}

	s.publish(mq.RoutingTodoDeleted, mq.TodoDeletedPayload{TodoID: todoID, UserID: userID})
	return nil
}

func (s *Service) publish(routingKey string, payload any) {
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
