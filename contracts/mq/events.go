package mq

import "time"

// Routing keys published on the events exchange.
const (
	RoutingUserRegistered = "user.registered"
	RoutingTodoCreated    = "todo.created"
	RoutingTodoCompleted  = "todo.completed"
	RoutingTodoDeleted    = "todo.deleted"
)

type UserRegisteredPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

type TodoCreatedPayload struct {
	TodoID    int64     `json:"todo_id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type TodoCompletedPayload struct {
	TodoID int64 `json:"todo_id"`
	UserID int64 `json:"user_id"`
}

type TodoDeletedPayload struct {
	TodoID int64 `json:"todo_id"`
	UserID int64 `json:"user_id"`
}
