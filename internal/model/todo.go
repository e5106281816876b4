package model

import "time"

// MaxTitleLen mirrors the store-side varchar limit on todos.title.
const MaxTitleLen = 60

// Todo is a single task item. The owner is deliberately not serialized:
// ownership is implied by the session that fetched it.
type Todo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
