package model

import "time"

// MaxNameLen mirrors the store-side varchar limit on users.name.
const MaxNameLen = 60

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the resolved identity attached to a request after session
// lookup. UserID is the partition key for every todo query.
type Principal struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
}
