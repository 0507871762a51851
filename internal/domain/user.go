package domain

import "context"

// User is the contact view of an account owned by the auth service.
type User struct {
	ID       int64
	FullName string
	Email    string
	Phone    string
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
