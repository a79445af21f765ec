package user

import "time"

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	TaxID        string
	CreatedAt    time.Time
}
