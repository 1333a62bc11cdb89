package user

import "time"

type User struct {
	Id          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}
