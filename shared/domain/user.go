package domain

import "time"

type User struct {
	Id        UserId
	Name      string
	Email     Email
	PassHash  string
	CreatedAt time.Time
}

type Credentials struct {
	Email    Email
	Password Password
}

type RegistrationData struct {
	Name string
	Credentials
}
