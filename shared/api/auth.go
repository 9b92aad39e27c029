package api

// Request DTOs

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type LoginResponse struct {
	Token string `json:"token"`
}

type UserInfoResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
