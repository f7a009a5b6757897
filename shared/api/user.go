package api

// Request DTOs

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Cep      string `json:"cep" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Response DTOs

type TokenResponse struct {
	Token string `json:"token"`
}

type AddressResponse struct {
	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type UserResponse struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Address  AddressResponse `json:"address"`
}
