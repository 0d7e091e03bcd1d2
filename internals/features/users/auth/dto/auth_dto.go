package dto

import (
	"strings"

	"github.com/google/uuid"

	userModel "perpusku_backend/internals/features/users/user/model"
)

/* =========================
   REQUEST
   ========================= */

type RegisterRequest struct {
	UserName string `json:"user_name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r *RegisterRequest) Normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type LoginRequest struct {
	// email atau user_name
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type LoginGoogleRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

/* =========================
   RESPONSE
   ========================= */

type AuthUserResponse struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email"`
}

type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	User        AuthUserResponse `json:"user"`
}

func ToAuthUserResponse(u *userModel.UserModel) AuthUserResponse {
	return AuthUserResponse{
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
	}
}
