package auth

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"` // username or email
	Password string `json:"password" validate:"required,max=128"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type IntrospectRequest struct {
	Token string `json:"token" validate:"required"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type RegistrationRequest struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Username        string `json:"username" validate:"required,max=255,notemail"`
	Password        string `json:"password" validate:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,max=128"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type EmailVerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type PasswordChangeRequest struct {
	OldPassword        string `json:"old_password" validate:"required,max=128"`
	NewPassword        string `json:"new_password" validate:"required,max=128"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required,max=128"`
}
