package models

type AuthType string

const (
	LocalAuthType  AuthType = "local"
	SocialAuthType AuthType = "social"
)

type User struct {
	ID        int      `json:"id" yaml:"id"`
	Email     string   `json:"email" yaml:"email"`
	Username  *string  `json:"username" yaml:"username,omitempty"`
	Image     *string  `json:"image" yaml:"image,omitempty"`
	TypeAuth  AuthType `json:"type_auth" yaml:"type_auth"`
	CreatedAt string   `json:"created_at" yaml:"created_at"`
	UpdatedAt *string  `json:"updated_at" yaml:"updated_at,omitempty"`
}

type ProfileUpdate struct {
	Username        *string  `json:"username"`
	CurrentPassword *string  `json:"current_password"`
	NewPassword     *string  `json:"new_password"`
	TypeAuth        AuthType `json:"type_auth"`
}

type AvatarUpdate struct {
	ObjectKey string `json:"object_key_s3"`
	UserID    int    `json:"user_id"`
}

type EmailPassword struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetVerify struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

type SocialCode struct {
	Code string `json:"code"`
}

type RefreshTokenBody struct {
	RefreshToken string `json:"refresh_token"`
}

// Message is the body of endpoints that only confirm an action
type Message struct {
	Message string `json:"message"`
}
