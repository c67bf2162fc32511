package dto

// SignUpRequest creates the first admin user of a company.
type SignUpRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=64"`
	CompanyName string `json:"company_name" binding:"required,min=2,max=150"`
}

type SignUpResponse struct {
	UserID    int64 `json:"user_id"`
	CompanyID int64 `json:"company_id"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignInResponse struct {
	Token     string    `json:"token"`
	SessionID int64     `json:"session_id"`
	User      *UserInfo `json:"user"`
}

type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=64"`
}

// UserInfo is the user shape returned to the frontend.
type UserInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CompanyID *int64 `json:"company_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}
