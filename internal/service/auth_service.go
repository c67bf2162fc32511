package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/config"
	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/authevents"
	"github.com/stratushq/tenant_go_server/internal/pkg/jwt"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("email is already registered")
	ErrCompanyExists      = errors.New("company email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("account is deactivated")
	ErrInvalidOTP         = errors.New("verification code is invalid or expired")
	ErrUserNotFound       = errors.New("user not found")
)

type otpSender interface {
	SendOTP(to, code string, expireMinutes int) error
}

type AuthService struct {
	userRepo    *repository.UserRepository
	companyRepo *repository.CompanyRepository
	sessions    *SessionService
	rdb         *redis.Client
	email       otpSender
	events      *authevents.Publisher
	cfg         *config.Config
}

func NewAuthService(
	userRepo *repository.UserRepository,
	companyRepo *repository.CompanyRepository,
	sessions *SessionService,
	rdb *redis.Client,
	email otpSender,
	events *authevents.Publisher,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		sessions:    sessions,
		rdb:         rdb,
		email:       email,
		events:      events,
		cfg:         cfg,
	}
}

// SignUp creates a company together with its first admin user.
func (s *AuthService) SignUp(req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	exists, err = s.companyRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCompanyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	company := &model.Company{
		Name:   req.CompanyName,
		Email:  req.Email,
		Status: "active",
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &passwordStr,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
		CompanyID:    &company.ID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return &dto.SignUpResponse{
		UserID:    user.ID,
		CompanyID: company.ID,
	}, nil
}

// SignIn verifies credentials, opens (or resumes) a session and publishes
// the logged-in transition.
func (s *AuthService) SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.SignInResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Status != model.UserStatusActive {
		return nil, ErrUserInactive
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.finishSignIn(ctx, user)
}

// SendOTP mails a one-time code and stores it with a TTL.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Status != model.UserStatusActive {
		return ErrUserInactive
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	expire := s.otpExpiry()
	if err := s.rdb.Set(ctx, otpKey(email), code, expire).Err(); err != nil {
		return err
	}

	return s.email.SendOTP(email, code, int(expire.Minutes()))
}

// VerifyOTP checks the code and completes sign-in on success. Codes are
// single use.
func (s *AuthService) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.SignInResponse, error) {
	stored, err := s.rdb.Get(ctx, otpKey(req.Email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}
	if stored != req.Code {
		return nil, ErrInvalidOTP
	}

	_ = s.rdb.Del(ctx, otpKey(req.Email)).Err()

	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, ErrUserInactive
	}

	return s.finishSignIn(ctx, user)
}

// SignOut finalizes the user's open session with the tracker's accumulated
// active milliseconds and publishes the logged-out transition.
func (s *AuthService) SignOut(ctx context.Context, userID int64, activeTimeMs int64) error {
	sessionID, err := s.sessions.UpdateSession(ctx, userID, activeTimeMs)
	if err != nil && !errors.Is(err, ErrNoActiveSession) {
		return err
	}

	if s.events != nil {
		if pubErr := s.events.Publish(ctx, &authevents.Event{
			UserID:    userID,
			State:     authevents.StateLoggedOut,
			SessionID: sessionID,
		}); pubErr != nil {
			return pubErr
		}
	}
	return err
}

// UpdatePassword replaces the password after verifying the current one.
func (s *AuthService) UpdatePassword(userID int64, req *dto.UpdatePasswordRequest) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.PasswordHash == nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	hashedStr := string(hashed)
	user.PasswordHash = &hashedStr
	return s.userRepo.Update(user)
}

func (s *AuthService) GetUserByID(id int64) (*model.User, error) {
	return s.userRepo.GetByID(id)
}

func (s *AuthService) finishSignIn(ctx context.Context, user *model.User) (*dto.SignInResponse, error) {
	token, err := jwt.GenerateToken(user.ID, user.Role, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	_ = s.userRepo.UpdateLastLogin(user.ID, time.Now().UTC())

	if s.events != nil {
		if err := s.events.Publish(ctx, &authevents.Event{
			UserID:    user.ID,
			State:     authevents.StateLoggedIn,
			SessionID: sessionID,
		}); err != nil {
			return nil, err
		}
	}

	return &dto.SignInResponse{
		Token:     token,
		SessionID: sessionID,
		User:      buildUserInfo(user),
	}, nil
}

func buildUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Status:    user.Status,
		AvatarURL: user.AvatarURL,
		CompanyID: user.CompanyID,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func otpKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

func (s *AuthService) otpExpiry() time.Duration {
	minutes := s.cfg.Session.OTPExpireMinutes
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
