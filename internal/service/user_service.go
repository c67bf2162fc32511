package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/oss"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

var ErrUserLimitReached = errors.New("plan user limit reached")

type UserService struct {
	userRepo *repository.UserRepository
	subRepo  *repository.SubscriptionRepository
	oss      *oss.Client
}

func NewUserService(userRepo *repository.UserRepository, subRepo *repository.SubscriptionRepository, ossClient *oss.Client) *UserService {
	return &UserService{userRepo: userRepo, subRepo: subRepo, oss: ossClient}
}

// CreateUser adds a user to a company, enforcing the plan's user limit.
func (s *UserService) CreateUser(req *dto.CreateUserRequest) (*dto.UserInfo, error) {
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	if err := s.checkUserLimit(req.CompanyID); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	hashedStr := string(hashed)
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &hashedStr,
		Role:         role,
		Status:       model.UserStatusActive,
		Phone:        req.Phone,
		CompanyID:    &req.CompanyID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return buildUserInfo(user), nil
}

func (s *UserService) GetUser(id int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return buildUserInfo(user), nil
}

func (s *UserService) UpdateUser(id int64, req *dto.UpdateUserRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Role != nil {
		fields["role"] = *req.Role
	}
	if req.Status != nil {
		// Reactivation counts against the plan limit like a new seat.
		if *req.Status == model.UserStatusActive && user.Status != model.UserStatusActive && user.CompanyID != nil {
			if err := s.checkUserLimit(*user.CompanyID); err != nil {
				return nil, err
			}
		}
		fields["status"] = *req.Status
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(id, fields); err != nil {
			return nil, err
		}
	}

	return s.GetUser(id)
}

func (s *UserService) DeleteUser(id int64) error {
	if _, err := s.userRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.userRepo.Delete(id)
}

func (s *UserService) ListUsers(query *dto.ListUsersQuery) ([]dto.UserInfo, int64, error) {
	users, total, err := s.userRepo.ListByCompany(query.CompanyID, query.Status, query.Page, query.PageSize)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]dto.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, *buildUserInfo(&users[i]))
	}
	return infos, total, nil
}

// UploadAvatar stores the image, saves its URL on the user and drops the
// previous object.
func (s *UserService) UploadAvatar(userID int64, data []byte, ext string) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	url, err := s.oss.UploadAvatar(userID, data, ext)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return "", err
	}

	if user.AvatarURL != "" {
		// Best effort; an orphaned object is not worth failing the upload.
		_ = s.oss.DeleteByURL(user.AvatarURL)
	}
	return url, nil
}

// checkUserLimit rejects new active seats past the subscribed plan's limit.
// Companies without a subscription row are not limited here; sign-up flows
// gate access elsewhere.
func (s *UserService) checkUserLimit(companyID int64) error {
	sub, err := s.subRepo.GetByCompanyID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if sub.UserLimit <= 0 {
		return nil
	}

	count, err := s.userRepo.CountActiveByCompany(companyID)
	if err != nil {
		return err
	}
	if count >= int64(sub.UserLimit) {
		return ErrUserLimitReached
	}
	return nil
}
