package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

type CompanyService struct {
	companyRepo *repository.CompanyRepository
	userRepo    *repository.UserRepository
	subRepo     *repository.SubscriptionRepository
}

func NewCompanyService(
	companyRepo *repository.CompanyRepository,
	userRepo *repository.UserRepository,
	subRepo *repository.SubscriptionRepository,
) *CompanyService {
	return &CompanyService{companyRepo: companyRepo, userRepo: userRepo, subRepo: subRepo}
}

func (s *CompanyService) CreateCompany(req *dto.CreateCompanyRequest) (*model.Company, error) {
	exists, err := s.companyRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCompanyExists
	}

	company := &model.Company{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  "active",
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) GetCompany(id int64) (*model.Company, error) {
	company, err := s.companyRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) UpdateCompany(id int64, req *dto.UpdateCompanyRequest) (*model.Company, error) {
	if _, err := s.GetCompany(id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) > 0 {
		if err := s.companyRepo.UpdateFields(id, fields); err != nil {
			return nil, err
		}
	}

	return s.GetCompany(id)
}

func (s *CompanyService) DeleteCompany(id int64) error {
	if _, err := s.GetCompany(id); err != nil {
		return err
	}
	return s.companyRepo.Delete(id)
}

// ListCompanies returns each company with its user count and plan state,
// for the super-admin index.
func (s *CompanyService) ListCompanies(page, pageSize int) ([]dto.CompanyOverview, int64, error) {
	companies, total, err := s.companyRepo.List(page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	overviews := make([]dto.CompanyOverview, 0, len(companies))
	for i := range companies {
		c := &companies[i]
		overview := dto.CompanyOverview{
			ID:     c.ID,
			Name:   c.Name,
			Email:  c.Email,
			Status: c.Status,
		}
		if count, err := s.userRepo.CountActiveByCompany(c.ID); err == nil {
			overview.UserCount = count
		}
		if sub, err := s.subRepo.GetByCompanyID(c.ID); err == nil {
			overview.Plan = sub.Plan
			overview.PlanState = sub.Status
			overview.UserLimit = sub.UserLimit
		}
		overviews = append(overviews, overview)
	}
	return overviews, total, nil
}
