package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/config"
	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

var (
	ErrCompanyNotFound       = errors.New("company not found")
	ErrUnknownPlan           = errors.New("unknown plan")
	ErrNoSubscription        = errors.New("company has no subscription")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)

type checkoutProvider interface {
	CreateCustomer(email, name string) (string, error)
	CreateCheckoutSession(customerID, priceID string, companyID int64) (string, error)
	CreateBillingPortalSession(customerID string) (string, error)
}

type BillingService struct {
	companyRepo *repository.CompanyRepository
	subRepo     *repository.SubscriptionRepository
	billingRepo *repository.BillingRepository
	pmRepo      *repository.PaymentMethodRepository
	provider    checkoutProvider
	cfg         *config.Config
}

func NewBillingService(
	companyRepo *repository.CompanyRepository,
	subRepo *repository.SubscriptionRepository,
	billingRepo *repository.BillingRepository,
	pmRepo *repository.PaymentMethodRepository,
	provider checkoutProvider,
	cfg *config.Config,
) *BillingService {
	return &BillingService{
		companyRepo: companyRepo,
		subRepo:     subRepo,
		billingRepo: billingRepo,
		pmRepo:      pmRepo,
		provider:    provider,
		cfg:         cfg,
	}
}

// CreateCheckout starts a hosted checkout for the plan, creating the Stripe
// customer on first use and persisting its id on the company.
func (s *BillingService) CreateCheckout(companyID int64, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	plan, ok := s.cfg.Plans[req.Plan]
	if !ok || plan.PriceID == "" {
		return nil, ErrUnknownPlan
	}

	company, err := s.companyRepo.GetByID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	customerID, err := s.ensureCustomer(company.ID, company.Email, company.Name)
	if err != nil {
		return nil, err
	}

	url, err := s.provider.CreateCheckoutSession(customerID, plan.PriceID, companyID)
	if err != nil {
		return nil, err
	}
	return &dto.CheckoutResponse{URL: url}, nil
}

// Portal returns a fresh billing portal URL for the company's customer.
func (s *BillingService) Portal(companyID int64) (*dto.PortalResponse, error) {
	company, err := s.companyRepo.GetByID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	if company.StripeCustomerID == nil || *company.StripeCustomerID == "" {
		return nil, ErrNoSubscription
	}

	url, err := s.provider.CreateBillingPortalSession(*company.StripeCustomerID)
	if err != nil {
		return nil, err
	}
	return &dto.PortalResponse{URL: url}, nil
}

// Overview bundles subscription, invoices and payment methods for the
// billing page.
func (s *BillingService) Overview(companyID int64, page, pageSize int) (*dto.BillingOverview, int64, error) {
	overview := &dto.BillingOverview{}

	sub, err := s.subRepo.GetByCompanyID(companyID)
	if err == nil {
		overview.Subscription = sub
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, err
	}

	records, total, err := s.billingRepo.ListByCompany(companyID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	overview.BillingRecords = records

	methods, err := s.pmRepo.ListByCompany(companyID)
	if err != nil {
		return nil, 0, err
	}
	overview.PaymentMethods = methods

	failed, err := s.billingRepo.CountByStatus(companyID, model.BillingStatusFailed)
	if err != nil {
		return nil, 0, err
	}
	overview.FailedPayments = failed

	return overview, total, nil
}

// SetDefaultPaymentMethod marks one of the company's stored payment methods
// as the default, clearing the flag on the others.
func (s *BillingService) SetDefaultPaymentMethod(companyID int64, paymentMethodID string) error {
	pm, err := s.pmRepo.GetByStripeID(paymentMethodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentMethodNotFound
		}
		return err
	}
	if pm.CompanyID != companyID {
		return ErrPaymentMethodNotFound
	}
	return s.pmRepo.SetDefault(companyID, paymentMethodID)
}

func (s *BillingService) ensureCustomer(companyID int64, email, name string) (string, error) {
	company, err := s.companyRepo.GetByID(companyID)
	if err != nil {
		return "", err
	}
	if company.StripeCustomerID != nil && *company.StripeCustomerID != "" {
		return *company.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(email, name)
	if err != nil {
		return "", err
	}
	if err := s.companyRepo.SetStripeCustomerID(companyID, customerID); err != nil {
		return "", err
	}
	return customerID, nil
}
