package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/config"
	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/pkg/payment"
	"github.com/stratushq/tenant_go_server/internal/pkg/ws"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

var ErrUnknownTenant = errors.New("no tenant for stripe customer")

// subscriptionProvisioner is the slice of the payment client the webhook
// processor needs after checkout: stamping tenant metadata onto the remote
// subscription and provisioning the billing portal URL.
type subscriptionProvisioner interface {
	AttachSubscriptionMetadata(subscriptionID string, companyID int64) error
	CreateBillingPortalSession(customerID string) (string, error)
}

type deactivationNotifier interface {
	SendDeactivationNotice(to, companyName string) error
}

// WebhookService reconciles verified Stripe events into local billing state.
// Every mutation is an upsert keyed by the external object id and guarded by
// the event timestamp, so redelivered or out-of-order events converge on the
// same rows.
type WebhookService struct {
	subRepo     *repository.SubscriptionRepository
	billingRepo *repository.BillingRepository
	pmRepo      *repository.PaymentMethodRepository
	userRepo    *repository.UserRepository
	companyRepo *repository.CompanyRepository
	eventRepo   *repository.WebhookEventRepository
	provider    subscriptionProvisioner
	hub         *ws.Hub
	email       deactivationNotifier
	cfg         *config.Config
}

func NewWebhookService(
	subRepo *repository.SubscriptionRepository,
	billingRepo *repository.BillingRepository,
	pmRepo *repository.PaymentMethodRepository,
	userRepo *repository.UserRepository,
	companyRepo *repository.CompanyRepository,
	eventRepo *repository.WebhookEventRepository,
	provider subscriptionProvisioner,
	hub *ws.Hub,
	email deactivationNotifier,
	cfg *config.Config,
) *WebhookService {
	return &WebhookService{
		subRepo:     subRepo,
		billingRepo: billingRepo,
		pmRepo:      pmRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		eventRepo:   eventRepo,
		provider:    provider,
		hub:         hub,
		email:       email,
		cfg:         cfg,
	}
}

// HandleEvent processes one verified event. Events already seen are skipped;
// unrecognized types are logged and acknowledged so Stripe stops retrying.
func (s *WebhookService) HandleEvent(event stripe.Event) error {
	existing, err := s.eventRepo.GetByEventID(event.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	// Skip only events that already processed cleanly; a redelivery of a
	// failed event gets another attempt.
	if existing != nil && existing.ProcessedAt != nil && existing.ProcessingError == "" {
		log.Printf("webhook: skipping already-processed event %s (%s)", event.ID, event.Type)
		return nil
	}

	if existing == nil {
		if err := s.eventRepo.Create(&model.WebhookEvent{
			StripeEventID:  event.ID,
			EventType:      string(event.Type),
			EventCreatedAt: time.Unix(event.Created, 0).UTC(),
			Payload:        string(event.Data.Raw),
		}); err != nil {
			return err
		}
	}

	handleErr := s.dispatch(event)

	errMsg := ""
	if handleErr != nil {
		errMsg = handleErr.Error()
	}
	if err := s.eventRepo.MarkProcessed(event.ID, errMsg); err != nil {
		log.Printf("webhook: mark processed %s: %v", event.ID, err)
	}
	return handleErr
}

func (s *WebhookService) dispatch(event stripe.Event) error {
	eventTime := time.Unix(event.Created, 0).UTC()

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(event.Data.Raw, eventTime)
	case "customer.subscription.created", "customer.subscription.updated":
		return s.handleSubscriptionUpdated(event.Data.Raw, eventTime)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(event.Data.Raw, eventTime)
	case "invoice.paid":
		return s.handleInvoice(event.Data.Raw, model.BillingStatusPaid)
	case "invoice.payment_failed":
		return s.handleInvoice(event.Data.Raw, model.BillingStatusFailed)
	case "payment_method.attached":
		return s.handlePaymentMethodAttached(event.Data.Raw)
	default:
		log.Printf("webhook: unhandled event type %s", event.Type)
		return nil
	}
}

// handleCheckoutCompleted links the new subscription to its tenant: persist
// the customer id on the company, stamp tenant metadata onto the remote
// subscription, provision a billing portal URL and upsert the local row.
func (s *WebhookService) handleCheckoutCompleted(raw json.RawMessage, eventTime time.Time) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}
	if sess.Subscription == nil || sess.Customer == nil {
		log.Printf("webhook: checkout session %s without subscription or customer", sess.ID)
		return nil
	}

	companyID, err := s.companyIDFromMetadata(sess.Metadata)
	if err != nil {
		companyID, err = s.resolveCompanyByCustomer(sess.Customer.ID)
		if err != nil {
			return err
		}
	}

	company, err := s.companyRepo.GetByID(companyID)
	if err != nil {
		return fmt.Errorf("load company %d: %w", companyID, err)
	}
	if company.StripeCustomerID == nil || *company.StripeCustomerID == "" {
		if err := s.companyRepo.SetStripeCustomerID(companyID, sess.Customer.ID); err != nil {
			return err
		}
	}

	if err := s.provider.AttachSubscriptionMetadata(sess.Subscription.ID, companyID); err != nil {
		// Later subscription events can still resolve via the customer id.
		log.Printf("webhook: attach metadata to %s: %v", sess.Subscription.ID, err)
	}

	portalURL, err := s.provider.CreateBillingPortalSession(sess.Customer.ID)
	if err != nil {
		log.Printf("webhook: provision portal for %s: %v", sess.Customer.ID, err)
	}

	if skip, err := s.olderThanStored(sess.Subscription.ID, eventTime); err != nil {
		return err
	} else if skip {
		return nil
	}

	sub := &model.Subscription{
		StripeSubscriptionID: sess.Subscription.ID,
		CompanyID:            companyID,
		StripeCustomerID:     sess.Customer.ID,
		Amount:               float64(sess.AmountTotal) / 100,
		Status:               model.SubscriptionStatusActive,
		PortalURL:            portalURL,
		LastEventAt:          &eventTime,
	}
	s.carryForward(sub)
	if err := s.subRepo.Upsert(sub); err != nil {
		return err
	}

	s.notifyAdmins(companyID, ws.TypeSubscriptionUpdated, sub)
	return nil
}

func (s *WebhookService) handleSubscriptionUpdated(raw json.RawMessage, eventTime time.Time) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(raw, &stripeSub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	companyID, err := s.resolveSubscriptionCompany(&stripeSub)
	if err != nil {
		return err
	}

	// Terminal states end the tenant's plan entirely.
	status := string(stripeSub.Status)
	if status == model.SubscriptionStatusCanceled || status == model.SubscriptionStatusUnpaid {
		return s.removeSubscription(stripeSub.ID, companyID, eventTime)
	}

	if skip, err := s.olderThanStored(stripeSub.ID, eventTime); err != nil {
		return err
	} else if skip {
		return nil
	}

	// A past-due plan keeps its access; only the status moves.
	if status == model.SubscriptionStatusPastDue {
		if existing, err := s.subRepo.GetByStripeID(stripeSub.ID); err == nil {
			if err := s.subRepo.UpdateFieldsByStripeID(stripeSub.ID, map[string]interface{}{
				"status":        status,
				"last_event_at": eventTime,
			}); err != nil {
				return err
			}
			s.notifyAdmins(existing.CompanyID, ws.TypeSubscriptionUpdated, map[string]string{
				"stripe_subscription_id": stripeSub.ID,
				"status":                 status,
			})
			return nil
		}
	}

	sub := &model.Subscription{
		StripeSubscriptionID: stripeSub.ID,
		CompanyID:            companyID,
		Status:               status,
		LastEventAt:          &eventTime,
	}
	if stripeSub.Customer != nil {
		sub.StripeCustomerID = stripeSub.Customer.ID
	}
	if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 {
		item := stripeSub.Items.Data[0]
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			sub.CurrentPeriodEnd = &end
		}
		if item.Price != nil {
			sub.Amount = float64(item.Price.UnitAmount) / 100
			if item.Price.Recurring != nil {
				sub.BillingInterval = string(item.Price.Recurring.Interval)
			}
			sub.Plan, sub.UserLimit = s.planForPrice(item.Price.ID)
		}
	}
	s.carryForward(sub)
	if err := s.subRepo.Upsert(sub); err != nil {
		return err
	}

	s.notifyAdmins(companyID, ws.TypeSubscriptionUpdated, sub)
	return nil
}

func (s *WebhookService) handleSubscriptionDeleted(raw json.RawMessage, eventTime time.Time) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(raw, &stripeSub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	existing, err := s.subRepo.GetByStripeID(stripeSub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("webhook: delete for unknown subscription %s", stripeSub.ID)
			return nil
		}
		return err
	}

	return s.removeSubscription(stripeSub.ID, existing.CompanyID, eventTime)
}

// removeSubscription drops the local row and ends the tenant's access.
// Applied for subscription.deleted and for terminal update statuses.
func (s *WebhookService) removeSubscription(stripeSubscriptionID string, companyID int64, eventTime time.Time) error {
	if skip, err := s.olderThanStored(stripeSubscriptionID, eventTime); err != nil {
		return err
	} else if skip {
		return nil
	}

	if _, err := s.subRepo.DeleteByStripeID(stripeSubscriptionID); err != nil {
		return err
	}

	return s.endTenantAccess(companyID)
}

// endTenantAccess deactivates every user of the tenant and tells online
// admins their subscription is gone.
func (s *WebhookService) endTenantAccess(companyID int64) error {
	deactivated, err := s.userRepo.DeactivateByCompany(companyID)
	if err != nil {
		return err
	}
	log.Printf("webhook: deactivated %d users of company %d", deactivated, companyID)

	if s.email != nil {
		if company, err := s.companyRepo.GetByID(companyID); err == nil {
			if err := s.email.SendDeactivationNotice(company.Email, company.Name); err != nil {
				log.Printf("webhook: deactivation notice for company %d: %v", companyID, err)
			}
		}
	}

	s.notifyAdmins(companyID, ws.TypeSubscriptionEnded, map[string]int64{"company_id": companyID})
	return nil
}

func (s *WebhookService) handleInvoice(raw json.RawMessage, status string) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}
	if inv.Customer == nil {
		log.Printf("webhook: invoice %s without customer", inv.ID)
		return nil
	}

	companyID, err := s.resolveCompanyByCustomer(inv.Customer.ID)
	if err != nil {
		return err
	}

	amount := float64(inv.AmountPaid) / 100
	if status == model.BillingStatusFailed {
		amount = float64(inv.AmountDue) / 100
	}

	plan := ""
	if sub, err := s.subRepo.GetLatestByCustomer(inv.Customer.ID); err == nil {
		plan = sub.Plan
	}

	record := &model.BillingRecord{
		StripeInvoiceID:  inv.ID,
		CompanyID:        companyID,
		StripeCustomerID: inv.Customer.ID,
		BillingDate:      time.Unix(inv.Created, 0).UTC(),
		Status:           status,
		Amount:           amount,
		Plan:             plan,
		PDFLink:          inv.InvoicePDF,
		PaymentStatus:    string(inv.Status),
	}
	if err := s.billingRepo.UpsertByInvoiceID(record); err != nil {
		return err
	}

	s.notifyAdmins(companyID, ws.TypeBillingRecord, record)
	return nil
}

func (s *WebhookService) handlePaymentMethodAttached(raw json.RawMessage) error {
	var pm stripe.PaymentMethod
	if err := json.Unmarshal(raw, &pm); err != nil {
		return fmt.Errorf("parse payment method: %w", err)
	}
	if pm.Customer == nil {
		log.Printf("webhook: payment method %s without customer", pm.ID)
		return nil
	}

	companyID, err := s.resolveCompanyByCustomer(pm.Customer.ID)
	if err != nil {
		return err
	}

	record := &model.PaymentMethod{
		StripePaymentMethodID: pm.ID,
		CompanyID:             companyID,
		StripeCustomerID:      pm.Customer.ID,
		Type:                  string(pm.Type),
	}
	if pm.Card != nil {
		record.Last4 = pm.Card.Last4
		record.ExpMonth = int(pm.Card.ExpMonth)
		record.ExpYear = int(pm.Card.ExpYear)
	}
	if err := s.pmRepo.Upsert(record); err != nil {
		return err
	}

	s.notifyAdmins(companyID, ws.TypePaymentMethodAdded, record)
	return nil
}

// olderThanStored reports whether the stored row was written by a newer
// event. Upserts from stale events are skipped so out-of-order delivery
// cannot roll the row backwards.
func (s *WebhookService) olderThanStored(stripeSubscriptionID string, eventTime time.Time) (bool, error) {
	existing, err := s.subRepo.GetByStripeID(stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if existing.LastEventAt != nil && eventTime.Before(*existing.LastEventAt) {
		log.Printf("webhook: stale event for subscription %s (%s before %s)",
			stripeSubscriptionID, eventTime, existing.LastEventAt)
		return true, nil
	}
	return false, nil
}

// carryForward keeps fields an event does not carry from being blanked by
// the upsert's column assignments.
func (s *WebhookService) carryForward(sub *model.Subscription) {
	existing, err := s.subRepo.GetByStripeID(sub.StripeSubscriptionID)
	if err != nil {
		return
	}
	if sub.PortalURL == "" {
		sub.PortalURL = existing.PortalURL
	}
	if sub.Plan == "" {
		sub.Plan = existing.Plan
	}
	if sub.UserLimit == 0 {
		sub.UserLimit = existing.UserLimit
	}
	if sub.BillingInterval == "" {
		sub.BillingInterval = existing.BillingInterval
	}
	if sub.CurrentPeriodEnd == nil {
		sub.CurrentPeriodEnd = existing.CurrentPeriodEnd
	}
	if sub.Amount == 0 {
		sub.Amount = existing.Amount
	}
}

func (s *WebhookService) resolveSubscriptionCompany(stripeSub *stripe.Subscription) (int64, error) {
	if id, err := s.companyIDFromMetadata(stripeSub.Metadata); err == nil {
		return id, nil
	}
	if existing, err := s.subRepo.GetByStripeID(stripeSub.ID); err == nil {
		return existing.CompanyID, nil
	}
	if stripeSub.Customer != nil {
		return s.resolveCompanyByCustomer(stripeSub.Customer.ID)
	}
	return 0, ErrUnknownTenant
}

func (s *WebhookService) companyIDFromMetadata(metadata map[string]string) (int64, error) {
	raw, ok := metadata[payment.MetadataCompanyID]
	if !ok || raw == "" {
		return 0, ErrUnknownTenant
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrUnknownTenant
	}
	return id, nil
}

func (s *WebhookService) resolveCompanyByCustomer(stripeCustomerID string) (int64, error) {
	company, err := s.companyRepo.GetByStripeCustomerID(stripeCustomerID)
	if err == nil {
		return company.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	sub, err := s.subRepo.GetLatestByCustomer(stripeCustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUnknownTenant
		}
		return 0, err
	}
	return sub.CompanyID, nil
}

func (s *WebhookService) notifyAdmins(companyID int64, msgType string, data interface{}) {
	if s.hub == nil {
		return
	}
	adminIDs, err := s.userRepo.ListAdminIDsByCompany(companyID)
	if err != nil || len(adminIDs) == 0 {
		return
	}
	s.hub.SendToUsers(adminIDs, &ws.Message{Type: msgType, Data: data})
}

func (s *WebhookService) planForPrice(priceID string) (string, int) {
	for name, level := range s.cfg.Plans {
		if level.PriceID == priceID {
			return name, level.UserLimit
		}
	}
	return "", 0
}
