package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/config"
	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/repository"
	"github.com/stratushq/tenant_go_server/internal/testutil"
)

type fakeProvider struct {
	portalURL string
	attached  map[string]int64
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		portalURL: "https://billing.stripe.com/p/session/test",
		attached:  make(map[string]int64),
	}
}

func (f *fakeProvider) AttachSubscriptionMetadata(subscriptionID string, companyID int64) error {
	f.attached[subscriptionID] = companyID
	return nil
}

func (f *fakeProvider) CreateBillingPortalSession(customerID string) (string, error) {
	return f.portalURL, nil
}

func newWebhookService(t *testing.T, db *gorm.DB, provider *fakeProvider) *WebhookService {
	t.Helper()

	cfg := &config.Config{
		Plans: map[string]config.PlanLevel{
			"starter": {UserLimit: 10, Price: 49, PriceID: "price_starter"},
			"team":    {UserLimit: 50, Price: 99, PriceID: "price_team"},
		},
	}
	return NewWebhookService(
		repository.NewSubscriptionRepository(db),
		repository.NewBillingRepository(db),
		repository.NewPaymentMethodRepository(db),
		repository.NewUserRepository(db),
		repository.NewCompanyRepository(db),
		repository.NewWebhookEventRepository(db),
		provider,
		nil, // hub
		nil, // email
		cfg,
	)
}

func stripeEvent(id, eventType string, created time.Time, payload string) stripe.Event {
	return stripe.Event{
		ID:      id,
		Type:    stripe.EventType(eventType),
		Created: created.Unix(),
		Data:    &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

func TestWebhookService_CheckoutCompleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db)
	provider := newFakeProvider()
	svc := newWebhookService(t, db, provider)

	payload := fmt.Sprintf(`{
		"id": "cs_1",
		"customer": "cus_1",
		"subscription": "sub_1",
		"amount_total": 4900,
		"metadata": {"companyId": "%d"}
	}`, company.ID)

	err := svc.HandleEvent(stripeEvent("evt_1", "checkout.session.completed", time.Now(), payload))
	require.NoError(t, err)

	sub, err := repository.NewSubscriptionRepository(db).GetByStripeID("sub_1")
	require.NoError(t, err)
	assert.Equal(t, company.ID, sub.CompanyID)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, 49.0, sub.Amount)
	assert.NotEmpty(t, sub.PortalURL)

	// Tenant id stamped onto the remote subscription for later events.
	assert.Equal(t, company.ID, provider.attached["sub_1"])

	// Customer id persisted on the company.
	got, err := repository.NewCompanyRepository(db).GetByID(company.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StripeCustomerID)
	assert.Equal(t, "cus_1", *got.StripeCustomerID)
}

func TestWebhookService_DuplicateEventSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db)
	svc := newWebhookService(t, db, newFakeProvider())

	payload := fmt.Sprintf(`{
		"id": "cs_1",
		"customer": "cus_1",
		"subscription": "sub_1",
		"amount_total": 4900,
		"metadata": {"companyId": "%d"}
	}`, company.ID)

	event := stripeEvent("evt_dup", "checkout.session.completed", time.Now(), payload)
	require.NoError(t, svc.HandleEvent(event))
	require.NoError(t, svc.HandleEvent(event))

	var count int64
	require.NoError(t, db.Model(&model.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.Model(&model.WebhookEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWebhookService_SubscriptionUpdatedResolvesPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db)
	svc := newWebhookService(t, db, newFakeProvider())

	periodEnd := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	payload := fmt.Sprintf(`{
		"id": "sub_1",
		"status": "active",
		"customer": "cus_1",
		"metadata": {"companyId": "%d"},
		"items": {"data": [{
			"current_period_end": %d,
			"price": {
				"id": "price_team",
				"unit_amount": 9900,
				"recurring": {"interval": "month"}
			}
		}]}
	}`, company.ID, periodEnd.Unix())

	err := svc.HandleEvent(stripeEvent("evt_1", "customer.subscription.updated", time.Now(), payload))
	require.NoError(t, err)

	sub, err := repository.NewSubscriptionRepository(db).GetByStripeID("sub_1")
	require.NoError(t, err)
	assert.Equal(t, "team", sub.Plan)
	assert.Equal(t, 50, sub.UserLimit)
	assert.Equal(t, 99.0, sub.Amount)
	assert.Equal(t, "month", sub.BillingInterval)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.True(t, sub.CurrentPeriodEnd.Equal(periodEnd))
}

func TestWebhookService_OutOfOrderEventsLastWriterWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db)
	svc := newWebhookService(t, db, newFakeProvider())

	newer := time.Now().UTC().Truncate(time.Second)
	older := newer.Add(-time.Minute)

	payload := func(status string) string {
		return fmt.Sprintf(`{
			"id": "sub_1",
			"status": "%s",
			"customer": "cus_1",
			"metadata": {"companyId": "%d"}
		}`, status, company.ID)
	}

	// The newer event arrives first.
	require.NoError(t, svc.HandleEvent(stripeEvent("evt_new", "customer.subscription.updated", newer, payload("active"))))
	// A delayed older event must not roll the status backwards.
	require.NoError(t, svc.HandleEvent(stripeEvent("evt_old", "customer.subscription.updated", older, payload("past_due"))))

	sub, err := repository.NewSubscriptionRepository(db).GetByStripeID("sub_1")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)
}

func TestWebhookService_SubscriptionDeletedDeactivatesUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db)
	for i := 0; i < 3; i++ {
		testutil.TestUser(t, db, testutil.WithCompany(company.ID))
	}
	testutil.TestSubscription(t, db, company.ID,
		testutil.WithStripeSubscriptionID("sub_1"),
		testutil.WithCustomerID("cus_1"))

	svc := newWebhookService(t, db, newFakeProvider())

	err := svc.HandleEvent(stripeEvent("evt_1", "customer.subscription.deleted", time.Now(), `{"id": "sub_1", "status": "canceled"}`))
	require.NoError(t, err)

	// The local row is gone along with the tenant's access.
	_, err = repository.NewSubscriptionRepository(db).GetByStripeID("sub_1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var inactive int64
	require.NoError(t, db.Model(&model.User{}).
		Where("company_id = ? AND status = ?", company.ID, model.UserStatusInactive).
		Count(&inactive).Error)
	assert.Equal(t, int64(3), inactive)
}

func TestWebhookService_TerminalUpdateEndsAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db)
	testutil.TestUser(t, db, testutil.WithCompany(company.ID))
	testutil.TestSubscription(t, db, company.ID,
		testutil.WithStripeSubscriptionID("sub_1"),
		testutil.WithCustomerID("cus_1"))

	svc := newWebhookService(t, db, newFakeProvider())

	payload := fmt.Sprintf(`{"id": "sub_1", "status": "unpaid", "customer": "cus_1", "metadata": {"companyId": "%d"}}`, company.ID)
	require.NoError(t, svc.HandleEvent(stripeEvent("evt_1", "customer.subscription.updated", time.Now(), payload)))

	_, err := repository.NewSubscriptionRepository(db).GetByStripeID("sub_1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var inactive int64
	require.NoError(t, db.Model(&model.User{}).
		Where("company_id = ? AND status = ?", company.ID, model.UserStatusInactive).
		Count(&inactive).Error)
	assert.Equal(t, int64(1), inactive)
}

func TestWebhookService_PastDueUpdatesStatusOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db)
	testutil.TestUser(t, db, testutil.WithCompany(company.ID))
	sub := testutil.TestSubscription(t, db, company.ID,
		testutil.WithStripeSubscriptionID("sub_1"),
		testutil.WithCustomerID("cus_1"))

	svc := newWebhookService(t, db, newFakeProvider())

	payload := fmt.Sprintf(`{"id": "sub_1", "status": "past_due", "customer": "cus_1", "metadata": {"companyId": "%d"}}`, company.ID)
	require.NoError(t, svc.HandleEvent(stripeEvent("evt_1", "customer.subscription.updated", time.Now(), payload)))

	got, err := repository.NewSubscriptionRepository(db).GetByStripeID("sub_1")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusPastDue, got.Status)
	// Plan details survive and nobody is deactivated.
	assert.Equal(t, sub.Plan, got.Plan)
	assert.Equal(t, sub.UserLimit, got.UserLimit)

	var active int64
	require.NoError(t, db.Model(&model.User{}).
		Where("company_id = ? AND status = ?", company.ID, model.UserStatusActive).
		Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestWebhookService_InvoicePaidReplayUpsertsOneRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db, testutil.WithStripeCustomer("cus_1"))
	svc := newWebhookService(t, db, newFakeProvider())

	payload := `{
		"id": "in_1",
		"customer": "cus_1",
		"status": "paid",
		"amount_paid": 4900,
		"invoice_pdf": "https://pay.stripe.com/invoice/in_1/pdf"
	}`

	// Same invoice redelivered under distinct event ids.
	require.NoError(t, svc.HandleEvent(stripeEvent("evt_a", "invoice.paid", time.Now(), payload)))
	require.NoError(t, svc.HandleEvent(stripeEvent("evt_b", "invoice.paid", time.Now(), payload)))

	var count int64
	require.NoError(t, db.Model(&model.BillingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	record, err := repository.NewBillingRepository(db).GetByInvoiceID("in_1")
	require.NoError(t, err)
	assert.Equal(t, company.ID, record.CompanyID)
	assert.Equal(t, model.BillingStatusPaid, record.Status)
	assert.Equal(t, 49.0, record.Amount)
	assert.NotEmpty(t, record.PDFLink)
}

func TestWebhookService_InvoiceForUnknownCustomer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newWebhookService(t, db, newFakeProvider())

	err := svc.HandleEvent(stripeEvent("evt_1", "invoice.paid", time.Now(), `{"id": "in_1", "customer": "cus_nobody", "amount_paid": 100}`))
	assert.ErrorIs(t, err, ErrUnknownTenant)

	var count int64
	require.NoError(t, db.Model(&model.BillingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestWebhookService_FailedEventRetriedOnRedelivery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newWebhookService(t, db, newFakeProvider())

	payload := `{"id": "in_1", "customer": "cus_1", "status": "paid", "amount_paid": 4900}`
	event := stripeEvent("evt_1", "invoice.paid", time.Now(), payload)

	// First delivery fails: nobody owns the customer yet.
	require.Error(t, svc.HandleEvent(event))

	// The tenant link appears (e.g. checkout event arrived late), then
	// Stripe redelivers the same event id.
	testutil.TestCompany(t, db, testutil.WithStripeCustomer("cus_1"))
	require.NoError(t, svc.HandleEvent(event))

	_, err := repository.NewBillingRepository(db).GetByInvoiceID("in_1")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.WebhookEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWebhookService_PaymentMethodAttached(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	company := testutil.TestCompany(t, db, testutil.WithStripeCustomer("cus_1"))
	svc := newWebhookService(t, db, newFakeProvider())

	payload := `{
		"id": "pm_1",
		"customer": "cus_1",
		"type": "card",
		"card": {"last4": "4242", "exp_month": 12, "exp_year": 2030}
	}`

	err := svc.HandleEvent(stripeEvent("evt_1", "payment_method.attached", time.Now(), payload))
	require.NoError(t, err)

	pm, err := repository.NewPaymentMethodRepository(db).GetByStripeID("pm_1")
	require.NoError(t, err)
	assert.Equal(t, company.ID, pm.CompanyID)
	assert.Equal(t, "card", pm.Type)
	assert.Equal(t, "4242", pm.Last4)
	assert.Equal(t, 12, pm.ExpMonth)
	assert.Equal(t, 2030, pm.ExpYear)
}

func TestWebhookService_UnhandledTypeAcknowledged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := newWebhookService(t, db, newFakeProvider())

	err := svc.HandleEvent(stripeEvent("evt_1", "charge.refunded", time.Now(), `{"id": "ch_1"}`))
	require.NoError(t, err)

	var event model.WebhookEvent
	require.NoError(t, db.Where("stripe_event_id = ?", "evt_1").First(&event).Error)
	require.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ProcessingError)
}
