package payment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	webhookEvents []*models.PaymentWebhookEvent
	sessions      map[string]*models.ScrapeSession
	packs         map[string]*models.Pack
	payments      map[string]*models.Payment
	mvola         map[string]*models.MvolaPayment
	balances      map[uint]int64
	ledger        []*models.CreditTransaction
	nextID        uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		sessions: map[string]*models.ScrapeSession{},
		packs:    map[string]*models.Pack{},
		payments: map[string]*models.Payment{},
		mvola:    map[string]*models.MvolaPayment{},
		balances: map[uint]int64{},
	}
}

func (f *fakeRepository) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	for _, e := range f.webhookEvents {
		if e.Provider == event.Provider && e.ProviderEventID == event.ProviderEventID {
			return false, e, nil
		}
	}
	event.ID = f.id()
	f.webhookEvents = append(f.webhookEvents, event)
	return true, event, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.webhookEvents {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetSessionByPublicID(publicID string) (*models.ScrapeSession, error) {
	if s, ok := f.sessions[publicID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetSessionByID(id uint) (*models.ScrapeSession, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SaveSession(session *models.ScrapeSession) error {
	f.sessions[session.PublicID] = session
	return nil
}

func (f *fakeRepository) GetPackByPackID(packID string) (*models.Pack, error) {
	if p, ok := f.packs[packID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetPaymentByCheckoutID(checkoutID string) (*models.Payment, error) {
	if p, ok := f.payments[checkoutID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreatePayment(p *models.Payment) error {
	p.ID = f.id()
	f.payments[p.CheckoutSessionID] = p
	return nil
}

func (f *fakeRepository) SavePayment(p *models.Payment) error {
	f.payments[p.CheckoutSessionID] = p
	return nil
}

func (f *fakeRepository) GetMvolaByCorrelationID(correlationID string) (*models.MvolaPayment, error) {
	if p, ok := f.mvola[correlationID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateMvolaPayment(p *models.MvolaPayment) error {
	p.ID = f.id()
	f.mvola[p.CorrelationID] = p
	return nil
}

func (f *fakeRepository) SaveMvolaPayment(p *models.MvolaPayment) error {
	f.mvola[p.CorrelationID] = p
	return nil
}

func (f *fakeRepository) AdjustCredits(userID uint, amount int64, txType, serviceType, description, referenceID string) (*models.CreditTransaction, error) {
	newBalance := f.balances[userID] + amount
	if newBalance < 0 {
		return nil, ErrInsufficientCredits
	}
	f.balances[userID] = newBalance
	entry := &models.CreditTransaction{
		ID:           f.id(),
		UserID:       userID,
		Type:         txType,
		ServiceType:  serviceType,
		Amount:       amount,
		BalanceAfter: newBalance,
		Description:  description,
		ReferenceID:  referenceID,
	}
	f.ledger = append(f.ledger, entry)
	return entry, nil
}

func newTestService(repo Repository) *Service {
	return &Service{repo: repo, downloadSecret: "service-test-secret", downloadTTL: time.Hour}
}

func seedSessionAndPack(repo *fakeRepository) (*models.ScrapeSession, *models.Pack) {
	session := &models.ScrapeSession{
		ID:          1,
		PublicID:    "sess_test",
		UserID:      7,
		ServiceType: models.SERVICE_MARKETPLACE,
		Status:      models.SESSION_STATUS_FINISHED,
	}
	pack := &models.Pack{PackID: "pack-pro", Name: "Pack Pro", NbDownloads: 1000, PriceEURCents: 4900, PriceMGA: 245000}
	repo.sessions[session.PublicID] = session
	repo.packs[pack.PackID] = pack
	return session, pack
}

func TestRecordWebhookEventDedup(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	in := WebhookEventInput{Provider: "Stripe", ProviderEventID: "evt_1", EventType: "checkout.session.completed", PayloadJSON: "{}", SignatureValid: true}

	created, event, err := svc.RecordWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "stripe", event.Provider)

	created, replay, err := svc.RecordWebhookEvent(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, event.ID, replay.ID)
}

func TestRecordWebhookEventRequiresIdentity(t *testing.T) {
	svc := newTestService(newFakeRepository())
	_, _, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{Provider: "stripe"})
	assert.Error(t, err)
}

func TestHandleCheckoutCompletedGrantsCreditsOnce(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	session, pack := seedSessionAndPack(repo)
	ctx := context.Background()

	in := CheckoutCompletedInput{
		CheckoutSessionID: "cs_1",
		SessionPublicID:   session.PublicID,
		PackID:            pack.PackID,
		PaymentIntentID:   "pi_1",
		PaymentStatus:     "paid",
		AmountCents:       4900,
		Currency:          "eur",
	}

	got, err := svc.HandleCheckoutCompleted(ctx, in)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, pack.PackID, got.PackID)
	assert.NotEmpty(t, got.DownloadToken)
	assert.Equal(t, int64(1000), repo.balances[session.UserID])
	require.Len(t, repo.ledger, 1)
	assert.Equal(t, models.CREDIT_TX_CREDIT, repo.ledger[0].Type)
	assert.Equal(t, ServiceTypePackPurchase, repo.ledger[0].ServiceType)

	// replay of the same checkout must not double-credit
	_, err = svc.HandleCheckoutCompleted(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), repo.balances[session.UserID])
	assert.Len(t, repo.ledger, 1)
}

func TestHandleCheckoutCompletedRejectsUnpaidStatus(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	session, pack := seedSessionAndPack(repo)

	_, err := svc.HandleCheckoutCompleted(context.Background(), CheckoutCompletedInput{
		CheckoutSessionID: "cs_2",
		SessionPublicID:   session.PublicID,
		PackID:            pack.PackID,
		PaymentStatus:     "unpaid",
	})
	assert.Error(t, err)
	assert.False(t, session.IsPaid)
	assert.Empty(t, repo.ledger)
}

func TestFailPaymentIsTerminalOnce(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	repo.payments["cs_3"] = &models.Payment{CheckoutSessionID: "cs_3", Status: models.PAYMENT_STATUS_PENDING}

	require.NoError(t, svc.FailPayment(context.Background(), "cs_3", "checkout_expired"))
	assert.Equal(t, models.PAYMENT_STATUS_FAILED, repo.payments["cs_3"].Status)
	assert.Equal(t, "checkout_expired", repo.payments["cs_3"].FailureCode)

	// a later failure event must not overwrite the terminal state
	require.NoError(t, svc.FailPayment(context.Background(), "cs_3", "other_reason"))
	assert.Equal(t, "checkout_expired", repo.payments["cs_3"].FailureCode)
}

func TestMvolaCallbackCompletedMarksSessionPaid(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	session, pack := seedSessionAndPack(repo)
	ctx := context.Background()

	_, err := svc.InitiateMvola(ctx, session, pack, "0341234567", "corr-1")
	require.NoError(t, err)

	p, err := svc.HandleMvolaCallback(ctx, MvolaCallbackInput{CorrelationID: "corr-1", Status: MvolaStatusCompleted, TransactionRef: "tx-9"})
	require.NoError(t, err)
	assert.Equal(t, models.MVOLA_STATUS_COMPLETED, p.Status)
	assert.True(t, session.IsPaid)
	assert.Equal(t, int64(1000), repo.balances[session.UserID])

	// replayed callback is a no-op
	_, err = svc.HandleMvolaCallback(ctx, MvolaCallbackInput{CorrelationID: "corr-1", Status: MvolaStatusCompleted, TransactionRef: "tx-9"})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), repo.balances[session.UserID])
	assert.Len(t, repo.ledger, 1)
}

func TestMvolaCallbackFailed(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	session, pack := seedSessionAndPack(repo)
	ctx := context.Background()

	_, err := svc.InitiateMvola(ctx, session, pack, "0341234567", "corr-2")
	require.NoError(t, err)

	p, err := svc.HandleMvolaCallback(ctx, MvolaCallbackInput{CorrelationID: "corr-2", Status: MvolaStatusFailed})
	require.NoError(t, err)
	assert.Equal(t, models.MVOLA_STATUS_FAILED, p.Status)
	assert.False(t, session.IsPaid)
	assert.Empty(t, repo.ledger)
}

func TestMvolaCallbackUnknownCorrelation(t *testing.T) {
	svc := newTestService(newFakeRepository())
	_, err := svc.HandleMvolaCallback(context.Background(), MvolaCallbackInput{CorrelationID: "corr-missing", Status: MvolaStatusCompleted})
	assert.Error(t, err)
}

func TestMarkWebhookProcessedStoresError(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	_, event, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{Provider: "stripe", ProviderEventID: "evt_err", EventType: "x", PayloadJSON: "{}"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkWebhookProcessed(ctx, event.ID, fmt.Errorf("boom")))
	assert.NotNil(t, event.ProcessedAt)
	assert.Equal(t, "boom", event.ProcessingError)
}
