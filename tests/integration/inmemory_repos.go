package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"checkout-payments/internal/core/domain"
	"checkout-payments/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu      sync.RWMutex
	users   map[string]*domain.User
	history map[string]map[string]bool
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{
		users:   make(map[string]*domain.User),
		history: make(map[string]map[string]bool),
	}
}

func (r *inMemoryUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.StripeCustomerID = &customerID
	return nil
}

func (r *inMemoryUserRepo) SetDefaultCard(ctx context.Context, userID string, paymentMethodID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.DefaultCardID = paymentMethodID
	return nil
}

func (r *inMemoryUserRepo) BalanceForUpdate(ctx context.Context, tx pgx.Tx, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s not found", userID)
	}
	return u.WalletBalance, nil
}

func (r *inMemoryUserRepo) CreditWallet(ctx context.Context, tx pgx.Tx, userID string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s not found", userID)
	}
	u.WalletBalance += amount
	return u.WalletBalance, nil
}

func (r *inMemoryUserRepo) DeductWallet(ctx context.Context, tx pgx.Tx, userID string, amount int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return false, fmt.Errorf("user %s not found", userID)
	}
	if u.WalletBalance < amount {
		return false, nil
	}
	u.WalletBalance -= amount
	return true, nil
}

func (r *inMemoryUserRepo) AppendOrderHistory(ctx context.Context, tx pgx.Tx, userID, orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return false, fmt.Errorf("user %s not found", userID)
	}
	if r.history[userID] == nil {
		r.history[userID] = make(map[string]bool)
	}
	if r.history[userID][orderID] {
		return false, nil
	}
	r.history[userID][orderID] = true
	return true, nil
}

func (r *inMemoryUserRepo) OrderHistory(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.history[userID]))
	for id := range r.history[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// balance reads the current wallet balance outside any port method, for
// test assertions.
func (r *inMemoryUserRepo) balance(userID string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[userID]; ok {
		return u.WalletBalance
	}
	return 0
}

// --- In-Memory Card Repo ---

type inMemoryCardRepo struct {
	mu    sync.RWMutex
	cards map[string][]domain.SavedCard
}

func newInMemoryCardRepo() *inMemoryCardRepo {
	return &inMemoryCardRepo{cards: make(map[string][]domain.SavedCard)}
}

func (r *inMemoryCardRepo) ListByUser(ctx context.Context, userID string) ([]domain.SavedCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SavedCard, len(r.cards[userID]))
	copy(out, r.cards[userID])
	return out, nil
}

func (r *inMemoryCardRepo) Exists(ctx context.Context, userID, paymentMethodID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cards[userID] {
		if c.ID == paymentMethodID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryCardRepo) Add(ctx context.Context, userID string, card domain.SavedCard) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cards[userID] {
		if c.ID == card.ID {
			return false, nil
		}
	}
	r.cards[userID] = append(r.cards[userID], card)
	return true, nil
}

func (r *inMemoryCardRepo) Remove(ctx context.Context, userID, paymentMethodID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.cards[userID]
	for i, c := range list {
		if c.ID == paymentMethodID {
			r.cards[userID] = append(list[:i:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryCardRepo) ReplaceAll(ctx context.Context, tx pgx.Tx, userID string, cards []domain.SavedCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]domain.SavedCard, len(cards))
	copy(cp, cards)
	r.cards[userID] = cp
	return nil
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *inMemoryOrderRepo) add(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

// MarkPaid mirrors the conditional UPDATE of the Postgres repo: the
// transition applies only while payment_status is not yet paid, so
// concurrent deliveries race for a single winner.
func (r *inMemoryOrderRepo) MarkPaid(ctx context.Context, tx pgx.Tx, params ports.MarkPaidParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[params.OrderID]
	if !ok || o.PaymentStatus == domain.PaymentStatusPaid {
		return false, nil
	}
	now := time.Now().UTC()
	pi, ch := params.PaymentIntentID, params.ChargeID
	o.PaymentStatus = domain.PaymentStatusPaid
	o.Status = domain.OrderStatusConfirmed
	o.Verified = true
	o.PaymentIntentID = &pi
	o.ChargeID = &ch
	o.PaidAt = &now
	o.UpdatedAt = now
	return true, nil
}

func (r *inMemoryOrderRepo) MarkFailed(ctx context.Context, orderID, reason, paymentIntentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return false, nil
	}
	o.PaymentStatus = domain.PaymentStatusFailed
	o.PaymentFailureReason = &reason
	o.PaymentIntentID = &paymentIntentID
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

// --- In-Memory Wallet Transaction Repo ---

type inMemoryWalletTxRepo struct {
	mu       sync.RWMutex
	rows     []domain.WalletTransaction
	byIntent map[string]bool
}

func newInMemoryWalletTxRepo() *inMemoryWalletTxRepo {
	return &inMemoryWalletTxRepo{byIntent: make(map[string]bool)}
}

// Create mirrors the ledger's unique payment_intent_id index: a second
// row for the same intent is rejected without error.
func (r *inMemoryWalletTxRepo) Create(ctx context.Context, tx pgx.Tx, wtx *domain.WalletTransaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wtx.PaymentIntentID != "" && r.byIntent[wtx.PaymentIntentID] {
		return false, nil
	}
	if wtx.PaymentIntentID != "" {
		r.byIntent[wtx.PaymentIntentID] = true
	}
	r.rows = append(r.rows, *wtx)
	return true, nil
}

func (r *inMemoryWalletTxRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.WalletTransaction, 0, limit)
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *inMemoryWalletTxRepo) count(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, row := range r.rows {
		if row.UserID == userID {
			n++
		}
	}
	return n
}

// --- In-Memory Reconciliation Log Repo ---

type inMemoryReconLogRepo struct {
	mu   sync.RWMutex
	rows []domain.ReconciliationRecord
}

func newInMemoryReconLogRepo() *inMemoryReconLogRepo {
	return &inMemoryReconLogRepo{}
}

func (r *inMemoryReconLogRepo) Create(ctx context.Context, rec *domain.ReconciliationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *rec)
	return nil
}

func (r *inMemoryReconLogRepo) records() []domain.ReconciliationRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ReconciliationRecord, len(r.rows))
	copy(out, r.rows)
	return out
}

// outcomes tallies recorded outcomes per kind, for test assertions.
func (r *inMemoryReconLogRepo) outcomes() map[domain.ReconcileOutcome]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tally := make(map[domain.ReconcileOutcome]int)
	for _, rec := range r.rows {
		tally[rec.Outcome]++
	}
	return tally
}

// --- In-Memory Transactor ---

// noopTx satisfies pgx.Tx for services that bracket repo calls in a
// transaction. The in-memory repos are individually synchronized, so
// Commit and Rollback carry no meaning here.
//
// NOTE: this drops the atomicity a real transaction provides; tests that
// depend on cross-repo invariants assert on final state instead.
type noopTx struct{}

func (noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(ctx context.Context) error          { return nil }
func (noopTx) Rollback(ctx context.Context) error        { return nil }
func (noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (noopTx) Conn() *pgx.Conn                                               { return nil }

type inMemoryTransactor struct{}

func (inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// --- Fake Payment Processor ---

// fakeProcessor stands in for the Stripe client. Identifiers are
// sequential so tests can predict them; confirmStatus scripts the status
// returned for confirmed (off-session) intents.
type fakeProcessor struct {
	mu            sync.Mutex
	intentSeq     int
	setupSeq      int
	customerSeq   int
	intents       map[string]ports.CreateIntentParams
	attached      map[string]string // payment method -> customer
	defaults      map[string]string // customer -> payment method
	detached      []string
	confirmStatus string // status for Confirm intents; "" means succeeded
	createErr     error  // scripted CreatePaymentIntent failure
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		intents:  make(map[string]ports.CreateIntentParams),
		attached: make(map[string]string),
		defaults: make(map[string]string),
	}
}

func (p *fakeProcessor) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customerSeq++
	return fmt.Sprintf("cus_test_%d", p.customerSeq), nil
}

func (p *fakeProcessor) CreatePaymentIntent(ctx context.Context, params ports.CreateIntentParams) (*ports.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.intentSeq++
	id := fmt.Sprintf("pi_test_%d", p.intentSeq)
	p.intents[id] = params

	status := "requires_payment_method"
	chargeID := ""
	if params.Confirm && params.PaymentMethodID != "" {
		status = "succeeded"
		if p.confirmStatus != "" {
			status = p.confirmStatus
		}
	}
	if status == "succeeded" {
		chargeID = fmt.Sprintf("ch_test_%d", p.intentSeq)
	}
	return &ports.PaymentIntent{
		ID:             id,
		ClientSecret:   id + "_secret_test",
		Status:         status,
		Amount:         params.Amount,
		LatestChargeID: chargeID,
	}, nil
}

func (p *fakeProcessor) CreateSetupIntent(ctx context.Context, customerID, userID string) (*ports.SetupIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setupSeq++
	id := fmt.Sprintf("seti_test_%d", p.setupSeq)
	return &ports.SetupIntent{
		ID:           id,
		ClientSecret: id + "_secret_test",
		Status:       "requires_payment_method",
	}, nil
}

func (p *fakeProcessor) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*domain.PaymentMethod, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &domain.PaymentMethod{
		ID:         paymentMethodID,
		Type:       "card",
		CustomerID: p.attached[paymentMethodID],
		Card: &domain.CardDetails{
			Brand:    "visa",
			Last4:    "4242",
			ExpMonth: 12,
			ExpYear:  2030,
		},
	}, nil
}

func (p *fakeProcessor) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*domain.PaymentMethod, error) {
	p.mu.Lock()
	p.attached[paymentMethodID] = customerID
	p.mu.Unlock()
	return p.GetPaymentMethod(ctx, paymentMethodID)
}

// DetachPaymentMethod rejects methods that were never attached with the
// processor's resource_missing code, matching how Stripe answers a
// detach for an unknown method.
func (p *fakeProcessor) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.attached[paymentMethodID]; !ok {
		return &ports.ProcessorError{
			Type:    "invalid_request_error",
			Code:    "resource_missing",
			Message: fmt.Sprintf("No such PaymentMethod: '%s'", paymentMethodID),
		}
	}
	delete(p.attached, paymentMethodID)
	p.detached = append(p.detached, paymentMethodID)
	return nil
}

func (p *fakeProcessor) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults[customerID] = paymentMethodID
	return nil
}

func (p *fakeProcessor) ListPaymentMethods(ctx context.Context, customerID string) ([]domain.SavedCard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var cards []domain.SavedCard
	for pm, cus := range p.attached {
		if cus == customerID {
			cards = append(cards, domain.SavedCard{
				ID: pm, Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030,
			})
		}
	}
	return cards, nil
}

// intentParams returns the params recorded for a created intent.
func (p *fakeProcessor) intentParams(intentID string) (ports.CreateIntentParams, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	params, ok := p.intents[intentID]
	return params, ok
}

func (p *fakeProcessor) intentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.intents)
}

// scriptConfirmStatus sets the status returned for confirmed intents.
func (p *fakeProcessor) scriptConfirmStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmStatus = status
}

// scriptCreateError makes the next CreatePaymentIntent calls fail.
func (p *fakeProcessor) scriptCreateError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createErr = err
}

func (p *fakeProcessor) defaultFor(customerID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defaults[customerID]
}

func (p *fakeProcessor) wasDetached(paymentMethodID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pm := range p.detached {
		if pm == paymentMethodID {
			return true
		}
	}
	return false
}
