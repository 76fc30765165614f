// Package memory is an in-process implementation of the repository
// interfaces. Units of work are serialised on a single lock and rolled back by
// restoring a snapshot. Calls made outside a unit of work wait for the running
// one, so a rollback never drops them.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository"
)

type state struct {
	nextID       int64
	trips        map[int64]domain.Trip
	transactions []domain.Transaction
	edges        map[int64]int64
	savings      map[int64]domain.SavingsAccount
	withdrawals  map[int64]domain.Withdrawal
	company      []domain.CompanyEntry
	settlements  map[int64]domain.Settlement
	settings     *domain.SettlementConfig
	drivers      map[int64]domain.DriverStatus
	bankAccounts map[int64]int64
}

func (st *state) clone() *state {
	c := *st
	c.trips = maps.Clone(st.trips)
	c.transactions = append([]domain.Transaction(nil), st.transactions...)
	c.edges = maps.Clone(st.edges)
	c.savings = maps.Clone(st.savings)
	c.withdrawals = maps.Clone(st.withdrawals)
	c.company = append([]domain.CompanyEntry(nil), st.company...)
	c.settlements = maps.Clone(st.settlements)
	c.drivers = maps.Clone(st.drivers)
	c.bankAccounts = maps.Clone(st.bankAccounts)
	return &c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state

	repository.Transactor
	repository.TripRepository
	repository.LedgerRepository
	repository.ReferralRepository
	repository.SavingsRepository
	repository.WithdrawalRepository
	repository.CompanyRepository
	repository.SettlementRepository
	repository.SettingsRepository
	repository.DriverRepository
	repository.BankAccountRepository
}

func NewStore() *Store {
	s := &Store{
		st: &state{
			trips:        make(map[int64]domain.Trip),
			edges:        make(map[int64]int64),
			savings:      make(map[int64]domain.SavingsAccount),
			withdrawals:  make(map[int64]domain.Withdrawal),
			settlements:  make(map[int64]domain.Settlement),
			drivers:      make(map[int64]domain.DriverStatus),
			bankAccounts: make(map[int64]int64),
		},
	}
	s.Transactor = &transactor{s: s}
	s.TripRepository = &tripRepo{s: s}
	s.LedgerRepository = &ledgerRepo{s: s}
	s.ReferralRepository = &referralRepo{s: s}
	s.SavingsRepository = &savingsRepo{s: s}
	s.WithdrawalRepository = &withdrawalRepo{s: s}
	s.CompanyRepository = &companyRepo{s: s}
	s.SettlementRepository = &settlementRepo{s: s}
	s.SettingsRepository = &settingsRepo{s: s}
	s.DriverRepository = &driverRepo{s: s}
	s.BankAccountRepository = &bankAccountRepo{s: s}
	return s
}

// Seeding helpers for the tables this service only reads.

func (s *Store) SetSettlementConfig(cfg domain.SettlementConfig) {
	defer s.lock(context.Background())()
	s.st.settings = &cfg
}

func (s *Store) SetDriverStatus(driverID int64, status domain.DriverStatus) {
	defer s.lock(context.Background())()
	s.st.drivers[driverID] = status
}

func (s *Store) AddBankAccount(bankAccountID, actorID int64) {
	defer s.lock(context.Background())()
	s.st.bankAccounts[bankAccountID] = actorID
}

func (s *Store) nextID() int64 {
	s.st.nextID++
	return s.st.nextID
}

type txKey struct{}

// lock guards one repository call. Outside a unit of work it also holds txMu
// so the call cannot land inside a snapshot that is later restored.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		s.mu.Lock()
		return func() {
			s.mu.Unlock()
			s.txMu.Unlock()
		}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// transactor runs one unit of work at a time. A failed unit restores the
// snapshot taken when it began.
type transactor struct {
	s *Store
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.Lock()
	snapshot := t.s.st.clone()
	t.s.mu.Unlock()

	restore := func() {
		t.s.mu.Lock()
		t.s.st = snapshot
		t.s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		restore()
		return err
	}
	if err := ctx.Err(); err != nil {
		restore()
		return err
	}
	return nil
}

type tripRepo struct{ s *Store }

func (r *tripRepo) Create(ctx context.Context, trip *domain.Trip) error {
	defer r.s.lock(ctx)()
	now := time.Now()
	trip.ID = r.s.nextID()
	if trip.Status == "" {
		trip.Status = domain.TripStatusCreated
	}
	trip.CreatedAt, trip.UpdatedAt = now, now
	r.s.st.trips[trip.ID] = *trip
	return nil
}

func (r *tripRepo) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.st.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: trip %d", domain.ErrNotFound, id)
	}
	return &t, nil
}

func (r *tripRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r *tripRepo) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.TripStatus) (bool, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.st.trips[id]
	if !ok || t.Status != from {
		return false, nil
	}
	now := time.Now()
	t.Status = to
	t.UpdatedAt = now
	switch to {
	case domain.TripStatusFinished:
		t.FinishedAt = &now
	case domain.TripStatusPaid:
		t.PaidAt = &now
	case domain.TripStatusCancelled:
		t.CancelledAt = &now
	}
	r.s.st.trips[id] = t
	return true, nil
}

func (r *tripRepo) Assign(ctx context.Context, id, driverID int64, fare decimal.Decimal) (bool, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.st.trips[id]
	if !ok || t.Status != domain.TripStatusCreated || t.DriverID != nil {
		return false, nil
	}
	now := time.Now()
	t.DriverID = &driverID
	t.FareAssigned = fare
	t.Status = domain.TripStatusAccepted
	t.AcceptedAt = &now
	t.UpdatedAt = now
	r.s.st.trips[id] = t
	return true, nil
}

type ledgerRepo struct{ s *Store }

// LockActor is a no-op: transactions are already serialised.
func (r *ledgerRepo) LockActor(context.Context, int64) error { return nil }

func (r *ledgerRepo) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	defer r.s.lock(ctx)()
	tx.ID = r.s.nextID()
	tx.CreatedAt = time.Now()
	r.s.st.transactions = append(r.s.st.transactions, *tx)
	return nil
}

func (r *ledgerRepo) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	defer r.s.lock(ctx)()
	for _, tx := range r.s.st.transactions {
		if tx.ID == id {
			return &tx, nil
		}
	}
	return nil, fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
}

func (r *ledgerRepo) GetTotals(ctx context.Context, actorID int64) (domain.LedgerTotals, error) {
	defer r.s.lock(ctx)()
	t := domain.LedgerTotals{}
	for _, tx := range r.s.st.transactions {
		if tx.ActorID != actorID {
			continue
		}
		if tx.Type == domain.TransactionTypeBonus {
			t.BonusIncome = t.BonusIncome.Add(tx.Income)
			t.BonusExpense = t.BonusExpense.Add(tx.Expense)
		} else {
			t.NonBonusIncome = t.NonBonusIncome.Add(tx.Income)
			t.NonBonusExpense = t.NonBonusExpense.Add(tx.Expense)
		}
	}
	return t, nil
}

func (r *ledgerRepo) ListTransactions(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.Transaction, int32, error) {
	defer r.s.lock(ctx)()
	var all []domain.Transaction
	for i := len(r.s.st.transactions) - 1; i >= 0; i-- {
		if tx := r.s.st.transactions[i]; tx.ActorID == actorID {
			all = append(all, tx)
		}
	}
	start := (int64(page) - 1) * int64(pageSize)
	if start >= int64(len(all)) {
		return nil, int32(len(all)), nil
	}
	end := min(int(start)+int(pageSize), len(all))
	return all[start:end], int32(len(all)), nil
}

func (r *ledgerRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.Transaction, error) {
	defer r.s.lock(ctx)()
	var out []domain.Transaction
	for _, tx := range r.s.st.transactions {
		if tx.TripID != nil && *tx.TripID == tripID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *ledgerRepo) SumByTypes(ctx context.Context, actorID int64, types []domain.TransactionType) (map[domain.TransactionType]decimal.Decimal, error) {
	defer r.s.lock(ctx)()
	wanted := make(map[domain.TransactionType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	sums := make(map[domain.TransactionType]decimal.Decimal)
	for _, tx := range r.s.st.transactions {
		if tx.ActorID == actorID && wanted[tx.Type] {
			sums[tx.Type] = sums[tx.Type].Add(tx.Income)
		}
	}
	return sums, nil
}

func (r *ledgerRepo) SetConfirmed(ctx context.Context, id int64, confirmed bool) error {
	defer r.s.lock(ctx)()
	for i := range r.s.st.transactions {
		if r.s.st.transactions[i].ID == id {
			r.s.st.transactions[i].Confirmed = confirmed
			return nil
		}
	}
	return fmt.Errorf("%w: transaction %d", domain.ErrNotFound, id)
}

type referralRepo struct{ s *Store }

func (r *referralRepo) GetParent(ctx context.Context, childID int64) (int64, bool, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.st.edges[childID]
	return p, ok, nil
}

func (r *referralRepo) ListChildren(ctx context.Context, parentIDs []int64) ([]domain.ReferralEdge, error) {
	defer r.s.lock(ctx)()
	parents := make(map[int64]bool, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = true
	}
	var out []domain.ReferralEdge
	for child, parent := range r.s.st.edges {
		if parents[parent] {
			out = append(out, domain.ReferralEdge{ChildID: child, ParentID: parent})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChildID < out[j].ChildID })
	return out, nil
}

func (r *referralRepo) Link(ctx context.Context, edge domain.ReferralEdge) error {
	defer r.s.lock(ctx)()
	if _, exists := r.s.st.edges[edge.ChildID]; exists {
		return fmt.Errorf("%w: referral edge already exists", domain.ErrConflict)
	}
	r.s.st.edges[edge.ChildID] = edge.ParentID
	return nil
}

type savingsRepo struct{ s *Store }

func (r *savingsRepo) Get(ctx context.Context, driverID int64) (*domain.SavingsAccount, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.st.savings[driverID]
	if !ok {
		return nil, fmt.Errorf("%w: savings account of driver %d", domain.ErrNotFound, driverID)
	}
	return &a, nil
}

func (r *savingsRepo) GetForUpdate(ctx context.Context, driverID int64) (*domain.SavingsAccount, error) {
	return r.Get(ctx, driverID)
}

func (r *savingsRepo) Credit(ctx context.Context, driverID int64, amount decimal.Decimal, maturity time.Time) (*domain.SavingsAccount, error) {
	defer r.s.lock(ctx)()
	now := time.Now()
	a, ok := r.s.st.savings[driverID]
	if !ok {
		a = domain.SavingsAccount{
			DriverID:     driverID,
			MaturityDate: maturity,
			Status:       domain.SavingsStatusSaving,
			CreatedAt:    now,
		}
	}
	a.Amount = a.Amount.Add(amount)
	a.UpdatedAt = now
	r.s.st.savings[driverID] = a
	return &a, nil
}

func (r *savingsRepo) Debit(ctx context.Context, driverID int64, amount decimal.Decimal) error {
	defer r.s.lock(ctx)()
	a, ok := r.s.st.savings[driverID]
	if !ok || a.Amount.LessThan(amount) {
		return fmt.Errorf("%w: savings of driver %d below %s", domain.ErrInsufficientFunds, driverID, amount)
	}
	a.Amount = a.Amount.Sub(amount)
	a.UpdatedAt = time.Now()
	r.s.st.savings[driverID] = a
	return nil
}

func (r *savingsRepo) MarkMatured(ctx context.Context, now time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for id, a := range r.s.st.savings {
		if a.Status == domain.SavingsStatusSaving && !a.MaturityDate.After(now) {
			a.Status = domain.SavingsStatusApproved
			a.UpdatedAt = now
			r.s.st.savings[id] = a
			n++
		}
	}
	return n, nil
}

type withdrawalRepo struct{ s *Store }

func (r *withdrawalRepo) Create(ctx context.Context, w *domain.Withdrawal) error {
	defer r.s.lock(ctx)()
	w.ID = r.s.nextID()
	w.RequestedAt = time.Now()
	r.s.st.withdrawals[w.ID] = *w
	return nil
}

func (r *withdrawalRepo) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	defer r.s.lock(ctx)()
	w, ok := r.s.st.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %d", domain.ErrNotFound, id)
	}
	return &w, nil
}

func (r *withdrawalRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return r.GetByID(ctx, id)
}

func (r *withdrawalRepo) Decide(ctx context.Context, id int64, status domain.WithdrawalStatus, decidedBy int64, at time.Time) (bool, error) {
	defer r.s.lock(ctx)()
	w, ok := r.s.st.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusPending {
		return false, nil
	}
	w.Status = status
	w.DecidedBy = &decidedBy
	w.DecidedAt = &at
	r.s.st.withdrawals[id] = w
	return true, nil
}

func (r *withdrawalRepo) ListByActor(ctx context.Context, actorID int64, statuses []domain.WithdrawalStatus) ([]domain.Withdrawal, error) {
	defer r.s.lock(ctx)()
	var out []domain.Withdrawal
	for _, w := range r.s.st.withdrawals {
		if w.ActorID != actorID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, w.Status) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func containsStatus(statuses []domain.WithdrawalStatus, s domain.WithdrawalStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

type companyRepo struct{ s *Store }

func (r *companyRepo) CreateEntry(ctx context.Context, e *domain.CompanyEntry) error {
	defer r.s.lock(ctx)()
	e.ID = r.s.nextID()
	e.CreatedAt = time.Now()
	r.s.st.company = append(r.s.st.company, *e)
	return nil
}

func (r *companyRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.CompanyEntry, error) {
	defer r.s.lock(ctx)()
	var out []domain.CompanyEntry
	for _, e := range r.s.st.company {
		if e.TripID != nil && *e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

type settlementRepo struct{ s *Store }

func (r *settlementRepo) Create(ctx context.Context, st *domain.Settlement) error {
	defer r.s.lock(ctx)()
	if _, exists := r.s.st.settlements[st.TripID]; exists {
		return fmt.Errorf("%w: settlement for trip %d already exists", domain.ErrConflict, st.TripID)
	}
	st.CreatedAt = time.Now()
	r.s.st.settlements[st.TripID] = *st
	return nil
}

func (r *settlementRepo) GetByTrip(ctx context.Context, tripID int64) (*domain.Settlement, error) {
	defer r.s.lock(ctx)()
	st, ok := r.s.st.settlements[tripID]
	if !ok {
		return nil, fmt.Errorf("%w: settlement for trip %d", domain.ErrNotFound, tripID)
	}
	return &st, nil
}

func (r *settlementRepo) ListSince(ctx context.Context, since time.Time) ([]domain.Settlement, error) {
	defer r.s.lock(ctx)()
	var out []domain.Settlement
	for _, st := range r.s.st.settlements {
		if !st.CreatedAt.Before(since) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type settingsRepo struct{ s *Store }

func (r *settingsRepo) GetSettlementConfig(ctx context.Context) (*domain.SettlementConfig, error) {
	defer r.s.lock(ctx)()
	if r.s.st.settings == nil {
		return nil, fmt.Errorf("%w: settlement settings", domain.ErrNotFound)
	}
	cfg := *r.s.st.settings
	return &cfg, nil
}

type driverRepo struct{ s *Store }

func (r *driverRepo) GetStatus(ctx context.Context, driverID int64) (domain.DriverStatus, error) {
	defer r.s.lock(ctx)()
	status, ok := r.s.st.drivers[driverID]
	if !ok {
		return "", fmt.Errorf("%w: driver %d", domain.ErrNotFound, driverID)
	}
	return status, nil
}

type bankAccountRepo struct{ s *Store }

func (r *bankAccountRepo) BelongsTo(ctx context.Context, bankAccountID, actorID int64) (bool, error) {
	defer r.s.lock(ctx)()
	owner, ok := r.s.st.bankAccounts[bankAccountID]
	return ok && owner == actorID, nil
}
