package service_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/service"
)

func TestSettlement_ReferenceSplit(t *testing.T) {
	f := newFixture(t)
	f.link(t, clientID, referrer1)
	f.link(t, referrer1, referrer2)
	f.credit(t, driverID, "2000", domain.TransactionTypeBonus)

	trip := f.finishedTrip(t, "100000")
	paid, err := f.trips.MarkPaid(f.ctx, client, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	byType := map[domain.TransactionType]domain.Transaction{}
	for _, tx := range f.tripTransactions(t, trip.ID) {
		byType[tx.Type] = tx
	}
	require.Len(t, byType, 4)
	assert.Equal(t, referrer1, byType[domain.TransactionTypeReferral1].ActorID)
	assertDecimal(t, "2000", byType[domain.TransactionTypeReferral1].Income)
	assert.Equal(t, referrer2, byType[domain.TransactionTypeReferral2].ActorID)
	assertDecimal(t, "1500", byType[domain.TransactionTypeReferral2].Income)
	assertDecimal(t, "2000", byType[domain.TransactionTypeBonus].Expense)
	assertDecimal(t, "8000", byType[domain.TransactionTypeService].Expense)
	assert.Equal(t, driverID, byType[domain.TransactionTypeService].ActorID)

	company := decimal.Zero
	serviceIncome, additional := decimal.Zero, decimal.Zero
	for _, e := range f.companyEntries(t, trip.ID) {
		company = company.Add(e.Income).Sub(e.Expense)
		switch e.Type {
		case domain.CompanyEntryTypeService:
			serviceIncome = serviceIncome.Add(e.Income)
		case domain.CompanyEntryTypeAdditional:
			additional = additional.Add(e.Income)
		}
	}
	assertDecimal(t, "6000", company)
	assertDecimal(t, "4000", serviceIncome)
	assertDecimal(t, "2000", additional)

	savings, err := f.store.SavingsRepository.Get(f.ctx, driverID)
	require.NoError(t, err)
	assertDecimal(t, "1000", savings.Amount)

	st, err := f.store.GetByTrip(f.ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, st.Balanced())
	assertDecimal(t, "10000", st.Commission)
	assertDecimal(t, "89500", st.DriverShare)
	assertDecimal(t, "0", st.Residual)
	for _, tx := range f.tripTransactions(t, trip.ID) {
		require.NotNil(t, tx.SettlementID)
		assert.Equal(t, st.ID, *tx.SettlementID)
	}
}

func TestSettlement_ConcurrentMarkPaidSettlesOnce(t *testing.T) {
	f := newFixture(t)
	trip := f.finishedTrip(t, "100000")

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := client
			if i%2 == 1 {
				actor = driver
			}
			_, errs[i] = f.trips.MarkPaid(f.ctx, actor, trip.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	txs := f.tripTransactions(t, trip.ID)
	require.Len(t, txs, 1)
	assertDecimal(t, "10000", txs[0].Expense)
	assert.Len(t, f.companyEntries(t, trip.ID), 6)

	savings, err := f.store.SavingsRepository.Get(f.ctx, driverID)
	require.NoError(t, err)
	assertDecimal(t, "1000", savings.Amount)
}

func TestSettlement_SumEqualsFare(t *testing.T) {
	f := newFixture(t)
	f.link(t, clientID, referrer1)
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 15; i++ {
		fare := decimal.New(r.Int63n(5_000_000)+1, -2)
		before, _ := f.savings.Status(f.ctx, driverID)

		trip := f.finishedTrip(t, fare.String())
		_, err := f.trips.MarkPaid(f.ctx, admin, trip.ID)
		require.NoError(t, err)

		st, err := f.store.GetByTrip(f.ctx, trip.ID)
		require.NoError(t, err)
		after, _ := f.savings.Status(f.ctx, driverID)

		sum := st.DriverShare.Add(after.Amount.Sub(before.Amount))
		for _, tx := range f.tripTransactions(t, trip.ID) {
			sum = sum.Add(tx.Income) // referral credits; commission debits are not part of the split
		}
		for _, e := range f.companyEntries(t, trip.ID) {
			sum = sum.Add(e.Income).Sub(e.Expense)
		}
		assertDecimal(t, fare.String(), sum, "fare", fare)
		assert.True(t, st.Balanced())
	}
}

func TestAllocate_TotalsFareForAnyConfig(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	pct := func(maxThousandths int64) decimal.Decimal {
		return decimal.New(r.Int63n(maxThousandths+1), -3)
	}

	for i := 0; i < 500; i++ {
		fare := decimal.New(r.Int63n(100_000_000)+1, -2)
		cfg := domain.SettlementConfig{
			DriverSavingPct:     pct(50),
			CompanyPct:          pct(200),
			DriverCommissionPct: pct(300),
		}
		for l := range cfg.ReferralPct {
			cfg.ReferralPct[l] = pct(30)
		}
		require.NoError(t, cfg.Validate())

		ancestors := []int64{1, 2, 3, 4, 5}[:r.Intn(6)]
		a := service.Allocate(fare, cfg, ancestors)

		require.Truef(t, a.Total().Equal(fare), "fare %s config %+v total %s", fare, cfg, a.Total())
		for _, part := range []decimal.Decimal{a.DriverShare, a.Savings, a.CompanyService, a.Commission, a.Residual} {
			assert.True(t, part.Equal(part.Round(2)))
		}
		assert.True(t, a.Residual.Abs().LessThanOrEqual(dec("0.05")))
		assert.Len(t, a.Referrals, domain.MaxReferralLevels)
	}
}

func TestAllocate_RoundsHalfUp(t *testing.T) {
	cfg := exampleConfig()
	a := service.Allocate(dec("333.33"), cfg, nil)

	assertDecimal(t, "33.33", a.Commission)
	assertDecimal(t, "3.33", a.Savings)
	assertDecimal(t, "6.67", a.Referrals[0].Amount)
	assertDecimal(t, "5", a.Referrals[1].Amount)
	assertDecimal(t, "333.33", a.Total())
	assertDecimal(t, "0", a.ReferralTotal())
}

func TestSettlementEngine_Settle(t *testing.T) {
	driverRef := driverID

	t.Run("NonPositiveFareIsNoop", func(t *testing.T) {
		f := newFixture(t)
		st, err := f.settlement.Settle(f.ctx, &domain.Trip{ID: 9, ClientID: clientID, DriverID: &driverRef}, exampleConfig())
		require.NoError(t, err)
		assert.Nil(t, st)
		assert.Empty(t, f.tripTransactions(t, 9))
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		f := newFixture(t)
		cfg := exampleConfig()
		cfg.CompanyPct = dec("0.99")
		_, err := f.settlement.Settle(f.ctx, &domain.Trip{ID: 9, ClientID: clientID, DriverID: &driverRef, FareAssigned: dec("100")}, cfg)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("SecondSettlementConflicts", func(t *testing.T) {
		f := newFixture(t)
		trip := &domain.Trip{ID: 9, ClientID: clientID, DriverID: &driverRef, FareAssigned: dec("100000")}
		_, err := f.settlement.Settle(f.ctx, trip, exampleConfig())
		require.NoError(t, err)

		_, err = f.settlement.Settle(f.ctx, trip, exampleConfig())
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Len(t, f.tripTransactions(t, 9), 1)
	})

	t.Run("Preview", func(t *testing.T) {
		f := newFixture(t)
		f.link(t, clientID, referrer1)
		a, err := f.settlement.Preview(f.ctx, &domain.Trip{ClientID: clientID, FareAssigned: dec("100000")}, exampleConfig())
		require.NoError(t, err)
		require.NotNil(t, a.Referrals[0].BeneficiaryID)
		assert.Equal(t, referrer1, *a.Referrals[0].BeneficiaryID)
		assert.Nil(t, a.Referrals[1].BeneficiaryID)
		assertDecimal(t, "7500", a.CompanyTotal())
	})
}
