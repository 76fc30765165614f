package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	api "ridehail-backend-core/internal/api/grpc"
	"ridehail-backend-core/internal/api/grpc/interceptor"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/repository/memory"
	"ridehail-backend-core/internal/security"
	"ridehail-backend-core/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	client   = domain.Actor{ID: 100, Role: domain.RoleClient}
	referrer = domain.Actor{ID: 101, Role: domain.RoleClient}
	driver   = domain.Actor{ID: 200, Role: domain.RoleDriver}
	admin    = domain.Actor{ID: 1, Role: domain.RoleAdmin}
)

type harness struct {
	store  *memory.Store
	ledger service.LedgerService
	conn   *grpc.ClientConn
	tokens security.TokenManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	store.SetSettlementConfig(domain.SettlementConfig{
		DriverSavingPct:     decimal.RequireFromString("0.01"),
		CompanyPct:          decimal.RequireFromString("0.04"),
		ReferralPct:         [domain.MaxReferralLevels]decimal.Decimal{decimal.RequireFromString("0.02"), decimal.RequireFromString("0.015"), decimal.RequireFromString("0.01"), decimal.RequireFromString("0.005"), decimal.RequireFromString("0.005")},
		DriverCommissionPct: decimal.RequireFromString("0.10"),
	})
	store.SetDriverStatus(driver.ID, domain.DriverStatusApproved)
	store.AddBankAccount(70, driver.ID)
	require.NoError(t, store.Link(context.Background(), domain.ReferralEdge{ChildID: client.ID, ParentID: referrer.ID}))

	ledger := service.NewLedgerService(store, store.LedgerRepository)
	referrals := service.NewReferralResolver(store.ReferralRepository, store.LedgerRepository, store.SettingsRepository)
	savings := service.NewSavingsService(store, store.SavingsRepository, store.DriverRepository, ledger,
		service.SavingsPolicy{MinimumWithdrawal: decimal.NewFromInt(50000), LockDays: 365})
	settlement := service.NewSettlementEngine(store, store.SettlementRepository, store.CompanyRepository, ledger, referrals, savings)
	withdrawals := service.NewWithdrawalService(store, store.WithdrawalRepository, store.LedgerRepository, store.BankAccountRepository, ledger)
	trips := service.NewTripService(store, store.TripRepository, store.SettingsRepository, store.DriverRepository, settlement)

	tokens := security.NewTokenManager(testSecret, time.Hour)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptor.Timeout(10*time.Second),
		interceptor.NewAuthInterceptor(tokens).Unary(),
	))
	api.RegisterRideServiceServer(srv, api.NewRideHandler(trips, ledger, savings, referrals, withdrawals, settlement, store.SettingsRepository))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{store: store, ledger: ledger, conn: conn, tokens: tokens}
}

func (h *harness) call(t *testing.T, actor domain.Actor, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	tok, err := h.tokens.GenerateAccessToken(actor)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)

	out := new(structpb.Struct)
	err = h.conn.Invoke(ctx, "/"+api.ServiceName+"/"+method, in, out)
	return out, err
}

func (h *harness) mustCall(t *testing.T, actor domain.Actor, method string, req map[string]any) *structpb.Struct {
	t.Helper()
	out, err := h.call(t, actor, method, req)
	require.NoError(t, err, method)
	return out
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func num(s *structpb.Struct, key string) int64 {
	return int64(s.GetFields()[key].GetNumberValue())
}

func TestRideService_TripLifecycleSettles(t *testing.T) {
	h := newHarness(t)

	trip := h.mustCall(t, client, "RequestTrip", map[string]any{"fare_offered": "100000"})
	tripID := num(trip, "id")
	assert.Equal(t, "CREATED", str(trip, "status"))

	trip = h.mustCall(t, driver, "AcceptTrip", map[string]any{"trip_id": tripID})
	assert.Equal(t, "ACCEPTED", str(trip, "status"))
	assert.Equal(t, "100000.00", str(trip, "fare_assigned"))

	for _, st := range []string{"ON_THE_WAY", "ARRIVED", "TRAVELLING", "FINISHED"} {
		trip = h.mustCall(t, driver, "ApplyDriverStatus", map[string]any{"trip_id": tripID, "status": st})
		assert.Equal(t, st, str(trip, "status"))
	}

	preview := h.mustCall(t, admin, "PreviewSettlement", map[string]any{"trip_id": tripID})
	assert.Equal(t, "10000.00", str(preview, "commission"))
	assert.Equal(t, "2000.00", str(preview, "referral_total"))

	trip = h.mustCall(t, client, "MarkPaid", map[string]any{"trip_id": tripID})
	assert.Equal(t, "PAID", str(trip, "status"))

	// a second call is a no-op
	trip = h.mustCall(t, driver, "MarkPaid", map[string]any{"trip_id": tripID})
	assert.Equal(t, "PAID", str(trip, "status"))

	balance := h.mustCall(t, referrer, "GetBalance", nil)
	assert.Equal(t, "2000.00", str(balance, "available"))
	assert.Equal(t, "2000.00", str(balance, "withdrawable"))

	balance = h.mustCall(t, driver, "GetBalance", nil)
	assert.Equal(t, "-10000.00", str(balance, "available"))

	savings := h.mustCall(t, driver, "GetSavingsStatus", nil)
	assert.Equal(t, "1000.00", str(savings, "amount"))
	assert.False(t, savings.GetFields()["can_withdraw"].GetBoolValue())

	summary := h.mustCall(t, referrer, "GetReferralEarningsSummary", nil)
	assert.Equal(t, "2000.00", str(summary, "total_earned"))

	history := h.mustCall(t, driver, "GetTransactions", map[string]any{"page": 1, "page_size": 10})
	assert.Equal(t, int64(1), num(history, "total_count"))
}

func TestRideService_ErrorCodes(t *testing.T) {
	h := newHarness(t)

	trip := h.mustCall(t, client, "RequestTrip", map[string]any{"fare_offered": "5000"})
	tripID := num(trip, "id")

	_, err := h.call(t, driver, "ApplyDriverStatus", map[string]any{"trip_id": tripID, "status": "ON_THE_WAY"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err), "driver is not assigned yet")

	h.mustCall(t, driver, "AcceptTrip", map[string]any{"trip_id": tripID})

	_, err = h.call(t, driver, "ApplyDriverStatus", map[string]any{"trip_id": tripID, "status": "FINISHED"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.call(t, client, "MarkPaid", map[string]any{"trip_id": tripID})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.call(t, client, "GetTrip", map[string]any{"trip_id": 9999})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.call(t, referrer, "GetTrip", map[string]any{"trip_id": tripID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.call(t, client, "GetBalance", map[string]any{"actor_id": driver.ID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.call(t, client, "TransferSavings", map[string]any{"amount": "50000"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.call(t, client, "MarkPaid", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	trip = h.mustCall(t, client, "ApplyClientStatus", map[string]any{"trip_id": tripID, "status": "CANCELLED"})
	assert.Equal(t, "CANCELLED", str(trip, "status"))
}

func TestRideService_WithdrawalFlow(t *testing.T) {
	h := newHarness(t)
	_, err := h.ledger.Record(context.Background(), service.LedgerEntry{
		ActorID:   driver.ID,
		Amount:    decimal.NewFromInt(60000),
		Direction: domain.DirectionIncome,
		Type:      domain.TransactionTypeService,
	})
	require.NoError(t, err)

	_, err = h.call(t, driver, "RequestWithdrawal", map[string]any{"amount": "70000", "bank_account_id": 70})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.call(t, driver, "RequestWithdrawal", map[string]any{"amount": "100", "bank_account_id": 71})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	w := h.mustCall(t, driver, "RequestWithdrawal", map[string]any{"amount": "50000", "bank_account_id": 70})
	assert.Equal(t, "PENDING", str(w, "status"))
	withdrawalID := num(w, "id")

	balance := h.mustCall(t, driver, "GetBalance", nil)
	assert.Equal(t, "10000.00", str(balance, "available"))

	_, err = h.call(t, driver, "ApproveWithdrawal", map[string]any{"withdrawal_id": withdrawalID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	w = h.mustCall(t, admin, "RejectWithdrawal", map[string]any{"withdrawal_id": withdrawalID})
	assert.Equal(t, "REJECTED", str(w, "status"))
	assert.Equal(t, admin.ID, num(w, "decided_by"))

	_, err = h.call(t, admin, "ApproveWithdrawal", map[string]any{"withdrawal_id": withdrawalID})
	assert.Equal(t, codes.Aborted, status.Code(err))

	balance = h.mustCall(t, driver, "GetBalance", nil)
	assert.Equal(t, "60000.00", str(balance, "available"))

	list := h.mustCall(t, driver, "ListWithdrawals", map[string]any{"statuses": []any{"REJECTED"}})
	assert.Len(t, list.GetFields()["withdrawals"].GetListValue().GetValues(), 1)
}
