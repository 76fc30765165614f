package grpc

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/utils"
)

// Request readers. Ids and amounts are accepted as JSON numbers or strings.

func requireID(req *structpb.Struct, key string) (int64, error) {
	id, ok, err := optionalID(req, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return id, nil
}

func optionalID(req *structpb.Struct, key string) (int64, bool, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false, nil
	}
	var id int64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f != math.Trunc(f) || f > 1<<53 {
			return 0, false, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
		}
		id = int64(f)
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0, false, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
		}
		id = n
	default:
		return 0, false, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	if id <= 0 {
		return 0, false, status.Errorf(codes.InvalidArgument, "%s must be positive", key)
	}
	return id, true, nil
}

// optionalInt32 reads small counters such as page numbers.
func optionalInt32(req *structpb.Struct, key string) (int32, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, nil
	}
	f := v.GetNumberValue()
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a non-negative integer", key)
	}
	return int32(f), nil
}

func money(req *structpb.Struct, key string, required bool) (decimal.Decimal, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		if required {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", key)
		}
		return decimal.Zero, nil
	}
	var raw string
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		raw = k.StringValue
	case *structpb.Value_NumberValue:
		raw = decimal.NewFromFloat(k.NumberValue).String()
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be an amount", key)
	}
	amount, err := utils.ParseMoney(raw)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	return amount, nil
}

func requireString(req *structpb.Struct, key string) (string, error) {
	s := req.GetFields()[key].GetStringValue()
	if s == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return s, nil
}

func withdrawalStatuses(req *structpb.Struct) ([]domain.WithdrawalStatus, error) {
	list := req.GetFields()["statuses"].GetListValue()
	var statuses []domain.WithdrawalStatus
	for _, v := range list.GetValues() {
		s := domain.WithdrawalStatus(v.GetStringValue())
		switch s {
		case domain.WithdrawalStatusPending, domain.WithdrawalStatusApproved, domain.WithdrawalStatusRejected:
			statuses = append(statuses, s)
		default:
			return nil, status.Errorf(codes.InvalidArgument, "unknown withdrawal status %q", s)
		}
	}
	return statuses, nil
}

// Response builders. Amounts are rendered with two decimals and times in
// RFC 3339 UTC.

func fixed(d decimal.Decimal) string {
	return d.StringFixed(utils.MoneyPlaces)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func setTime(m map[string]any, key string, t *time.Time) {
	if t != nil {
		m[key] = timestamp(*t)
	}
}

func setID(m map[string]any, key string, id *int64) {
	if id != nil {
		m[key] = *id
	}
}

func MapDomainTripToStruct(t *domain.Trip) map[string]any {
	m := map[string]any{
		"id":            t.ID,
		"client_id":     t.ClientID,
		"fare_offered":  fixed(t.FareOffered),
		"fare_assigned": fixed(t.FareAssigned),
		"status":        string(t.Status),
		"created_at":    timestamp(t.CreatedAt),
		"updated_at":    timestamp(t.UpdatedAt),
	}
	setID(m, "driver_id", t.DriverID)
	setTime(m, "accepted_at", t.AcceptedAt)
	setTime(m, "finished_at", t.FinishedAt)
	setTime(m, "paid_at", t.PaidAt)
	setTime(m, "cancelled_at", t.CancelledAt)
	return m
}

func MapDomainTransactionToStruct(tx *domain.Transaction) map[string]any {
	m := map[string]any{
		"id":         tx.ID,
		"actor_id":   tx.ActorID,
		"income":     fixed(tx.Income),
		"expense":    fixed(tx.Expense),
		"type":       string(tx.Type),
		"confirmed":  tx.Confirmed,
		"created_at": timestamp(tx.CreatedAt),
	}
	setID(m, "trip_id", tx.TripID)
	if tx.SettlementID != nil {
		m["settlement_id"] = *tx.SettlementID
	}
	return m
}

func MapDomainBalanceToStruct(actorID int64, b domain.Balance) map[string]any {
	return map[string]any{
		"actor_id":     actorID,
		"available":    fixed(b.Available),
		"withdrawable": fixed(b.Withdrawable),
		"bonus":        fixed(b.Bonus),
	}
}

func MapDomainWithdrawalToStruct(w *domain.Withdrawal) map[string]any {
	m := map[string]any{
		"id":              w.ID,
		"actor_id":        w.ActorID,
		"amount":          fixed(w.Amount),
		"status":          string(w.Status),
		"bank_account_id": w.BankAccountID,
		"transaction_id":  w.TransactionID,
		"requested_at":    timestamp(w.RequestedAt),
	}
	setTime(m, "decided_at", w.DecidedAt)
	setID(m, "decided_by", w.DecidedBy)
	return m
}

func MapDomainSavingsStatusToStruct(v *domain.SavingsStatusView) map[string]any {
	m := map[string]any{
		"amount":       fixed(v.Amount),
		"can_withdraw": v.CanWithdraw,
		"message":      v.Message,
	}
	if v.MaturityDate != nil {
		m["maturity_date"] = v.MaturityDate.UTC().Format(time.DateOnly)
	}
	return m
}

func MapDomainReferralSummaryToStruct(s *domain.ReferralSummary) map[string]any {
	levels := make([]any, 0, len(s.Levels))
	for _, l := range s.Levels {
		members := make([]any, len(l.Members))
		for i, id := range l.Members {
			members[i] = id
		}
		levels = append(levels, map[string]any{
			"level":        l.Level,
			"percentage":   l.Percentage.String(),
			"members":      members,
			"member_count": len(l.Members),
			"earned":       fixed(l.Earned),
		})
	}
	return map[string]any{
		"actor_id":     s.ActorID,
		"levels":       levels,
		"total_earned": fixed(s.TotalEarned),
	}
}

func MapDomainAllocationToStruct(tripID int64, a *domain.Allocation) map[string]any {
	referrals := make([]any, 0, len(a.Referrals))
	for _, r := range a.Referrals {
		slot := map[string]any{"level": r.Level, "amount": fixed(r.Amount)}
		setID(slot, "beneficiary_id", r.BeneficiaryID)
		referrals = append(referrals, slot)
	}
	return map[string]any{
		"trip_id":         tripID,
		"fare":            fixed(a.Fare),
		"commission":      fixed(a.Commission),
		"driver_share":    fixed(a.DriverShare),
		"savings":         fixed(a.Savings),
		"company_service": fixed(a.CompanyService),
		"company_total":   fixed(a.CompanyTotal()),
		"residual":        fixed(a.Residual),
		"referral_total":  fixed(a.ReferralTotal()),
		"referrals":       referrals,
	}
}

// toStruct wraps a response document.
func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}
