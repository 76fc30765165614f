package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
)

type referralResolver struct {
	referralRepo repository.ReferralRepository
	ledgerRepo   repository.LedgerRepository
	settingsRepo repository.SettingsRepository
}

func NewReferralResolver(
	referralRepo repository.ReferralRepository,
	ledgerRepo repository.LedgerRepository,
	settingsRepo repository.SettingsRepository,
) ReferralResolver {
	return &referralResolver{
		referralRepo: referralRepo,
		ledgerRepo:   ledgerRepo,
		settingsRepo: settingsRepo,
	}
}

// Chain returns up to maxLevels ancestors of actorID, nearest first. The walk
// ends at the first actor without a parent or at any actor already seen,
// which covers self-references and cycles.
func (r *referralResolver) Chain(ctx context.Context, actorID int64, maxLevels int) ([]int64, error) {
	if maxLevels <= 0 || maxLevels > domain.MaxReferralLevels {
		maxLevels = domain.MaxReferralLevels
	}

	seen := map[int64]bool{actorID: true}
	chain := make([]int64, 0, maxLevels)
	current := actorID
	for len(chain) < maxLevels {
		parent, ok, err := r.referralRepo.GetParent(ctx, current)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if seen[parent] {
			logger.Warn("Referral cycle detected", "actorID", actorID, "at", current, "parent", parent)
			break
		}
		seen[parent] = true
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

func (r *referralResolver) EarningsSummary(ctx context.Context, actorID int64) (*domain.ReferralSummary, error) {
	logger.EnterMethod("referralResolver.EarningsSummary", "actorID", actorID)

	var pct [domain.MaxReferralLevels]decimal.Decimal
	cfg, err := r.settingsRepo.GetSettlementConfig(ctx)
	switch {
	case err == nil:
		pct = cfg.ReferralPct
	case errors.Is(err, domain.ErrNotFound):
		// report members and earnings even before settings exist
	default:
		logger.ExitMethodWithError("referralResolver.EarningsSummary", err, "actorID", actorID)
		return nil, err
	}

	types := make([]domain.TransactionType, domain.MaxReferralLevels)
	for i := range types {
		types[i], _ = domain.ReferralTransactionType(i + 1)
	}
	earned, err := r.ledgerRepo.SumByTypes(ctx, actorID, types)
	if err != nil {
		logger.ExitMethodWithError("referralResolver.EarningsSummary", err, "actorID", actorID)
		return nil, err
	}

	summary := &domain.ReferralSummary{ActorID: actorID, TotalEarned: decimal.Zero}
	seen := map[int64]bool{actorID: true}
	frontier := []int64{actorID}
	for level := 1; level <= domain.MaxReferralLevels; level++ {
		var members []int64
		if len(frontier) > 0 {
			edges, err := r.referralRepo.ListChildren(ctx, frontier)
			if err != nil {
				logger.ExitMethodWithError("referralResolver.EarningsSummary", err, "actorID", actorID)
				return nil, err
			}
			for _, e := range edges {
				if seen[e.ChildID] {
					continue
				}
				seen[e.ChildID] = true
				members = append(members, e.ChildID)
			}
		}

		levelEarned := earned[types[level-1]]
		summary.Levels = append(summary.Levels, domain.ReferralLevelSummary{
			Level:      level,
			Percentage: pct[level-1],
			Members:    members,
			Earned:     levelEarned,
		})
		summary.TotalEarned = summary.TotalEarned.Add(levelEarned)
		frontier = members
	}

	logger.ExitMethod("referralResolver.EarningsSummary", "actorID", actorID, "total", summary.TotalEarned)
	return summary, nil
}
