package jobs

import (
	"context"

	"ridehail-backend-core/internal/logger"
)

// MatureSavingsAccounts flips SAVING accounts whose maturity date has passed
// to APPROVED.
func (jr *JobRunner) MatureSavingsAccounts() {
	_ = jr.runWithRecovery("MatureSavingsAccounts", func(ctx context.Context) error {
		_, err := jr.matureSavings(ctx)
		return err
	})
}

func (jr *JobRunner) matureSavings(ctx context.Context) (int64, error) {
	n, err := jr.repos.Savings.MarkMatured(ctx, jr.now())
	if err != nil {
		return 0, err
	}
	logger.Info("Savings accounts matured", "count", n)
	return n, nil
}
