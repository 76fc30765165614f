// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"ridehail-backend-core/internal/config"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/logger"
	"ridehail-backend-core/internal/repository"
	"ridehail-backend-core/internal/repository/memory"
	"ridehail-backend-core/internal/repository/postgres"
	"ridehail-backend-core/internal/service"
)

// Repositories is the storage the services run on, backed either by
// PostgreSQL or by the in-memory store.
type Repositories struct {
	Transactor  repository.Transactor
	Trips       repository.TripRepository
	Ledger      repository.LedgerRepository
	Referrals   repository.ReferralRepository
	Savings     repository.SavingsRepository
	Withdrawals repository.WithdrawalRepository
	Company     repository.CompanyRepository
	Settlements repository.SettlementRepository
	Settings    repository.SettingsRepository
	Drivers     repository.DriverRepository
	BankAccount repository.BankAccountRepository

	close func() error
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// OpenRepositories connects the configured store. Postgres connections are
// pinged and, when configured, migrated before use.
func OpenRepositories(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	if cfg.Database.Type == "memory" {
		logger.Warn("Using in-memory store; data is lost on exit")
		store := memory.NewStore()
		if err := seedMemory(store, cfg.Database.MemorySeed); err != nil {
			return nil, err
		}
		return &Repositories{
			Transactor:  store,
			Trips:       store.TripRepository,
			Ledger:      store.LedgerRepository,
			Referrals:   store.ReferralRepository,
			Savings:     store.SavingsRepository,
			Withdrawals: store.WithdrawalRepository,
			Company:     store.CompanyRepository,
			Settlements: store.SettlementRepository,
			Settings:    store.SettingsRepository,
			Drivers:     store.DriverRepository,
			BankAccount: store.BankAccountRepository,
		}, nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		logger.Debug("Database pool limited", "max_open_conns", cfg.Database.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	store := postgres.NewStore(db)
	return &Repositories{
		Transactor:  store.Transactor,
		Trips:       store.TripRepository,
		Ledger:      store.LedgerRepository,
		Referrals:   store.ReferralRepository,
		Savings:     store.SavingsRepository,
		Withdrawals: store.WithdrawalRepository,
		Company:     store.CompanyRepository,
		Settlements: store.SettlementRepository,
		Settings:    store.SettingsRepository,
		Drivers:     store.DriverRepository,
		BankAccount: store.BankAccountRepository,
		close:       db.Close,
	}, nil
}

// seedMemory writes the rows no RPC can create: settlement percentages,
// approved drivers and bank accounts.
func seedMemory(store *memory.Store, seed config.MemorySeedConfig) error {
	if seed.Settlement != nil {
		settings, err := seed.Settlement.SettlementConfig()
		if err != nil {
			return fmt.Errorf("failed to seed settlement config: %w", err)
		}
		store.SetSettlementConfig(settings)
	}
	for _, id := range seed.ApprovedDrivers {
		store.SetDriverStatus(id, domain.DriverStatusApproved)
	}
	for _, b := range seed.BankAccounts {
		store.AddBankAccount(b.ID, b.ActorID)
	}
	logger.Info("Memory store seeded", "settlement", seed.Settlement != nil,
		"drivers", len(seed.ApprovedDrivers), "bankAccounts", len(seed.BankAccounts))
	return nil
}

// Services holds every domain service built on one set of repositories.
type Services struct {
	Ledger      service.LedgerService
	Referrals   service.ReferralResolver
	Savings     service.SavingsService
	Settlement  service.SettlementEngine
	Withdrawals service.WithdrawalService
	Trips       service.TripService
}

func NewServices(repos *Repositories, cfg *config.Config) *Services {
	ledger := service.NewLedgerService(repos.Transactor, repos.Ledger)
	referrals := service.NewReferralResolver(repos.Referrals, repos.Ledger, repos.Settings)
	savings := service.NewSavingsService(repos.Transactor, repos.Savings, repos.Drivers, ledger, service.SavingsPolicy{
		MinimumWithdrawal: cfg.MinimumWithdrawal(),
		LockDays:          cfg.Settlement.SavingsLockDays,
	})
	settlement := service.NewSettlementEngine(repos.Transactor, repos.Settlements, repos.Company, ledger, referrals, savings)
	return &Services{
		Ledger:      ledger,
		Referrals:   referrals,
		Savings:     savings,
		Settlement:  settlement,
		Withdrawals: service.NewWithdrawalService(repos.Transactor, repos.Withdrawals, repos.Ledger, repos.BankAccount, ledger),
		Trips:       service.NewTripService(repos.Transactor, repos.Trips, repos.Settings, repos.Drivers, settlement),
	}
}
