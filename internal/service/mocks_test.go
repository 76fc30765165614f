package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"ridehail-backend-core/internal/domain"
)

type MockSettingsRepo struct {
	mock.Mock
}

func (m *MockSettingsRepo) GetSettlementConfig(ctx context.Context) (*domain.SettlementConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SettlementConfig), args.Error(1)
}

type MockSettlementEngine struct {
	mock.Mock
}

func (m *MockSettlementEngine) Preview(ctx context.Context, trip *domain.Trip, cfg domain.SettlementConfig) (*domain.Allocation, error) {
	args := m.Called(ctx, trip, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}

func (m *MockSettlementEngine) Settle(ctx context.Context, trip *domain.Trip, cfg domain.SettlementConfig) (*domain.Settlement, error) {
	args := m.Called(ctx, trip, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settlement), args.Error(1)
}
