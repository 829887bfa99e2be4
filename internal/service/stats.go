package service

import (
	"context"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

type statsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

func (s *statsService) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	return s.statsRepo.Dashboard(ctx)
}
