package service

import (
	"context"
	"time"

	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/metrics"
	"clan-rental-backend/internal/repository"
)

const rentalCounter = "rentals"

type ticketService struct {
	counters repository.CounterRepository
	now      func() time.Time
}

func NewTicketService(counters repository.CounterRepository) TicketService {
	return &ticketService{counters: counters, now: time.Now}
}

// NextTicketNumber increments the shared counter. When the counter cannot be
// reached the number is derived from the clock instead; such numbers are
// neither sequential nor guaranteed unique.
func (s *ticketService) NextTicketNumber(ctx context.Context) int64 {
	n, err := s.counters.Next(ctx, rentalCounter)
	if err == nil {
		return n
	}
	fallback := s.now().UnixMilli()
	logger.WarnContext(ctx, "Ticket counter unavailable, using clock fallback", "error", err, "ticket", fallback)
	metrics.RecordTicketFallback()
	return fallback
}
