package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/metrics"
	"clan-rental-backend/internal/repository"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a sender's limiter is kept after its last message.
const limiterIdleTTL = 10 * time.Minute

type ChatLimits struct {
	MessagesPerSecond float64
	Burst             int
	MaxMessageLength  int
}

type chatService struct {
	rentalRepo  repository.RentalRepository
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	broadcaster ChatBroadcaster
	noteSvc     NotificationService
	limits      ChatLimits

	mu        sync.Mutex
	limiters  map[string]*senderLimiter
	lastSweep time.Time
	now       func() time.Time
}

type senderLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewChatService(
	rentalRepo repository.RentalRepository,
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	broadcaster ChatBroadcaster,
	noteSvc NotificationService,
	limits ChatLimits,
) ChatService {
	if limits.MessagesPerSecond <= 0 {
		limits.MessagesPerSecond = 1
	}
	if limits.Burst <= 0 {
		limits.Burst = 5
	}
	if limits.MaxMessageLength <= 0 {
		limits.MaxMessageLength = 2000
	}
	return &chatService{
		rentalRepo:  rentalRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		noteSvc:     noteSvc,
		limits:      limits,
		limiters:    make(map[string]*senderLimiter),
		now:         time.Now,
	}
}

// allow reports whether userID may send another message now. Limiters idle
// for longer than limiterIdleTTL are dropped on the way.
func (s *chatService) allow(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterIdleTTL {
		for id, l := range s.limiters {
			if now.Sub(l.lastSeen) >= limiterIdleTTL {
				delete(s.limiters, id)
			}
		}
		s.lastSweep = now
	}

	l, ok := s.limiters[userID]
	if !ok {
		l = &senderLimiter{limiter: rate.NewLimiter(rate.Limit(s.limits.MessagesPerSecond), s.limits.Burst)}
		s.limiters[userID] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// authorize loads the rental and checks that the actor is its renter or an
// admin. It returns the actor's role.
func (s *chatService) authorize(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, domain.Role, error) {
	r, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, "", mapRepoErr(err, fmt.Sprintf("rental %d", rentalID))
	}
	role, err := s.userRepo.GetRole(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrForbidden
		}
		return nil, "", err
	}
	if r.RenterID != actorID && role != domain.RoleAdmin {
		return nil, "", ErrForbidden
	}
	return r, role, nil
}

func (s *chatService) SendMessage(ctx context.Context, actorID string, rentalID int32, text string) (*domain.ChatMessage, error) {
	logger.EnterMethod("chatService.SendMessage", "actorID", actorID, "rentalID", rentalID)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("message is empty")
	}
	if utf8.RuneCountInString(text) > s.limits.MaxMessageLength {
		return nil, invalid("message exceeds %d characters", s.limits.MaxMessageLength)
	}

	rental, role, err := s.authorize(ctx, actorID, rentalID)
	if err != nil {
		logger.ExitMethodWithError("chatService.SendMessage", err)
		return nil, err
	}
	if !s.allow(actorID) {
		return nil, ErrRateLimited
	}

	sender, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapRepoErr(err, "sender")
	}

	msg := &domain.ChatMessage{
		RentalID:   rentalID,
		SenderID:   actorID,
		SenderName: sender.GameNickname,
		IsAdmin:    role == domain.RoleAdmin,
		Message:    text,
	}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		logger.ExitMethodWithError("chatService.SendMessage", err)
		return nil, err
	}
	metrics.RecordChatMessage(msg.IsAdmin)
	s.broadcaster.Publish(ctx, *msg)

	attrs := map[string]string{
		"type":      "CHAT_MESSAGE",
		"rental_id": fmt.Sprintf("%d", rentalID),
	}
	title := fmt.Sprintf("New message on ticket #%d", rental.TicketNumber)
	if msg.IsAdmin && rental.RenterID != actorID {
		s.noteSvc.Notify(ctx, rental.RenterID, title, msg.Message, attrs)
	} else {
		s.noteSvc.NotifyAdmins(ctx, title, msg.Message, attrs)
	}

	logger.ExitMethod("chatService.SendMessage", "messageID", msg.ID)
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, actorID string, rentalID int32) ([]domain.ChatMessage, error) {
	if _, _, err := s.authorize(ctx, actorID, rentalID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListByRental(ctx, rentalID)
}

// Subscribe registers with the broadcaster before reading the history, so a
// message sent in between shows up in the feed and possibly in the history too.
func (s *chatService) Subscribe(ctx context.Context, actorID string, rentalID int32) ([]domain.ChatMessage, <-chan domain.ChatMessage, func(), error) {
	if _, _, err := s.authorize(ctx, actorID, rentalID); err != nil {
		return nil, nil, nil, err
	}
	feed, cancel := s.broadcaster.Subscribe(rentalID)
	history, err := s.chatRepo.ListByRental(ctx, rentalID)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return history, feed, cancel, nil
}
