package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/metrics"
	"clan-rental-backend/internal/repository"
	"clan-rental-backend/internal/utils"
)

type rentalService struct {
	tx          repository.Transactor
	rentalRepo  repository.RentalRepository
	itemRepo    repository.ItemRepository
	userRepo    repository.UserRepository
	tickets     TicketService
	settingsSvc SettingsService
	noteSvc     NotificationService
	emailSvc    EmailService
	termsText   string
	now         func() time.Time
}

func NewRentalService(
	tx repository.Transactor,
	rentalRepo repository.RentalRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	tickets TicketService,
	settingsSvc SettingsService,
	noteSvc NotificationService,
	emailSvc EmailService,
	termsText string,
) RentalService {
	return &rentalService{
		tx:          tx,
		rentalRepo:  rentalRepo,
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		tickets:     tickets,
		settingsSvc: settingsSvc,
		noteSvc:     noteSvc,
		emailSvc:    emailSvc,
		termsText:   termsText,
		now:         time.Now,
	}
}

func (s *rentalService) TermsText() string {
	return s.termsText
}

// normalizeLines defaults missing quantities to 1 and rejects duplicates.
func normalizeLines(lines []RentalLine) ([]RentalLine, error) {
	if len(lines) == 0 {
		return nil, invalid("at least one item is required")
	}
	seen := make(map[int32]bool, len(lines))
	out := make([]RentalLine, 0, len(lines))
	for _, l := range lines {
		if seen[l.ItemID] {
			return nil, invalid("item %d is listed more than once", l.ItemID)
		}
		seen[l.ItemID] = true
		if l.Quantity == 0 {
			l.Quantity = 1
		}
		if l.Quantity < 1 {
			return nil, invalid("quantity for item %d must be at least 1", l.ItemID)
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *rentalService) validateRequest(req *CreateRentalRequest) error {
	if !req.PaymentMethod.Valid() {
		return invalid("unknown payment method %q", req.PaymentMethod)
	}
	if req.RentalDays < utils.MinRentalDays || req.RentalDays > utils.MaxRentalDays {
		return invalid("rental days must be between %d and %d", utils.MinRentalDays, utils.MaxRentalDays)
	}
	if !req.DeliveryLocation.Valid() {
		return invalid("unknown delivery location %q", req.DeliveryLocation)
	}
	if !req.TermsAccepted {
		return invalid("terms must be accepted")
	}
	if req.PaymentMethod == domain.PaymentTrade && len(req.CollateralItemIDs) == 0 {
		return invalid("trade payment requires collateral items")
	}
	lines, err := normalizeLines(req.Lines)
	if err != nil {
		return err
	}
	req.Lines = lines
	req.TermsText = strings.TrimSpace(req.TermsText)
	if req.TermsText == "" {
		req.TermsText = s.termsText
	}
	return nil
}

// CreateRental validates the request, snapshots prices, reserves the items and
// stores the rental as pending. All catalog work happens in one transaction;
// the ticket number is drawn before it so a failed attempt leaves a gap.
func (s *rentalService) CreateRental(ctx context.Context, renterID string, req CreateRentalRequest) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CreateRental", "renterID", renterID, "lines", len(req.Lines), "payment", req.PaymentMethod)

	rental, err := s.createRental(ctx, renterID, req)
	metrics.RecordRentalTransition("create", err)
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "renterID", renterID)
		return nil, err
	}

	s.noteSvc.NotifyAdmins(ctx, "New rental request",
		fmt.Sprintf("%s requested ticket #%d", rental.RenterNickname, rental.TicketNumber),
		rentalAttrs("RENTAL_REQUEST", rental))
	if err := s.emailSvc.SendRentalRequestNotification(ctx, rental); err != nil {
		logger.WarnContext(ctx, "Failed to email admins about rental request", "rentalID", rental.ID, "error", err)
	}

	logger.ExitMethod("rentalService.CreateRental", "rentalID", rental.ID, "ticket", rental.TicketNumber)
	return rental, nil
}

func (s *rentalService) createRental(ctx context.Context, renterID string, req CreateRentalRequest) (*domain.Rental, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	settings, err := s.settingsSvc.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Allows(req.PaymentMethod) {
		return nil, fmt.Errorf("%s: %w", req.PaymentMethod, ErrPaymentMethodDisabled)
	}

	renter, err := s.userRepo.GetByID(ctx, renterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	ticket := s.tickets.NextTicketNumber(ctx)

	rental := &domain.Rental{
		TicketNumber:     ticket,
		RenterID:         renter.UID,
		RenterNickname:   renter.GameNickname,
		PaymentMethod:    req.PaymentMethod,
		RentalType:       utils.RentalTypeFor(req.RentalDays),
		RentalDays:       req.RentalDays,
		DeliveryLocation: req.DeliveryLocation,
		TermsAccepted:    true,
		TermsText:        req.TermsText,
		Status:           domain.RentalStatusPending,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		items, err := s.lockItems(ctx, lineIDs(req.Lines), false)
		if err != nil {
			return err
		}

		rental.Items = make([]domain.RentalItem, 0, len(req.Lines))
		for _, l := range req.Lines {
			item := items[l.ItemID]
			if item.Availability == domain.ItemUnavailable || l.Quantity > item.AvailableQuantity {
				return fmt.Errorf("item %d has %d available: %w", item.ID, item.AvailableQuantity, ErrInsufficientStock)
			}
			rental.Items = append(rental.Items, domain.RentalItem{
				ItemID:           item.ID,
				ItemName:         item.Name,
				ItemImageURL:     item.ImageURL,
				Quantity:         l.Quantity,
				DailyRate:        item.DailyRate,
				WeeklyRate:       item.WeeklyRate,
				CollateralAmount: utils.LineCollateral(item.RequiredCollateral, l.Quantity),
			})
		}
		rental.RentalCost, rental.CollateralAmount = utils.Totals(rental.Items, rental.RentalDays)
		rental.CreditsRequired = utils.CreditsFor(rental.CollateralAmount)

		if rental.PaymentMethod == domain.PaymentTrade {
			collateral, err := s.collateralSnapshot(ctx, req.CollateralItemIDs)
			if err != nil {
				return err
			}
			var pledged int64
			for _, c := range collateral {
				pledged += c.Value
			}
			if pledged < rental.CollateralAmount {
				return fmt.Errorf("pledged %d of %d: %w", pledged, rental.CollateralAmount, ErrInsufficientCollateral)
			}
			rental.CollateralItems = collateral
		}

		if err := s.rentalRepo.Create(ctx, rental); err != nil {
			return err
		}
		for _, l := range rental.Items {
			item := items[l.ItemID]
			if err := s.itemRepo.UpdateStock(ctx, item.ID, item.AvailableQuantity, domain.ItemReserved); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) collateralSnapshot(ctx context.Context, ids []int32) ([]domain.CollateralItem, error) {
	seen := make(map[int32]bool, len(ids))
	out := make([]domain.CollateralItem, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, err := s.itemRepo.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepoErr(err, fmt.Sprintf("collateral item %d", id))
		}
		out = append(out, domain.CollateralItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Category: item.Category,
			ImageURL: item.ImageURL,
			Value:    item.MarketRate,
		})
	}
	return out, nil
}

func lineIDs(lines []RentalLine) []int32 {
	ids := make([]int32, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	return ids
}

func rentalItemIDs(r *domain.Rental) []int32 {
	ids := make([]int32, 0, len(r.Items))
	for _, l := range r.Items {
		ids = append(ids, l.ItemID)
	}
	return ids
}

// lockItems locks the item rows in ascending id order. With skipMissing set,
// deleted items are left out of the result instead of failing.
func (s *rentalService) lockItems(ctx context.Context, ids []int32, skipMissing bool) (map[int32]*domain.Item, error) {
	sorted := append([]int32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	items := make(map[int32]*domain.Item, len(sorted))
	for _, id := range sorted {
		if _, ok := items[id]; ok {
			continue
		}
		item, err := s.itemRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) && skipMissing {
				logger.WarnContext(ctx, "Rental references a deleted item, skipping", "itemID", id)
				continue
			}
			return nil, mapRepoErr(err, fmt.Sprintf("item %d", id))
		}
		items[id] = item
	}
	return items, nil
}

// stockChange computes the new stock of one item for one rental line.
type stockChange func(item *domain.Item, qty int32) (available int32, availability domain.ItemAvailability, apply bool)

func consume(item *domain.Item, qty int32) (int32, domain.ItemAvailability, bool) {
	n, a := utils.ConsumeStock(item.AvailableQuantity, qty)
	return n, a, true
}

func restore(item *domain.Item, qty int32) (int32, domain.ItemAvailability, bool) {
	n, a := utils.RestoreStock(item.AvailableQuantity, item.Quantity, qty)
	return n, a, true
}

// release frees an item reserved by a pending rental. Items an admin or
// another rental moved away from reserved are left alone.
func release(item *domain.Item, _ int32) (int32, domain.ItemAvailability, bool) {
	if item.Availability != domain.ItemReserved {
		return 0, "", false
	}
	return item.AvailableQuantity, domain.ItemAvailable, true
}

func (s *rentalService) applyStock(ctx context.Context, r *domain.Rental, change stockChange) error {
	items, err := s.lockItems(ctx, rentalItemIDs(r), true)
	if err != nil {
		return err
	}
	for _, l := range r.Items {
		item, ok := items[l.ItemID]
		if !ok {
			continue
		}
		available, availability, apply := change(item, l.Quantity)
		if !apply {
			continue
		}
		if err := s.itemRepo.UpdateStock(ctx, item.ID, available, availability); err != nil {
			return err
		}
		item.AvailableQuantity = available
		item.Availability = availability
	}
	return nil
}

// transition runs one admin lifecycle step on a locked rental.
func (s *rentalService) transition(ctx context.Context, op, actorID string, rentalID int32, from domain.RentalStatus, fn func(ctx context.Context, r *domain.Rental, now time.Time) error) (*domain.Rental, error) {
	method := "rentalService." + op
	logger.EnterMethod(method, "actorID", actorID, "rentalID", rentalID)

	var rental *domain.Rental
	err := requireAdmin(ctx, s.userRepo, actorID)
	if err == nil {
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			r, err := s.rentalRepo.GetByIDForUpdate(ctx, rentalID)
			if err != nil {
				return mapRepoErr(err, fmt.Sprintf("rental %d", rentalID))
			}
			if r.Status != from {
				return fmt.Errorf("%s rental is %s: %w", op, r.Status, ErrInvalidTransition)
			}
			if err := fn(ctx, r, s.now().UTC()); err != nil {
				return err
			}
			if err := s.rentalRepo.UpdateStatus(ctx, r); err != nil {
				return err
			}
			rental = r
			return nil
		})
	}
	metrics.RecordRentalTransition(strings.ToLower(op), err)
	if err != nil {
		logger.ExitMethodWithError(method, err, "rentalID", rentalID)
		return nil, err
	}
	logger.ExitMethod(method, "rentalID", rentalID, "status", rental.Status)
	return rental, nil
}

func (s *rentalService) ApproveRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	r, err := s.transition(ctx, "Approve", actorID, rentalID, domain.RentalStatusPending,
		func(ctx context.Context, r *domain.Rental, now time.Time) error {
			r.Status = domain.RentalStatusActive
			r.ApprovedAt = &now
			r.StartDate = &now
			return s.applyStock(ctx, r, consume)
		})
	if err != nil {
		return nil, err
	}
	s.noteSvc.Notify(ctx, r.RenterID, "Rental approved",
		fmt.Sprintf("Ticket #%d is active for %d day(s)", r.TicketNumber, r.RentalDays),
		rentalAttrs("RENTAL_APPROVED", r))
	return r, nil
}

func (s *rentalService) CompleteRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	r, err := s.transition(ctx, "Complete", actorID, rentalID, domain.RentalStatusActive,
		func(ctx context.Context, r *domain.Rental, now time.Time) error {
			r.Status = domain.RentalStatusCompleted
			r.EndDate = &now
			return s.applyStock(ctx, r, restore)
		})
	if err != nil {
		return nil, err
	}
	s.noteSvc.Notify(ctx, r.RenterID, "Rental completed",
		fmt.Sprintf("Ticket #%d was returned", r.TicketNumber),
		rentalAttrs("RENTAL_COMPLETED", r))
	return r, nil
}

func (s *rentalService) CancelRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	r, err := s.transition(ctx, "Cancel", actorID, rentalID, domain.RentalStatusPending,
		func(ctx context.Context, r *domain.Rental, now time.Time) error {
			r.Status = domain.RentalStatusCancelled
			r.EndDate = &now
			return s.applyStock(ctx, r, release)
		})
	if err != nil {
		return nil, err
	}
	s.noteSvc.Notify(ctx, r.RenterID, "Rental cancelled",
		fmt.Sprintf("Ticket #%d was cancelled", r.TicketNumber),
		rentalAttrs("RENTAL_CANCELLED", r))
	return r, nil
}

// DeleteRental removes a rental in any state, first returning whatever stock
// it still holds.
func (s *rentalService) DeleteRental(ctx context.Context, actorID string, rentalID int32) error {
	logger.EnterMethod("rentalService.DeleteRental", "actorID", actorID, "rentalID", rentalID)

	err := requireAdmin(ctx, s.userRepo, actorID)
	if err == nil {
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			r, err := s.rentalRepo.GetByIDForUpdate(ctx, rentalID)
			if err != nil {
				return mapRepoErr(err, fmt.Sprintf("rental %d", rentalID))
			}
			switch r.Status {
			case domain.RentalStatusActive:
				err = s.applyStock(ctx, r, restore)
			case domain.RentalStatusPending:
				err = s.applyStock(ctx, r, release)
			}
			if err != nil {
				return err
			}
			return mapRepoErr(s.rentalRepo.Delete(ctx, r.ID), fmt.Sprintf("rental %d", rentalID))
		})
	}
	metrics.RecordRentalTransition("delete", err)
	if err != nil {
		logger.ExitMethodWithError("rentalService.DeleteRental", err, "rentalID", rentalID)
		return err
	}
	logger.ExitMethod("rentalService.DeleteRental", "rentalID", rentalID)
	return nil
}

func (s *rentalService) GetRental(ctx context.Context, actorID string, rentalID int32) (*domain.Rental, error) {
	r, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("rental %d", rentalID))
	}
	if r.RenterID == actorID {
		return r, nil
	}
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *rentalService) ListMyRentals(ctx context.Context, renterID string) ([]domain.Rental, error) {
	return s.rentalRepo.List(ctx, repository.RentalFilter{RenterID: renterID})
}

func (s *rentalService) ListRentals(ctx context.Context, actorID string, status domain.RentalStatus) ([]domain.Rental, error) {
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, invalid("unknown rental status %q", status)
	}
	return s.rentalRepo.List(ctx, repository.RentalFilter{Status: status})
}

func (s *rentalService) ListActive(ctx context.Context) ([]domain.Rental, error) {
	return s.rentalRepo.List(ctx, repository.RentalFilter{Status: domain.RentalStatusActive})
}

func rentalAttrs(kind string, r *domain.Rental) map[string]string {
	return map[string]string{
		"type":          kind,
		"rental_id":     fmt.Sprintf("%d", r.ID),
		"ticket_number": fmt.Sprintf("%d", r.TicketNumber),
	}
}
