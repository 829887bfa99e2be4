package jobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/utils"
)

const notificationOverdue = "RENTAL_OVERDUE"

// SendOverdueReminders reminds renters of expired active rentals. A rental
// that just expired gets a grace reminder; one that just left the 24h grace
// window gets a final reminder and the admins are emailed.
func (jr *JobRunner) SendOverdueReminders(ctx context.Context) error {
	rentals, err := jr.services.Rental.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active rentals: %w", err)
	}

	now := jr.now()
	var graceSent, overdueSent int
	for i := range rentals {
		r := &rentals[i]
		rt := utils.CalculateRemainingTime(r, now)
		if !rt.Expired || rt.ExpiresAt == nil {
			continue
		}
		overdue := now.Sub(*rt.ExpiresAt)
		attrs := map[string]string{
			"type":          notificationOverdue,
			"rental_id":     strconv.Itoa(int(r.ID)),
			"ticket_number": strconv.FormatInt(r.TicketNumber, 10),
		}

		switch {
		case rt.WithinGrace && overdue < jr.reminderWindow:
			attrs["grace_hours_left"] = strconv.FormatInt(rt.GraceHoursLeft, 10)
			jr.services.Notifications.Notify(ctx, r.RenterID,
				"Rental expired",
				fmt.Sprintf("Rental #%d has expired. Return the items within %d hours.", r.TicketNumber, rt.GraceHoursLeft),
				attrs)
			graceSent++

		case !rt.WithinGrace && overdue-utils.GracePeriod < jr.reminderWindow:
			jr.services.Notifications.Notify(ctx, r.RenterID,
				"Rental overdue",
				fmt.Sprintf("Rental #%d is past its grace period. Contact an admin to return the items.", r.TicketNumber),
				attrs)
			if err := jr.services.Email.SendOverdueAlert(ctx, r, overdue.Truncate(time.Minute)); err != nil {
				logger.Warn("Failed to email overdue alert", "rental_id", r.ID, "error", err)
			}
			overdueSent++
		}
	}

	logger.Info("Overdue reminders sent", "active", len(rentals), "grace", graceSent, "overdue", overdueSent)
	return nil
}
