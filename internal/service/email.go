package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailClient is the part of *sendgrid.Client the email service needs.
type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client      mailClient
	fromEmail   string
	fromName    string
	adminEmails []string
}

func NewEmailService(apiKey, fromEmail, fromName string, adminEmails []string) EmailService {
	return newEmailService(sendgrid.NewSendClient(apiKey), fromEmail, fromName, adminEmails)
}

func newEmailService(client mailClient, fromEmail, fromName string, adminEmails []string) *emailService {
	return &emailService{
		client:      client,
		fromEmail:   fromEmail,
		fromName:    fromName,
		adminEmails: adminEmails,
	}
}

func (s *emailService) send(ctx context.Context, subject, plainText, htmlContent string) error {
	if len(s.adminEmails) == 0 {
		logger.Debug("No admin recipients configured, skipping email", "subject", subject)
		return nil
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.Subject = subject

	p := mail.NewPersonalization()
	for _, addr := range s.adminEmails {
		if addr = strings.TrimSpace(addr); addr != "" {
			p.AddTos(mail.NewEmail("", addr))
		}
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", plainText), mail.NewContent("text/html", htmlContent))

	logger.ExternalServiceCall("sendgrid", "send", "subject", subject, "recipients", len(p.To))
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "subject", subject)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func itemNames(r *domain.Rental) string {
	names := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		names = append(names, fmt.Sprintf("%dx %s", it.Quantity, it.ItemName))
	}
	return strings.Join(names, ", ")
}

func (s *emailService) SendRentalRequestNotification(ctx context.Context, r *domain.Rental) error {
	subject := fmt.Sprintf("New rental request #%d from %s", r.TicketNumber, r.RenterNickname)
	plainText := fmt.Sprintf("%s requested %s for %d day(s), paying by %s. Collateral: %d. Cost: %d. Delivery: %s.",
		r.RenterNickname, itemNames(r), r.RentalDays, r.PaymentMethod, r.CollateralAmount, r.RentalCost, r.DeliveryLocation)
	htmlContent := fmt.Sprintf(`<html><body>
<h2>Rental request #%d</h2>
<p><strong>%s</strong> requested %s for %d day(s).</p>
<p>Payment: %s &middot; Collateral: %d &middot; Cost: %d &middot; Delivery: %s</p>
</body></html>`, r.TicketNumber, r.RenterNickname, itemNames(r), r.RentalDays, r.PaymentMethod, r.CollateralAmount, r.RentalCost, r.DeliveryLocation)

	return s.send(ctx, subject, plainText, htmlContent)
}

func (s *emailService) SendOverdueAlert(ctx context.Context, r *domain.Rental, overdueBy time.Duration) error {
	hours := int64(overdueBy / time.Hour)
	subject := fmt.Sprintf("Rental #%d is overdue", r.TicketNumber)
	plainText := fmt.Sprintf("%s has not returned %s. The rental expired %d hour(s) ago.", r.RenterNickname, itemNames(r), hours)
	htmlContent := fmt.Sprintf(`<html><body>
<h2>Rental #%d is overdue</h2>
<p><strong>%s</strong> has not returned %s.</p>
<p>Expired %d hour(s) ago.</p>
</body></html>`, r.TicketNumber, r.RenterNickname, itemNames(r), hours)

	return s.send(ctx, subject, plainText, htmlContent)
}

// noopEmailService is used when email is disabled in config.
type noopEmailService struct{}

func NewNoopEmailService() EmailService {
	return noopEmailService{}
}

func (noopEmailService) SendRentalRequestNotification(ctx context.Context, r *domain.Rental) error {
	logger.Debug("Email disabled, rental request not mailed", "ticket", r.TicketNumber)
	return nil
}

func (noopEmailService) SendOverdueAlert(ctx context.Context, r *domain.Rental, overdueBy time.Duration) error {
	logger.Debug("Email disabled, overdue alert not mailed", "ticket", r.TicketNumber)
	return nil
}
