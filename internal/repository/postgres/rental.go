package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"

	"github.com/lib/pq"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, ticket_number, renter_id, renter_nickname, payment_method, collateral_amount, credits_required, rental_cost, rental_type, rental_days, delivery_location, terms_accepted, terms_text, status, created_at, approved_at, start_date, end_date`

func scanRental(s rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	var approvedAt, startDate, endDate sql.NullTime
	err := s.Scan(&rt.ID, &rt.TicketNumber, &rt.RenterID, &rt.RenterNickname, &rt.PaymentMethod, &rt.CollateralAmount, &rt.CreditsRequired, &rt.RentalCost, &rt.RentalType, &rt.RentalDays, &rt.DeliveryLocation, &rt.TermsAccepted, &rt.TermsText, &rt.Status, &rt.CreatedAt, &approvedAt, &startDate, &endDate)
	if err != nil {
		return nil, err
	}
	rt.ApprovedAt = nullTimePtr(approvedAt)
	rt.StartDate = nullTimePtr(startDate)
	rt.EndDate = nullTimePtr(endDate)
	return rt, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Create", "ticket", rt.TicketNumber, "renterID", rt.RenterID)
	db := conn(ctx, r.db)

	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO rentals (ticket_number, renter_id, renter_nickname, payment_method, collateral_amount, credits_required, rental_cost, rental_type, rental_days, delivery_location, terms_accepted, terms_text, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	logger.DatabaseCall("INSERT", "rentals", "ticket", rt.TicketNumber)
	err := db.QueryRowContext(ctx, query, rt.TicketNumber, rt.RenterID, rt.RenterNickname, rt.PaymentMethod, rt.CollateralAmount, rt.CreditsRequired, rt.RentalCost, rt.RentalType, rt.RentalDays, rt.DeliveryLocation, rt.TermsAccepted, rt.TermsText, rt.Status, rt.CreatedAt).Scan(&rt.ID)
	logger.DatabaseResult("INSERT", 1, err, "rentalID", rt.ID)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Create", err)
		return err
	}

	lineQuery := `INSERT INTO rental_items (rental_id, position, item_id, item_name, item_image_url, quantity, daily_rate, weekly_rate, collateral_amount)
	              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, it := range rt.Items {
		if _, err := db.ExecContext(ctx, lineQuery, rt.ID, i, it.ItemID, it.ItemName, it.ItemImageURL, it.Quantity, it.DailyRate, it.WeeklyRate, it.CollateralAmount); err != nil {
			logger.ExitMethodWithError("rentalRepository.Create", err, "line", i)
			return fmt.Errorf("insert rental item %d: %w", it.ItemID, err)
		}
	}

	collQuery := `INSERT INTO rental_collateral_items (rental_id, position, item_id, name, category, image_url, value)
	              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, c := range rt.CollateralItems {
		if _, err := db.ExecContext(ctx, collQuery, rt.ID, i, c.ItemID, c.Name, c.Category, c.ImageURL, c.Value); err != nil {
			logger.ExitMethodWithError("rentalRepository.Create", err, "collateral", i)
			return fmt.Errorf("insert collateral item %d: %w", c.ItemID, err)
		}
	}

	logger.ExitMethod("rentalRepository.Create", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	return r.get(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Rental, error) {
	return r.get(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1 FOR UPDATE`, id)
}

func (r *rentalRepository) get(ctx context.Context, query string, id int32) (*domain.Rental, error) {
	rt, err := scanRental(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	rentals := []domain.Rental{*rt}
	if err := r.loadDetails(ctx, rentals); err != nil {
		return nil, err
	}
	return &rentals[0], nil
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET status=$1, approved_at=$2, start_date=$3, end_date=$4 WHERE id=$5`
	logger.DatabaseCall("UPDATE", "rentals", "rentalID", rt.ID, "status", rt.Status)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, rt.Status, rt.ApprovedAt, rt.StartDate, rt.EndDate, rt.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rentalID", rt.ID)
		return err
	}
	return affected(res)
}

// Delete relies on ON DELETE CASCADE for lines, collateral items and messages.
func (r *rentalRepository) Delete(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "rentals", "rentalID", id)
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *rentalRepository) List(ctx context.Context, filter repository.RentalFilter) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE 1=1`
	var args []any
	if filter.RenterID != "" {
		args = append(args, filter.RenterID)
		query += fmt.Sprintf(" AND renter_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, rentals); err != nil {
		return nil, err
	}
	return rentals, nil
}

// loadDetails fills item lines and collateral items for the given rentals in two queries.
func (r *rentalRepository) loadDetails(ctx context.Context, rentals []domain.Rental) error {
	if len(rentals) == 0 {
		return nil
	}
	ids := make([]int64, len(rentals))
	index := make(map[int32]int, len(rentals))
	for i, rt := range rentals {
		ids[i] = int64(rt.ID)
		index[rt.ID] = i
	}
	if err := r.loadLines(ctx, rentals, ids, index); err != nil {
		return err
	}
	return r.loadCollateral(ctx, rentals, ids, index)
}

func (r *rentalRepository) loadLines(ctx context.Context, rentals []domain.Rental, ids []int64, index map[int32]int) error {
	query := `SELECT rental_id, item_id, item_name, item_image_url, quantity, daily_rate, weekly_rate, collateral_amount
	          FROM rental_items WHERE rental_id = ANY($1) ORDER BY rental_id, position`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rentalID int32
		var it domain.RentalItem
		if err := rows.Scan(&rentalID, &it.ItemID, &it.ItemName, &it.ItemImageURL, &it.Quantity, &it.DailyRate, &it.WeeklyRate, &it.CollateralAmount); err != nil {
			return err
		}
		if i, ok := index[rentalID]; ok {
			rentals[i].Items = append(rentals[i].Items, it)
		}
	}
	return rows.Err()
}

func (r *rentalRepository) loadCollateral(ctx context.Context, rentals []domain.Rental, ids []int64, index map[int32]int) error {
	query := `SELECT rental_id, item_id, name, category, image_url, value
	          FROM rental_collateral_items WHERE rental_id = ANY($1) ORDER BY rental_id, position`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rentalID int32
		var c domain.CollateralItem
		if err := rows.Scan(&rentalID, &c.ItemID, &c.Name, &c.Category, &c.ImageURL, &c.Value); err != nil {
			return err
		}
		if i, ok := index[rentalID]; ok {
			rentals[i].CollateralItems = append(rentals[i].CollateralItems, c)
		}
	}
	return rows.Err()
}
