package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyeonu91/schoolreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaceReserveSummary is the projection returned for a user's completed
// place rentals.
type PlaceReserveSummary struct {
	ReserveID       int64
	SchoolID        int64
	SchoolImageName string
}

// ReservePage joins a reservation with the user and school display fields
// shown on the payment page.
type ReservePage struct {
	ReserveID     int64
	ReserveType   domain.ReserveType
	StartDate     time.Time
	EndDate       time.Time
	Price         int
	SchoolID      int64
	UserName      string
	UserEmail     string
	UserPhone     string
	SchoolName    string
	SchoolAddress string
}

type ReserveRepository interface {
	// CreatePlace admits a single-day place rental. The exclusivity check and
	// the insert run in one transaction serialized on the school row.
	CreatePlace(ctx context.Context, res *domain.Reservation) error
	// CreateParking admits a parking reservation or enqueues it on the
	// waitlist with the next dense order, atomically per school.
	CreateParking(ctx context.Context, res *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	// Cancel applies the cancel transition. WAITING targets are removed from
	// the waitlist and the tail is renumbered in the same transaction. A
	// non-zero userID restricts cancellation to the owner.
	Cancel(ctx context.Context, reserveID, userID int64) (*domain.Reservation, error)
	CountActiveByUser(ctx context.Context, userID int64, t domain.ReserveType) (int, error)
	ListCompletedPlaceByUser(ctx context.Context, userID int64, limit int) ([]PlaceReserveSummary, error)
	GetCompletedParkingByUser(ctx context.Context, userID int64) (*domain.Reservation, error)
	// ExpireCompletedBefore moves every COMPLETED reservation whose end date
	// is before the deadline to EXPIRED and returns the affected rows.
	ExpireCompletedBefore(ctx context.Context, deadline time.Time) ([]domain.Reservation, error)
	GetReservePage(ctx context.Context, reserveID int64) (*ReservePage, error)
}

type PGReserveRepository struct {
	db *pgxpool.Pool
}

func NewReserveRepository(db *pgxpool.Pool) ReserveRepository {
	return &PGReserveRepository{db: db}
}

const reserveColumns = `id, user_id, school_id, reserve_type, status, start_date, end_date, waiting_order, price, deposit, created_at, updated_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := row.Scan(&r.ID, &r.UserID, &r.SchoolID, &r.Type, &r.Status, &r.StartDate, &r.EndDate, &r.WaitingOrder, &r.Price, &r.Deposit, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PGReserveRepository) CreatePlace(ctx context.Context, res *domain.Reservation) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		// The school row lock serializes the exists-then-insert sequence for
		// all creates targeting this school.
		var schoolID int64
		err := tx.QueryRow(ctx, `SELECT id FROM schools WHERE id=$1 FOR UPDATE`, res.SchoolID).Scan(&schoolID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("school %d: %w", res.SchoolID, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}

		var taken bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM reserves
				WHERE school_id=$1 AND reserve_type=$2 AND status = ANY($3) AND start_date=$4
			)`, res.SchoolID, domain.ReserveTypePlace, activeStatuses(), res.StartDate).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSlotTaken
		}

		res.Status = domain.ReserveStatusPending
		return r.insert(ctx, tx, res)
	})
}

func (r *PGReserveRepository) CreateParking(ctx context.Context, res *domain.Reservation) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		var land float64
		err := tx.QueryRow(ctx, `SELECT land_area FROM schools WHERE id=$1 FOR UPDATE`, res.SchoolID).Scan(&land)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("school %d: %w", res.SchoolID, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}

		school := domain.School{LandArea: land}
		capacity := school.ParkingCapacity()
		if capacity <= 0 {
			return domain.ErrCapacityUnavailable
		}

		var active int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM reserves
			WHERE school_id=$1 AND reserve_type=$2 AND status = ANY($3) AND start_date=$4`,
			res.SchoolID, domain.ReserveTypeParking, activeStatuses(), res.StartDate).Scan(&active)
		if err != nil {
			return err
		}

		if active < capacity {
			res.Status = domain.ReserveStatusPending
			res.WaitingOrder = nil
			return r.insert(ctx, tx, res)
		}

		var nextOrder int
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(waiting_order), 0) + 1 FROM reserves
			WHERE school_id=$1 AND reserve_type=$2 AND status=$3 AND start_date=$4`,
			res.SchoolID, domain.ReserveTypeParking, domain.ReserveStatusWaiting, res.StartDate).Scan(&nextOrder)
		if err != nil {
			return err
		}

		res.Status = domain.ReserveStatusWaiting
		res.WaitingOrder = &nextOrder
		return r.insert(ctx, tx, res)
	})
}

func (r *PGReserveRepository) insert(ctx context.Context, tx pgx.Tx, res *domain.Reservation) error {
	return tx.QueryRow(ctx, `
		INSERT INTO reserves (user_id, school_id, reserve_type, status, start_date, end_date, waiting_order, price, deposit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		res.UserID, res.SchoolID, res.Type, res.Status, res.StartDate, res.EndDate, res.WaitingOrder, res.Price, res.Deposit).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (r *PGReserveRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `SELECT `+reserveColumns+` FROM reserves WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *PGReserveRepository) Cancel(ctx context.Context, reserveID, userID int64) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		target, err := scanReservation(tx.QueryRow(ctx, `SELECT `+reserveColumns+` FROM reserves WHERE id=$1 FOR UPDATE`, reserveID))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("reservation %d: %w", reserveID, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if userID != 0 && target.UserID != userID {
			// Do not reveal other users' reservations.
			return fmt.Errorf("reservation %d: %w", reserveID, domain.ErrNotFound)
		}

		if _, err := domain.NextStatus(target.Status, domain.EventCancel); err != nil {
			return err
		}

		if target.Status == domain.ReserveStatusWaiting {
			out, err = r.cancelWaiting(ctx, tx, target)
			return err
		}

		// The guard on the previous status makes the write a no-op if another
		// transaction already moved the row.
		updated, err := scanReservation(tx.QueryRow(ctx, `
			UPDATE reserves SET status=$1, updated_at=now()
			WHERE id=$2 AND status=$3
			RETURNING `+reserveColumns, domain.ReserveStatusCanceled, target.ID, target.Status))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInvalidStateTransition
		}
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// cancelWaiting removes target from its waitlist and closes the gap: every
// WAITING reservation for the same school/type/date with a higher order is
// pulled forward by one, keeping orders a dense 1..N sequence.
func (r *PGReserveRepository) cancelWaiting(ctx context.Context, tx pgx.Tx, target *domain.Reservation) (*domain.Reservation, error) {
	if target.WaitingOrder == nil {
		return nil, fmt.Errorf("waiting reservation %d has no order: %w", target.ID, domain.ErrDataIntegrity)
	}
	removedOrder := *target.WaitingOrder

	// Serialize the renumbering with concurrent enqueues on the same school.
	var schoolID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM schools WHERE id=$1 FOR UPDATE`, target.SchoolID).Scan(&schoolID); err != nil {
		return nil, err
	}

	updated, err := scanReservation(tx.QueryRow(ctx, `
		UPDATE reserves SET status=$1, waiting_order=NULL, updated_at=now()
		WHERE id=$2 AND status=$3
		RETURNING `+reserveColumns, domain.ReserveStatusCanceled, target.ID, domain.ReserveStatusWaiting))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvalidStateTransition
	}
	if err != nil {
		return nil, err
	}

	// Decrement the tail one row at a time in ascending order: each move lands
	// on the slot just vacated. A single UPDATE may visit rows in any order
	// and collide with a still-live order under the unique waitlist index.
	rows, err := tx.Query(ctx, `
		SELECT id FROM reserves
		WHERE school_id=$1 AND reserve_type=$2 AND status=$3 AND start_date=$4 AND waiting_order > $5
		ORDER BY waiting_order`,
		target.SchoolID, target.Type, domain.ReserveStatusWaiting, target.StartDate, removedOrder)
	if err != nil {
		return nil, err
	}
	var tail []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		tail = append(tail, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range tail {
		if _, err := tx.Exec(ctx, `
			UPDATE reserves SET waiting_order = waiting_order - 1, updated_at=now()
			WHERE id=$1`, id); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (r *PGReserveRepository) CountActiveByUser(ctx context.Context, userID int64, t domain.ReserveType) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM reserves
		WHERE user_id=$1 AND reserve_type=$2 AND status = ANY($3)`,
		userID, t, activeStatuses()).Scan(&count)
	return count, err
}

func (r *PGReserveRepository) ListCompletedPlaceByUser(ctx context.Context, userID int64, limit int) ([]PlaceReserveSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.school_id, s.image_name
		FROM reserves r
		JOIN schools s ON s.id = r.school_id
		WHERE r.user_id=$1 AND r.reserve_type=$2 AND r.status=$3
		ORDER BY r.created_at
		LIMIT $4`,
		userID, domain.ReserveTypePlace, domain.ReserveStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]PlaceReserveSummary, 0)
	for rows.Next() {
		var s PlaceReserveSummary
		if err := rows.Scan(&s.ReserveID, &s.SchoolID, &s.SchoolImageName); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *PGReserveRepository) GetCompletedParkingByUser(ctx context.Context, userID int64) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx, `
		SELECT `+reserveColumns+` FROM reserves
		WHERE user_id=$1 AND reserve_type=$2 AND status=$3
		ORDER BY created_at
		LIMIT 1`,
		userID, domain.ReserveTypeParking, domain.ReserveStatusCompleted))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *PGReserveRepository) ExpireCompletedBefore(ctx context.Context, deadline time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE reserves SET status=$1, updated_at=now()
		WHERE status=$2 AND end_date < $3
		RETURNING `+reserveColumns,
		domain.ReserveStatusExpired, domain.ReserveStatusCompleted, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *res)
	}
	return expired, rows.Err()
}

func (r *PGReserveRepository) GetReservePage(ctx context.Context, reserveID int64) (*ReservePage, error) {
	var p ReservePage
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.reserve_type, r.start_date, r.end_date, r.price,
		       s.id, u.name, u.email, u.phone, s.name, s.address
		FROM reserves r
		JOIN users u ON u.id = r.user_id
		JOIN schools s ON s.id = r.school_id
		WHERE r.id=$1`, reserveID).
		Scan(&p.ReserveID, &p.ReserveType, &p.StartDate, &p.EndDate, &p.Price,
			&p.SchoolID, &p.UserName, &p.UserEmail, &p.UserPhone, &p.SchoolName, &p.SchoolAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservation %d: %w", reserveID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func activeStatuses() []string {
	return []string{string(domain.ReserveStatusPending), string(domain.ReserveStatusCompleted)}
}

var _ ReserveRepository = (*PGReserveRepository)(nil)
