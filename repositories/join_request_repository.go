package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

var (
	ErrJoinRequestNotFound  = errors.New("join request not found")
	ErrJoinRequestDuplicate = errors.New("a pending join request already exists")
	ErrJoinRequestProcessed = errors.New("join request already processed")
)

type JoinRequestRepository interface {
	Create(ctx context.Context, req *models.JoinRequest) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error)
	ListByClan(ctx context.Context, clanID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error)
	HasPending(ctx context.Context, clanID, userID int) (bool, error)
	// Resolve moves a pending request to status. ErrJoinRequestProcessed is
	// returned when the request is no longer pending.
	Resolve(ctx context.Context, exec SQLExecutor, id int, status models.JoinRequestStatus, processedBy int, processedAt time.Time) error
}

type postgresJoinRequestRepository struct {
	db *sql.DB
}

func NewPostgresJoinRequestRepository(db *sql.DB) JoinRequestRepository {
	return &postgresJoinRequestRepository{db: db}
}

func (r *postgresJoinRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const joinRequestColumns = `id, clan_id, user_id, message, status, processed_by, processed_at, created_at`

func scanJoinRequest(row interface{ Scan(...interface{}) error }) (*models.JoinRequest, error) {
	jr := &models.JoinRequest{}
	if err := row.Scan(&jr.ID, &jr.ClanID, &jr.UserID, &jr.Message, &jr.Status, &jr.ProcessedBy, &jr.ProcessedAt, &jr.CreatedAt); err != nil {
		return nil, err
	}
	return jr, nil
}

func (r *postgresJoinRequestRepository) Create(ctx context.Context, req *models.JoinRequest) error {
	query := `
		INSERT INTO join_requests (clan_id, user_id, message, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, req.ClanID, req.UserID, req.Message, req.Status).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		code, constraint := pqConstraint(err)
		switch {
		case code == pqUniqueViolation && constraint == "join_requests_one_pending_idx":
			return ErrJoinRequestDuplicate
		case code == pqForeignKeyViolation && constraint == "join_requests_clan_id_fkey":
			return ErrClanNotFound
		}
		return fmt.Errorf("failed to create join request: %w", err)
	}
	return nil
}

// GetByID locks the row when called with a transaction executor.
func (r *postgresJoinRequestRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests WHERE id = $1`
	if exec != nil {
		query += ` FOR UPDATE`
	}
	jr, err := scanJoinRequest(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, fmt.Errorf("failed to get join request %d: %w", id, err)
	}
	return jr, nil
}

func (r *postgresJoinRequestRepository) ListByClan(ctx context.Context, clanID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests WHERE clan_id = $1`
	args := []interface{}{clanID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.JoinRequest, 0)
	for rows.Next() {
		jr, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, *jr)
	}
	return requests, rows.Err()
}

func (r *postgresJoinRequestRepository) HasPending(ctx context.Context, clanID, userID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM join_requests WHERE clan_id = $1 AND user_id = $2 AND status = 'pending')`
	if err := r.db.QueryRowContext(ctx, query, clanID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending join request: %w", err)
	}
	return exists, nil
}

func (r *postgresJoinRequestRepository) Resolve(ctx context.Context, exec SQLExecutor, id int, status models.JoinRequestStatus, processedBy int, processedAt time.Time) error {
	query := `
		UPDATE join_requests
		SET status = $1, processed_by = $2, processed_at = $3
		WHERE id = $4 AND status = 'pending'`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, processedBy, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to resolve join request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrJoinRequestProcessed)
}
