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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentInvalidOrg     = errors.New("invalid organizer reference")
	ErrTournamentInvalidClan    = errors.New("invalid clan reference")
	ErrTournamentCounterBounds  = errors.New("participant counter out of bounds")
	ErrTournamentCapacityBounds = errors.New("capacity below registered participants")
)

type ListTournamentsFilter struct {
	OrganizerID *int
	ClanID      *int
	Status      *models.TournamentStatus
	Limit       int
	Offset      int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	// LockByID reads the row with SELECT ... FOR UPDATE; exec must be a transaction.
	LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateLogoKey(ctx context.Context, tournamentID int, logoKey *string) error
	Complete(ctx context.Context, exec SQLExecutor, tournamentID int, winnerTeamID int) error
	AdjustParticipantCount(ctx context.Context, exec SQLExecutor, tournamentID int, delta int) error
	ListDueForStatusUpdate(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, title, description, organizer_id, clan_id, status,
	participant_count, participant_count_current, team_size,
	registration_opens_at, registration_closes_at, starts_at,
	winner_team_id, logo_key, created_at, updated_at`

func scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.OrganizerID, &t.ClanID, &t.Status,
		&t.ParticipantCount, &t.ParticipantCountCurrent, &t.TeamSize,
		&t.RegistrationOpensAt, &t.RegistrationClosesAt, &t.StartsAt,
		&t.WinnerTeamID, &t.LogoKey, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			title, description, organizer_id, clan_id, status,
			participant_count, team_size,
			registration_opens_at, registration_closes_at, starts_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, participant_count_current, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.OrganizerID, t.ClanID, t.Status,
		t.ParticipantCount, t.TeamSize,
		t.RegistrationOpensAt, t.RegistrationClosesAt, t.StartsAt,
	).Scan(&t.ID, &t.ParticipantCountCurrent, &t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.get(ctx, r.getExecutor(exec), `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
}

func (r *postgresTournamentRepository) LockByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.get(ctx, r.getExecutor(exec), `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresTournamentRepository) get(ctx context.Context, executor SQLExecutor, query string, id int) (*models.Tournament, error) {
	t, err := scanTournament(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}
	if filter.ClanID != nil {
		query += fmt.Sprintf(" AND clan_id = $%d", argID)
		args = append(args, *filter.ClanID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY starts_at DESC NULLS LAST, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", scanErr)
		}
		tournaments = append(tournaments, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			title = $1,
			description = $2,
			clan_id = $3,
			participant_count = $4,
			team_size = $5,
			registration_opens_at = $6,
			registration_closes_at = $7,
			starts_at = $8,
			updated_at = now()
		WHERE id = $9
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.ClanID, t.ParticipantCount, t.TeamSize,
		t.RegistrationOpensAt, t.RegistrationClosesAt, t.StartsAt, t.ID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1, updated_at = now() WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateLogoKey(ctx context.Context, tournamentID int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET logo_key = $1, updated_at = now() WHERE id = $2`, logoKey, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to update tournament logo key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Complete(ctx context.Context, exec SQLExecutor, tournamentID int, winnerTeamID int) error {
	query := `UPDATE tournaments SET status = $1, winner_team_id = $2, updated_at = now() WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.TournamentCompleted, winnerTeamID, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to complete tournament %d: %w", tournamentID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// AdjustParticipantCount shifts the registration counter by delta. The
// tournaments_participant_count_current_check constraint keeps the counter
// within [0, participant_count].
func (r *postgresTournamentRepository) AdjustParticipantCount(ctx context.Context, exec SQLExecutor, tournamentID int, delta int) error {
	query := `UPDATE tournaments SET participant_count_current = participant_count_current + $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, delta, tournamentID)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListDueForStatusUpdate(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE (status = $1 AND registration_opens_at IS NOT NULL AND registration_opens_at <= $3)
		   OR (status = $2 AND registration_closes_at IS NOT NULL AND registration_closes_at <= $3)`

	rows, err := r.db.QueryContext(ctx, query, models.TournamentDraft, models.TournamentRegistrationOpen, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for auto status update: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament for auto status update: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration for auto status update: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	code, constraint := pqConstraint(err)
	switch code {
	case pqForeignKeyViolation:
		switch constraint {
		case "tournaments_organizer_id_fkey":
			return ErrTournamentInvalidOrg
		case "tournaments_clan_id_fkey":
			return ErrTournamentInvalidClan
		}
	case pqCheckViolation:
		switch constraint {
		case "tournaments_participant_count_current_check":
			return ErrTournamentCounterBounds
		case "tournaments_capacity_check":
			return ErrTournamentCapacityBounds
		}
	}
	return err
}
