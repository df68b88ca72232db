package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchAlreadyExists = errors.New("bracket match already exists")
)

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.TournamentMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, tournamentID int, matchID string) (*models.TournamentMatch, error)
	// LockByID reads the row with SELECT ... FOR UPDATE; exec must be a transaction.
	LockByID(ctx context.Context, exec SQLExecutor, tournamentID int, matchID string) (*models.TournamentMatch, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentMatch, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.TournamentMatch) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round, slot, bracket, team1_id, team2_id, status,
	winner_team_id, is_bye, next_match_id, next_slot, scheduled_at,
	reported_by, completed_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.TournamentMatch, error) {
	m := &models.TournamentMatch{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.Slot, &m.Bracket, &m.Team1ID, &m.Team2ID, &m.Status,
		&m.WinnerTeamID, &m.IsBye, &m.NextMatchID, &m.NextSlot, &m.ScheduledAt,
		&m.ReportedBy, &m.CompletedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.TournamentMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_matches (
			id, tournament_id, round, slot, bracket, team1_id, team2_id, status,
			winner_team_id, is_bye, next_match_id, next_slot, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING updated_at`

	for _, m := range matches {
		err := executor.QueryRowContext(ctx, query,
			m.ID, m.TournamentID, m.Round, m.Slot, m.Bracket, m.Team1ID, m.Team2ID, m.Status,
			m.WinnerTeamID, m.IsBye, m.NextMatchID, m.NextSlot, m.CompletedAt,
		).Scan(&m.UpdatedAt)
		if err != nil {
			if code, constraint := pqConstraint(err); code == pqUniqueViolation && constraint == "tournament_matches_pkey" {
				return ErrMatchAlreadyExists
			}
			return fmt.Errorf("failed to insert match %s: %w", m.ID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	return r.get(ctx, r.getExecutor(exec), `SELECT `+matchColumns+` FROM tournament_matches WHERE tournament_id = $1 AND id = $2`, tournamentID, matchID)
}

func (r *postgresMatchRepository) LockByID(ctx context.Context, exec SQLExecutor, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	return r.get(ctx, r.getExecutor(exec), `SELECT `+matchColumns+` FROM tournament_matches WHERE tournament_id = $1 AND id = $2 FOR UPDATE`, tournamentID, matchID)
}

func (r *postgresMatchRepository) get(ctx context.Context, executor SQLExecutor, query string, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	m, err := scanMatch(executor.QueryRowContext(ctx, query, tournamentID, matchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE tournament_id = $1 ORDER BY round, slot`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var matches []*models.TournamentMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT count(*) FROM tournament_matches WHERE tournament_id = $1`, tournamentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.TournamentMatch) error {
	query := `
		UPDATE tournament_matches SET
			team1_id = $1,
			team2_id = $2,
			status = $3,
			winner_team_id = $4,
			scheduled_at = $5,
			reported_by = $6,
			completed_at = $7,
			updated_at = now()
		WHERE tournament_id = $8 AND id = $9
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.Team1ID, m.Team2ID, m.Status, m.WinnerTeamID, m.ScheduledAt, m.ReportedBy, m.CompletedAt,
		m.TournamentID, m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to update match %s: %w", m.ID, err)
	}
	return nil
}
