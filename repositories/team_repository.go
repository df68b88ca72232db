package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

var (
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamCaptainConflict  = errors.New("captain already registered a team for this tournament")
	ErrTeamInvalidReference = errors.New("invalid tournament or captain reference")
)

type TournamentTeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.TournamentTeam) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentTeam, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, status *models.TeamStatus) ([]models.TournamentTeam, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TeamStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentTeamRepository struct {
	db *sql.DB
}

func NewPostgresTournamentTeamRepository(db *sql.DB) TournamentTeamRepository {
	return &postgresTournamentTeamRepository{db: db}
}

func (r *postgresTournamentTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, tournament_id, captain_id, name, status, roster, created_at`

func scanTeam(row interface{ Scan(...interface{}) error }) (*models.TournamentTeam, error) {
	t := &models.TournamentTeam{}
	var roster []byte
	if err := row.Scan(&t.ID, &t.TournamentID, &t.CaptainID, &t.Name, &t.Status, &roster, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(roster, &t.Roster); err != nil {
		return nil, fmt.Errorf("failed to decode roster of team %d: %w", t.ID, err)
	}
	return t, nil
}

func (r *postgresTournamentTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.TournamentTeam) error {
	roster, err := json.Marshal(team.Roster)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	query := `
		INSERT INTO tournament_teams (tournament_id, captain_id, name, status, roster)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		team.TournamentID, team.CaptainID, team.Name, team.Status, roster,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		code, constraint := pqConstraint(err)
		switch {
		case code == pqUniqueViolation && constraint == "tournament_teams_tournament_id_captain_id_key":
			return ErrTeamCaptainConflict
		case code == pqForeignKeyViolation:
			return ErrTeamInvalidReference
		}
		return fmt.Errorf("failed to create tournament team: %w", err)
	}
	return nil
}

func (r *postgresTournamentTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentTeam, error) {
	query := `SELECT ` + teamColumns + ` FROM tournament_teams WHERE id = $1`
	if exec != nil {
		query += ` FOR UPDATE`
	}
	t, err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, status *models.TeamStatus) ([]models.TournamentTeam, error) {
	query := `SELECT ` + teamColumns + ` FROM tournament_teams WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]models.TournamentTeam, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (r *postgresTournamentTeamRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TeamStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE tournament_teams SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update team status: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTournamentTeamRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tournament_teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
