package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/utils"
)

type ParticipantService interface {
	RegisterTeam(ctx context.Context, actor Actor, tournamentID int, input RegisterTeamInput) (*models.TournamentTeam, error)
	ListTeams(ctx context.Context, tournamentID int, status *models.TeamStatus) ([]models.TournamentTeam, error)
	UpdateTeamStatus(ctx context.Context, actor Actor, tournamentID, teamID int, status models.TeamStatus) (*models.TournamentTeam, error)
	WithdrawTeam(ctx context.Context, actor Actor, tournamentID, teamID int) error
}

type RegisterTeamInput struct {
	Name   string               `json:"name"`
	Roster []models.RosterEntry `json:"roster"`
}

type participantService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TournamentTeamRepository
	logger         *slog.Logger
}

func NewParticipantService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TournamentTeamRepository,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		logger:         logger,
	}
}

// normalizeRoster validates the roster against the tournament team size and
// returns it with normalised player tags.
func normalizeRoster(roster []models.RosterEntry, teamSize int) ([]models.RosterEntry, error) {
	if len(roster) == 0 || len(roster) > teamSize {
		return nil, fmt.Errorf("%w: roster must have between 1 and %d players", ErrInvalidRoster, teamSize)
	}
	seen := make(map[string]struct{}, len(roster))
	out := make([]models.RosterEntry, 0, len(roster))
	for _, entry := range roster {
		tag := utils.NormalizeTag(entry.PlayerTag)
		if !utils.ValidTag(tag) {
			return nil, fmt.Errorf("%w: invalid player tag %q", ErrInvalidRoster, entry.PlayerTag)
		}
		if _, dup := seen[tag]; dup {
			return nil, fmt.Errorf("%w: player %s listed twice", ErrInvalidRoster, tag)
		}
		seen[tag] = struct{}{}

		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: player %s has no name", ErrInvalidRoster, tag)
		}
		if entry.TownHallLevel < 1 || entry.TownHallLevel > maxTownHallLevel {
			return nil, fmt.Errorf("%w: town hall level of %s must be between 1 and %d", ErrInvalidRoster, tag, maxTownHallLevel)
		}
		out = append(out, models.RosterEntry{PlayerTag: tag, Name: name, TownHallLevel: entry.TownHallLevel})
	}
	return out, nil
}

func (s *participantService) RegisterTeam(ctx context.Context, actor Actor, tournamentID int, input RegisterTeamInput) (*models.TournamentTeam, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	var team *models.TournamentTeam
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.LockByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.TournamentRegistrationOpen {
			return ErrRegistrationNotOpen
		}
		roster, err := normalizeRoster(input.Roster, tournament.TeamSize)
		if err != nil {
			return err
		}
		if !tournament.HasCapacity() {
			return ErrTournamentFull
		}

		team = &models.TournamentTeam{
			TournamentID: tournamentID,
			CaptainID:    actor.UserID,
			Name:         name,
			Status:       models.TeamPending,
			Roster:       roster,
		}
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return err
		}
		return s.tournamentRepo.AdjustParticipantCount(ctx, exec, tournamentID, 1)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "register team")
	}

	s.logger.InfoContext(ctx, "team registered",
		slog.Int("tournament_id", tournamentID), slog.Int("team_id", team.ID), slog.Int("captain_id", actor.UserID))
	return team, nil
}

func (s *participantService) ListTeams(ctx context.Context, tournamentID int, status *models.TeamStatus) ([]models.TournamentTeam, error) {
	if status != nil {
		switch *status {
		case models.TeamPending, models.TeamApproved, models.TeamRejected:
		default:
			return nil, fmt.Errorf("%w: unknown team status %q", ErrValidationFailed, *status)
		}
	}
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID, status)
	if err != nil {
		return nil, handleRepositoryError(err, "list teams")
	}
	if teams == nil {
		teams = []models.TournamentTeam{}
	}
	return teams, nil
}

func (s *participantService) UpdateTeamStatus(ctx context.Context, actor Actor, tournamentID, teamID int, status models.TeamStatus) (*models.TournamentTeam, error) {
	if status != models.TeamApproved && status != models.TeamRejected {
		return nil, ErrInvalidTeamStatus
	}

	var team *models.TournamentTeam
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.LockByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := requireOrganizer(actor, tournament); err != nil {
			return err
		}
		if tournament.Status != models.TournamentRegistrationOpen && tournament.Status != models.TournamentRegistrationClosed {
			return fmt.Errorf("%w: teams can only be reviewed before the bracket is generated", ErrTournamentNotEditable)
		}

		team, err = s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			return err
		}
		if team.TournamentID != tournamentID {
			return ErrTeamNotFound
		}
		if team.Status != models.TeamPending {
			return ErrTeamAlreadyProcessed
		}

		if err := s.teamRepo.UpdateStatus(ctx, exec, teamID, status); err != nil {
			return err
		}
		if status == models.TeamRejected {
			if err := s.tournamentRepo.AdjustParticipantCount(ctx, exec, tournamentID, -1); err != nil {
				return err
			}
		}
		team.Status = status
		return nil
	})
	if err != nil {
		return nil, handleRepositoryError(err, "update team status")
	}

	s.logger.InfoContext(ctx, "team reviewed",
		slog.Int("tournament_id", tournamentID), slog.Int("team_id", teamID), slog.String("status", string(status)))
	return team, nil
}

func (s *participantService) WithdrawTeam(ctx context.Context, actor Actor, tournamentID, teamID int) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.LockByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		team, err := s.teamRepo.GetByID(ctx, exec, teamID)
		if err != nil {
			return err
		}
		if team.TournamentID != tournamentID {
			return ErrTeamNotFound
		}
		if team.CaptainID != actor.UserID {
			return ErrNotTeamCaptain
		}
		if tournament.Status != models.TournamentRegistrationOpen && tournament.Status != models.TournamentRegistrationClosed {
			return ErrWithdrawNotAllowed
		}

		if err := s.teamRepo.Delete(ctx, exec, teamID); err != nil {
			return err
		}
		// rejected teams were already removed from the counter
		if team.Status != models.TeamRejected {
			return s.tournamentRepo.AdjustParticipantCount(ctx, exec, tournamentID, -1)
		}
		return nil
	})
	if err != nil {
		return handleRepositoryError(err, "withdraw team")
	}

	s.logger.InfoContext(ctx, "team withdrawn", slog.Int("tournament_id", tournamentID), slog.Int("team_id", teamID))
	return nil
}
