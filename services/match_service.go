package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

type MatchService interface {
	GetMatch(ctx context.Context, tournamentID int, matchID string) (*models.TournamentMatch, error)
	ScheduleMatch(ctx context.Context, actor Actor, tournamentID int, matchID string, at time.Time) (*models.TournamentMatch, error)
	StartMatch(ctx context.Context, actor Actor, tournamentID int, matchID string) (*models.TournamentMatch, error)
	// ReportWinner records a result. A captain's report only proposes the
	// winner; the organizer's report completes the match and advances the
	// winner.
	ReportWinner(ctx context.Context, actor Actor, tournamentID int, matchID string, winnerTeamID int) (*MatchResult, error)
}

type MatchResult struct {
	Match     *models.TournamentMatch `json:"match"`
	NextMatch *models.TournamentMatch `json:"next_match,omitempty"`
	// TournamentWinnerID is set when the final was decided.
	TournamentWinnerID *int `json:"tournament_winner_id,omitempty"`
}

type MatchUpdatePayload struct {
	TournamentID int                     `json:"tournament_id"`
	Match        *models.TournamentMatch `json:"match"`
}

type TournamentWinnerPayload struct {
	TournamentID int    `json:"tournament_id"`
	WinnerTeamID int    `json:"winner_team_id"`
	Message      string `json:"message"`
}

type matchService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TournamentTeamRepository
	matchRepo      repositories.MatchRepository
	hub            Broadcaster
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TournamentTeamRepository,
	matchRepo repositories.MatchRepository,
	hub Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		hub:            broadcasterOrNoop(hub),
		logger:         logger,
		now:            time.Now,
	}
}

func (s *matchService) GetMatch(ctx context.Context, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, tournamentID, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	return match, nil
}

// lockForOrganizer locks the tournament and the match, in that order, and
// checks the actor organizes an ongoing tournament.
func (s *matchService) lockForOrganizer(ctx context.Context, exec repositories.SQLExecutor, actor Actor, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	tournament, err := s.tournamentRepo.LockByID(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := requireOrganizer(actor, tournament); err != nil {
		return nil, err
	}
	match, err := s.matchRepo.LockByID(ctx, exec, tournamentID, matchID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentOngoing {
		return nil, ErrInvalidMatchTransition
	}
	return match, nil
}

func (s *matchService) ScheduleMatch(ctx context.Context, actor Actor, tournamentID int, matchID string, at time.Time) (*models.TournamentMatch, error) {
	if at.IsZero() {
		return nil, ErrScheduleRequired
	}

	var match *models.TournamentMatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		var err error
		match, err = s.lockForOrganizer(ctx, exec, actor, tournamentID, matchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchPending && match.Status != models.MatchScheduled {
			return ErrInvalidMatchTransition
		}
		if !match.HasBothTeams() {
			return ErrMatchNotReady
		}
		scheduled := at.UTC()
		match.ScheduledAt = &scheduled
		match.Status = models.MatchScheduled
		return s.matchRepo.Update(ctx, exec, match)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "schedule match")
	}

	s.broadcastMatch(tournamentID, match)
	return match, nil
}

func (s *matchService) StartMatch(ctx context.Context, actor Actor, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	var match *models.TournamentMatch
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		var err error
		match, err = s.lockForOrganizer(ctx, exec, actor, tournamentID, matchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchScheduled {
			return ErrInvalidMatchTransition
		}
		match.Status = models.MatchLive
		return s.matchRepo.Update(ctx, exec, match)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "start match")
	}

	s.broadcastMatch(tournamentID, match)
	return match, nil
}

// isCaptainOf reports whether the actor captains one of the two teams of the match.
func (s *matchService) isCaptainOf(ctx context.Context, exec repositories.SQLExecutor, actor Actor, match *models.TournamentMatch) (bool, error) {
	for _, id := range []*int{match.Team1ID, match.Team2ID} {
		if id == nil {
			continue
		}
		team, err := s.teamRepo.GetByID(ctx, exec, *id)
		if err != nil {
			return false, err
		}
		if team.CaptainID == actor.UserID {
			return true, nil
		}
	}
	return false, nil
}

func (s *matchService) ReportWinner(ctx context.Context, actor Actor, tournamentID int, matchID string, winnerTeamID int) (*MatchResult, error) {
	result := &MatchResult{}
	changed := false

	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.LockByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		match, err := s.matchRepo.LockByID(ctx, exec, tournamentID, matchID)
		if err != nil {
			return err
		}
		result.Match = match

		organizer := requireOrganizer(actor, tournament) == nil
		if !organizer {
			captain, err := s.isCaptainOf(ctx, exec, actor, match)
			if err != nil {
				return err
			}
			if !captain {
				return ErrForbiddenOperation
			}
		}

		if !match.HasBothTeams() {
			return ErrMatchNotReady
		}
		if !match.Involves(winnerTeamID) {
			return ErrInvalidWinner
		}

		if match.Status == models.MatchCompleted {
			if match.WinnerTeamID != nil && *match.WinnerTeamID == winnerTeamID {
				return nil
			}
			return ErrMatchAlreadyReported
		}
		if tournament.Status != models.TournamentOngoing {
			return ErrInvalidMatchTransition
		}

		winner := winnerTeamID
		reporter := actor.UserID
		match.WinnerTeamID = &winner
		match.ReportedBy = &reporter
		changed = true

		if !organizer {
			match.Status = models.MatchReported
			return s.matchRepo.Update(ctx, exec, match)
		}

		completedAt := s.now().UTC()
		match.Status = models.MatchCompleted
		match.CompletedAt = &completedAt
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return err
		}

		if match.NextMatchID == nil {
			if err := s.tournamentRepo.Complete(ctx, exec, tournamentID, winner); err != nil {
				return err
			}
			result.TournamentWinnerID = &winner
			return nil
		}

		next, err := s.matchRepo.LockByID(ctx, exec, tournamentID, *match.NextMatchID)
		if err != nil {
			return err
		}
		if err := brackets.PlaceWinner(next, *match.NextSlot, winner); err != nil {
			return err
		}
		if err := s.matchRepo.Update(ctx, exec, next); err != nil {
			return err
		}
		result.NextMatch = next
		return nil
	})
	if err != nil {
		return nil, handleRepositoryError(err, "report match winner")
	}
	if !changed {
		return result, nil
	}

	s.logger.InfoContext(ctx, "match result reported",
		slog.Int("tournament_id", tournamentID), slog.String("match_id", matchID),
		slog.Int("winner_team_id", winnerTeamID), slog.String("status", string(result.Match.Status)),
		slog.Int("by", actor.UserID))

	s.broadcastMatch(tournamentID, result.Match)
	if result.NextMatch != nil {
		s.broadcastMatch(tournamentID, result.NextMatch)
	}
	if result.TournamentWinnerID != nil {
		s.logger.InfoContext(ctx, "tournament completed", slog.Int("tournament_id", tournamentID), slog.Int("winner_team_id", *result.TournamentWinnerID))
		room := brackets.TournamentRoom(tournamentID)
		s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
			Type: brackets.MessageTournamentComplete,
			Payload: TournamentWinnerPayload{
				TournamentID: tournamentID,
				WinnerTeamID: *result.TournamentWinnerID,
				Message:      "Tournament completed",
			},
			RoomID: room,
		})
	}
	return result, nil
}

func (s *matchService) broadcastMatch(tournamentID int, match *models.TournamentMatch) {
	room := brackets.TournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageMatchUpdated,
		Payload: MatchUpdatePayload{TournamentID: tournamentID, Match: match},
		RoomID:  room,
	})
}
