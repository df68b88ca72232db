package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/storage"
)

// BracketView is a tournament with its approved teams and its matches grouped by round.
type BracketView struct {
	Tournament *models.Tournament          `json:"tournament"`
	Teams      []models.TournamentTeam     `json:"teams"`
	Rounds     [][]*models.TournamentMatch `json:"rounds"`
}

type BracketService interface {
	// GenerateBracket seeds the approved teams into a single elimination
	// bracket. With underQuota false it refuses to start when fewer teams
	// were approved than the tournament capacity.
	GenerateBracket(ctx context.Context, actor Actor, tournamentID int, underQuota bool) (*BracketView, error)
	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
}

type bracketService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TournamentTeamRepository
	matchRepo      repositories.MatchRepository
	generator      brackets.BracketGenerator
	uploader       storage.FileUploader
	hub            Broadcaster
	logger         *slog.Logger
}

func NewBracketService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TournamentTeamRepository,
	matchRepo repositories.MatchRepository,
	generator brackets.BracketGenerator,
	uploader storage.FileUploader,
	hub Broadcaster,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		generator:      generator,
		uploader:       uploader,
		hub:            broadcasterOrNoop(hub),
		logger:         logger,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, actor Actor, tournamentID int, underQuota bool) (*BracketView, error) {
	var (
		tournament *models.Tournament
		teams      []models.TournamentTeam
		matches    []*models.TournamentMatch
	)
	approved := models.TeamApproved

	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		var err error
		tournament, err = s.tournamentRepo.LockByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := requireOrganizer(actor, tournament); err != nil {
			return err
		}

		existing, err := s.matchRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrBracketExists
		}
		if tournament.Status != models.TournamentRegistrationClosed {
			return ErrBracketNotAllowed
		}

		teams, err = s.teamRepo.ListByTournament(ctx, exec, tournamentID, &approved)
		if err != nil {
			return err
		}
		if len(teams) < 2 {
			return ErrNotEnoughTeams
		}
		if len(teams) != tournament.ParticipantCount && !underQuota {
			return &QuotaError{Approved: len(teams), Capacity: tournament.ParticipantCount}
		}

		matches, err = s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			TournamentID: tournamentID,
			Teams:        teams,
		})
		if err != nil {
			if errors.Is(err, brackets.ErrNotEnoughTeams) {
				return ErrNotEnoughTeams
			}
			return fmt.Errorf("failed to generate bracket structure for tournament %d: %w", tournamentID, err)
		}

		if err := s.matchRepo.CreateBatch(ctx, exec, matches); err != nil {
			return err
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.TournamentOngoing); err != nil {
			return err
		}
		tournament.Status = models.TournamentOngoing
		return nil
	})
	if err != nil {
		return nil, handleRepositoryError(err, "generate bracket")
	}

	byes := 0
	for _, m := range matches {
		if m.IsBye {
			byes++
		}
	}
	s.logger.InfoContext(ctx, "bracket generated",
		slog.Int("tournament_id", tournamentID), slog.String("generator", s.generator.GetName()),
		slog.Int("teams", len(teams)), slog.Int("matches", len(matches)), slog.Int("byes", byes),
		slog.Bool("under_quota", len(teams) != tournament.ParticipantCount))

	populateTournamentLogoURL(tournament, s.uploader)
	view := &BracketView{Tournament: tournament, Teams: teams, Rounds: groupByRound(matches)}

	room := brackets.TournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageBracketGenerated,
		Payload: view,
		RoomID:  room,
	})
	return view, nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	var (
		tournament *models.Tournament
		teams      []models.TournamentTeam
		matches    []*models.TournamentMatch
	)
	approved := models.TeamApproved

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(gctx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gctx, nil, tournamentID, &approved)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, handleRepositoryError(err, "load bracket")
	}

	if teams == nil {
		teams = []models.TournamentTeam{}
	}
	populateTournamentLogoURL(tournament, s.uploader)
	return &BracketView{Tournament: tournament, Teams: teams, Rounds: groupByRound(matches)}, nil
}

// groupByRound expects matches ordered by round then slot.
func groupByRound(matches []*models.TournamentMatch) [][]*models.TournamentMatch {
	rounds := make([][]*models.TournamentMatch, 0)
	for _, m := range matches {
		for len(rounds) < m.Round {
			rounds = append(rounds, []*models.TournamentMatch{})
		}
		rounds[m.Round-1] = append(rounds[m.Round-1], m)
	}
	return rounds
}
