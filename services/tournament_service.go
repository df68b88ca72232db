package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/storage"
)

const (
	minParticipants = 2
	maxParticipants = 256
	minTeamSize     = 1
	maxTeamSize     = 50
	defaultPageSize = 20
	maxPageSize     = 100
)

type TournamentService interface {
	Create(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsInput) ([]models.Tournament, error)
	Update(ctx context.Context, actor Actor, id int, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, actor Actor, id int, status models.TournamentStatus) (*models.Tournament, error)
	UploadLogo(ctx context.Context, actor Actor, id int, contentType string, file io.Reader) (*models.Tournament, error)
	// AutoUpdateStatuses opens and closes registration windows that are due.
	AutoUpdateStatuses(ctx context.Context, now time.Time) (int, error)
}

type CreateTournamentInput struct {
	Title                string     `json:"title"`
	Description          *string    `json:"description"`
	ParticipantCount     int        `json:"participant_count"`
	TeamSize             int        `json:"team_size"`
	RegistrationOpensAt  *time.Time `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at"`
	StartsAt             *time.Time `json:"starts_at"`
	ClanID               *int       `json:"clan_id"`
}

type UpdateTournamentInput struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	ParticipantCount     *int       `json:"participant_count"`
	TeamSize             *int       `json:"team_size"`
	RegistrationOpensAt  *time.Time `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at"`
	StartsAt             *time.Time `json:"starts_at"`
}

type ListTournamentsInput struct {
	Status      *models.TournamentStatus
	OrganizerID *int
	ClanID      *int
	Limit       int
	Offset      int
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	clanRepo       repositories.ClanRepository
	uploader       storage.FileUploader
	hub            Broadcaster
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	clanRepo repositories.ClanRepository,
	uploader storage.FileUploader,
	hub Broadcaster,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		clanRepo:       clanRepo,
		uploader:       uploader,
		hub:            broadcasterOrNoop(hub),
		logger:         logger,
	}
}

func validateTournamentFields(t *models.Tournament) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTournamentTitleRequired
	}
	if t.ParticipantCount < minParticipants || t.ParticipantCount > maxParticipants {
		return ErrTournamentInvalidCapacity
	}
	if t.TeamSize < minTeamSize || t.TeamSize > maxTeamSize {
		return ErrTournamentInvalidTeamSize
	}
	if t.RegistrationOpensAt != nil && t.RegistrationClosesAt != nil && !t.RegistrationOpensAt.Before(*t.RegistrationClosesAt) {
		return ErrTournamentInvalidDates
	}
	if t.RegistrationClosesAt != nil && t.StartsAt != nil && t.StartsAt.Before(*t.RegistrationClosesAt) {
		return ErrTournamentInvalidDates
	}
	return nil
}

func canOrganize(actor Actor) bool {
	return actor.Role == models.RoleOrganizer || actor.Role == models.RoleAdmin
}

// requireOrganizer checks that the actor organizes the tournament. Admins may act on any tournament.
func requireOrganizer(actor Actor, t *models.Tournament) error {
	if actor.IsAdmin() || t.OrganizerID == actor.UserID {
		return nil
	}
	return ErrNotOrganizer
}

func (s *tournamentService) Create(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if !canOrganize(actor) {
		return nil, ErrForbiddenOperation
	}

	tournament := &models.Tournament{
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		OrganizerID:          actor.UserID,
		ClanID:               input.ClanID,
		Status:               models.TournamentDraft,
		ParticipantCount:     input.ParticipantCount,
		TeamSize:             input.TeamSize,
		RegistrationOpensAt:  input.RegistrationOpensAt,
		RegistrationClosesAt: input.RegistrationClosesAt,
		StartsAt:             input.StartsAt,
	}
	if err := validateTournamentFields(tournament); err != nil {
		return nil, err
	}
	if tournament.ClanID != nil {
		if _, err := s.clanRepo.GetByID(ctx, *tournament.ClanID); err != nil {
			return nil, handleRepositoryError(err, "get clan")
		}
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, handleRepositoryError(err, "create tournament")
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", tournament.ID), slog.Int("organizer_id", actor.UserID))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter ListTournamentsInput) ([]models.Tournament, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrTournamentInvalidStatus
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	tournaments, err := s.tournamentRepo.List(ctx, repositories.ListTournamentsFilter{
		OrganizerID: filter.OrganizerID,
		ClanID:      filter.ClanID,
		Status:      filter.Status,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, handleRepositoryError(err, "list tournaments")
	}
	for i := range tournaments {
		populateTournamentLogoURL(&tournaments[i], s.uploader)
	}
	return tournaments, nil
}

func (s *tournamentService) Update(ctx context.Context, actor Actor, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	if err := requireOrganizer(actor, tournament); err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentDraft && tournament.Status != models.TournamentRegistrationOpen {
		return nil, ErrTournamentNotEditable
	}

	if input.Title != nil {
		tournament.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.ParticipantCount != nil {
		tournament.ParticipantCount = *input.ParticipantCount
	}
	if input.TeamSize != nil {
		tournament.TeamSize = *input.TeamSize
	}
	if input.RegistrationOpensAt != nil {
		tournament.RegistrationOpensAt = input.RegistrationOpensAt
	}
	if input.RegistrationClosesAt != nil {
		tournament.RegistrationClosesAt = input.RegistrationClosesAt
	}
	if input.StartsAt != nil {
		tournament.StartsAt = input.StartsAt
	}

	if err := validateTournamentFields(tournament); err != nil {
		return nil, err
	}
	if tournament.ParticipantCount < tournament.ParticipantCountCurrent {
		return nil, ErrCapacityBelowRegistered
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, handleRepositoryError(err, "update tournament")
	}
	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, actor Actor, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.Valid() {
		return nil, ErrTournamentInvalidStatus
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	if err := requireOrganizer(actor, tournament); err != nil {
		return nil, err
	}
	if !isValidStatusTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: from %s to %s", ErrTournamentInvalidStatusTransition, tournament.Status, status)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, handleRepositoryError(err, "update tournament status")
	}
	s.logger.InfoContext(ctx, "tournament status changed",
		slog.Int("tournament_id", id), slog.String("from", string(tournament.Status)), slog.String("to", string(status)))

	tournament.Status = status
	s.broadcastStatus(tournament)
	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) broadcastStatus(t *models.Tournament) {
	room := brackets.TournamentRoom(t.ID)
	s.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    brackets.MessageTournamentStatus,
		Payload: map[string]interface{}{"tournament_id": t.ID, "status": t.Status},
		RoomID:  room,
	})
}

func (s *tournamentService) UploadLogo(ctx context.Context, actor Actor, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	if err := requireOrganizer(actor, tournament); err != nil {
		return nil, err
	}
	ext, err := storage.ImageExtension(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := storage.ObjectKey("tournaments", id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to clean up uploaded logo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, handleRepositoryError(err, "save logo key")
	}
	if tournament.LogoKey != nil && *tournament.LogoKey != "" {
		if err := s.uploader.Delete(ctx, *tournament.LogoKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous logo", slog.String("key", *tournament.LogoKey), slog.Any("error", err))
		}
	}

	tournament.LogoKey = &key
	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) AutoUpdateStatuses(ctx context.Context, now time.Time) (int, error) {
	due, err := s.tournamentRepo.ListDueForStatusUpdate(ctx, now)
	if err != nil {
		return 0, handleRepositoryError(err, "list tournaments due for status update")
	}

	updated := 0
	for _, t := range due {
		next := models.TournamentRegistrationOpen
		if t.Status == models.TournamentRegistrationOpen {
			next = models.TournamentRegistrationClosed
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, next); err != nil {
			s.logger.ErrorContext(ctx, "auto status update failed", slog.Int("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		s.logger.InfoContext(ctx, "tournament status updated by scheduler",
			slog.Int("tournament_id", t.ID), slog.String("from", string(t.Status)), slog.String("to", string(next)))
		t.Status = next
		s.broadcastStatus(t)
		updated++
	}
	return updated, nil
}
