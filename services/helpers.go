package services

import (
	"errors"
	"fmt"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/clashapi"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/storage"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID int
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Broadcaster pushes live updates to websocket rooms.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToRoom(string, interface{}) {}

func broadcasterOrNoop(b Broadcaster) Broadcaster {
	if b == nil {
		return noopBroadcaster{}
	}
	return b
}

// repoErrors maps repository sentinels onto the service errors the handlers understand.
var repoErrors = map[error]error{
	repositories.ErrUserNotFound:             ErrUserNotFound,
	repositories.ErrUserEmailConflict:        ErrUserEmailConflict,
	repositories.ErrUserPlayerTagConflict:    ErrPlayerTagConflict,
	repositories.ErrClanNotFound:             ErrClanNotFound,
	repositories.ErrClanTagConflict:          ErrClanAlreadyManaged,
	repositories.ErrClanMemberNotFound:       ErrClanMemberNotFound,
	repositories.ErrClanMemberExists:         ErrAlreadyClanMember,
	repositories.ErrJoinRequestNotFound:      ErrJoinRequestNotFound,
	repositories.ErrJoinRequestDuplicate:     ErrJoinRequestPending,
	repositories.ErrJoinRequestProcessed:     ErrJoinRequestProcessed,
	repositories.ErrSnapshotNotFound:         ErrSnapshotNotFound,
	repositories.ErrTournamentNotFound:       ErrTournamentNotFound,
	repositories.ErrTournamentInvalidClan:    ErrClanNotFound,
	repositories.ErrTournamentInvalidOrg:     ErrUserNotFound,
	repositories.ErrTeamInvalidReference:     ErrTournamentNotFound,
	repositories.ErrTournamentCapacityBounds: ErrCapacityBelowRegistered,
	repositories.ErrTeamNotFound:             ErrTeamNotFound,
	repositories.ErrTeamCaptainConflict:      ErrTeamAlreadyRegistered,
	repositories.ErrMatchNotFound:            ErrMatchNotFound,
	repositories.ErrMatchAlreadyExists:       ErrBracketExists,
	repositories.ErrPostNotFound:             ErrPostNotFound,
}

// handleRepositoryError translates known repository errors and wraps the
// rest with op for context.
func handleRepositoryError(err error, op string) error {
	if err == nil || isDomainError(err) {
		return err
	}
	for repoErr, svcErr := range repoErrors {
		if errors.Is(err, repoErr) {
			return svcErr
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// gameAPIError wraps a failed game API call so handlers answer 502 with the API message.
func gameAPIError(err error) error {
	var apiErr *clashapi.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", ErrGameAPIUnavailable, apiErr.Error())
	}
	return fmt.Errorf("%w: %v", ErrGameAPIUnavailable, err)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentDraft:              {models.TournamentRegistrationOpen, models.TournamentCancelled},
		models.TournamentRegistrationOpen:   {models.TournamentRegistrationClosed, models.TournamentCancelled},
		models.TournamentRegistrationClosed: {models.TournamentRegistrationOpen, models.TournamentCancelled},
		models.TournamentOngoing:            {models.TournamentCancelled},
		models.TournamentCompleted:          {},
		models.TournamentCancelled:          {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

func populateUserDetails(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*user.AvatarKey); url != "" {
			user.AvatarURL = &url
		}
	}
}

func populateTournamentLogoURL(tournament *models.Tournament, uploader storage.FileUploader) {
	if tournament != nil && tournament.LogoKey != nil && *tournament.LogoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*tournament.LogoKey); url != "" {
			tournament.LogoURL = &url
		}
	}
}

const maxTownHallLevel = 17
