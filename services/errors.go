package services

import (
	"errors"
	"fmt"
)

var domainErrors = map[error]struct{}{}

func newError(msg string) error {
	err := errors.New(msg)
	domainErrors[err] = struct{}{}
	return err
}

// isDomainError reports whether err already carries a service error.
func isDomainError(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if _, ok := domainErrors[e]; ok {
			return true
		}
		if _, ok := e.(*QuotaError); ok {
			return true
		}
	}
	return false
}

// Errors shared by services and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound = newError("requested resource not found")

	// validation
	ErrValidationFailed          = newError("validation failed")
	ErrPasswordTooShort          = newError("password must be at least 8 characters long")
	ErrInvalidPlayerTag          = newError("invalid player tag")
	ErrInvalidClanTag            = newError("invalid clan tag")
	ErrPlayerTagRequired         = newError("link a player tag to your profile first")
	ErrInvalidClanRole           = newError("invalid clan role")
	ErrTournamentTitleRequired   = newError("tournament title is required")
	ErrTournamentInvalidCapacity = newError("participant count must be between 2 and 256")
	ErrTournamentInvalidTeamSize = newError("team size must be between 1 and 50")
	ErrTournamentInvalidDates    = newError("registration must open before it closes and close before the tournament starts")
	ErrTournamentInvalidStatus   = newError("invalid tournament status provided")
	ErrTeamNameRequired          = newError("team name is required")
	ErrInvalidRoster             = newError("invalid roster")
	ErrInvalidTeamStatus         = newError("team status must be approved or rejected")
	ErrNotEnoughTeams            = newError("at least two approved teams are required")
	ErrMatchNotReady             = newError("both match slots must be filled")
	ErrInvalidWinner             = newError("winner must be one of the two teams in the match")
	ErrScheduleRequired          = newError("scheduled_at is required")
	ErrPostTitleRequired         = newError("post title is required")
	ErrPostBodyRequired          = newError("post body is required")

	// authentication and authorization
	ErrInvalidCredentials   = newError("invalid email or password")
	ErrAuthenticationFailed = newError("authentication failed")
	ErrForbiddenOperation   = newError("operation not allowed for the current user")
	ErrNotClanLeader        = newError("only the in-game leader or a co-leader can link a clan")
	ErrInsufficientClanRank = newError("your clan role does not allow this action")
	ErrCannotChangeOwnRole  = newError("you cannot change your own clan role")
	ErrCannotAssignLeader   = newError("the leader role cannot be assigned")
	ErrCannotKickLeader     = newError("the clan leader cannot be kicked")
	ErrNotOrganizer         = newError("only the tournament organizer can perform this action")
	ErrNotTeamCaptain       = newError("only the team captain can perform this action")

	// missing resources
	ErrUserNotFound        = newError("user not found")
	ErrClanNotFound        = newError("clan not found")
	ErrClanMemberNotFound  = newError("clan member not found")
	ErrJoinRequestNotFound = newError("join request not found")
	ErrSnapshotNotFound    = newError("clan has not been synced yet")
	ErrTournamentNotFound  = newError("tournament not found")
	ErrTeamNotFound        = newError("team not found")
	ErrMatchNotFound       = newError("match not found")
	ErrPostNotFound        = newError("post not found")

	// conflicts
	ErrUserEmailConflict                 = newError("email address is already in use")
	ErrPlayerTagConflict                 = newError("player tag is already linked to another account")
	ErrClanAlreadyManaged                = newError("clan is already managed on the platform")
	ErrAlreadyClanMember                 = newError("user is already a clan member")
	ErrJoinRequestPending                = newError("a pending join request already exists")
	ErrJoinRequestProcessed              = newError("join request already processed")
	ErrTournamentInvalidStatusTransition = newError("invalid tournament status transition")
	ErrTournamentNotEditable             = newError("tournament can no longer be edited")
	ErrCapacityBelowRegistered           = newError("participant count cannot drop below registered teams")
	ErrRegistrationNotOpen               = newError("tournament registration is not open")
	ErrTournamentFull                    = newError("tournament registration is full")
	ErrTeamAlreadyRegistered             = newError("you already registered a team for this tournament")
	ErrTeamAlreadyProcessed              = newError("team registration already processed")
	ErrWithdrawNotAllowed                = newError("teams can only withdraw before the bracket is generated")
	ErrBracketNotAllowed                 = newError("bracket can only be generated once registration is closed")
	ErrBracketExists                     = newError("bracket already generated")
	ErrQuotaNotMet                       = newError("quota not met")
	ErrMatchAlreadyReported              = newError("match result already reported")
	ErrInvalidMatchTransition            = newError("match is not in a state that allows this action")

	// dependencies
	ErrGameAPIUnavailable = newError("game API request failed")
	ErrUploadsDisabled    = newError("file uploads are not configured")
)

// QuotaError reports that fewer teams were approved than the tournament capacity.
type QuotaError struct {
	Approved int
	Capacity int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %d of %d teams approved; start under quota or cancel the tournament", ErrQuotaNotMet, e.Approved, e.Capacity)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaNotMet
}
