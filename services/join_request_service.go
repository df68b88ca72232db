package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

const maxJoinMessageLength = 500

type JoinRequestService interface {
	Submit(ctx context.Context, actor Actor, clanID int, message string) (*models.JoinRequest, error)
	List(ctx context.Context, actor Actor, clanID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error)
	Approve(ctx context.Context, actor Actor, requestID int) (*models.JoinRequest, error)
	Reject(ctx context.Context, actor Actor, requestID int) (*models.JoinRequest, error)
}

type joinRequestService struct {
	tx       repositories.Transactor
	reqRepo  repositories.JoinRequestRepository
	clanRepo repositories.ClanRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewJoinRequestService(
	tx repositories.Transactor,
	reqRepo repositories.JoinRequestRepository,
	clanRepo repositories.ClanRepository,
	logger *slog.Logger,
) JoinRequestService {
	return &joinRequestService{
		tx:       tx,
		reqRepo:  reqRepo,
		clanRepo: clanRepo,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *joinRequestService) Submit(ctx context.Context, actor Actor, clanID int, message string) (*models.JoinRequest, error) {
	if _, err := s.clanRepo.GetByID(ctx, clanID); err != nil {
		return nil, handleRepositoryError(err, "get clan")
	}

	message = strings.TrimSpace(message)
	if len(message) > maxJoinMessageLength {
		return nil, fmt.Errorf("%w: message must be at most %d characters", ErrValidationFailed, maxJoinMessageLength)
	}

	if _, err := s.clanRepo.GetMember(ctx, nil, clanID, actor.UserID); err == nil {
		return nil, ErrAlreadyClanMember
	} else if !errors.Is(err, repositories.ErrClanMemberNotFound) {
		return nil, handleRepositoryError(err, "check membership")
	}

	pending, err := s.reqRepo.HasPending(ctx, clanID, actor.UserID)
	if err != nil {
		return nil, handleRepositoryError(err, "check pending join request")
	}
	if pending {
		return nil, ErrJoinRequestPending
	}

	req := &models.JoinRequest{
		ClanID: clanID,
		UserID: actor.UserID,
		Status: models.JoinRequestPending,
	}
	if message != "" {
		req.Message = &message
	}
	if err := s.reqRepo.Create(ctx, req); err != nil {
		return nil, handleRepositoryError(err, "create join request")
	}
	return req, nil
}

// requireManager checks that the actor is leader or co_leader of the clan.
func requireManager(ctx context.Context, clanRepo repositories.ClanRepository, actor Actor, clanID int) error {
	member, err := clanRepo.GetMember(ctx, nil, clanID, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrClanMemberNotFound) {
			return ErrInsufficientClanRank
		}
		return handleRepositoryError(err, "get acting member")
	}
	if member.Role.Rank() < models.ClanRoleCoLeader.Rank() {
		return ErrInsufficientClanRank
	}
	return nil
}

func (s *joinRequestService) List(ctx context.Context, actor Actor, clanID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error) {
	if _, err := s.clanRepo.GetByID(ctx, clanID); err != nil {
		return nil, handleRepositoryError(err, "get clan")
	}
	if status != nil {
		switch *status {
		case models.JoinRequestPending, models.JoinRequestApproved, models.JoinRequestRejected:
		default:
			return nil, fmt.Errorf("%w: unknown join request status %q", ErrValidationFailed, *status)
		}
	}
	if err := requireManager(ctx, s.clanRepo, actor, clanID); err != nil {
		return nil, err
	}
	requests, err := s.reqRepo.ListByClan(ctx, clanID, status)
	if err != nil {
		return nil, handleRepositoryError(err, "list join requests")
	}
	if requests == nil {
		requests = []models.JoinRequest{}
	}
	return requests, nil
}

func (s *joinRequestService) Approve(ctx context.Context, actor Actor, requestID int) (*models.JoinRequest, error) {
	return s.resolve(ctx, actor, requestID, models.JoinRequestApproved)
}

func (s *joinRequestService) Reject(ctx context.Context, actor Actor, requestID int) (*models.JoinRequest, error) {
	return s.resolve(ctx, actor, requestID, models.JoinRequestRejected)
}

// resolve locks the request, checks it is still pending and records the
// decision. Approval inserts the membership in the same transaction.
func (s *joinRequestService) resolve(ctx context.Context, actor Actor, requestID int, status models.JoinRequestStatus) (*models.JoinRequest, error) {
	var resolved *models.JoinRequest

	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		req, err := s.reqRepo.GetByID(ctx, exec, requestID)
		if err != nil {
			return err
		}
		if err := requireManager(ctx, s.clanRepo, actor, req.ClanID); err != nil {
			return err
		}
		if req.Status != models.JoinRequestPending {
			return ErrJoinRequestProcessed
		}

		processedAt := s.now().UTC()
		if err := s.reqRepo.Resolve(ctx, exec, req.ID, status, actor.UserID, processedAt); err != nil {
			return err
		}
		if status == models.JoinRequestApproved {
			if err := s.clanRepo.AddMember(ctx, exec, &models.ClanMember{
				ClanID: req.ClanID,
				UserID: req.UserID,
				Role:   models.ClanRoleMember,
			}); err != nil {
				return err
			}
		}

		req.Status = status
		req.ProcessedBy = &actor.UserID
		req.ProcessedAt = &processedAt
		resolved = req
		return nil
	})
	if err != nil {
		return nil, handleRepositoryError(err, "resolve join request")
	}

	s.logger.InfoContext(ctx, "join request resolved",
		slog.Int("request_id", requestID), slog.Int("clan_id", resolved.ClanID),
		slog.String("status", string(status)), slog.Int("by", actor.UserID))
	return resolved, nil
}
