package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/clashapi"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/storage"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/utils"
)

// GameAPI is the subset of the game API the services read from.
type GameAPI interface {
	GetClan(ctx context.Context, tag string) (*clashapi.Clan, error)
	GetCurrentWar(ctx context.Context, tag string) (*clashapi.War, error)
	GetPlayer(ctx context.Context, tag string) (*clashapi.Player, error)
}

type ClanService interface {
	LinkClan(ctx context.Context, actor Actor, tag string) (*models.Clan, error)
	GetClan(ctx context.Context, clanID int) (*models.Clan, error)
	ChangeMemberRole(ctx context.Context, actor Actor, clanID, userID int, role models.ClanRole) (*models.ClanMember, error)
	KickMember(ctx context.Context, actor Actor, clanID, userID int) error
}

type clanService struct {
	tx       repositories.Transactor
	clanRepo repositories.ClanRepository
	userRepo repositories.UserRepository
	game     GameAPI
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewClanService(
	tx repositories.Transactor,
	clanRepo repositories.ClanRepository,
	userRepo repositories.UserRepository,
	game GameAPI,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ClanService {
	return &clanService{
		tx:       tx,
		clanRepo: clanRepo,
		userRepo: userRepo,
		game:     game,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *clanService) LinkClan(ctx context.Context, actor Actor, rawTag string) (*models.Clan, error) {
	tag := utils.NormalizeTag(rawTag)
	if !utils.ValidTag(tag) {
		return nil, ErrInvalidClanTag
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, handleRepositoryError(err, "get user")
	}
	if user.PlayerTag == nil {
		return nil, ErrPlayerTagRequired
	}

	if _, err := s.clanRepo.GetByTag(ctx, tag); err == nil {
		return nil, ErrClanAlreadyManaged
	} else if !errors.Is(err, repositories.ErrClanNotFound) {
		return nil, fmt.Errorf("failed to look up clan %s: %w", tag, err)
	}

	remote, err := s.game.GetClan(ctx, tag)
	if err != nil {
		if errors.Is(err, clashapi.ErrNotFound) {
			return nil, ErrClanNotFound
		}
		return nil, gameAPIError(err)
	}

	member := remote.Member(*user.PlayerTag)
	if member == nil || (member.Role != clashapi.RoleLeader && member.Role != clashapi.RoleCoLeader) {
		return nil, ErrNotClanLeader
	}

	clan := &models.Clan{
		Tag:      remote.Tag,
		Name:     remote.Name,
		OwnerID:  actor.UserID,
		Verified: true,
	}
	if remote.BadgeURLs.Medium != "" {
		badge := remote.BadgeURLs.Medium
		clan.BadgeURL = &badge
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if err := s.clanRepo.Create(ctx, exec, clan); err != nil {
			return err
		}
		return s.clanRepo.AddMember(ctx, exec, &models.ClanMember{
			ClanID: clan.ID,
			UserID: actor.UserID,
			Role:   models.ClanRoleLeader,
		})
	})
	if err != nil {
		return nil, handleRepositoryError(err, "link clan")
	}

	s.logger.InfoContext(ctx, "clan linked", slog.Int("clan_id", clan.ID), slog.String("tag", clan.Tag), slog.Int("owner_id", actor.UserID))
	return s.GetClan(ctx, clan.ID)
}

func (s *clanService) GetClan(ctx context.Context, clanID int) (*models.Clan, error) {
	clan, err := s.clanRepo.GetByID(ctx, clanID)
	if err != nil {
		return nil, handleRepositoryError(err, "get clan")
	}
	members, err := s.clanRepo.ListMembers(ctx, clanID)
	if err != nil {
		return nil, handleRepositoryError(err, "list clan members")
	}
	for i := range members {
		populateUserDetails(members[i].User, s.uploader)
	}
	clan.Members = members
	return clan, nil
}

// loadRanks returns the actor's and the target's memberships. The actor
// must hold at least co_leader and outrank the target.
func (s *clanService) loadRanks(ctx context.Context, actor Actor, clanID, userID int) (*models.ClanMember, *models.ClanMember, error) {
	if _, err := s.clanRepo.GetByID(ctx, clanID); err != nil {
		return nil, nil, handleRepositoryError(err, "get clan")
	}
	actorMember, err := s.clanRepo.GetMember(ctx, nil, clanID, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrClanMemberNotFound) {
			return nil, nil, ErrInsufficientClanRank
		}
		return nil, nil, handleRepositoryError(err, "get acting member")
	}
	if actorMember.Role.Rank() < models.ClanRoleCoLeader.Rank() {
		return nil, nil, ErrInsufficientClanRank
	}
	target, err := s.clanRepo.GetMember(ctx, nil, clanID, userID)
	if err != nil {
		return nil, nil, handleRepositoryError(err, "get target member")
	}
	return actorMember, target, nil
}

func (s *clanService) ChangeMemberRole(ctx context.Context, actor Actor, clanID, userID int, role models.ClanRole) (*models.ClanMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidClanRole
	}
	if role == models.ClanRoleLeader {
		return nil, ErrCannotAssignLeader
	}
	if actor.UserID == userID {
		return nil, ErrCannotChangeOwnRole
	}

	actorMember, target, err := s.loadRanks(ctx, actor, clanID, userID)
	if err != nil {
		return nil, err
	}
	if target.Role.Rank() >= actorMember.Role.Rank() || role.Rank() >= actorMember.Role.Rank() {
		return nil, ErrInsufficientClanRank
	}

	if err := s.clanRepo.UpdateMemberRole(ctx, clanID, userID, role); err != nil {
		return nil, handleRepositoryError(err, "update member role")
	}
	s.logger.InfoContext(ctx, "clan member role changed",
		slog.Int("clan_id", clanID), slog.Int("user_id", userID),
		slog.String("from", string(target.Role)), slog.String("to", string(role)), slog.Int("by", actor.UserID))

	target.Role = role
	return target, nil
}

func (s *clanService) KickMember(ctx context.Context, actor Actor, clanID, userID int) error {
	if actor.UserID == userID {
		return fmt.Errorf("%w: you cannot kick yourself", ErrForbiddenOperation)
	}
	actorMember, target, err := s.loadRanks(ctx, actor, clanID, userID)
	if err != nil {
		return err
	}
	if target.Role == models.ClanRoleLeader {
		return ErrCannotKickLeader
	}
	if target.Role.Rank() >= actorMember.Role.Rank() {
		return ErrInsufficientClanRank
	}

	if err := s.clanRepo.RemoveMember(ctx, clanID, userID); err != nil {
		return handleRepositoryError(err, "remove clan member")
	}
	s.logger.InfoContext(ctx, "clan member kicked", slog.Int("clan_id", clanID), slog.Int("user_id", userID), slog.Int("by", actor.UserID))
	return nil
}
