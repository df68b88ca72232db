package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/clashapi"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

// SyncResult is the refreshed cache document plus the roster diff against the previous sync.
type SyncResult struct {
	Snapshot *models.ClanSnapshot  `json:"snapshot"`
	Joined   []clashapi.ClanMember `json:"joined"`
	Left     []clashapi.ClanMember `json:"left"`
}

type ClanSyncService interface {
	Sync(ctx context.Context, actor Actor, clanID int) (*SyncResult, error)
	GetSnapshot(ctx context.Context, clanID int) (*models.ClanSnapshot, error)
}

type clanSyncService struct {
	tx           repositories.Transactor
	clanRepo     repositories.ClanRepository
	snapshotRepo repositories.ClanSnapshotRepository
	game         GameAPI
	logger       *slog.Logger
	now          func() time.Time
}

func NewClanSyncService(
	tx repositories.Transactor,
	clanRepo repositories.ClanRepository,
	snapshotRepo repositories.ClanSnapshotRepository,
	game GameAPI,
	logger *slog.Logger,
) ClanSyncService {
	return &clanSyncService{
		tx:           tx,
		clanRepo:     clanRepo,
		snapshotRepo: snapshotRepo,
		game:         game,
		logger:       logger,
		now:          time.Now,
	}
}

// warUnavailable reports game API answers that mean "no readable war"
// rather than a failed sync: a private war log or no current war.
func warUnavailable(err error) bool {
	var apiErr *clashapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, clashapi.ErrNotFound)
}

func (s *clanSyncService) Sync(ctx context.Context, actor Actor, clanID int) (*SyncResult, error) {
	clan, err := s.clanRepo.GetByID(ctx, clanID)
	if err != nil {
		return nil, handleRepositoryError(err, "get clan")
	}
	member, err := s.clanRepo.GetMember(ctx, nil, clanID, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrClanMemberNotFound) {
			return nil, ErrInsufficientClanRank
		}
		return nil, handleRepositoryError(err, "get acting member")
	}
	if member.Role.Rank() < models.ClanRoleElder.Rank() {
		return nil, ErrInsufficientClanRank
	}

	var (
		remote *clashapi.Clan
		war    *clashapi.War
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.game.GetClan(gctx, clan.Tag)
		if err != nil {
			return fmt.Errorf("fetch clan %s: %w", clan.Tag, err)
		}
		remote = c
		return nil
	})
	g.Go(func() error {
		w, err := s.game.GetCurrentWar(gctx, clan.Tag)
		if err != nil {
			if warUnavailable(err) {
				s.logger.DebugContext(gctx, "war state unavailable", slog.String("tag", clan.Tag), slog.Any("error", err))
				return nil
			}
			return fmt.Errorf("fetch war %s: %w", clan.Tag, err)
		}
		war = w
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, gameAPIError(err)
	}

	var previous []clashapi.ClanMember
	prevSnap, err := s.snapshotRepo.Get(ctx, clanID)
	switch {
	case err == nil:
		if len(prevSnap.Members) > 0 {
			if jsonErr := json.Unmarshal(prevSnap.Members, &previous); jsonErr != nil {
				s.logger.WarnContext(ctx, "previous snapshot is unreadable, diffing against empty roster",
					slog.Int("clan_id", clanID), slog.Any("error", jsonErr))
				previous = nil
			}
		}
	case errors.Is(err, repositories.ErrSnapshotNotFound):
	default:
		return nil, handleRepositoryError(err, "get snapshot")
	}

	membersJSON, err := json.Marshal(remote.MemberList)
	if err != nil {
		return nil, fmt.Errorf("failed to encode member list: %w", err)
	}
	snapshot := &models.ClanSnapshot{
		ClanID:   clanID,
		Members:  membersJSON,
		SyncedAt: s.now().UTC(),
	}
	if war != nil {
		snapshot.War = war.Raw
		if len(snapshot.War) == 0 {
			if snapshot.War, err = json.Marshal(war); err != nil {
				return nil, fmt.Errorf("failed to encode war: %w", err)
			}
		}
	}

	var badge *string
	if remote.BadgeURLs.Medium != "" {
		b := remote.BadgeURLs.Medium
		badge = &b
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if err := s.snapshotRepo.Upsert(ctx, exec, snapshot); err != nil {
			return err
		}
		return s.clanRepo.UpdateSyncInfo(ctx, exec, clanID, remote.Name, badge, snapshot.SyncedAt)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "save snapshot")
	}

	joined, left := diffRoster(previous, remote.MemberList)
	s.logger.InfoContext(ctx, "clan synced",
		slog.Int("clan_id", clanID), slog.Int("members", len(remote.MemberList)),
		slog.Int("joined", len(joined)), slog.Int("left", len(left)), slog.Bool("war", war != nil))

	return &SyncResult{Snapshot: snapshot, Joined: joined, Left: left}, nil
}

// diffRoster compares rosters by player tag.
func diffRoster(previous, current []clashapi.ClanMember) (joined, left []clashapi.ClanMember) {
	before := make(map[string]struct{}, len(previous))
	for _, m := range previous {
		before[m.Tag] = struct{}{}
	}
	after := make(map[string]struct{}, len(current))
	for _, m := range current {
		after[m.Tag] = struct{}{}
		if _, ok := before[m.Tag]; !ok {
			joined = append(joined, m)
		}
	}
	for _, m := range previous {
		if _, ok := after[m.Tag]; !ok {
			left = append(left, m)
		}
	}
	if joined == nil {
		joined = []clashapi.ClanMember{}
	}
	if left == nil {
		left = []clashapi.ClanMember{}
	}
	return joined, left
}

func (s *clanSyncService) GetSnapshot(ctx context.Context, clanID int) (*models.ClanSnapshot, error) {
	if _, err := s.clanRepo.GetByID(ctx, clanID); err != nil {
		return nil, handleRepositoryError(err, "get clan")
	}
	snapshot, err := s.snapshotRepo.Get(ctx, clanID)
	if err != nil {
		return nil, handleRepositoryError(err, "get snapshot")
	}
	return snapshot, nil
}
