package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/clashapi"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

const testClanTag = "#2PQ9RY"

func (f *fixture) clanService(game GameAPI) ClanService {
	return NewClanService(f.repos.Tx, f.repos.Clans, f.repos.Users, game, nil, f.logger)
}

func (f *fixture) joinRequests() JoinRequestService {
	return NewJoinRequestService(f.repos.Tx, f.repos.JoinRequests, f.repos.Clans, f.logger)
}

func (f *fixture) withPlayerTag(t *testing.T, u *models.User, tag string) {
	t.Helper()
	u.PlayerTag = &tag
	require.NoError(t, f.repos.Users.Update(context.Background(), u))
}

func gameClan(members ...clashapi.ClanMember) *clashapi.Clan {
	return &clashapi.Clan{
		Tag:        testClanTag,
		Name:       "Night Owls",
		BadgeURLs:  clashapi.BadgeURLs{Medium: "https://badges.test/m.png"},
		MemberList: members,
	}
}

// linkedClan links a clan led by the returned user.
func (f *fixture) linkedClan(t *testing.T) (*models.Clan, *models.User) {
	t.Helper()
	leader := f.user(t, models.RolePlayer)
	f.withPlayerTag(t, leader, "#LEAD")
	game := &fakeGame{clan: gameClan(clashapi.ClanMember{Tag: "#LEAD", Name: "Boss", Role: clashapi.RoleLeader})}
	clan, err := f.clanService(game).LinkClan(context.Background(), actorOf(leader), testClanTag)
	require.NoError(t, err)
	return clan, leader
}

func (f *fixture) member(t *testing.T, clanID int, role models.ClanRole) *models.User {
	t.Helper()
	u := f.user(t, models.RolePlayer)
	require.NoError(t, f.repos.Clans.AddMember(context.Background(), nil, &models.ClanMember{ClanID: clanID, UserID: u.ID, Role: role}))
	return u
}

func TestLinkClan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	coLeader := f.user(t, models.RolePlayer)
	f.withPlayerTag(t, coLeader, "#C0LE")
	elder := f.user(t, models.RolePlayer)
	f.withPlayerTag(t, elder, "#ELD")
	untagged := f.user(t, models.RolePlayer)

	game := &fakeGame{clan: gameClan(
		clashapi.ClanMember{Tag: "#C0LE", Name: "Co", Role: clashapi.RoleCoLeader},
		clashapi.ClanMember{Tag: "#ELD", Name: "Old", Role: clashapi.RoleElder},
	)}
	svc := f.clanService(game)

	_, err := svc.LinkClan(ctx, actorOf(untagged), testClanTag)
	assert.ErrorIs(t, err, ErrPlayerTagRequired)

	_, err = svc.LinkClan(ctx, actorOf(coLeader), "not a tag!")
	assert.ErrorIs(t, err, ErrInvalidClanTag)

	_, err = svc.LinkClan(ctx, actorOf(elder), testClanTag)
	assert.ErrorIs(t, err, ErrNotClanLeader)

	clan, err := svc.LinkClan(ctx, actorOf(coLeader), " 2pq9ry ")
	require.NoError(t, err)
	assert.Equal(t, testClanTag, clan.Tag)
	assert.Equal(t, "Night Owls", clan.Name)
	assert.True(t, clan.Verified)
	require.Len(t, clan.Members, 1)
	assert.Equal(t, models.ClanRoleLeader, clan.Members[0].Role)
	assert.Equal(t, coLeader.ID, clan.Members[0].UserID)

	_, err = svc.LinkClan(ctx, actorOf(coLeader), testClanTag)
	assert.ErrorIs(t, err, ErrClanAlreadyManaged)
}

func TestLinkClan_GameAPIErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, models.RolePlayer)
	f.withPlayerTag(t, u, "#LEAD")

	_, err := f.clanService(&fakeGame{clanErr: &clashapi.APIError{StatusCode: http.StatusNotFound, Reason: "notFound"}}).
		LinkClan(ctx, actorOf(u), testClanTag)
	assert.ErrorIs(t, err, ErrClanNotFound)

	_, err = f.clanService(&fakeGame{clanErr: &clashapi.APIError{StatusCode: http.StatusServiceUnavailable, Reason: "inMaintenance", Message: "down"}}).
		LinkClan(ctx, actorOf(u), testClanTag)
	assert.ErrorIs(t, err, ErrGameAPIUnavailable)
	assert.Contains(t, err.Error(), "down")
}

func TestChangeMemberRole(t *testing.T) {
	f := newFixture(t)
	clan, leader := f.linkedClan(t)
	coLeader := f.member(t, clan.ID, models.ClanRoleCoLeader)
	otherCo := f.member(t, clan.ID, models.ClanRoleCoLeader)
	elder := f.member(t, clan.ID, models.ClanRoleElder)
	member := f.member(t, clan.ID, models.ClanRoleMember)
	outsider := f.user(t, models.RolePlayer)
	svc := f.clanService(&fakeGame{})
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  *models.User
		target *models.User
		role   models.ClanRole
		want   error
	}{
		{"invalid role", leader, member, "captain", ErrInvalidClanRole},
		{"nobody assigns leader", leader, coLeader, models.ClanRoleLeader, ErrCannotAssignLeader},
		{"own role", coLeader, coLeader, models.ClanRoleElder, ErrCannotChangeOwnRole},
		{"elder cannot manage", elder, member, models.ClanRoleElder, ErrInsufficientClanRank},
		{"outsider cannot manage", outsider, member, models.ClanRoleElder, ErrInsufficientClanRank},
		{"co-leader cannot promote to co-leader", coLeader, member, models.ClanRoleCoLeader, ErrInsufficientClanRank},
		{"co-leader cannot touch co-leader", coLeader, otherCo, models.ClanRoleMember, ErrInsufficientClanRank},
		{"co-leader cannot touch leader", coLeader, leader, models.ClanRoleMember, ErrInsufficientClanRank},
		{"co-leader promotes member to elder", coLeader, member, models.ClanRoleElder, nil},
		{"leader promotes elder to co-leader", leader, elder, models.ClanRoleCoLeader, nil},
		{"leader demotes co-leader", leader, otherCo, models.ClanRoleMember, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ChangeMemberRole(ctx, actorOf(tt.actor), clan.ID, tt.target.ID, tt.role)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, got.Role)
			stored, err := f.repos.Clans.GetMember(ctx, nil, clan.ID, tt.target.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.role, stored.Role)
		})
	}
}

func TestKickMember(t *testing.T) {
	f := newFixture(t)
	clan, leader := f.linkedClan(t)
	coLeader := f.member(t, clan.ID, models.ClanRoleCoLeader)
	member := f.member(t, clan.ID, models.ClanRoleMember)
	svc := f.clanService(&fakeGame{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.KickMember(ctx, actorOf(coLeader), clan.ID, leader.ID), ErrCannotKickLeader)
	assert.ErrorIs(t, svc.KickMember(ctx, actorOf(member), clan.ID, coLeader.ID), ErrInsufficientClanRank)
	assert.ErrorIs(t, svc.KickMember(ctx, actorOf(leader), clan.ID, leader.ID), ErrForbiddenOperation)

	require.NoError(t, svc.KickMember(ctx, actorOf(coLeader), clan.ID, member.ID))
	_, err := f.repos.Clans.GetMember(ctx, nil, clan.ID, member.ID)
	assert.Error(t, err)

	assert.ErrorIs(t, svc.KickMember(ctx, actorOf(coLeader), clan.ID, member.ID), ErrClanMemberNotFound)
}

func TestJoinRequests(t *testing.T) {
	f := newFixture(t)
	clan, leader := f.linkedClan(t)
	elder := f.member(t, clan.ID, models.ClanRoleElder)
	applicant := f.user(t, models.RolePlayer)
	other := f.user(t, models.RolePlayer)
	svc := f.joinRequests()
	ctx := context.Background()

	_, err := svc.Submit(ctx, actorOf(elder), clan.ID, "let me in")
	assert.ErrorIs(t, err, ErrAlreadyClanMember)

	req, err := svc.Submit(ctx, actorOf(applicant), clan.ID, "  TH15 maxed  ")
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestPending, req.Status)
	require.NotNil(t, req.Message)
	assert.Equal(t, "TH15 maxed", *req.Message)

	_, err = svc.Submit(ctx, actorOf(applicant), clan.ID, "again")
	assert.ErrorIs(t, err, ErrJoinRequestPending)

	_, err = svc.List(ctx, actorOf(elder), clan.ID, nil)
	assert.ErrorIs(t, err, ErrInsufficientClanRank)
	pending := models.JoinRequestPending
	listed, err := svc.List(ctx, actorOf(leader), clan.ID, &pending)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.Approve(ctx, actorOf(elder), req.ID)
	assert.ErrorIs(t, err, ErrInsufficientClanRank)

	approved, err := svc.Approve(ctx, actorOf(leader), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestApproved, approved.Status)
	require.NotNil(t, approved.ProcessedBy)
	assert.Equal(t, leader.ID, *approved.ProcessedBy)
	assert.NotNil(t, approved.ProcessedAt)

	membership, err := f.repos.Clans.GetMember(ctx, nil, clan.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClanRoleMember, membership.Role)

	_, err = svc.Approve(ctx, actorOf(leader), req.ID)
	assert.ErrorIs(t, err, ErrJoinRequestProcessed)
	_, err = svc.Reject(ctx, actorOf(leader), req.ID)
	assert.ErrorIs(t, err, ErrJoinRequestProcessed)

	second, err := svc.Submit(ctx, actorOf(other), clan.ID, "")
	require.NoError(t, err)
	assert.Nil(t, second.Message)
	rejected, err := svc.Reject(ctx, actorOf(leader), second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestRejected, rejected.Status)
	_, err = f.repos.Clans.GetMember(ctx, nil, clan.ID, other.ID)
	assert.Error(t, err, "rejection must not add a member")

	_, err = svc.Approve(ctx, actorOf(leader), 987654)
	assert.ErrorIs(t, err, ErrJoinRequestNotFound)
}

func TestClanSync(t *testing.T) {
	f := newFixture(t)
	clan, leader := f.linkedClan(t)
	member := f.member(t, clan.ID, models.ClanRoleMember)
	ctx := context.Background()

	game := &fakeGame{
		clan: gameClan(
			clashapi.ClanMember{Tag: "#LEAD", Name: "Boss", Role: clashapi.RoleLeader},
			clashapi.ClanMember{Tag: "#AAA", Name: "Gone Soon", Role: clashapi.RoleMember},
		),
		war: &clashapi.War{State: "inWar", TeamSize: 15, Raw: json.RawMessage(`{"state":"inWar","teamSize":15}`)},
	}
	svc := NewClanSyncService(f.repos.Tx, f.repos.Clans, f.repos.Snapshots, game, f.logger)

	_, err := svc.Sync(ctx, actorOf(member), clan.ID)
	assert.ErrorIs(t, err, ErrInsufficientClanRank)

	_, err = svc.GetSnapshot(ctx, clan.ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	first, err := svc.Sync(ctx, actorOf(leader), clan.ID)
	require.NoError(t, err)
	assert.Len(t, first.Joined, 2)
	assert.Empty(t, first.Left)
	assert.JSONEq(t, `{"state":"inWar","teamSize":15}`, string(first.Snapshot.War))

	game.mu.Lock()
	game.clan = gameClan(
		clashapi.ClanMember{Tag: "#LEAD", Name: "Boss", Role: clashapi.RoleLeader},
		clashapi.ClanMember{Tag: "#QQQ", Name: "Rookie", Role: clashapi.RoleMember},
	)
	game.war = nil
	game.warErr = &clashapi.APIError{StatusCode: http.StatusForbidden, Reason: "accessDenied"}
	game.mu.Unlock()

	second, err := svc.Sync(ctx, actorOf(leader), clan.ID)
	require.NoError(t, err)
	require.Len(t, second.Joined, 1)
	assert.Equal(t, "#QQQ", second.Joined[0].Tag)
	require.Len(t, second.Left, 1)
	assert.Equal(t, "#AAA", second.Left[0].Tag)
	assert.Nil(t, second.Snapshot.War, "private war log yields no war")

	stored, err := svc.GetSnapshot(ctx, clan.ID)
	require.NoError(t, err)
	var roster []clashapi.ClanMember
	require.NoError(t, json.Unmarshal(stored.Members, &roster))
	assert.Len(t, roster, 2)

	refreshed, err := f.repos.Clans.GetByID(ctx, clan.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastSyncAt)
}

func TestClanSync_GameAPIFailure(t *testing.T) {
	f := newFixture(t)
	clan, leader := f.linkedClan(t)
	game := &fakeGame{clanErr: errors.New("connection reset")}
	svc := NewClanSyncService(f.repos.Tx, f.repos.Clans, f.repos.Snapshots, game, f.logger)

	_, err := svc.Sync(context.Background(), actorOf(leader), clan.ID)
	assert.ErrorIs(t, err, ErrGameAPIUnavailable)
}

func TestDiffRoster(t *testing.T) {
	prev := []clashapi.ClanMember{{Tag: "#A"}, {Tag: "#B"}}
	cur := []clashapi.ClanMember{{Tag: "#B"}, {Tag: "#C"}}
	joined, left := diffRoster(prev, cur)
	assert.Equal(t, []clashapi.ClanMember{{Tag: "#C"}}, joined)
	assert.Equal(t, []clashapi.ClanMember{{Tag: "#A"}}, left)

	joined, left = diffRoster(nil, nil)
	assert.NotNil(t, joined)
	assert.NotNil(t, left)
}
