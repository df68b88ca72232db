package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

type clanRepository struct{ s *Store }

func (r *clanRepository) Create(_ context.Context, _ repositories.SQLExecutor, c *models.Clan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.clans {
		if existing.Tag == c.Tag {
			return repositories.ErrClanTagConflict
		}
	}
	c.ID = r.s.id()
	c.CreatedAt = time.Now().UTC()
	stored := *c
	stored.Members = nil
	r.s.data.clans[c.ID] = stored
	return nil
}

func (r *clanRepository) GetByID(_ context.Context, id int) (*models.Clan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.clans[id]
	if !ok {
		return nil, repositories.ErrClanNotFound
	}
	return &c, nil
}

func (r *clanRepository) GetByTag(_ context.Context, tag string) (*models.Clan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.data.clans {
		if c.Tag == tag {
			return &c, nil
		}
	}
	return nil, repositories.ErrClanNotFound
}

func (r *clanRepository) UpdateSyncInfo(_ context.Context, _ repositories.SQLExecutor, id int, name string, badgeURL *string, syncedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.clans[id]
	if !ok {
		return repositories.ErrClanNotFound
	}
	c.Name = name
	c.BadgeURL = badgeURL
	c.LastSyncAt = &syncedAt
	r.s.data.clans[id] = c
	return nil
}

func (r *clanRepository) AddMember(_ context.Context, _ repositories.SQLExecutor, m *models.ClanMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.clans[m.ClanID]; !ok {
		return repositories.ErrClanNotFound
	}
	if _, ok := r.s.data.users[m.UserID]; !ok {
		return repositories.ErrUserNotFound
	}
	key := memberKey{m.ClanID, m.UserID}
	if _, ok := r.s.data.members[key]; ok {
		return repositories.ErrClanMemberExists
	}
	m.JoinedAt = time.Now().UTC()
	stored := *m
	stored.User = nil
	r.s.data.members[key] = stored
	return nil
}

func (r *clanRepository) GetMember(_ context.Context, _ repositories.SQLExecutor, clanID, userID int) (*models.ClanMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.data.members[memberKey{clanID, userID}]
	if !ok {
		return nil, repositories.ErrClanMemberNotFound
	}
	return &m, nil
}

func (r *clanRepository) ListMembers(_ context.Context, clanID int) ([]models.ClanMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	members := make([]models.ClanMember, 0)
	for key, m := range r.s.data.members {
		if key.clanID != clanID {
			continue
		}
		if u, ok := r.s.data.users[m.UserID]; ok {
			m.User = &u
		}
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

func (r *clanRepository) UpdateMemberRole(_ context.Context, clanID, userID int, role models.ClanRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := memberKey{clanID, userID}
	m, ok := r.s.data.members[key]
	if !ok {
		return repositories.ErrClanMemberNotFound
	}
	m.Role = role
	r.s.data.members[key] = m
	return nil
}

func (r *clanRepository) RemoveMember(_ context.Context, clanID, userID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := memberKey{clanID, userID}
	if _, ok := r.s.data.members[key]; !ok {
		return repositories.ErrClanMemberNotFound
	}
	delete(r.s.data.members, key)
	return nil
}

type joinRequestRepository struct{ s *Store }

func (r *joinRequestRepository) Create(_ context.Context, req *models.JoinRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.clans[req.ClanID]; !ok {
		return repositories.ErrClanNotFound
	}
	for _, existing := range r.s.data.joinRequests {
		if existing.ClanID == req.ClanID && existing.UserID == req.UserID && existing.Status == models.JoinRequestPending {
			return repositories.ErrJoinRequestDuplicate
		}
	}
	req.ID = r.s.id()
	req.CreatedAt = time.Now().UTC()
	r.s.data.joinRequests[req.ID] = *req
	return nil
}

func (r *joinRequestRepository) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.JoinRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	jr, ok := r.s.data.joinRequests[id]
	if !ok {
		return nil, repositories.ErrJoinRequestNotFound
	}
	return &jr, nil
}

func (r *joinRequestRepository) ListByClan(_ context.Context, clanID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.JoinRequest, 0)
	for _, jr := range r.s.data.joinRequests {
		if jr.ClanID != clanID || (status != nil && jr.Status != *status) {
			continue
		}
		out = append(out, jr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *joinRequestRepository) HasPending(_ context.Context, clanID, userID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, jr := range r.s.data.joinRequests {
		if jr.ClanID == clanID && jr.UserID == userID && jr.Status == models.JoinRequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *joinRequestRepository) Resolve(_ context.Context, _ repositories.SQLExecutor, id int, status models.JoinRequestStatus, processedBy int, processedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	jr, ok := r.s.data.joinRequests[id]
	if !ok || jr.Status != models.JoinRequestPending {
		return repositories.ErrJoinRequestProcessed
	}
	jr.Status = status
	jr.ProcessedBy = &processedBy
	jr.ProcessedAt = &processedAt
	r.s.data.joinRequests[id] = jr
	return nil
}

type snapshotRepository struct{ s *Store }

func (r *snapshotRepository) Get(_ context.Context, clanID int) (*models.ClanSnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snap, ok := r.s.data.snapshots[clanID]
	if !ok {
		return nil, repositories.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (r *snapshotRepository) Upsert(_ context.Context, _ repositories.SQLExecutor, snap *models.ClanSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.snapshots[snap.ClanID] = *snap
	return nil
}
