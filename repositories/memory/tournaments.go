package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

type tournamentRepository struct{ s *Store }

func (r *tournamentRepository) Create(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[t.OrganizerID]; !ok {
		return repositories.ErrTournamentInvalidOrg
	}
	if t.ClanID != nil {
		if _, ok := r.s.data.clans[*t.ClanID]; !ok {
			return repositories.ErrTournamentInvalidClan
		}
	}
	now := time.Now().UTC()
	t.ID = r.s.id()
	t.ParticipantCountCurrent = 0
	t.CreatedAt = now
	t.UpdatedAt = now
	r.s.data.tournaments[t.ID] = *t
	return nil
}

func (r *tournamentRepository) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r *tournamentRepository) LockByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *tournamentRepository) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.s.data.tournaments {
		if filter.OrganizerID != nil && t.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.ClanID != nil && (t.ClanID == nil || *t.ClanID != *filter.ClanID) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (r *tournamentRepository) Update(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.data.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.ParticipantCount < existing.ParticipantCountCurrent {
		return repositories.ErrTournamentCapacityBounds
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.ClanID = t.ClanID
	existing.ParticipantCount = t.ParticipantCount
	existing.TeamSize = t.TeamSize
	existing.RegistrationOpensAt = t.RegistrationOpensAt
	existing.RegistrationClosesAt = t.RegistrationClosesAt
	existing.StartsAt = t.StartsAt
	existing.UpdatedAt = time.Now().UTC()
	t.UpdatedAt = existing.UpdatedAt
	r.s.data.tournaments[t.ID] = existing
	return nil
}

func (r *tournamentRepository) mutate(id int, fn func(t *models.Tournament) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if err := fn(&t); err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()
	r.s.data.tournaments[id] = t
	return nil
}

func (r *tournamentRepository) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	return r.mutate(id, func(t *models.Tournament) error {
		t.Status = status
		return nil
	})
}

func (r *tournamentRepository) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	return r.mutate(id, func(t *models.Tournament) error {
		t.LogoKey = logoKey
		return nil
	})
}

func (r *tournamentRepository) Complete(_ context.Context, _ repositories.SQLExecutor, id int, winnerTeamID int) error {
	return r.mutate(id, func(t *models.Tournament) error {
		t.Status = models.TournamentCompleted
		t.WinnerTeamID = &winnerTeamID
		return nil
	})
}

func (r *tournamentRepository) AdjustParticipantCount(_ context.Context, _ repositories.SQLExecutor, id int, delta int) error {
	return r.mutate(id, func(t *models.Tournament) error {
		next := t.ParticipantCountCurrent + delta
		if next < 0 {
			return repositories.ErrTournamentCounterBounds
		}
		if next > t.ParticipantCount {
			return repositories.ErrTournamentCapacityBounds
		}
		t.ParticipantCountCurrent = next
		return nil
	})
}

func (r *tournamentRepository) ListDueForStatusUpdate(_ context.Context, now time.Time) ([]*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.s.data.tournaments {
		due := (t.Status == models.TournamentDraft && t.RegistrationOpensAt != nil && !t.RegistrationOpensAt.After(now)) ||
			(t.Status == models.TournamentRegistrationOpen && t.RegistrationClosesAt != nil && !t.RegistrationClosesAt.After(now))
		if due {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type teamRepository struct{ s *Store }

func (r *teamRepository) Create(_ context.Context, _ repositories.SQLExecutor, team *models.TournamentTeam) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.tournaments[team.TournamentID]; !ok {
		return repositories.ErrTeamInvalidReference
	}
	if _, ok := r.s.data.users[team.CaptainID]; !ok {
		return repositories.ErrTeamInvalidReference
	}
	for _, existing := range r.s.data.teams {
		if existing.TournamentID == team.TournamentID && existing.CaptainID == team.CaptainID {
			return repositories.ErrTeamCaptainConflict
		}
	}
	team.ID = r.s.id()
	team.CreatedAt = time.Now().UTC()
	r.s.data.teams[team.ID] = *team
	return nil
}

func (r *teamRepository) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentTeam, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (r *teamRepository) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, status *models.TeamStatus) ([]models.TournamentTeam, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.TournamentTeam, 0)
	for _, t := range r.s.data.teams {
		if t.TournamentID != tournamentID || (status != nil && t.Status != *status) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *teamRepository) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TeamStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.Status = status
	r.s.data.teams[id] = t
	return nil
}

func (r *teamRepository) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.s.data.teams, id)
	return nil
}
