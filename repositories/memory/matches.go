package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

type matchRepository struct{ s *Store }

func (r *matchRepository) CreateBatch(_ context.Context, _ repositories.SQLExecutor, matches []*models.TournamentMatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range matches {
		if _, ok := r.s.data.matches[matchKey{m.TournamentID, m.ID}]; ok {
			return repositories.ErrMatchAlreadyExists
		}
	}
	now := time.Now().UTC()
	for _, m := range matches {
		m.UpdatedAt = now
		r.s.data.matches[matchKey{m.TournamentID, m.ID}] = *m
	}
	return nil
}

func (r *matchRepository) GetByID(_ context.Context, _ repositories.SQLExecutor, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.data.matches[matchKey{tournamentID, matchID}]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r *matchRepository) LockByID(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, matchID string) (*models.TournamentMatch, error) {
	return r.GetByID(ctx, exec, tournamentID, matchID)
}

func (r *matchRepository) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.TournamentMatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.TournamentMatch
	for key, m := range r.s.data.matches {
		if key.tournamentID == tournamentID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (r *matchRepository) CountByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for key := range r.s.data.matches {
		if key.tournamentID == tournamentID {
			n++
		}
	}
	return n, nil
}

func (r *matchRepository) Update(_ context.Context, _ repositories.SQLExecutor, m *models.TournamentMatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := matchKey{m.TournamentID, m.ID}
	existing, ok := r.s.data.matches[key]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	existing.Team1ID = m.Team1ID
	existing.Team2ID = m.Team2ID
	existing.Status = m.Status
	existing.WinnerTeamID = m.WinnerTeamID
	existing.ScheduledAt = m.ScheduledAt
	existing.ReportedBy = m.ReportedBy
	existing.CompletedAt = m.CompletedAt
	existing.UpdatedAt = time.Now().UTC()
	m.UpdatedAt = existing.UpdatedAt
	r.s.data.matches[key] = existing
	return nil
}

type postRepository struct{ s *Store }

func (r *postRepository) Create(_ context.Context, p *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.posts {
		if existing.Slug == p.Slug {
			return repositories.ErrPostSlugConflict
		}
	}
	now := time.Now().UTC()
	p.ID = r.s.id()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.data.posts[p.ID] = *p
	return nil
}

func (r *postRepository) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, repositories.ErrPostNotFound
}

func (r *postRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	if err == repositories.ErrPostNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *postRepository) List(_ context.Context, filter repositories.ListPostsFilter) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Post, 0)
	for _, p := range r.s.data.posts {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *postRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(r.s.data.posts, id)
	return nil
}
