package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

var ErrSnapshotNotFound = errors.New("clan has not been synced yet")

type ClanSnapshotRepository interface {
	Get(ctx context.Context, clanID int) (*models.ClanSnapshot, error)
	Upsert(ctx context.Context, exec SQLExecutor, snapshot *models.ClanSnapshot) error
}

type postgresClanSnapshotRepository struct {
	db *sql.DB
}

func NewPostgresClanSnapshotRepository(db *sql.DB) ClanSnapshotRepository {
	return &postgresClanSnapshotRepository{db: db}
}

func (r *postgresClanSnapshotRepository) Get(ctx context.Context, clanID int) (*models.ClanSnapshot, error) {
	s := &models.ClanSnapshot{}
	var war []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT clan_id, members, war, synced_at FROM clan_snapshots WHERE clan_id = $1`, clanID,
	).Scan(&s.ClanID, &s.Members, &war, &s.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get clan snapshot: %w", err)
	}
	if len(war) > 0 {
		s.War = war
	}
	return s, nil
}

// Upsert overwrites the whole cached document for the clan.
func (r *postgresClanSnapshotRepository) Upsert(ctx context.Context, exec SQLExecutor, s *models.ClanSnapshot) error {
	executor := exec
	if executor == nil {
		executor = r.db
	}
	var war interface{}
	if len(s.War) > 0 {
		war = []byte(s.War)
	}
	query := `
		INSERT INTO clan_snapshots (clan_id, members, war, synced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (clan_id) DO UPDATE
		SET members = EXCLUDED.members, war = EXCLUDED.war, synced_at = EXCLUDED.synced_at`

	if _, err := executor.ExecContext(ctx, query, s.ClanID, []byte(s.Members), war, s.SyncedAt); err != nil {
		return fmt.Errorf("failed to upsert clan snapshot: %w", err)
	}
	return nil
}
