package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
)

var (
	ErrClanNotFound       = errors.New("clan not found")
	ErrClanTagConflict    = errors.New("clan is already managed on the platform")
	ErrClanMemberNotFound = errors.New("clan member not found")
	ErrClanMemberExists   = errors.New("user is already a clan member")
)

type ClanRepository interface {
	Create(ctx context.Context, exec SQLExecutor, clan *models.Clan) error
	GetByID(ctx context.Context, id int) (*models.Clan, error)
	GetByTag(ctx context.Context, tag string) (*models.Clan, error)
	UpdateSyncInfo(ctx context.Context, exec SQLExecutor, id int, name string, badgeURL *string, syncedAt time.Time) error

	AddMember(ctx context.Context, exec SQLExecutor, member *models.ClanMember) error
	GetMember(ctx context.Context, exec SQLExecutor, clanID, userID int) (*models.ClanMember, error)
	ListMembers(ctx context.Context, clanID int) ([]models.ClanMember, error)
	UpdateMemberRole(ctx context.Context, clanID, userID int, role models.ClanRole) error
	RemoveMember(ctx context.Context, clanID, userID int) error
}

type postgresClanRepository struct {
	db *sql.DB
}

func NewPostgresClanRepository(db *sql.DB) ClanRepository {
	return &postgresClanRepository{db: db}
}

func (r *postgresClanRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const clanColumns = `id, tag, name, badge_url, owner_id, verified, last_sync_at, created_at`

func scanClan(row interface{ Scan(...interface{}) error }) (*models.Clan, error) {
	c := &models.Clan{}
	if err := row.Scan(&c.ID, &c.Tag, &c.Name, &c.BadgeURL, &c.OwnerID, &c.Verified, &c.LastSyncAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresClanRepository) Create(ctx context.Context, exec SQLExecutor, clan *models.Clan) error {
	query := `
		INSERT INTO clans (tag, name, badge_url, owner_id, verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		clan.Tag, clan.Name, clan.BadgeURL, clan.OwnerID, clan.Verified,
	).Scan(&clan.ID, &clan.CreatedAt)
	if err != nil {
		if code, constraint := pqConstraint(err); code == pqUniqueViolation && constraint == "clans_tag_key" {
			return ErrClanTagConflict
		}
		return fmt.Errorf("failed to create clan: %w", err)
	}
	return nil
}

func (r *postgresClanRepository) GetByID(ctx context.Context, id int) (*models.Clan, error) {
	c, err := scanClan(r.db.QueryRowContext(ctx, `SELECT `+clanColumns+` FROM clans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClanNotFound
		}
		return nil, fmt.Errorf("failed to get clan %d: %w", id, err)
	}
	return c, nil
}

func (r *postgresClanRepository) GetByTag(ctx context.Context, tag string) (*models.Clan, error) {
	c, err := scanClan(r.db.QueryRowContext(ctx, `SELECT `+clanColumns+` FROM clans WHERE tag = $1`, tag))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClanNotFound
		}
		return nil, fmt.Errorf("failed to get clan by tag: %w", err)
	}
	return c, nil
}

func (r *postgresClanRepository) UpdateSyncInfo(ctx context.Context, exec SQLExecutor, id int, name string, badgeURL *string, syncedAt time.Time) error {
	query := `UPDATE clans SET name = $1, badge_url = $2, last_sync_at = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, name, badgeURL, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update clan sync info: %w", err)
	}
	return checkAffectedRows(result, ErrClanNotFound)
}

func (r *postgresClanRepository) AddMember(ctx context.Context, exec SQLExecutor, m *models.ClanMember) error {
	query := `
		INSERT INTO clan_members (clan_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING joined_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, m.ClanID, m.UserID, m.Role).Scan(&m.JoinedAt)
	if err != nil {
		code, constraint := pqConstraint(err)
		switch {
		case code == pqUniqueViolation && constraint == "clan_members_pkey":
			return ErrClanMemberExists
		case code == pqForeignKeyViolation && constraint == "clan_members_clan_id_fkey":
			return ErrClanNotFound
		case code == pqForeignKeyViolation && constraint == "clan_members_user_id_fkey":
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to add clan member: %w", err)
	}
	return nil
}

func (r *postgresClanRepository) GetMember(ctx context.Context, exec SQLExecutor, clanID, userID int) (*models.ClanMember, error) {
	query := `SELECT clan_id, user_id, role, joined_at FROM clan_members WHERE clan_id = $1 AND user_id = $2`
	m := &models.ClanMember{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, clanID, userID).Scan(&m.ClanID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClanMemberNotFound
		}
		return nil, fmt.Errorf("failed to get clan member: %w", err)
	}
	return m, nil
}

func (r *postgresClanRepository) ListMembers(ctx context.Context, clanID int) ([]models.ClanMember, error) {
	query := `
		SELECT m.clan_id, m.user_id, m.role, m.joined_at,
			u.id, u.email, u.display_name, u.role, u.player_tag, u.town_hall_level, u.avatar_key, u.created_at
		FROM clan_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.clan_id = $1
		ORDER BY m.joined_at`

	rows, err := r.db.QueryContext(ctx, query, clanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clan members: %w", err)
	}
	defer rows.Close()

	members := make([]models.ClanMember, 0)
	for rows.Next() {
		var m models.ClanMember
		u := &models.User{}
		if err := rows.Scan(&m.ClanID, &m.UserID, &m.Role, &m.JoinedAt,
			&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.PlayerTag, &u.TownHallLevel, &u.AvatarKey, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan clan member: %w", err)
		}
		m.User = u
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresClanRepository) UpdateMemberRole(ctx context.Context, clanID, userID int, role models.ClanRole) error {
	result, err := r.db.ExecContext(ctx, `UPDATE clan_members SET role = $1 WHERE clan_id = $2 AND user_id = $3`, role, clanID, userID)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return checkAffectedRows(result, ErrClanMemberNotFound)
}

func (r *postgresClanRepository) RemoveMember(ctx context.Context, clanID, userID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clan_members WHERE clan_id = $1 AND user_id = $2`, clanID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove clan member: %w", err)
	}
	return checkAffectedRows(result, ErrClanMemberNotFound)
}
