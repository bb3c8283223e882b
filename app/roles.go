package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/docbot/core/bootstrap"
	"github.com/m3rciful/docbot/core/conversation/assistant"
	"github.com/m3rciful/docbot/core/conversation/menu"
	"github.com/m3rciful/docbot/core/logger"
)

func toRole(raw string) menu.Role {
	role, ok := menu.ParseRole(raw)
	if !ok {
		logger.LogEvent(context.Background(), logger.SVCMembers, slog.LevelDebug, "role.custom",
			slog.String("role", string(role)),
		)
	}
	return role
}

// StaticRoles resolves roles from the assistant.roles config map.
type StaticRoles struct {
	roles    map[string]menu.Role
	fallback menu.Role
}

var _ assistant.RoleResolver = (*StaticRoles)(nil)

// NewStaticRoles builds a resolver; users missing from roles get fallback.
func NewStaticRoles(roles map[string]string, fallback string) *StaticRoles {
	m := make(map[string]menu.Role, len(roles))
	for user, role := range roles {
		m[strings.TrimSpace(user)] = toRole(role)
	}
	return &StaticRoles{roles: m, fallback: toRole(fallback)}
}

// ResolveRole implements assistant.RoleResolver.
func (s *StaticRoles) ResolveRole(_ context.Context, userID string) (menu.Role, error) {
	if role, ok := s.roles[strings.TrimSpace(userID)]; ok {
		return role, nil
	}
	return s.fallback, nil
}

// Member is a row of the members table.
type Member struct {
	UserID string `db:"user_id"`
	Role   string `db:"role"`
}

// MemberStore resolves roles from the members table.
type MemberStore struct {
	db       *sqlx.DB
	fallback menu.Role
}

var _ assistant.RoleResolver = (*MemberStore)(nil)

// NewMemberStore wraps db; users without a row get fallback.
func NewMemberStore(db *sqlx.DB, fallback string) *MemberStore {
	return &MemberStore{db: db, fallback: toRole(fallback)}
}

// ResolveRole implements assistant.RoleResolver.
func (m *MemberStore) ResolveRole(ctx context.Context, userID string) (menu.Role, error) {
	var role string
	err := m.db.GetContext(ctx, &role, `SELECT role FROM members WHERE user_id = $1`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return m.fallback, nil
	case err != nil:
		logger.LogEvent(ctx, logger.SVCMembers, slog.LevelError, "member.lookup",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("lookup member %s: %w", userID, err)
	}
	return toRole(role), nil
}

// Upsert assigns role to the user.
func (m *MemberStore) Upsert(ctx context.Context, member Member) error {
	_, err := m.db.NamedExecContext(ctx,
		`INSERT INTO members (user_id, role) VALUES (:user_id, :role)
		 ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`,
		member,
	)
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", member.UserID, err)
	}
	return nil
}

// List returns all members ordered by user id.
func (m *MemberStore) List(ctx context.Context) ([]Member, error) {
	var members []Member
	if err := m.db.SelectContext(ctx, &members, `SELECT user_id, role FROM members ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// MemberSeeder copies the configured static roles into the members table.
func MemberSeeder(roles map[string]string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		if len(roles) == 0 {
			return nil
		}
		users := make([]string, 0, len(roles))
		for user := range roles {
			users = append(users, user)
		}
		sort.Strings(users)

		store := NewMemberStore(db, string(menu.RoleOwner))
		for _, user := range users {
			if err := store.Upsert(ctx, Member{UserID: user, Role: roles[user]}); err != nil {
				return err
			}
		}
		logger.LogEvent(ctx, logger.SVCMembers, slog.LevelInfo, "members.seeded",
			slog.String("status", "ok"),
			slog.Int("count", len(users)),
		)
		return nil
	})
}
