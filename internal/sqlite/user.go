package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/repository"
)

// UserRepository implements user.Repository for SQLite
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user with its permission and channel grants
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, name, role, created_at) VALUES (?, ?, ?, ?)`,
		u.Email, u.Name, u.Role, u.CreatedAt,
	)
	if err != nil {
		return translate(fmt.Errorf("failed to create user: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}

	if err := replacePermissions(ctx, tx, id, u.Permissions); err != nil {
		return err
	}
	if err := replaceChannels(ctx, tx, id, u.Channels); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.ID = id
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id int64) (*user.User, error) {
	return r.getBy(ctx, `id = ?`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, `email = ?`, email)
}

func (r *UserRepository) getBy(ctx context.Context, cond string, arg any) (*user.User, error) {
	var (
		u       user.User
		created sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, created_at FROM users WHERE `+cond, arg,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &created)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = created.Time

	list := []user.User{u}
	if err := r.attachGrants(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// List returns every user ordered by email
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, email, name, role, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := []user.User{}
	for rows.Next() {
		var (
			u       user.User
			created sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt = created.Time
		users = append(users, u)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	if err := r.attachGrants(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// attachGrants fills permissions and channels for the users.
func (r *UserRepository) attachGrants(ctx context.Context, users []user.User) error {
	index := make(map[int64]int, len(users))
	for i := range users {
		index[users[i].ID] = i
		users[i].Permissions = []user.Permission{}
		users[i].Channels = []string{}
	}

	perms, err := r.pairs(ctx, `SELECT user_id, permission FROM user_permissions ORDER BY permission`)
	if err != nil {
		return err
	}
	for _, p := range perms {
		if i, ok := index[p.id]; ok {
			users[i].Permissions = append(users[i].Permissions, user.Permission(p.value))
		}
	}

	channels, err := r.pairs(ctx, `SELECT user_id, channel FROM user_channels ORDER BY channel`)
	if err != nil {
		return err
	}
	for _, c := range channels {
		if i, ok := index[c.id]; ok {
			users[i].Channels = append(users[i].Channels, c.value)
		}
	}
	return nil
}

type grant struct {
	id    int64
	value string
}

func (r *UserRepository) pairs(ctx context.Context, query string) ([]grant, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var out []grant
	for rows.Next() {
		var g grant
		if err := rows.Scan(&g.id, &g.value); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SetPermissions replaces a user's permissions
func (r *UserRepository) SetPermissions(ctx context.Context, id int64, perms []user.Permission) error {
	return r.replace(ctx, id, func(tx *sql.Tx) error {
		return replacePermissions(ctx, tx, id, perms)
	})
}

// SetChannels replaces a user's visible channels
func (r *UserRepository) SetChannels(ctx context.Context, id int64, channels []string) error {
	return r.replace(ctx, id, func(tx *sql.Tx) error {
		return replaceChannels(ctx, tx, id, channels)
	})
}

func (r *UserRepository) replace(ctx context.Context, id int64, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	if err := fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func replacePermissions(ctx context.Context, tx *sql.Tx, id int64, perms []user.Permission) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_permissions WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}
	for _, p := range perms {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_permissions (user_id, permission) VALUES (?, ?)`, id, string(p),
		)
		if err != nil {
			return translate(fmt.Errorf("failed to grant permission: %w", err))
		}
	}
	return nil
}

func replaceChannels(ctx context.Context, tx *sql.Tx, id int64, channels []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_channels WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear channels: %w", err)
	}
	for _, c := range channels {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_channels (user_id, channel) VALUES (?, ?)`, id, c,
		)
		if err != nil {
			return translate(fmt.Errorf("failed to grant channel: %w", err))
		}
	}
	return nil
}
