// Package postgres provides the production repository backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/blueprint-share/pkg/blueprints"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements blueprints.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
}

// New creates a repository bound to an existing DBTX (typically a transaction).
// A repository created this way treats WithTx as a no-op scope: the caller
// already owns the transaction.
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a repository backed by a connection pool. WithTx opens
// real transactions on the pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx begins a transaction, runs fn against a transaction-scoped
// repository, and commits only when fn returns nil. Rollback on every other
// exit path happens here and nowhere else.
func (r *Repository) WithTx(ctx context.Context, fn func(blueprints.Repository) error) error {
	if r.pool == nil {
		// Already inside a transaction; nested scopes join it.
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "username") {
				return blueprints.ErrUsernameTaken
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return blueprints.ErrEmailTaken
			}
			return fmt.Errorf("duplicate entry in %s: %s", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const blueprintColumns = `id, id_author, slug, file_id, title, description, type, exposure,
       ue_version, current_version, thumbnail, tags, video, video_provider,
       comments_hidden, comments_closed, comment_count, expiration,
       created_at, updated_at, published_at, deleted_at`

func scanBlueprint(row pgx.Row) (*blueprints.Blueprint, error) {
	var bp blueprints.Blueprint
	err := row.Scan(
		&bp.ID, &bp.IDAuthor, &bp.Slug, &bp.FileID, &bp.Title, &bp.Description,
		&bp.Type, &bp.Exposure, &bp.UEVersion, &bp.CurrentVersion,
		&bp.Thumbnail, &bp.Tags, &bp.Video, &bp.VideoProvider,
		&bp.CommentsHidden, &bp.CommentsClosed, &bp.CommentCount, &bp.Expiration,
		&bp.CreatedAt, &bp.UpdatedAt, &bp.PublishedAt, &bp.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &bp, nil
}

// Blueprint operations

func (r *Repository) CreateBlueprint(ctx context.Context, bp *blueprints.Blueprint) (int64, error) {
	query := `
		INSERT INTO blueprints (
			id_author, slug, file_id, title, description, type, exposure,
			ue_version, current_version, thumbnail, tags, video, video_provider,
			comments_hidden, comments_closed, comment_count, expiration,
			created_at, updated_at, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		bp.IDAuthor, bp.Slug, bp.FileID, bp.Title, bp.Description, bp.Type, bp.Exposure,
		bp.UEVersion, bp.CurrentVersion, bp.Thumbnail, bp.Tags, bp.Video, bp.VideoProvider,
		bp.CommentsHidden, bp.CommentsClosed, bp.CommentCount, bp.Expiration,
		bp.CreatedAt, bp.UpdatedAt, bp.PublishedAt).Scan(&id)
	if err != nil {
		return 0, r.handlePostgresError("create blueprint", err)
	}

	return id, nil
}

func (r *Repository) GetBlueprint(ctx context.Context, id int64) (*blueprints.Blueprint, error) {
	query := `SELECT ` + blueprintColumns + ` FROM blueprints WHERE id = $1 AND deleted_at IS NULL`

	bp, err := scanBlueprint(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blueprints.ErrBlueprintNotFound
		}
		return nil, r.handlePostgresError("get blueprint", err)
	}

	return bp, nil
}

func (r *Repository) GetBlueprintBySlug(ctx context.Context, slug string) (*blueprints.Blueprint, error) {
	query := `SELECT ` + blueprintColumns + ` FROM blueprints WHERE slug = $1 AND deleted_at IS NULL`

	bp, err := scanBlueprint(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blueprints.ErrBlueprintNotFound
		}
		return nil, r.handlePostgresError("get blueprint by slug", err)
	}

	return bp, nil
}

func (r *Repository) UpdateBlueprint(ctx context.Context, bp *blueprints.Blueprint) error {
	query := `
		UPDATE blueprints SET
			id_author = $2, slug = $3, file_id = $4, title = $5, description = $6,
			type = $7, exposure = $8, ue_version = $9, current_version = $10,
			thumbnail = $11, tags = $12, video = $13, video_provider = $14,
			comments_hidden = $15, comments_closed = $16, comment_count = $17,
			expiration = $18, updated_at = $19, published_at = $20, deleted_at = $21
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		bp.ID, bp.IDAuthor, bp.Slug, bp.FileID, bp.Title, bp.Description,
		bp.Type, bp.Exposure, bp.UEVersion, bp.CurrentVersion,
		bp.Thumbnail, bp.Tags, bp.Video, bp.VideoProvider,
		bp.CommentsHidden, bp.CommentsClosed, bp.CommentCount,
		bp.Expiration, bp.UpdatedAt, bp.PublishedAt, bp.DeletedAt)
	if err != nil {
		return r.handlePostgresError("update blueprint", err)
	}
	if tag.RowsAffected() == 0 {
		return blueprints.ErrBlueprintNotFound
	}

	return nil
}

func (r *Repository) DeleteBlueprint(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blueprints WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete blueprint", err)
	}
	if tag.RowsAffected() == 0 {
		return blueprints.ErrBlueprintNotFound
	}

	return nil
}

func (r *Repository) IsFileIDAvailable(ctx context.Context, fileID string) (bool, error) {
	// Soft-deleted rows still reserve their fileID, so no deleted_at filter.
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM blueprints WHERE LOWER(file_id) = LOWER($1)`, fileID).Scan(&count)
	if err != nil {
		return false, r.handlePostgresError("check file id", err)
	}

	return count == 0, nil
}

func (r *Repository) ListLastBlueprints(ctx context.Context, limit int) ([]*blueprints.Blueprint, error) {
	query := `
		SELECT ` + blueprintColumns + `
		FROM blueprints
		WHERE deleted_at IS NULL
		  AND exposure = 'public'
		  AND (expiration IS NULL OR expiration > NOW())
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, r.handlePostgresError("list last blueprints", err)
	}
	defer rows.Close()

	return collectBlueprints(rows)
}

func (r *Repository) SearchBlueprints(ctx context.Context, filter blueprints.BlueprintFilter) (*blueprints.Page, error) {
	conditions := []string{
		"deleted_at IS NULL",
		"(expiration IS NULL OR expiration > NOW())",
	}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ConnectedUserID != nil {
		conditions = append(conditions,
			fmt.Sprintf("(exposure = 'public' OR id_author = %s)", arg(*filter.ConnectedUserID)))
	} else {
		conditions = append(conditions, "exposure = 'public'")
	}
	if filter.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("id_author = %s", arg(*filter.AuthorID)))
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = %s", arg(filter.Type)))
	}
	if filter.UEVersion != "" {
		conditions = append(conditions, fmt.Sprintf("ue_version = %s", arg(filter.UEVersion)))
	}
	if filter.Query != "" {
		q := arg("%" + filter.Query + "%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", q, q))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM blueprints WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, r.handlePostgresError("count blueprints", err)
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := `SELECT ` + blueprintColumns + ` FROM blueprints WHERE ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ` + arg(perPage) + ` OFFSET ` + arg((page-1)*perPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("search blueprints", err)
	}
	defer rows.Close()

	result, err := collectBlueprints(rows)
	if err != nil {
		return nil, err
	}

	return &blueprints.Page{Rows: result, Total: total}, nil
}

func collectBlueprints(rows pgx.Rows) ([]*blueprints.Blueprint, error) {
	var result []*blueprints.Blueprint
	for rows.Next() {
		bp, err := scanBlueprint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, bp)
	}
	return result, rows.Err()
}

func (r *Repository) ChangeBlueprintsAuthor(ctx context.Context, fromID, toID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE blueprints SET id_author = $2 WHERE id_author = $1`, fromID, toID)
	if err != nil {
		return r.handlePostgresError("change blueprints author", err)
	}

	return nil
}

func (r *Repository) SoftDeleteBlueprintsFromAuthor(ctx context.Context, authorID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE blueprints SET deleted_at = NOW() WHERE id_author = $1 AND deleted_at IS NULL`,
		authorID)
	if err != nil {
		return r.handlePostgresError("soft delete blueprints from author", err)
	}

	return nil
}

// Version ledger operations

func (r *Repository) CreateVersion(ctx context.Context, v *blueprints.BlueprintVersion) (int64, error) {
	query := `
		INSERT INTO blueprint_versions (id_blueprint, version, reason, created_at, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		v.BlueprintID, v.Version, v.Reason, v.CreatedAt, v.PublishedAt).Scan(&id)
	if err != nil {
		return 0, r.handlePostgresError("create version", err)
	}

	return id, nil
}

func (r *Repository) ListVersions(ctx context.Context, blueprintID int64) ([]*blueprints.BlueprintVersion, error) {
	query := `
		SELECT id, id_blueprint, version, reason, created_at, published_at
		FROM blueprint_versions
		WHERE id_blueprint = $1
		ORDER BY version DESC`

	rows, err := r.db.Query(ctx, query, blueprintID)
	if err != nil {
		return nil, r.handlePostgresError("list versions", err)
	}
	defer rows.Close()

	var result []*blueprints.BlueprintVersion
	for rows.Next() {
		var v blueprints.BlueprintVersion
		if err := rows.Scan(&v.ID, &v.BlueprintID, &v.Version, &v.Reason, &v.CreatedAt, &v.PublishedAt); err != nil {
			return nil, err
		}
		result = append(result, &v)
	}

	return result, rows.Err()
}

func (r *Repository) NextVersion(ctx context.Context, blueprintID int64) (int, error) {
	var next int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM blueprint_versions WHERE id_blueprint = $1`,
		blueprintID).Scan(&next)
	if err != nil {
		return 0, r.handlePostgresError("next version", err)
	}

	return next, nil
}

func (r *Repository) DeleteVersion(ctx context.Context, blueprintID int64, version int) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM blueprint_versions WHERE id_blueprint = $1 AND version = $2`,
		blueprintID, version)
	if err != nil {
		return r.handlePostgresError("delete version", err)
	}
	if tag.RowsAffected() == 0 {
		return blueprints.ErrVersionNotFound
	}

	return nil
}

func (r *Repository) DeleteVersions(ctx context.Context, blueprintID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM blueprint_versions WHERE id_blueprint = $1`, blueprintID)
	if err != nil {
		return r.handlePostgresError("delete versions", err)
	}

	return nil
}

// User operations

const userColumns = `id, username, slug, email, grade, password_hash, avatar, remember_token,
       password_reset, password_reset_at, confirmed_token, confirmed_sent_at,
       confirmed_at, last_login_at, created_at`

func scanUser(row pgx.Row) (*blueprints.User, error) {
	var u blueprints.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Slug, &u.Email, &u.Grade, &u.PasswordHash,
		&u.Avatar, &u.RememberToken, &u.PasswordReset, &u.PasswordResetAt,
		&u.ConfirmedToken, &u.ConfirmedSentAt, &u.ConfirmedAt, &u.LastLoginAt,
		&u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *blueprints.User) (int64, error) {
	query := `
		INSERT INTO users (
			username, slug, email, grade, password_hash, avatar, remember_token,
			password_reset, password_reset_at, confirmed_token, confirmed_sent_at,
			confirmed_at, last_login_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		u.Username, u.Slug, u.Email, u.Grade, u.PasswordHash, u.Avatar, u.RememberToken,
		u.PasswordReset, u.PasswordResetAt, u.ConfirmedToken, u.ConfirmedSentAt,
		u.ConfirmedAt, u.LastLoginAt, u.CreatedAt).Scan(&id)
	if err != nil {
		return 0, r.handlePostgresError("create user", err)
	}

	return id, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*blueprints.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blueprints.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user", err)
	}

	return u, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*blueprints.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blueprints.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user by username", err)
	}

	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*blueprints.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blueprints.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user by email", err)
	}

	return u, nil
}

func (r *Repository) UpdateUser(ctx context.Context, u *blueprints.User) error {
	query := `
		UPDATE users SET
			username = $2, slug = $3, email = $4, grade = $5, password_hash = $6,
			avatar = $7, remember_token = $8, password_reset = $9, password_reset_at = $10,
			confirmed_token = $11, confirmed_sent_at = $12, confirmed_at = $13,
			last_login_at = $14
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		u.ID, u.Username, u.Slug, u.Email, u.Grade, u.PasswordHash,
		u.Avatar, u.RememberToken, u.PasswordReset, u.PasswordResetAt,
		u.ConfirmedToken, u.ConfirmedSentAt, u.ConfirmedAt, u.LastLoginAt)
	if err != nil {
		return r.handlePostgresError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return blueprints.ErrUserNotFound
	}

	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return blueprints.ErrUserNotFound
	}

	return nil
}

func (r *Repository) IsUsernameAvailable(ctx context.Context, username, slug string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER($1) OR LOWER(slug) = LOWER($2)`,
		username, slug).Scan(&count)
	if err != nil {
		return false, r.handlePostgresError("check username", err)
	}

	return count == 0, nil
}

func (r *Repository) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER($1)`, email).Scan(&count)
	if err != nil {
		return false, r.handlePostgresError("check email", err)
	}

	return count == 0, nil
}

func (r *Repository) FindUserIDByResetToken(ctx context.Context, email, token string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM users WHERE LOWER(email) = LOWER($1) AND password_reset = $2 AND password_reset <> ''`,
		email, token).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, blueprints.ErrUserNotFound
		}
		return 0, r.handlePostgresError("find user by reset token", err)
	}

	return id, nil
}

func (r *Repository) FindUserIDByConfirmedToken(ctx context.Context, token string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM users WHERE confirmed_token = $1 AND confirmed_token <> ''`,
		token).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, blueprints.ErrUserNotFound
		}
		return 0, r.handlePostgresError("find user by confirmed token", err)
	}

	return id, nil
}

// User infos operations

func (r *Repository) CreateUserInfos(ctx context.Context, infos *blueprints.UserInfos) error {
	query := `
		INSERT INTO users_infos (
			id_user, bio, link_website, count_public_blueprint, count_private_blueprint,
			count_public_comment, count_private_comment
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		infos.UserID, infos.Bio, infos.LinkWebsite,
		infos.CountPublicBlueprint, infos.CountPrivateBlueprint,
		infos.CountPublicComment, infos.CountPrivateComment)
	if err != nil {
		return r.handlePostgresError("create user infos", err)
	}

	return nil
}

func (r *Repository) GetUserInfos(ctx context.Context, userID int64) (*blueprints.UserInfos, error) {
	query := `
		SELECT id_user, bio, link_website, count_public_blueprint, count_private_blueprint,
		       count_public_comment, count_private_comment
		FROM users_infos WHERE id_user = $1`

	var infos blueprints.UserInfos
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&infos.UserID, &infos.Bio, &infos.LinkWebsite,
		&infos.CountPublicBlueprint, &infos.CountPrivateBlueprint,
		&infos.CountPublicComment, &infos.CountPrivateComment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blueprints.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user infos", err)
	}

	return &infos, nil
}

func (r *Repository) UpdateUserInfos(ctx context.Context, infos *blueprints.UserInfos) error {
	query := `
		UPDATE users_infos SET
			bio = $2, link_website = $3, count_public_blueprint = $4,
			count_private_blueprint = $5, count_public_comment = $6,
			count_private_comment = $7
		WHERE id_user = $1`

	tag, err := r.db.Exec(ctx, query,
		infos.UserID, infos.Bio, infos.LinkWebsite,
		infos.CountPublicBlueprint, infos.CountPrivateBlueprint,
		infos.CountPublicComment, infos.CountPrivateComment)
	if err != nil {
		return r.handlePostgresError("update user infos", err)
	}
	if tag.RowsAffected() == 0 {
		return blueprints.ErrUserNotFound
	}

	return nil
}

func (r *Repository) DeleteUserInfos(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users_infos WHERE id_user = $1`, userID)
	if err != nil {
		return r.handlePostgresError("delete user infos", err)
	}

	return nil
}

// API key operations

func (r *Repository) SetAPIKey(ctx context.Context, userID int64, key string) error {
	query := `
		INSERT INTO users_api (id_user, api_key, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id_user) DO UPDATE SET api_key = EXCLUDED.api_key`

	_, err := r.db.Exec(ctx, query, userID, key, time.Now().UTC())
	if err != nil {
		return r.handlePostgresError("set api key", err)
	}

	return nil
}

func (r *Repository) GetAPIKey(ctx context.Context, userID int64) (string, error) {
	var key string
	err := r.db.QueryRow(ctx,
		`SELECT api_key FROM users_api WHERE id_user = $1`, userID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", blueprints.ErrUserNotFound
		}
		return "", r.handlePostgresError("get api key", err)
	}

	return key, nil
}

func (r *Repository) FindUserIDByAPIKey(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id_user FROM users_api WHERE api_key = $1`, key).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, blueprints.ErrUserNotFound
		}
		return 0, r.handlePostgresError("find user by api key", err)
	}

	return id, nil
}

func (r *Repository) IsAPIKeyAvailable(ctx context.Context, key string) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users_api WHERE api_key = $1`, key).Scan(&count)
	if err != nil {
		return false, r.handlePostgresError("check api key", err)
	}

	return count == 0, nil
}

func (r *Repository) DeleteAPIKey(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users_api WHERE id_user = $1`, userID)
	if err != nil {
		return r.handlePostgresError("delete api key", err)
	}

	return nil
}
