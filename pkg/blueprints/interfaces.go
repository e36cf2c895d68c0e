package blueprints

import (
	"context"
)

// BlobStore defines the interface for content blob storage backends.
//
// Blobs are addressed by (fileID, version). Put overwrites an existing blob
// so a retried workflow stays idempotent; Get returns ErrBlobNotFound for a
// missing blob; both delete operations tolerate absence.
type BlobStore interface {
	// Put writes the content blob for one version
	Put(ctx context.Context, fileID string, version int, content string) error

	// Get reads the content blob for one version
	Get(ctx context.Context, fileID string, version int) (string, error)

	// DeleteVersion removes exactly one blob if present
	DeleteVersion(ctx context.Context, fileID string, version int) error

	// DeleteAllVersions removes every blob stored under fileID
	DeleteAllVersions(ctx context.Context, fileID string) error

	// Exists reports whether any blob or storage location exists for fileID
	Exists(ctx context.Context, fileID string) (bool, error)
}

// Repository defines the interface for blueprint and user persistence.
//
// WithTx runs fn against a transaction-scoped view of the repository. The
// transaction commits when fn returns nil and rolls back otherwise; the
// decision is made in one place on every exit path.
type Repository interface {
	WithTx(ctx context.Context, fn func(Repository) error) error

	// Blueprint operations
	CreateBlueprint(ctx context.Context, bp *Blueprint) (int64, error)
	GetBlueprint(ctx context.Context, id int64) (*Blueprint, error)
	GetBlueprintBySlug(ctx context.Context, slug string) (*Blueprint, error)
	UpdateBlueprint(ctx context.Context, bp *Blueprint) error
	DeleteBlueprint(ctx context.Context, id int64) error
	IsFileIDAvailable(ctx context.Context, fileID string) (bool, error)
	ListLastBlueprints(ctx context.Context, limit int) ([]*Blueprint, error)
	SearchBlueprints(ctx context.Context, filter BlueprintFilter) (*Page, error)
	ChangeBlueprintsAuthor(ctx context.Context, fromID, toID int64) error
	SoftDeleteBlueprintsFromAuthor(ctx context.Context, authorID int64) error

	// Version ledger operations
	CreateVersion(ctx context.Context, v *BlueprintVersion) (int64, error)
	ListVersions(ctx context.Context, blueprintID int64) ([]*BlueprintVersion, error)
	NextVersion(ctx context.Context, blueprintID int64) (int, error)
	DeleteVersion(ctx context.Context, blueprintID int64, version int) error
	DeleteVersions(ctx context.Context, blueprintID int64) error

	// User operations
	CreateUser(ctx context.Context, u *User) (int64, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id int64) error
	IsUsernameAvailable(ctx context.Context, username, slug string) (bool, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	FindUserIDByResetToken(ctx context.Context, email, token string) (int64, error)
	FindUserIDByConfirmedToken(ctx context.Context, token string) (int64, error)

	// User infos operations
	CreateUserInfos(ctx context.Context, infos *UserInfos) error
	GetUserInfos(ctx context.Context, userID int64) (*UserInfos, error)
	UpdateUserInfos(ctx context.Context, infos *UserInfos) error
	DeleteUserInfos(ctx context.Context, userID int64) error

	// API key operations
	SetAPIKey(ctx context.Context, userID int64, key string) error
	GetAPIKey(ctx context.Context, userID int64) (string, error)
	FindUserIDByAPIKey(ctx context.Context, key string) (int64, error)
	IsAPIKeyAvailable(ctx context.Context, key string) (bool, error)
	DeleteAPIKey(ctx context.Context, userID int64) error
}

// Mailer defines the interface for outbound account emails. Sending happens
// inside a workflow but outside its database transaction; a send failure
// still aborts the surrounding operation.
type Mailer interface {
	SendConfirmAccount(ctx context.Context, email, username, token string) error
	SendPasswordReset(ctx context.Context, email, username, token string) error
}

// NoopMailer discards every email. Useful for tests and for deployments
// without an SMTP relay.
type NoopMailer struct{}

func (NoopMailer) SendConfirmAccount(ctx context.Context, email, username, token string) error {
	return nil
}

func (NoopMailer) SendPasswordReset(ctx context.Context, email, username, token string) error {
	return nil
}
