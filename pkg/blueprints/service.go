package blueprints

import (
	"context"
)

// Service is the main interface for blueprint and user account operations.
type Service interface {
	// Blueprint lifecycle
	CreateBlueprint(ctx context.Context, req CreateBlueprintRequest) (*CreateBlueprintResult, error)
	AddVersion(ctx context.Context, req AddVersionRequest) error
	DeleteVersion(ctx context.Context, blueprintID int64, version int) error
	DeleteBlueprint(ctx context.Context, blueprintID int64) error
	SoftDeleteBlueprint(ctx context.Context, blueprintID int64) error

	// Blueprint reads
	GetBlueprint(ctx context.Context, id int64) (*Blueprint, error)
	GetBlueprintBySlug(ctx context.Context, slug string) (*Blueprint, error)
	GetBlueprintContent(ctx context.Context, blueprintID int64, version int) (string, error)
	ListVersions(ctx context.Context, blueprintID int64) ([]*BlueprintVersion, error)
	ListLastBlueprints(ctx context.Context, limit int) ([]*Blueprint, error)
	SearchBlueprints(ctx context.Context, filter BlueprintFilter) (*Page, error)

	// Blueprint mutations
	UpdateProperties(ctx context.Context, blueprintID int64, req UpdatePropertiesRequest) error
	UpdateInformations(ctx context.Context, blueprintID int64, req UpdateInformationsRequest) error
	UpdateThumbnail(ctx context.Context, blueprintID int64, filename string) error
	UpdateCommentCount(ctx context.Context, blueprintID int64, count int) error
	ClaimBlueprint(ctx context.Context, blueprintID, userID int64) error
	ChangeAuthor(ctx context.Context, fromID, toID int64) error
	SoftDeleteFromAuthor(ctx context.Context, authorID int64) error
	IsAuthor(ctx context.Context, blueprintID, userID int64) (bool, error)

	// User accounts
	RegisterUser(ctx context.Context, req RegisterUserRequest) (int64, error)
	Authenticate(ctx context.Context, username, password string) (int64, error)
	SaveLastLogin(ctx context.Context, userID int64) error
	DeleteUser(ctx context.Context, userID int64) error
	GetUser(ctx context.Context, userID int64) (*User, error)

	// Password reset
	BeginPasswordReset(ctx context.Context, email string) (*PasswordResetResult, error)
	FindUserIDByResetToken(ctx context.Context, email, token string) (int64, error)
	ResetPassword(ctx context.Context, userID int64, password string) error

	// Account confirmation
	IsUserConfirmed(ctx context.Context, userID int64) (confirmed, resend bool, err error)
	SendConfirmAccountEmail(ctx context.Context, userID int64) error
	ConfirmAccount(ctx context.Context, token string) (bool, error)

	// API keys
	GenerateAPIKey(ctx context.Context, userID int64) (string, error)
	FindUserIDByAPIKey(ctx context.Context, key string) (int64, error)
}
