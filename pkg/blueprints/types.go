package blueprints

import (
	"time"
)

// Exposure is the visibility level of a blueprint.
type Exposure string

// Exposure constants (typed).
const (
	ExposurePublic   Exposure = "public"
	ExposureUnlisted Exposure = "unlisted"
	ExposurePrivate  Exposure = "private"
)

// IsValid reports whether the exposure is one of the known levels.
func (e Exposure) IsValid() bool {
	switch e {
	case ExposurePublic, ExposureUnlisted, ExposurePrivate:
		return true
	}
	return false
}

// BlueprintType is the category detected from submitted content.
type BlueprintType string

// Blueprint type constants (typed).
const (
	TypeBehaviorTree BlueprintType = "behavior_tree"
	TypeMaterial     BlueprintType = "material"
	TypeAnimation    BlueprintType = "animation"
	TypeMetasound    BlueprintType = "metasound"
	TypeNiagara      BlueprintType = "niagara"
	TypeBlueprint    BlueprintType = "blueprint"
)

// Blueprint represents a versioned text artifact with its metadata.
//
// FileID doubles as the public slug and as the key the blob store derives
// its sharded directory path from. CurrentVersion always tracks the
// most-recently published version still present in the ledger.
type Blueprint struct {
	ID             int64          `json:"id"`
	IDAuthor       *int64         `json:"id_author,omitempty"`
	Slug           string         `json:"slug"`
	FileID         string         `json:"file_id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Type           BlueprintType  `json:"type"`
	Exposure       Exposure       `json:"exposure"`
	UEVersion      string         `json:"ue_version,omitempty"`
	CurrentVersion int            `json:"current_version"`
	Thumbnail      string         `json:"thumbnail,omitempty"`
	Tags           string         `json:"tags,omitempty"`
	Video          string         `json:"video,omitempty"`
	VideoProvider  string         `json:"video_provider,omitempty"`
	CommentsHidden bool           `json:"comments_hidden"`
	CommentsClosed bool           `json:"comments_closed"`
	CommentCount   int            `json:"comment_count"`
	Expiration     *time.Time     `json:"expiration,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}

// BlueprintVersion is one entry in a blueprint's version ledger.
//
// Version numbers are contiguous from 1 with no gaps; the next version is
// always max(version)+1 and at least one entry exists while the parent
// blueprint exists.
type BlueprintVersion struct {
	ID          int64      `json:"id"`
	BlueprintID int64      `json:"id_blueprint"`
	Version     int        `json:"version"`
	Reason      string     `json:"reason"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// User represents a registered account.
type User struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Slug            string     `json:"slug"`
	Email           string     `json:"email"`
	Grade           string     `json:"grade"`
	PasswordHash    string     `json:"-"`
	Avatar          string     `json:"avatar,omitempty"`
	RememberToken   string     `json:"-"`
	PasswordReset   string     `json:"-"`
	PasswordResetAt *time.Time `json:"-"`
	ConfirmedToken  string     `json:"-"`
	ConfirmedSentAt *time.Time `json:"-"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UserInfos holds the counters and profile fields attached to a user.
type UserInfos struct {
	UserID                int64  `json:"id_user"`
	Bio                   string `json:"bio,omitempty"`
	LinkWebsite           string `json:"link_website,omitempty"`
	CountPublicBlueprint  int    `json:"count_public_blueprint"`
	CountPrivateBlueprint int    `json:"count_private_blueprint"`
	CountPublicComment    int    `json:"count_public_comment"`
	CountPrivateComment   int    `json:"count_private_comment"`
}

// BlueprintFilter selects blueprints for listing/search operations.
//
// ConnectedUserID widens visibility to include that author's unlisted and
// private blueprints; otherwise only public ones are returned.
type BlueprintFilter struct {
	AuthorID        *int64
	Type            BlueprintType
	UEVersion       string
	Query           string
	ConnectedUserID *int64
	Page            int
	PerPage         int
}

// Page is one page of blueprint search results.
type Page struct {
	Rows  []*Blueprint `json:"rows"`
	Total int          `json:"total"`
}
