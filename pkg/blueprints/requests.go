package blueprints

// Request/Response DTOs

// CreateBlueprintRequest contains parameters for creating a new blueprint.
// Expiration is a symbolic delta ("1h", "1d", "1w") or empty/"never" for no
// expiration.
type CreateBlueprintRequest struct {
	Title      string
	Content    string
	Exposure   Exposure
	Expiration string
	UEVersion  string
	IDAuthor   *int64
}

// CreateBlueprintResult is the success payload of CreateBlueprint.
type CreateBlueprintResult struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

// AddVersionRequest contains parameters for publishing a new version.
type AddVersionRequest struct {
	BlueprintID int64
	Content     string
	Reason      string
}

// UpdatePropertiesRequest contains the blueprint settings a caller may change.
type UpdatePropertiesRequest struct {
	Exposure       Exposure
	Expiration     string
	UEVersion      string
	CommentsHidden bool
	CommentsClosed bool
}

// UpdateInformationsRequest contains the descriptive fields a caller may
// change. VideoURL is normalized through FindVideoProvider before storage.
type UpdateInformationsRequest struct {
	Title       string
	Description string
	Tags        string
	VideoURL    string
}

// RegisterUserRequest contains parameters for creating a member account.
type RegisterUserRequest struct {
	Username string
	Email    string
	Password string
}

// PasswordResetResult is the outcome of BeginPasswordReset. Token is empty
// when no email should be sent (unknown address or throttled).
type PasswordResetResult struct {
	Token     string
	UserFound bool
	Username  string
}
