// Package memory provides an in-memory repository for tests and demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/blueprint-share/pkg/blueprints"
)

// state holds every table of the repository. WithTx clones it, runs the
// transaction body against the clone, and swaps it in only on success.
type state struct {
	nextBlueprintID int64
	nextVersionID   int64
	nextUserID      int64

	blueprints map[int64]*blueprints.Blueprint
	versions   map[int64]*blueprints.BlueprintVersion
	users      map[int64]*blueprints.User
	userInfos  map[int64]*blueprints.UserInfos
	apiKeys    map[int64]string // user_id -> key
}

func newState() *state {
	return &state{
		nextBlueprintID: 1,
		nextVersionID:   1,
		nextUserID:      1,
		blueprints:      make(map[int64]*blueprints.Blueprint),
		versions:        make(map[int64]*blueprints.BlueprintVersion),
		users:           make(map[int64]*blueprints.User),
		userInfos:       make(map[int64]*blueprints.UserInfos),
		apiKeys:         make(map[int64]string),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextBlueprintID = s.nextBlueprintID
	c.nextVersionID = s.nextVersionID
	c.nextUserID = s.nextUserID
	for id, bp := range s.blueprints {
		bpCopy := *bp
		c.blueprints[id] = &bpCopy
	}
	for id, v := range s.versions {
		vCopy := *v
		c.versions[id] = &vCopy
	}
	for id, u := range s.users {
		uCopy := *u
		c.users[id] = &uCopy
	}
	for id, infos := range s.userInfos {
		infosCopy := *infos
		c.userInfos[id] = &infosCopy
	}
	for id, key := range s.apiKeys {
		c.apiKeys[id] = key
	}
	return c
}

// Repository implements blueprints.Repository using in-memory maps
type Repository struct {
	mu sync.Mutex
	st *state
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{st: newState()}
}

func (r *Repository) lock()   { r.mu.Lock() }
func (r *Repository) unlock() { r.mu.Unlock() }

// WithTx clones the full state, runs fn against a repository view backed by
// the clone, and publishes the clone only when fn returns nil. The parent
// lock is held for the duration, so transactions are serialized.
func (r *Repository) WithTx(ctx context.Context, fn func(blueprints.Repository) error) error {
	r.lock()
	defer r.unlock()

	tx := &Repository{st: r.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	r.st = tx.st
	return nil
}

// Blueprint operations

func (r *Repository) CreateBlueprint(ctx context.Context, bp *blueprints.Blueprint) (int64, error) {
	r.lock()
	defer r.unlock()

	id := r.st.nextBlueprintID
	r.st.nextBlueprintID++

	bpCopy := *bp
	bpCopy.ID = id
	r.st.blueprints[id] = &bpCopy

	return id, nil
}

func (r *Repository) GetBlueprint(ctx context.Context, id int64) (*blueprints.Blueprint, error) {
	r.lock()
	defer r.unlock()

	bp, exists := r.st.blueprints[id]
	if !exists || bp.DeletedAt != nil {
		return nil, blueprints.ErrBlueprintNotFound
	}
	bpCopy := *bp
	return &bpCopy, nil
}

func (r *Repository) GetBlueprintBySlug(ctx context.Context, slug string) (*blueprints.Blueprint, error) {
	r.lock()
	defer r.unlock()

	for _, bp := range r.st.blueprints {
		if bp.Slug == slug && bp.DeletedAt == nil {
			bpCopy := *bp
			return &bpCopy, nil
		}
	}
	return nil, blueprints.ErrBlueprintNotFound
}

func (r *Repository) UpdateBlueprint(ctx context.Context, bp *blueprints.Blueprint) error {
	r.lock()
	defer r.unlock()

	if _, exists := r.st.blueprints[bp.ID]; !exists {
		return blueprints.ErrBlueprintNotFound
	}
	bpCopy := *bp
	r.st.blueprints[bp.ID] = &bpCopy
	return nil
}

func (r *Repository) DeleteBlueprint(ctx context.Context, id int64) error {
	r.lock()
	defer r.unlock()

	if _, exists := r.st.blueprints[id]; !exists {
		return blueprints.ErrBlueprintNotFound
	}
	delete(r.st.blueprints, id)
	return nil
}

func (r *Repository) IsFileIDAvailable(ctx context.Context, fileID string) (bool, error) {
	r.lock()
	defer r.unlock()

	// Soft-deleted rows still reserve their fileID.
	for _, bp := range r.st.blueprints {
		if strings.EqualFold(bp.FileID, fileID) {
			return false, nil
		}
	}
	return true, nil
}

func (r *Repository) ListLastBlueprints(ctx context.Context, limit int) ([]*blueprints.Blueprint, error) {
	r.lock()
	defer r.unlock()

	now := time.Now()
	var rows []*blueprints.Blueprint
	for _, bp := range r.st.blueprints {
		if !visible(bp, now, nil) {
			continue
		}
		bpCopy := *bp
		rows = append(rows, &bpCopy)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *Repository) SearchBlueprints(ctx context.Context, filter blueprints.BlueprintFilter) (*blueprints.Page, error) {
	r.lock()
	defer r.unlock()

	now := time.Now()
	var rows []*blueprints.Blueprint
	for _, bp := range r.st.blueprints {
		if !visible(bp, now, filter.ConnectedUserID) {
			continue
		}
		if filter.AuthorID != nil && (bp.IDAuthor == nil || *bp.IDAuthor != *filter.AuthorID) {
			continue
		}
		if filter.Type != "" && bp.Type != filter.Type {
			continue
		}
		if filter.UEVersion != "" && bp.UEVersion != filter.UEVersion {
			continue
		}
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			if !strings.Contains(strings.ToLower(bp.Title), q) &&
				!strings.Contains(strings.ToLower(bp.Description), q) {
				continue
			}
		}
		bpCopy := *bp
		rows = append(rows, &bpCopy)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := len(rows)
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * perPage
	if offset >= len(rows) {
		rows = nil
	} else {
		end := offset + perPage
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[offset:end]
	}

	return &blueprints.Page{Rows: rows, Total: total}, nil
}

// visible applies row-level visibility. Public rows are visible to everyone;
// unlisted and private rows only to their author. Expired rows are hidden.
func visible(bp *blueprints.Blueprint, now time.Time, connectedUserID *int64) bool {
	if bp.DeletedAt != nil {
		return false
	}
	if bp.Expiration != nil && bp.Expiration.Before(now) {
		return false
	}
	if bp.Exposure == blueprints.ExposurePublic {
		return true
	}
	return connectedUserID != nil && bp.IDAuthor != nil && *bp.IDAuthor == *connectedUserID
}

func (r *Repository) ChangeBlueprintsAuthor(ctx context.Context, fromID, toID int64) error {
	r.lock()
	defer r.unlock()

	for _, bp := range r.st.blueprints {
		if bp.IDAuthor != nil && *bp.IDAuthor == fromID {
			to := toID
			bp.IDAuthor = &to
		}
	}
	return nil
}

func (r *Repository) SoftDeleteBlueprintsFromAuthor(ctx context.Context, authorID int64) error {
	r.lock()
	defer r.unlock()

	now := time.Now()
	for _, bp := range r.st.blueprints {
		if bp.IDAuthor != nil && *bp.IDAuthor == authorID && bp.DeletedAt == nil {
			t := now
			bp.DeletedAt = &t
		}
	}
	return nil
}

// Version ledger operations

func (r *Repository) CreateVersion(ctx context.Context, v *blueprints.BlueprintVersion) (int64, error) {
	r.lock()
	defer r.unlock()

	id := r.st.nextVersionID
	r.st.nextVersionID++

	vCopy := *v
	vCopy.ID = id
	r.st.versions[id] = &vCopy

	return id, nil
}

func (r *Repository) ListVersions(ctx context.Context, blueprintID int64) ([]*blueprints.BlueprintVersion, error) {
	r.lock()
	defer r.unlock()

	var rows []*blueprints.BlueprintVersion
	for _, v := range r.st.versions {
		if v.BlueprintID == blueprintID {
			vCopy := *v
			rows = append(rows, &vCopy)
		}
	}
	// Most recent version first.
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Version > rows[j].Version
	})
	return rows, nil
}

func (r *Repository) NextVersion(ctx context.Context, blueprintID int64) (int, error) {
	r.lock()
	defer r.unlock()

	max := 0
	for _, v := range r.st.versions {
		if v.BlueprintID == blueprintID && v.Version > max {
			max = v.Version
		}
	}
	return max + 1, nil
}

func (r *Repository) DeleteVersion(ctx context.Context, blueprintID int64, version int) error {
	r.lock()
	defer r.unlock()

	for id, v := range r.st.versions {
		if v.BlueprintID == blueprintID && v.Version == version {
			delete(r.st.versions, id)
			return nil
		}
	}
	return blueprints.ErrVersionNotFound
}

func (r *Repository) DeleteVersions(ctx context.Context, blueprintID int64) error {
	r.lock()
	defer r.unlock()

	for id, v := range r.st.versions {
		if v.BlueprintID == blueprintID {
			delete(r.st.versions, id)
		}
	}
	return nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, u *blueprints.User) (int64, error) {
	r.lock()
	defer r.unlock()

	id := r.st.nextUserID
	r.st.nextUserID++

	uCopy := *u
	uCopy.ID = id
	r.st.users[id] = &uCopy

	return id, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*blueprints.User, error) {
	r.lock()
	defer r.unlock()

	u, exists := r.st.users[id]
	if !exists {
		return nil, blueprints.ErrUserNotFound
	}
	uCopy := *u
	return &uCopy, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*blueprints.User, error) {
	r.lock()
	defer r.unlock()

	for _, u := range r.st.users {
		if strings.EqualFold(u.Username, username) {
			uCopy := *u
			return &uCopy, nil
		}
	}
	return nil, blueprints.ErrUserNotFound
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*blueprints.User, error) {
	r.lock()
	defer r.unlock()

	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) {
			uCopy := *u
			return &uCopy, nil
		}
	}
	return nil, blueprints.ErrUserNotFound
}

func (r *Repository) UpdateUser(ctx context.Context, u *blueprints.User) error {
	r.lock()
	defer r.unlock()

	if _, exists := r.st.users[u.ID]; !exists {
		return blueprints.ErrUserNotFound
	}
	uCopy := *u
	r.st.users[u.ID] = &uCopy
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	r.lock()
	defer r.unlock()

	if _, exists := r.st.users[id]; !exists {
		return blueprints.ErrUserNotFound
	}
	delete(r.st.users, id)
	return nil
}

func (r *Repository) IsUsernameAvailable(ctx context.Context, username, slug string) (bool, error) {
	r.lock()
	defer r.unlock()

	for _, u := range r.st.users {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Slug, slug) {
			return false, nil
		}
	}
	return true, nil
}

func (r *Repository) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	r.lock()
	defer r.unlock()

	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) {
			return false, nil
		}
	}
	return true, nil
}

func (r *Repository) FindUserIDByResetToken(ctx context.Context, email, token string) (int64, error) {
	r.lock()
	defer r.unlock()

	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) && u.PasswordReset != "" && u.PasswordReset == token {
			return u.ID, nil
		}
	}
	return 0, blueprints.ErrUserNotFound
}

func (r *Repository) FindUserIDByConfirmedToken(ctx context.Context, token string) (int64, error) {
	r.lock()
	defer r.unlock()

	for _, u := range r.st.users {
		if u.ConfirmedToken != "" && u.ConfirmedToken == token {
			return u.ID, nil
		}
	}
	return 0, blueprints.ErrUserNotFound
}

// User infos operations

func (r *Repository) CreateUserInfos(ctx context.Context, infos *blueprints.UserInfos) error {
	r.lock()
	defer r.unlock()

	infosCopy := *infos
	r.st.userInfos[infos.UserID] = &infosCopy
	return nil
}

func (r *Repository) GetUserInfos(ctx context.Context, userID int64) (*blueprints.UserInfos, error) {
	r.lock()
	defer r.unlock()

	infos, exists := r.st.userInfos[userID]
	if !exists {
		return nil, blueprints.ErrUserNotFound
	}
	infosCopy := *infos
	return &infosCopy, nil
}

func (r *Repository) UpdateUserInfos(ctx context.Context, infos *blueprints.UserInfos) error {
	r.lock()
	defer r.unlock()

	if _, exists := r.st.userInfos[infos.UserID]; !exists {
		return blueprints.ErrUserNotFound
	}
	infosCopy := *infos
	r.st.userInfos[infos.UserID] = &infosCopy
	return nil
}

func (r *Repository) DeleteUserInfos(ctx context.Context, userID int64) error {
	r.lock()
	defer r.unlock()

	delete(r.st.userInfos, userID)
	return nil
}

// API key operations

func (r *Repository) SetAPIKey(ctx context.Context, userID int64, key string) error {
	r.lock()
	defer r.unlock()

	if _, exists := r.st.users[userID]; !exists {
		return blueprints.ErrUserNotFound
	}
	r.st.apiKeys[userID] = key
	return nil
}

func (r *Repository) GetAPIKey(ctx context.Context, userID int64) (string, error) {
	r.lock()
	defer r.unlock()

	key, exists := r.st.apiKeys[userID]
	if !exists {
		return "", blueprints.ErrUserNotFound
	}
	return key, nil
}

func (r *Repository) FindUserIDByAPIKey(ctx context.Context, key string) (int64, error) {
	r.lock()
	defer r.unlock()

	for userID, k := range r.st.apiKeys {
		if k == key {
			return userID, nil
		}
	}
	return 0, blueprints.ErrUserNotFound
}

func (r *Repository) IsAPIKeyAvailable(ctx context.Context, key string) (bool, error) {
	r.lock()
	defer r.unlock()

	for _, k := range r.st.apiKeys {
		if k == key {
			return false, nil
		}
	}
	return true, nil
}

func (r *Repository) DeleteAPIKey(ctx context.Context, userID int64) error {
	r.lock()
	defer r.unlock()

	delete(r.st.apiKeys, userID)
	return nil
}
