package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/blueprint-share/pkg/blueprints"
)

// BlueprintHandler handles HTTP requests for blueprints
type BlueprintHandler struct {
	service blueprints.Service
	auth    *Auth
}

// NewBlueprintHandler creates a new blueprint handler
func NewBlueprintHandler(service blueprints.Service, auth *Auth) *BlueprintHandler {
	return &BlueprintHandler{service: service, auth: auth}
}

// Routes returns the routes for blueprints
func (h *BlueprintHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Verifier())

	r.Post("/", h.CreateBlueprint)
	r.Get("/last", h.ListLastBlueprints)
	r.Get("/search", h.SearchBlueprints)
	r.Get("/{slug}", h.GetBlueprint)
	r.Get("/{slug}/content", h.GetContent)
	r.Get("/{slug}/versions", h.ListVersions)

	// Owner-only routes
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Authenticator)

		r.Post("/{slug}/versions", h.AddVersion)
		r.Delete("/{slug}/versions/{version}", h.DeleteVersion)
		r.Delete("/{slug}", h.DeleteBlueprint)
		r.Put("/{slug}/properties", h.UpdateProperties)
		r.Put("/{slug}/informations", h.UpdateInformations)
		r.Put("/{slug}/thumbnail", h.UpdateThumbnail)
		r.Post("/{slug}/claim", h.ClaimBlueprint)
	})

	return r
}

// CreateBlueprintRequest is the request body for creating a blueprint
type CreateBlueprintRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Exposure   string `json:"exposure"`
	Expiration string `json:"expiration"`
	UEVersion  string `json:"ue_version"`
}

// CreateBlueprint creates a new blueprint from pasted content
func (h *BlueprintHandler) CreateBlueprint(w http.ResponseWriter, r *http.Request) {
	var req CreateBlueprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	createReq := blueprints.CreateBlueprintRequest{
		Title:      req.Title,
		Content:    req.Content,
		Exposure:   blueprints.Exposure(req.Exposure),
		Expiration: req.Expiration,
		UEVersion:  req.UEVersion,
	}

	// Anonymous pastes are allowed; the author is attached only when the
	// request carries a valid session.
	if userID, ok := h.sessionUserID(r); ok {
		createReq.IDAuthor = &userID
	}

	result, err := h.service.CreateBlueprint(r.Context(), createReq)
	if err != nil {
		slog.Error("Failed to create blueprint", "error", err)
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// GetBlueprint returns blueprint metadata by slug
func (h *BlueprintHandler) GetBlueprint(w http.ResponseWriter, r *http.Request) {
	bp, err := h.loadVisible(w, r)
	if err != nil {
		return
	}

	render.JSON(w, r, bp)
}

// ContentResponse is the response body for blueprint content
type ContentResponse struct {
	Version int    `json:"version"`
	Content string `json:"content"`
}

// GetContent returns the stored content for one version, defaulting to the
// current version
func (h *BlueprintHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	bp, err := h.loadVisible(w, r)
	if err != nil {
		return
	}

	version := 0
	if v := r.URL.Query().Get("version"); v != "" {
		version, err = strconv.Atoi(v)
		if err != nil || version < 1 {
			http.Error(w, "invalid version", http.StatusBadRequest)
			return
		}
	}

	content, err := h.service.GetBlueprintContent(r.Context(), bp.ID, version)
	if err != nil {
		renderError(w, r, err)
		return
	}

	resolved := version
	if resolved == 0 {
		resolved = bp.CurrentVersion
	}
	render.JSON(w, r, ContentResponse{Version: resolved, Content: content})
}

// ListVersions returns the version ledger, most recent first
func (h *BlueprintHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	bp, err := h.loadVisible(w, r)
	if err != nil {
		return
	}

	versions, err := h.service.ListVersions(r.Context(), bp.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, versions)
}

// ListLastBlueprints returns the most recent public blueprints
func (h *BlueprintHandler) ListLastBlueprints(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.service.ListLastBlueprints(r.Context(), limit)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, rows)
}

// SearchBlueprints searches visible blueprints with filters and pagination
func (h *BlueprintHandler) SearchBlueprints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := blueprints.BlueprintFilter{
		Type:      blueprints.BlueprintType(q.Get("type")),
		UEVersion: q.Get("ue_version"),
		Query:     q.Get("q"),
	}
	if v := q.Get("author"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid author", http.StatusBadRequest)
			return
		}
		filter.AuthorID = &id
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		filter.Page = page
	}
	if userID, ok := h.sessionUserID(r); ok {
		filter.ConnectedUserID = &userID
	}

	page, err := h.service.SearchBlueprints(r.Context(), filter)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, page)
}

// AddVersionRequest is the request body for publishing a new version
type AddVersionRequest struct {
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// AddVersion publishes a new version of an owned blueprint
func (h *BlueprintHandler) AddVersion(w http.ResponseWriter, r *http.Request) {
	bp, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req AddVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.service.AddVersion(r.Context(), blueprints.AddVersionRequest{
		BlueprintID: bp.ID,
		Content:     req.Content,
		Reason:      req.Reason,
	})
	if err != nil {
		slog.Error("Failed to add version", "blueprint_id", bp.ID, "error", err)
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"status": "created"})
}

// DeleteVersion removes one version from an owned blueprint
func (h *BlueprintHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	bp, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		http.Error(w, "invalid version", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteVersion(r.Context(), bp.ID, version); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "deleted"})
}

// DeleteBlueprint removes an owned blueprint, its ledger and all blobs
func (h *BlueprintHandler) DeleteBlueprint(w http.ResponseWriter, r *http.Request) {
	bp, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBlueprint(r.Context(), bp.ID); err != nil {
		slog.Error("Failed to delete blueprint", "blueprint_id", bp.ID, "error", err)
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "deleted"})
}

// UpdatePropertiesRequest is the request body for changing blueprint settings
type UpdatePropertiesRequest struct {
	Exposure       string `json:"exposure"`
	Expiration     string `json:"expiration"`
	UEVersion      string `json:"ue_version"`
	CommentsHidden bool   `json:"comments_hidden"`
	CommentsClosed bool   `json:"comments_closed"`
}

// UpdateProperties changes the settings of an owned blueprint
func (h *BlueprintHandler) UpdateProperties(w http.ResponseWriter, r *http.Request) {
	bp, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req UpdatePropertiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.service.UpdateProperties(r.Context(), bp.ID, blueprints.UpdatePropertiesRequest{
		Exposure:       blueprints.Exposure(req.Exposure),
		Expiration:     req.Expiration,
		UEVersion:      req.UEVersion,
		CommentsHidden: req.CommentsHidden,
		CommentsClosed: req.CommentsClosed,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "updated"})
}

// UpdateInformationsRequest is the request body for changing descriptive fields
type UpdateInformationsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	VideoURL    string `json:"video_url"`
}

// UpdateInformations changes the descriptive fields of an owned blueprint
func (h *BlueprintHandler) UpdateInformations(w http.ResponseWriter, r *http.Request) {
	bp, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req UpdateInformationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.service.UpdateInformations(r.Context(), bp.ID, blueprints.UpdateInformationsRequest{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		VideoURL:    req.VideoURL,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "updated"})
}

// UpdateThumbnailRequest is the request body for attaching a thumbnail
type UpdateThumbnailRequest struct {
	Extension string `json:"extension"`
}

var thumbnailExtensions = map[string]bool{"png": true, "jpg": true, "jpeg": true, "webp": true}

// UpdateThumbnail assigns a fresh server-generated thumbnail filename.
// Image bytes are uploaded separately against the returned filename.
func (h *BlueprintHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	bp, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req UpdateThumbnailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(req.Extension, "."))
	if !thumbnailExtensions[ext] {
		http.Error(w, "unsupported thumbnail extension", http.StatusBadRequest)
		return
	}

	filename := uuid.NewString() + "." + ext
	if err := h.service.UpdateThumbnail(r.Context(), bp.ID, filename); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"thumbnail": filename})
}

// ClaimBlueprint attaches an anonymous blueprint to the connected user
func (h *BlueprintHandler) ClaimBlueprint(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	bp, err := h.service.GetBlueprintBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	if bp.IDAuthor != nil {
		http.Error(w, "blueprint already has an author", http.StatusConflict)
		return
	}

	if err := h.service.ClaimBlueprint(r.Context(), bp.ID, userID); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"status": "claimed"})
}

// loadVisible resolves the slug and enforces exposure rules for read access.
// Unlisted blueprints stay reachable by direct link; private ones need an
// owner session.
func (h *BlueprintHandler) loadVisible(w http.ResponseWriter, r *http.Request) (*blueprints.Blueprint, error) {
	bp, err := h.service.GetBlueprintBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		renderError(w, r, err)
		return nil, err
	}

	if bp.Exposure == blueprints.ExposurePrivate {
		userID, ok := h.sessionUserID(r)
		if !ok || bp.IDAuthor == nil || *bp.IDAuthor != userID {
			renderError(w, r, blueprints.ErrBlueprintNotFound)
			return nil, blueprints.ErrBlueprintNotFound
		}
	}

	return bp, nil
}

// loadOwned resolves the slug and requires the connected user to be the author.
func (h *BlueprintHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*blueprints.Blueprint, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}

	bp, err := h.service.GetBlueprintBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		renderError(w, r, err)
		return nil, false
	}

	isAuthor, err := h.service.IsAuthor(r.Context(), bp.ID, userID)
	if err != nil {
		renderError(w, r, err)
		return nil, false
	}
	if !isAuthor {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return nil, false
	}

	return bp, true
}

// sessionUserID reads an optional session from the verifier output without
// requiring one.
func (h *BlueprintHandler) sessionUserID(r *http.Request) (int64, bool) {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return userID, true
	}

	claims, ok := jwtClaims(r)
	if !ok {
		return 0, false
	}
	return claimUserID(claims)
}
