package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"insightboard/internal/analysis"
	"insightboard/internal/auth"
	"insightboard/internal/ratelimit"
	"insightboard/internal/service"
	"insightboard/internal/store"
)

const maxBodyBytes = 1 << 20

// Backend is the slice of service.Service the HTTP API calls.
type Backend interface {
	RegisterUser(ctx context.Context, email, password, name string) (store.User, error)
	Authenticate(ctx context.Context, email, password string) (store.User, error)
	SubmitTranscript(ctx context.Context, userID, title, content string) (service.Submission, error)
	Analyze(ctx context.Context, transcript string) (analysis.AnalysisResult, error)
	SuggestActionItems(ctx context.Context, contextText string) ([]analysis.ActionItemDraft, error)
	ListActionItems(ctx context.Context, userID string, opts service.ListOptions) ([]store.ActionItem, error)
	CreateActionItem(ctx context.Context, userID string, in service.ManualItem) (store.ActionItem, error)
	ToggleTaskStatus(ctx context.Context, userID, taskID string) (store.ActionItem, error)
	UpdateTaskPriority(ctx context.Context, userID, taskID, priority string) (store.ActionItem, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	Dashboard(ctx context.Context, userID string) (service.Dashboard, error)
}

type Handler struct {
	Backend Backend
	Auth    *auth.Service
	Logger  *zap.Logger
}

func NewHandler(backend Backend, authSvc *auth.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Backend: backend, Auth: authSvc, Logger: logger}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/signup", h.handleSignup)
	mux.HandleFunc("POST /v1/auth/signin", h.handleSignin)
	mux.HandleFunc("POST /v1/transcripts", h.requireUser(h.handleSubmitTranscript))
	mux.HandleFunc("GET /v1/action-items", h.requireUser(h.handleListActionItems))
	mux.HandleFunc("POST /v1/action-items", h.requireUser(h.handleCreateActionItem))
	mux.HandleFunc("POST /v1/action-items/{id}/toggle", h.requireUser(h.handleToggle))
	mux.HandleFunc("PATCH /v1/action-items/{id}/priority", h.requireUser(h.handlePriority))
	mux.HandleFunc("DELETE /v1/action-items/{id}", h.requireUser(h.handleDelete))
	mux.HandleFunc("GET /v1/dashboard", h.requireUser(h.handleDashboard))
	mux.HandleFunc("POST /v1/suggestions", h.requireUser(h.handleSuggestions))
	mux.HandleFunc("POST /v1/analyze", h.requireUser(h.handleAnalyze))
}

func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.Auth == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		principal, err := h.Auth.AuthenticateRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.Backend.RegisterUser(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusCreated, user)
}

func (h *Handler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := h.Backend.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, user)
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, user store.User) {
	if h.Auth == nil {
		writeError(w, http.StatusInternalServerError, "auth service not configured")
		return
	}
	token, expires, err := h.Auth.IssueToken(user.ID, user.Email)
	if err != nil {
		h.Logger.Error("issue token failed", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, map[string]any{
		"token":     token,
		"expiresAt": expires,
		"user":      toUserJSON(user),
	})
}

func (h *Handler) handleSubmitTranscript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sub, err := h.Backend.SubmitTranscript(r.Context(), userID(r), req.Title, req.Content)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if sub.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{
		"transcript":  toTranscriptJSON(sub.Transcript),
		"actionItems": toActionItemsJSON(sub.ActionItems),
		"queued":      sub.Queued,
	})
}

func (h *Handler) handleListActionItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Backend.ListActionItems(r.Context(), userID(r), service.ListOptions{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Tag:      q.Get("tag"),
		SortBy:   q.Get("sort"),
		Order:    q.Get("order"),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actionItems": toActionItemsJSON(items)})
}

func (h *Handler) handleCreateActionItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		Assignee    string `json:"assignee"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := h.Backend.CreateActionItem(r.Context(), userID(r), service.ManualItem{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActionItemJSON(item))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	item, err := h.Backend.ToggleTaskStatus(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActionItemJSON(item))
}

func (h *Handler) handlePriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority string `json:"priority"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := h.Backend.UpdateTaskPriority(r.Context(), userID(r), r.PathValue("id"), req.Priority)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActionItemJSON(item))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Backend.DeleteTask(r.Context(), userID(r), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Backend.Dashboard(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	transcripts := make([]transcriptSummaryJSON, 0, len(dash.Transcripts))
	for _, t := range dash.Transcripts {
		transcripts = append(transcripts, transcriptSummaryJSON{
			ID:              t.ID,
			Title:           t.Title,
			Status:          t.Status,
			Sentiment:       t.Sentiment,
			CreatedAt:       t.CreatedAt,
			ActionItemCount: t.ActionItemCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actionItems": toActionItemsJSON(dash.ActionItems),
		"transcripts": transcripts,
		"stats":       dash.Stats,
	})
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Context string `json:"context"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	items, err := h.Backend.SuggestActionItems(r.Context(), req.Context)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actionItems": items})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.Backend.Analyze(r.Context(), req.Transcript)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var inputErr *service.InputError
	var rlErr *ratelimit.RateLimitError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, service.ErrUserExists):
		writeError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrRateLimited):
		if errors.As(err, &rlErr) {
			w.Header().Set("Retry-After", strconv.Itoa(rlErr.RetryAfterSeconds))
		}
		writeError(w, http.StatusTooManyRequests, "Too many submissions, please try again later")
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userID(r *http.Request) string {
	principal, _ := auth.PrincipalFromContext(r.Context())
	return principal.UserID
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type userJSON struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserJSON(u store.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}
