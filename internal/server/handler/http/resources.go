package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/timeledger/internal/middleware"
	"github.com/atinyakov/timeledger/internal/models"
)

const dateLayout = "2006-01-02"

// EntryService defines the entry operations required by the handlers.
type EntryService interface {
	List(ctx context.Context, userID string) ([]models.Entry, error)
	Create(ctx context.Context, userID string, in models.EntryInput) (*models.Entry, error)
	Update(ctx context.Context, userID string, id int64, in models.EntryInput) (*models.Entry, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// ExportService bundles all of a user's data.
type ExportService interface {
	Export(ctx context.Context, userID string) (*models.Export, error)
}

// EntryHandler serves /api/entries.
type EntryHandler struct {
	Entries EntryService
	Export  ExportService
	Log     *zap.Logger
}

// EntryRequest is the JSON body for creating or updating an entry.
// Times are RFC 3339.
type EntryRequest struct {
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	ActivityName string  `json:"activity_name"`
	Category     string  `json:"category"`
	Energy       *int    `json:"energy"`
	Intent       *string `json:"intent"`
}

func (req *EntryRequest) input() (models.EntryInput, error) {
	var in models.EntryInput

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return in, invalid("start_time must be an RFC 3339 timestamp.")
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return in, invalid("end_time must be an RFC 3339 timestamp.")
	}
	if end.Before(start) {
		return in, invalid("end_time must not be before start_time.")
	}
	name := strings.TrimSpace(req.ActivityName)
	if name == "" {
		return in, invalid("activity_name is required.")
	}
	if req.Energy != nil && (*req.Energy < 1 || *req.Energy > 5) {
		return in, invalid("energy must be between 1 and 5.")
	}

	in = models.EntryInput{
		StartTime:    start,
		EndTime:      end,
		ActivityName: name,
		Category:     strings.TrimSpace(req.Category),
		Energy:       req.Energy,
		Intent:       req.Intent,
	}
	return in, nil
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Entries.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	entry, err := h.Entries.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req EntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	entry, err := h.Entries.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Entries.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeOK(w)
}

// ExportJSON returns every entry, category and reflection of the caller.
func (h *EntryHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	out, err := h.Export.Export(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="timeledger-export.json"`)
	writeJSON(w, http.StatusOK, out)
}

// CategoryService defines the category operations required by the handlers.
type CategoryService interface {
	List(ctx context.Context, userID string) ([]models.Category, error)
	Create(ctx context.Context, userID, name string) (*models.Category, error)
	Update(ctx context.Context, userID string, id int64, name string) (*models.Category, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// CategoryHandler serves /api/categories.
type CategoryHandler struct {
	Categories CategoryService
	Log        *zap.Logger
}

// CategoryRequest is the JSON body for creating or renaming a category.
type CategoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) decode(w http.ResponseWriter, r *http.Request) (string, error) {
	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", invalid("name is required.")
	}
	return name, nil
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Categories.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	name, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	category, err := h.Categories.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), name)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	name, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	category, err := h.Categories.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), id, name)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category})
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Categories.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeOK(w)
}

// ReflectionService defines the reflection operations required by the handlers.
type ReflectionService interface {
	List(ctx context.Context, userID string) ([]models.Reflection, error)
	Create(ctx context.Context, userID string, in models.ReflectionInput) (*models.Reflection, error)
	Update(ctx context.Context, userID string, id int64, in models.ReflectionInput) (*models.Reflection, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// ReflectionHandler serves /api/reflections.
type ReflectionHandler struct {
	Reflections ReflectionService
	Log         *zap.Logger
}

// ReflectionRequest is the JSON body for a reflection. Date is YYYY-MM-DD.
type ReflectionRequest struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

func (h *ReflectionHandler) decode(w http.ResponseWriter, r *http.Request) (models.ReflectionInput, error) {
	var req ReflectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return models.ReflectionInput{}, err
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return models.ReflectionInput{}, invalid("date must be in YYYY-MM-DD form.")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return models.ReflectionInput{}, invalid("content is required.")
	}
	return models.ReflectionInput{Date: req.Date, Content: content}, nil
}

func (h *ReflectionHandler) List(w http.ResponseWriter, r *http.Request) {
	reflections, err := h.Reflections.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reflections": reflections})
}

func (h *ReflectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	reflection, err := h.Reflections.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reflection": reflection})
}

func (h *ReflectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	in, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	reflection, err := h.Reflections.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reflection": reflection})
}

func (h *ReflectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Reflections.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeOK(w)
}
