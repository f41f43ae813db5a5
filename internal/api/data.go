package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

const maxBodyBytes = 50 << 20 // documents carry data-URI payloads

// Handler holds the /data and /stats route handlers.
type Handler struct {
	svc *collection.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *collection.Service) *Handler {
	return &Handler{svc: svc}
}

// GetData handles GET /api/data?type=...[&id=...].
//
//	@Summary		List a collection, or fetch one record by id
//	@Tags			data
//	@Produce		json
//	@Param			type	query		string	true	"Entity type"	Enums(tasks, notes, documents, reminders, tags)
//	@Param			id		query		string	false	"Record id"
//	@Success		200		{object}	any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data [get]
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing type parameter"))
		return
	}
	kind, err := models.ParseKind(typ)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid type"))
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		// A miss is an ordinary empty result, not an error.
		rec, err := h.svc.Get(r.Context(), kind, id)
		if err != nil {
			slog.Error("get record failed", slog.String("type", typ), slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	items, err := h.svc.List(r.Context(), kind)
	if err != nil {
		slog.Error("list records failed", slog.String("type", typ), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// successResponse is the body of a successful mutation.
type successResponse struct {
	Success         bool   `json:"success"`
	CalendarEventID string `json:"calendarEventId,omitempty"`
	CalendarSynced  *bool  `json:"calendarSynced,omitempty"`
}

// PostData handles POST /api/data?type=...&action=....
//
//	@Summary		Create, update or delete one record, or sync a whole collection
//	@Tags			data
//	@Accept			json
//	@Produce		json
//	@Param			type	query		string	true	"Entity type"	Enums(tasks, notes, documents, reminders, tags)
//	@Param			action	query		string	true	"Mutation"		Enums(create, update, delete, sync)
//	@Param			body	body		any		true	"Record, or record list for sync"
//	@Success		200		{object}	successResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data [post]
func (h *Handler) PostData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	typ := r.URL.Query().Get("type")
	kind, err := models.ParseKind(typ)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing or invalid type parameter"))
		return
	}

	switch action := r.URL.Query().Get("action"); action {
	case "sync":
		h.sync(w, r, kind)
	case "create":
		h.create(w, r, kind)
	case "update":
		h.update(w, r, kind)
	case "delete":
		h.delete(w, r, kind)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("invalid action"))
	}
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	var recs []store.Record
	if err := json.NewDecoder(r.Body).Decode(&recs); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.Sync(r.Context(), kind, recs); err != nil {
		slog.Error("sync failed", slog.String("type", kind.String()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	res, err := h.svc.Create(r.Context(), kind, rec)
	if err != nil {
		slog.Error("create failed", slog.String("type", kind.String()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	resp := successResponse{Success: true}
	if kind == models.KindReminder && res.Calendar.State != collection.RemoteNone {
		synced := res.Calendar.State == collection.RemoteOK
		resp.CalendarSynced = &synced
		if eventID, _ := res.Record["calendarEventId"].(string); eventID != "" {
			resp.CalendarEventID = eventID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if _, err := h.svc.Update(r.Context(), kind, rec); err != nil {
		if errors.Is(err, apperr.ErrMissingID) {
			writeJSON(w, http.StatusBadRequest, errorBody("missing id"))
			return
		}
		slog.Error("update failed", slog.String("type", kind.String()), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if _, err := h.svc.Delete(r.Context(), kind, body.ID); err != nil {
		if errors.Is(err, apperr.ErrMissingID) {
			writeJSON(w, http.StatusBadRequest, errorBody("missing id"))
			return
		}
		slog.Error("delete failed", slog.String("type", kind.String()), slog.String("id", body.ID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// GetStats handles GET /api/stats.
//
//	@Summary		Dashboard counters
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	models.DashboardStats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
