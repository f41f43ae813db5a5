package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/backup"
)

// DriveHandler exposes the backup bridge: OAuth code exchange and
// full-dataset snapshot upload.
type DriveHandler struct {
	svc *backup.Service
}

// NewDriveHandler creates a drive handler.
func NewDriveHandler(svc *backup.Service) *DriveHandler {
	return &DriveHandler{svc: svc}
}

type driveRequest struct {
	Code        string          `json:"code,omitempty"`
	AccessToken string          `json:"accessToken,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Post handles POST /api/drive.
//
//	@Summary		Exchange an OAuth code, or upload a dataset snapshot
//	@Tags			drive
//	@Accept			json
//	@Produce		json
//	@Param			body	body		driveRequest	true	"Either code, or accessToken with optional data"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/drive [post]
func (h *DriveHandler) Post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req driveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if req.Code != "" {
		tokens, err := h.svc.ExchangeCode(r.Context(), req.Code)
		if err != nil {
			slog.Warn("token exchange failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("token exchange failed"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
		return
	}

	if req.AccessToken != "" {
		fileID, skipped, err := h.svc.Save(r.Context(), req.AccessToken, req.Data)
		if err != nil {
			if errors.Is(err, apperr.ErrAmbiguousBackupTarget) {
				writeJSON(w, http.StatusConflict, errorBody("multiple backup files share the configured name"))
				return
			}
			slog.Warn("backup save failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("backup save failed"))
			return
		}
		resp := map[string]any{"success": true, "fileId": fileID}
		if skipped {
			resp["skipped"] = true
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	writeJSON(w, http.StatusBadRequest, errorBody("invalid request"))
}
