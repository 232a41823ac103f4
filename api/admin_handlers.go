package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mekoros/sourcesheet-ocr-service/internal/db"
	"github.com/mekoros/sourcesheet-ocr-service/internal/storage"
)

// GetSheets returns recently analyzed sheets.
func (h *Handler) GetSheets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	sheets, err := db.GetSheets(ctx, 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get sheets: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"sheets":  sheets,
		"count":   len(sheets),
	})
}

// GetSheet returns a single sheet with its stored sources.
func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	sheetID := mux.Vars(r)["id"]
	sheet, sources, err := db.GetSheetByID(ctx, sheetID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("sheet not found: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"sheet":   sheet,
		"sources": sources,
	})
}

// DeleteSheet removes a sheet, its sources and its archived image.
func (h *Handler) DeleteSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	sheetID := mux.Vars(r)["id"]

	if storage.Client != nil {
		sheet, _, err := db.GetSheetByID(ctx, sheetID)
		if err == nil && sheet.ImagePath != "" {
			// Delete image (ignore errors)
			_ = storage.DeleteImage(ctx, sheet.ImagePath)
		}
	}

	if err := db.DeleteSheet(ctx, sheetID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete sheet")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "sheet deleted",
	})
}

// GetSheetImage redirects to a presigned URL for the archived sheet image.
func (h *Handler) GetSheetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if db.Pool == nil || storage.Client == nil {
		w.Header().Set("Content-Type", "application/json")
		h.sendError(w, http.StatusServiceUnavailable, "storage not available")
		return
	}

	sheetID := mux.Vars(r)["id"]
	sheet, _, err := db.GetSheetByID(ctx, sheetID)
	if err != nil || sheet.ImagePath == "" {
		w.Header().Set("Content-Type", "application/json")
		h.sendError(w, http.StatusNotFound, "sheet image not found")
		return
	}

	url, err := storage.GetPresignedURL(ctx, sheet.ImagePath)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		h.sendError(w, http.StatusInternalServerError, "failed to generate image URL")
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
