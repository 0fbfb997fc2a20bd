package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"tutorbot/internal/models"
	"tutorbot/internal/reports"
)

// jsonResponse is the envelope of the admin API.
type jsonResponse struct {
	Status  string      `json:"status"` // "success" or "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type healthResponse struct {
	Status    string       `json:"status"`
	Message   string       `json:"message"`
	Timestamp string       `json:"timestamp"`
	Stats     models.Stats `json:"stats"`
}

type apiHandlers struct {
	deps ApiDependencies
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, jsonResponse{Status: "success", Message: message, Data: data})
}

// Health reports liveness together with the store counters.
func (h *apiHandlers) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Moderation.Stats(r.Context())
	if err != nil {
		log.Printf("Health: stats failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Database connection failed"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "online",
		Message:   "Tutorial Registration Bot is running!",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Stats:     stats,
	})
}

// Webhook accepts one Telegram update and handles it in the background.
func (h *apiHandlers) Webhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("Webhook: bad update body: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid update"})
		return
	}
	// Handling outlives the request.
	h.deps.Dispatcher.Dispatch(context.WithoutCancel(r.Context()), update)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *apiHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Moderation.Stats(r.Context())
	if err != nil {
		log.Printf("Stats: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to calculate statistics")
		return
	}
	writeJSONSuccess(w, "Statistics retrieved successfully", stats)
}

// Export streams the Excel report to an admin.
func (h *apiHandlers) Export(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserContextKey).(telegramUserData)
	snap, err := h.deps.Moderation.Export(r.Context(), user.ID)
	if err != nil {
		log.Printf("Export: snapshot for admin %d: %v", user.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}
	data, err := reports.BuildWorkbook(snap.Users, snap.Submissions, snap.Withdrawals)
	if err != nil {
		log.Printf("Export: workbook: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reports.ExportFileName(time.Now())))
	if _, err := w.Write(data); err != nil {
		log.Printf("Export: write: %v", err)
	}
}
