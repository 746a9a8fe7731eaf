package gameserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/frontiermmo/server/internal/game/content"
)

// Routes registers the HTTP surface: health, room occupancy, the content
// catalog, and the WebSocket endpoint, all on one mux/port.
func (h *Hub) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/rooms", h.handleRooms)
	mux.HandleFunc("/catalog", h.handleCatalog)
	mux.HandleFunc("/ws", h.ServeWS)
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, map[string]string{"status": "OK"})
}

func (h *Hub) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	h.writeJSON(w, h.sessions.RoomSummaries())
}

func (h *Hub) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	h.writeJSON(w, struct {
		Weapons   []content.Weapon   `json:"weapons"`
		Buildings []content.Building `json:"buildings"`
	}{
		Weapons:   h.catalog.Weapons(),
		Buildings: h.catalog.Buildings(),
	})
}

func (h *Hub) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding http response", zap.Error(err))
	}
}
