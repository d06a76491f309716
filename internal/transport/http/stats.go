package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/signaling-relay/internal/registry"
)

type StatsResponse struct {
	Rooms       int                 `json:"rooms"`
	Connections int                 `json:"connections"`
	PerRoom     []registry.RoomStat `json:"perRoom"`
}

// GET /stats
func StatsHandler(src StatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := src.Snapshot()
		resp := StatsResponse{Rooms: len(rooms), PerRoom: rooms}
		for _, rs := range rooms {
			resp.Connections += rs.Members
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}
