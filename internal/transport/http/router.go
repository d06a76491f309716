package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cwrk-planet/signaling-relay/internal/registry"
	"github.com/cwrk-planet/signaling-relay/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// StatsSource is what /stats reads from.
type StatsSource interface {
	Snapshot() []registry.RoomStat
}

// browsers connect from the clinic app's origin; preflight gets 204, no body
var corsOptions = cors.Options{
	AllowedOrigins:     []string{"*"},
	AllowedMethods:     []string{"GET", "OPTIONS"},
	AllowedHeaders:     []string{"*"},
	AllowCredentials:   false,
	MaxAge:             300,
	OptionsPassthrough: false,
}

func NewRouter(wsServer *ws.Server, stats StatsSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(RequestLogger)

	r.Use(cors.Handler(corsOptions))

	r.Get("/ws", wsServer.HandleWS)
	r.Options("/ws", preflight)
	r.Get("/stats", StatsHandler(stats))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// preflight answers bare OPTIONS requests (no CORS request headers) with the
// same policy the cors middleware applies.
func preflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", strings.Join(corsOptions.AllowedOrigins, ", "))
	h.Set("Access-Control-Allow-Methods", strings.Join(corsOptions.AllowedMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(corsOptions.AllowedHeaders, ", "))
	h.Set("Access-Control-Max-Age", strconv.Itoa(corsOptions.MaxAge))
	w.WriteHeader(http.StatusNoContent)
}
