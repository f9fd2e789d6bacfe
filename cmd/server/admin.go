package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"tinyhttp/routes"
	"tinyhttp/server"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// admin serves health, metrics, the live event stream and jokes reloads on
// a separate port. The core port never speaks anything but request lines.
type admin struct {
	metrics   *server.Metrics
	hub       *server.EventHub
	jokes     *routes.JokeBook
	jwtSecret []byte
	started   time.Time
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

type HealthSummary struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	InFlight      uint64  `json:"in_flight"`
	Subscribers   int     `json:"subscribers"`
	Jokes         int     `json:"jokes"`
}

func newAdmin(metrics *server.Metrics, hub *server.EventHub, jokes *routes.JokeBook, jwtSecret []byte, log zerolog.Logger) *admin {
	return &admin{
		metrics:   metrics,
		hub:       hub,
		jokes:     jokes,
		jwtSecret: jwtSecret,
		started:   time.Now(),
		log:       log.With().Str("component", "admin").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (a *admin) handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/__tinyhttp/health", a.handleHealth)
	mux.HandleFunc("/__tinyhttp/metrics", a.handleMetrics)
	mux.HandleFunc("/__tinyhttp/events", a.handleEvents)
	mux.HandleFunc("/__tinyhttp/reload", a.handleReload)
	return mux
}

// authenticate extracts the subject from an HS256 bearer token. With no
// secret configured the stream is open to anyone who can reach the port.
func (a *admin) authenticate(r *http.Request) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "anonymous", nil
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", errors.New("missing bearer token")
	}

	tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("unauthenticated")
	}

	return claims.Subject, nil
}

func (a *admin) handleHealth(w http.ResponseWriter, r *http.Request) {
	summary := HealthSummary{
		Status:        "ok",
		UptimeSeconds: time.Since(a.started).Seconds(),
		InFlight:      a.metrics.InFlight(),
		Subscribers:   a.hub.Subscribers(),
		Jokes:         len(a.jokes.Jokes()),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		http.Error(w, "failed to encode health summary", http.StatusInternalServerError)
	}
}

func (a *admin) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := a.metrics.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, "failed to encode metrics", http.StatusInternalServerError)
	}
}

// handleEvents streams every connection event as JSON over a websocket.
func (a *admin) handleEvents(w http.ResponseWriter, r *http.Request) {
	subject, err := a.authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	client := a.hub.Subscribe()
	defer a.hub.Unsubscribe(client)

	log := a.log.With().Str("subject", subject).Logger()
	log.Info().Msg("event stream subscriber connected")

	go func() {
		for ev := range client.Send {
			if err := conn.WriteJSON(ev); err != nil {
				log.Warn().Err(err).Msg("websocket write error")
				return
			}
		}
	}()

	// incoming messages are ignored, reading only notices the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
			) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

func (a *admin) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if a.jokes.Path() == "" {
		http.Error(w, "no jokes file configured", http.StatusConflict)
		return
	}

	if err := a.jokes.Reload(); err != nil {
		a.log.Warn().Err(err).Msg("jokes reload failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"jokes":  len(a.jokes.Jokes()),
	})
}
