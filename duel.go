// Miladuel word duel
//
// Two players share a five-character room code. The host creates the
// room and starts the match once an opponent joins; both then race
// through the same word sequence, guessing each word from its
// description. The first correct guess takes the points and moves both
// players to the next word; an unanswered word times out and moves on
// without points.
//
// Routes:
// - POST /api/duel/rooms            create a room (JSON {name})
// - POST /api/duel/rooms/:code/join take the second seat (JSON {name})
// - GET  /duel                      lobby page (create or join)
// - GET  /duel/:code                per-room HTML client
// - GET  /duel/:code/ws             per-room WebSocket
// - GET  /duel/:code/qr             PNG QR code for sharing the room
//
// Players are identified by cookie; the same cookie reconnecting gets
// its seat back. All match state lives in the room store, so any server
// instance can serve any connection.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"miladuel/duel"
	"miladuel/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "miladuel_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// joinStatus maps the join-conflict taxonomy onto HTTP statuses.
func joinStatus(err error) int {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, room.ErrStarted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type roomRequest struct {
	Name string `json:"name"`
}

func (rr *roomRequest) name() string {
	name := strings.TrimSpace(rr.Name)
	if name == "" {
		return "שחקן"
	}
	if len([]rune(name)) > 24 {
		name = string([]rune(name)[:24])
	}
	return name
}

type roomResponse struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

func createRoomHandler(cfg *Config, svc *duel.Service, log *logrus.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		var req roomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		playerID := getOrSetPlayerID(w, r)
		created, err := svc.CreateRoom(r.Context(), playerID, req.name())
		if err != nil {
			log.WithError(err).Error("DUEL: room creation failed")
			writeJSONError(w, http.StatusInternalServerError, "could not create room")
			return
		}

		writeJSON(w, http.StatusCreated, roomResponse{
			Code: created.Code,
			URL:  cfg.prefix + "/duel/" + created.Code,
		})
	}
}

func joinRoomHandler(cfg *Config, svc *duel.Service, log *logrus.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		securityHeaders(cfg, w)

		code := strings.ToUpper(ps.ByName("code"))

		var req roomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		playerID := getOrSetPlayerID(w, r)
		joined, err := svc.JoinRoom(r.Context(), code, playerID, req.name())
		if err != nil {
			writeJSONError(w, joinStatus(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, roomResponse{
			Code: joined.Code,
			URL:  cfg.prefix + "/duel/" + joined.Code,
		})
	}
}

func serveDuelWS(cfg *Config, svc *duel.Service, log *logrus.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("code"))
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Debug("DUEL: websocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		outgoing := make(chan duel.ServerMessage, 32)
		incoming := make(chan duel.ClientMessage, 8)

		go writePump(conn, outgoing)
		go func() {
			defer close(incoming)
			for {
				var msg duel.ClientMessage
				if err := conn.ReadJSON(&msg); err != nil {
					return
				}
				select {
				case incoming <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()

		ctrl := duel.NewController(svc, code, playerID, func(m duel.ServerMessage) {
			select {
			case outgoing <- m:
			default:
				// Lagging socket: drop; the next state push supersedes.
			}
		})

		if err := ctrl.Run(ctx, incoming); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).WithField("room", code).Debug("DUEL: controller stopped")
		}

		// Run has returned, so nothing sends on outgoing anymore.
		close(outgoing)
	}
}

func writePump(conn *websocket.Conn, outgoing <-chan duel.ServerMessage) {
	defer conn.Close()

	for msg := range outgoing {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// qrHandler renders a PNG QR code for the room URL, respecting TLS and
// X-Forwarded-Proto.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func serveDuelLobby(cfg *Config) httprouter.Handle {
	page := duelLobbyPage(cfg.prefix)

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write([]byte(page))
	}
}

func serveDuelRoomPage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("code"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write([]byte(duelRoomPage(cfg.prefix, code)))
	}
}

// registerDuelGame sets up routes so that:
//   - /duel                    → lobby (create or join a room)
//   - /api/duel/rooms          → JSON room creation
//   - /api/duel/rooms/:code/join → JSON join
//   - /duel/:code              → HTML client
//   - /duel/:code/ws           → WebSocket for that room
//   - /duel/:code/qr           → PNG QR code for that room URL
func registerDuelGame(cfg *Config, svc *duel.Service, log *logrus.Logger, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/duel", serveDuelLobby(cfg))

	mux.POST(cfg.prefix+"/api/duel/rooms", createRoomHandler(cfg, svc, log))

	mux.POST(cfg.prefix+"/api/duel/rooms/:code/join", joinRoomHandler(cfg, svc, log))

	mux.GET(cfg.prefix+"/duel/:code", serveDuelRoomPage(cfg))

	mux.GET(cfg.prefix+"/duel/:code/ws", serveDuelWS(cfg, svc, log))

	mux.GET(cfg.prefix+"/duel/:code/qr", qrHandler)
}
