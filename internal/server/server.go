// Package server mounts the REST and websocket surfaces on net/http and
// owns the session middleware.
package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/akcyp/chess-online/internal/config"
	"github.com/akcyp/chess-online/internal/lobby"
	"github.com/akcyp/chess-online/internal/obslog"
	"github.com/akcyp/chess-online/internal/session"
	"github.com/akcyp/chess-online/internal/ws"
	"github.com/akcyp/chess-online/pkg/wire"
)

type Server struct {
	cfg      *config.AppConfig
	sessions session.Store
	lobby    *lobby.Lobby

	originPattern string
}

func New(cfg *config.AppConfig, sessions session.Store, lb *lobby.Lobby) *Server {
	pattern := "*"
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
		pattern = u.Host
	}
	return &Server{cfg: cfg, sessions: sessions, lobby: lb, originPattern: pattern}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lobby", s.handleAPILobby)
	mux.HandleFunc("GET /api/game/{id}", s.handleAPIGame)
	mux.HandleFunc("GET /ws/lobby", s.handleWSLobby)
	mux.HandleFunc("GET /ws/game/{id}", s.handleWSGame)
	return mux
}

// ensureSession resolves or mints the caller's identity. A fresh identity
// sets the session cookie on the response.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (*session.Data, error) {
	if c, err := r.Cookie(s.cfg.SessionCookie); err == nil && c.Value != "" {
		if data, err := s.sessions.Get(r.Context(), c.Value); err != nil {
			return nil, err
		} else if data != nil {
			return data, nil
		}
	}
	sid, err := session.NewSID()
	if err != nil {
		return nil, err
	}
	data := session.NewData()
	if err := s.sessions.Put(r.Context(), sid, data); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    sid,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
	return data, nil
}

func (s *Server) cors(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.cfg.BaseURL)
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Headers", "*")
}

func (s *Server) handleAPILobby(w http.ResponseWriter, r *http.Request) {
	s.cors(w)
	data, err := s.ensureSession(w, r)
	if err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"username": data.Username})
}

func (s *Server) handleAPIGame(w http.ResponseWriter, r *http.Request) {
	s.cors(w)
	data, err := s.ensureSession(w, r)
	if err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	room := s.lobby.Room(r.PathValue("id"))
	if room == nil {
		http.NotFound(w, r)
		return
	}
	preview := room.Preview()
	writeJSON(w, struct {
		Auth struct {
			Username string `json:"username"`
		} `json:"auth"`
		wire.GamePreview
	}{
		Auth: struct {
			Username string `json:"username"`
		}{Username: data.Username},
		GamePreview: preview,
	})
}

func (s *Server) handleWSLobby(w http.ResponseWriter, r *http.Request) {
	s.serveSocket(w, r, s.lobby, "lobby")
}

func (s *Server) handleWSGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	room := s.lobby.Room(id)
	if room == nil {
		http.NotFound(w, r)
		return
	}
	s.serveSocket(w, r, room, id)
}

// serveSocket upgrades the request and pumps the connection's lifecycle
// into the room handler. It returns when the peer disconnects.
func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request, h ws.Handler, label string) {
	data, err := s.ensureSession(w, r)
	if err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{s.originPattern},
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("room", label), zap.Error(err))
		return
	}
	conn := ws.NewConn(sock, data.UserUUID, data.Username)
	obslog.L().Info("ws_connect",
		zap.String("room", label),
		zap.String("user_id", data.UserUUID),
		zap.String("username", data.Username),
	)
	conn.Serve(r.Context(), h)
	obslog.L().Info("ws_disconnect", zap.String("room", label), zap.String("user_id", data.UserUUID))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Error("http_write_error", zap.Error(err))
	}
}
