package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/domain"
	apimw "github.com/hamed0406/oncallpager/internal/httpapi/middleware"
	"github.com/hamed0406/oncallpager/internal/repo"
	"github.com/hamed0406/oncallpager/internal/rotation"
)

// Caller triggers a manual page. Each call is its own pager session.
type Caller func(ctx context.Context, message string, offset int) error

type Server struct {
	Logger    *zap.Logger
	Directory rotation.Directory
	Status    repo.StatusReader
	Call      Caller
	Location  *time.Location
	Now       func() time.Time
}

func NewServer(l *zap.Logger, dir rotation.Directory, status repo.StatusReader, call Caller, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{Logger: l, Directory: dir, Status: status, Call: call, Location: loc, Now: time.Now}
}

// Router builds the status API. pageRPM/pageBurst limit manual pages per client.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pageRPM, pageBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/rotation", s.handleRotation)
		r.Get("/api/alerts", s.handleAlerts)
	})
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(pageRPM, pageBurst))
		r.Post("/api/page", s.handlePage)
	})
	return r
}

type shiftView struct {
	OffsetDays   int            `json:"offset_days"`
	PrimaryIndex int            `json:"primary_index"`
	BackupIndex  int            `json:"backup_index"`
	Primary      domain.Contact `json:"primary"`
	Backup       domain.Contact `json:"backup"`
}

type rotationView struct {
	At       time.Time        `json:"at"`
	Contacts []domain.Contact `json:"contacts"`
	Current  shiftView        `json:"current"`
	Preview  *shiftView       `json:"preview,omitempty"`
}

func (s *Server) shift(now time.Time, offset int) (shiftView, error) {
	sh, err := rotation.Resolve(s.Directory, now, offset)
	if err != nil {
		return shiftView{}, err
	}
	return shiftView{
		OffsetDays:   offset,
		PrimaryIndex: sh.PrimaryIndex,
		BackupIndex:  sh.BackupIndex,
		Primary:      sh.Primary,
		Backup:       sh.Backup,
	}, nil
}

func (s *Server) handleRotation(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "bad offset_days", http.StatusBadRequest)
			return
		}
		offset = n
	}
	now := s.Now().In(s.Location)
	cur, err := s.shift(now, 0)
	if err != nil {
		s.Logger.Error("rotation_error", zap.Error(err))
		http.Error(w, "rotation error", http.StatusInternalServerError)
		return
	}
	view := rotationView{At: now, Current: cur}
	for i := 0; i < s.Directory.Len(); i++ {
		view.Contacts = append(view.Contacts, s.Directory.At(i))
	}
	if offset != 0 {
		p, _ := s.shift(now, offset)
		view.Preview = &p
	}
	writeJSON(w, http.StatusOK, view)
}

type alertView struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	m, err := s.Status.Peek(r.Context())
	if err != nil {
		s.Logger.Error("status_read_error", zap.Error(err))
		http.Error(w, "status error", http.StatusInternalServerError)
		return
	}
	out := make([]alertView, 0, len(m))
	for _, id := range m.Keys() {
		rec := m[id]
		out = append(out, alertView{ID: id, Status: rec.Status.String(), Date: rec.Date, Subject: rec.Subject})
	}
	writeJSON(w, http.StatusOK, out)
}

type pagePayload struct {
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var p pagePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Offset < 0 {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if s.Call == nil {
		http.Error(w, "paging disabled", http.StatusServiceUnavailable)
		return
	}
	if err := s.Call(r.Context(), p.Message, p.Offset); err != nil {
		s.Logger.Error("manual_page_failed", zap.Int("offset", p.Offset), zap.Error(err))
		http.Error(w, "page failed", http.StatusBadGateway)
		return
	}
	s.Logger.Info("manual_page", zap.Int("offset", p.Offset), zap.String("request_id", chimw.GetReqID(r.Context())))
	writeJSON(w, http.StatusAccepted, map[string]any{"paged": true, "offset": p.Offset})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
