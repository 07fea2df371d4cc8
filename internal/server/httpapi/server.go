// Package httpapi exposes the user and task services over a chi-based REST
// API with bearer-token authentication.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/config"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/tasks"
	"taskkeeper/internal/server/services"
)

// UserService is the account surface the handlers need.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, userID, token string) error
	LogoutAll(ctx context.Context, userID string) error
	Update(ctx context.Context, userID string, upd services.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, userID string) (*models.User, error)
	SetAvatar(ctx context.Context, userID string, data []byte) error
	GetAvatar(ctx context.Context, userID string) ([]byte, error)
	DeleteAvatar(ctx context.Context, userID string) error
}

// TaskService is the task surface the handlers need.
type TaskService interface {
	Create(ctx context.Context, ownerID string, in services.TaskCreate) (*models.Task, error)
	List(ctx context.Context, ownerID string, filter tasks.ListFilter) ([]*models.Task, error)
	Get(ctx context.Context, ownerID, id string) (*models.Task, error)
	Update(ctx context.Context, ownerID, id string, upd services.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) (*models.Task, error)
}

type HTTPServer struct {
	address        string
	logger         logging.Logger
	users          UserService
	tasks          TaskService
	corsOrigins    []string
	avatarMaxBytes int64
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us UserService, ts TaskService) *HTTPServer {
	var origins []string
	for _, p := range strings.Split(cfg.CORSOrigins, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return &HTTPServer{
		address:        cfg.EndpointAddrHTTP,
		logger:         l.With("module", "http_server"),
		users:          us,
		tasks:          ts,
		corsOrigins:    origins,
		avatarMaxBytes: cfg.AvatarMaxBytes,
	}
}

// Handler assembles the router. Split out from Run so tests can drive it
// through httptest without binding a port.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Post("/users", s.handleRegister)
	r.Post("/users/login", s.handleLogin)
	r.Get("/users/{id}/avatar", s.handleGetAvatar)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/users/logout", s.handleLogout)
		r.Post("/users/logoutAll", s.handleLogoutAll)
		r.Get("/users/me", s.handleGetMe)
		r.Patch("/users/me", s.handleUpdateMe)
		r.Delete("/users/me", s.handleDeleteMe)
		r.Post("/users/me/avatar", s.handleSetAvatar)
		r.Delete("/users/me/avatar", s.handleDeleteAvatar)

		r.Post("/tasks", s.handleCreateTask)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Patch("/tasks/{id}", s.handleUpdateTask)
		r.Delete("/tasks/{id}", s.handleDeleteTask)
	})

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex lists the available routes, mirroring the welcome page of the
// original frontendless deployments.
func (s *HTTPServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"service": "taskkeeper",
		"routes": []string{
			"POST /users",
			"POST /users/login",
			"POST /users/logout",
			"POST /users/logoutAll",
			"GET /users/me",
			"PATCH /users/me",
			"DELETE /users/me",
			"POST /users/me/avatar",
			"DELETE /users/me/avatar",
			"GET /users/{id}/avatar",
			"POST /tasks",
			"GET /tasks",
			"GET /tasks/{id}",
			"PATCH /tasks/{id}",
			"DELETE /tasks/{id}",
		},
	})
}
