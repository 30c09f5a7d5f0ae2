package handler

import (
	"context"
	"encoding/json"

	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/middleware"
	"github.com/Dan9191/bankcards/internal/models"
	"github.com/Dan9191/bankcards/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc      *service.Service
	db       Pinger
	validate *validator.Validate
	log      *logrus.Logger
}

func NewHandler(svc *service.Service, db Pinger, log *logrus.Logger) *Handler {
	return &Handler{
		svc:      svc,
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Router wires every route with its middleware.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logging(h.log))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, apperror.NotFound("no route for %s %s", r.Method, r.URL.Path))
	})

	// Public routes
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/login", h.Login).Methods(http.MethodPost)

	// Protected routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(h.svc.Users, h.writeError))

	api.HandleFunc("/users/me/email", h.UpdateEmail).Methods(http.MethodPut)
	api.HandleFunc("/users/me/password", h.UpdatePassword).Methods(http.MethodPut)

	api.HandleFunc("/cards", h.ListOwnCards).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id:[0-9]+}", h.GetOwnCard).Methods(http.MethodGet)

	api.HandleFunc("/transfers", h.CreateTransfer).Methods(http.MethodPost)
	api.HandleFunc("/transfers", h.ListOwnTransfers).Methods(http.MethodGet)
	api.HandleFunc("/transfers/{id:[0-9]+}", h.GetOwnTransfer).Methods(http.MethodGet)

	// Administrator routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin(h.writeError))

	admin.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id:[0-9]+}", h.DeleteUser).Methods(http.MethodDelete)

	admin.HandleFunc("/cards", h.CreateCard).Methods(http.MethodPost)
	admin.HandleFunc("/cards", h.ListCards).Methods(http.MethodGet)
	admin.HandleFunc("/cards/{id:[0-9]+}", h.GetCard).Methods(http.MethodGet)
	admin.HandleFunc("/cards/{id:[0-9]+}", h.DeleteCard).Methods(http.MethodDelete)
	admin.HandleFunc("/cards/{id:[0-9]+}/activate", h.ActivateCard).Methods(http.MethodPut)
	admin.HandleFunc("/cards/{id:[0-9]+}/block", h.BlockCard).Methods(http.MethodPut)
	admin.HandleFunc("/cards/{id:[0-9]+}/integrity", h.VerifyCardIntegrity).Methods(http.MethodGet)

	admin.HandleFunc("/transfers", h.ListTransfers).Methods(http.MethodGet)
	admin.HandleFunc("/transfers/{id:[0-9]+}", h.GetTransfer).Methods(http.MethodGet)

	return r
}

// Health reports liveness and database connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// decode reads a JSON body into dst and validates its struct tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &requestError{message: "malformed request body"}
	}
	return h.validate.Struct(dst)
}

func principal(r *http.Request) middleware.Principal {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, &requestError{message: "invalid id in path"}
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &requestError{message: "query parameter " + key + " must be an integer"}
	}
	return v, nil
}

// pageFrom reads page, size and sort ("field" or "field,desc").
func pageFrom(r *http.Request) (models.Page, error) {
	number, err := queryInt(r, "page", 0)
	if err != nil {
		return models.Page{}, err
	}
	size, err := queryInt(r, "size", models.DefaultPageSize)
	if err != nil {
		return models.Page{}, err
	}
	sortBy, direction, _ := strings.Cut(r.URL.Query().Get("sort"), ",")
	return models.NewPage(number, size, strings.TrimSpace(sortBy), strings.TrimSpace(direction))
}

type pageResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int64 `json:"total_pages"`
}

func toPage[S, T any](result models.PageResult[S], convert func(S) T) pageResponse[T] {
	content := make([]T, 0, len(result.Items))
	for _, item := range result.Items {
		content = append(content, convert(item))
	}
	var pages int64
	if size := int64(result.Page.Size); size > 0 {
		pages = (result.Total + size - 1) / size
	}
	return pageResponse[T]{
		Content:       content,
		Page:          result.Page.Number,
		Size:          result.Page.Size,
		TotalElements: result.Total,
		TotalPages:    pages,
	}
}
