package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scoala-bot/scoala/pkg/helper"
	"github.com/scoala-bot/scoala/pkg/repository"
)

type handler struct {
	log        *zap.Logger
	status     StatusService
	repository HomeworkRepository
	router     http.Handler
	now        func() time.Time
}

// StatusService reports on the running bot.
type StatusService interface {
	Uptime() time.Duration
}

// HomeworkRepository is the read side of the homework store.
type HomeworkRepository interface {
	Get(ctx context.Context, id string) (repository.Homework, error)
	List(ctx context.Context) ([]repository.Homework, error)
}

type statusResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Homeworks     int     `json:"homeworks"`
}

type homeworkResponse struct {
	repository.Homework
	Expires string `json:"expires,omitempty"`
}

// New constructs the status http handler.
func New(
	log *zap.Logger,
	status StatusService,
	repository HomeworkRepository,
) http.Handler {
	r := chi.NewRouter()
	h := handler{
		log:        log,
		status:     status,
		repository: repository,
		router:     r,
		now:        time.Now,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", ErrorHandler(h.statusHandler, h.log))
	r.Get("/status", ErrorHandler(h.statusHandler, h.log))
	r.Get("/homeworks", ErrorHandler(h.homeworksHandler, h.log))
	r.Get("/homeworks/{id}", ErrorHandler(h.homeworkHandler, h.log))
	return &h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *handler) statusHandler(w http.ResponseWriter, r *http.Request) error {
	homeworks, err := h.current(r.Context(), "")
	if err != nil {
		return err
	}
	uptime := h.status.Uptime()
	resp := statusResponse{
		Status:        "starting",
		UptimeSeconds: uptime.Seconds(),
		Homeworks:     len(homeworks),
	}
	if uptime > 0 {
		resp.Status = "ok"
		resp.Uptime = helper.TimePhaser(uptime.Seconds())
	}
	render.JSON(w, r, resp)
	return nil
}

// current lists homework that has not expired yet, filtered by subject.
func (h *handler) current(ctx context.Context, subject string) ([]homeworkResponse, error) {
	homeworks, err := h.repository.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error listing homework")
	}
	now := h.now()
	out := make([]homeworkResponse, 0, len(homeworks))
	for _, homework := range homeworks {
		if homework.Expired(now) || !helper.MatchSubject(subject, homework.Subject) {
			continue
		}
		out = append(out, h.homeworkResponse(homework, now))
	}
	return out, nil
}

func (h *handler) homeworkResponse(homework repository.Homework, now time.Time) homeworkResponse {
	resp := homeworkResponse{Homework: homework}
	if homework.ExpirationDate != nil {
		resp.Expires = humanize.RelTime(*homework.ExpirationDate, now, "ago", "from now")
	}
	return resp
}

func (h *handler) homeworksHandler(w http.ResponseWriter, r *http.Request) error {
	homeworks, err := h.current(r.Context(), r.URL.Query().Get("materie"))
	if err != nil {
		return err
	}
	render.JSON(w, r, homeworks)
	return nil
}

func (h *handler) homeworkHandler(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	homework, err := h.repository.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return Error(errors.Wrapf(err, "no homework with id: %s", id), http.StatusNotFound)
	}
	if err != nil {
		return errors.Wrapf(err, "error getting homework: %s", id)
	}
	render.JSON(w, r, h.homeworkResponse(homework, h.now()))
	return nil
}
