package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"habitd/internal/providers"
	"habitd/internal/services"
	"habitd/internal/structures"
	"habitd/internal/syncer"
	"habitd/internal/week"
)

const maxRequestBodySize = 1 << 20 // 1 MB

var nowFunc = time.Now

// ApiController is the local HTTP surface the UI talks to. Edits apply to
// the replica immediately and are queued for the next push — nothing here
// ever waits on the network except the explicit /sync trigger.
type ApiController struct {
	logger       providers.Logger
	service      services.HabitServiceInterface
	cache        providers.CacheProviderInterface
	identity     providers.IdentityProviderInterface
	orchestrator syncer.OrchestratorInterface
	conf         *structures.Config
	owner        string
	clock        func() [7]string
}

func NewApiController(conf *structures.Config, logger providers.Logger, service services.HabitServiceInterface, cache providers.CacheProviderInterface, identity providers.IdentityProviderInterface, orchestrator syncer.OrchestratorInterface) *ApiController {
	weekStartsOn := conf.Sync.WeekStartsOn
	return &ApiController{
		logger:       logger,
		service:      service,
		cache:        cache,
		identity:     identity,
		orchestrator: orchestrator,
		conf:         conf,
		owner:        strings.ToLower(strings.TrimSpace(conf.Identity.Owner)),
		clock: func() [7]string {
			return week.DatesOf(nowFunc(), weekStartsOn)
		},
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	// The replica generation is part of the key, so mutations invalidate
	// every cached read without explicit flushes.
	cacheKey = fmt.Sprintf("%s:%d", cacheKey, ac.service.Generation())

	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSONBytes(w, data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSONBytes(w, gson)
}

func writeJSONBytes(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) editError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrHabitNotFound):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidHabit), errors.Is(err, services.ErrInvalidDate):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	default:
		ac.logger.Errorf(providers.TypeApp, "Edit failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (ac *ApiController) ListHabits(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "habits", func() (any, error) {
		return ac.service.List(), nil
	})
}

type habitRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TargetFrequency int    `json:"target_frequency"`
}

func (ac *ApiController) CreateHabit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload habitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	rec, err := ac.service.Create(ac.owner, payload.Name, payload.TargetFrequency)
	if err != nil {
		ac.editError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, rec)
}

func (ac *ApiController) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload habitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	rec, err := ac.service.Update(payload.ID, payload.Name, payload.TargetFrequency)
	if err != nil {
		ac.editError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, rec)
}

type toggleRequest struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

func (ac *ApiController) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	rec, err := ac.service.ToggleCompletion(payload.ID, payload.Date)
	if err != nil {
		ac.editError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, rec)
}

func (ac *ApiController) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if _, ok := ac.service.Delete(id); !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) GetHistory(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "history", func() (any, error) {
		return ac.service.Snapshots(), nil
	})
}

type habitProgress struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

type progressResponse struct {
	WeekStart string          `json:"week_start"`
	Score     int             `json:"score"`
	Habits    []habitProgress `json:"habits"`
}

func (ac *ApiController) GetProgress(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "progress", func() (any, error) {
		dates := ac.clock()
		habits := ac.service.List()

		resp := progressResponse{
			WeekStart: dates[0],
			Score:     syncer.WeeklyScore(habits, dates),
			Habits:    make([]habitProgress, 0, len(habits)),
		}
		for _, h := range habits {
			resp.Habits = append(resp.Habits, habitProgress{
				ID:       h.ID,
				Name:     h.Name,
				Progress: syncer.RecordScore(h, dates),
			})
		}
		return resp, nil
	})
}

func (ac *ApiController) SyncNow(w http.ResponseWriter, r *http.Request) {
	owner, err := ac.identity.Resolve(r.Context())
	if err != nil {
		ac.logger.Errorf(providers.TypeSync, "On-demand sync refused: %s", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := ac.orchestrator.RunSync(r.Context(), owner)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.writeJSON(w, http.StatusOK, report)
}
