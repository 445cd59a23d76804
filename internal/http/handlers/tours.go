package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/geotours/tourhub/internal/cache"
	"github.com/geotours/tourhub/internal/config"
	"github.com/geotours/tourhub/internal/domain/tour"
	"github.com/geotours/tourhub/internal/observability"
	"github.com/geotours/tourhub/internal/query"
	"github.com/geotours/tourhub/internal/repo/mongodb"
	"github.com/gin-gonic/gin"
)

type ToursStore interface {
	Create(ctx context.Context, t tour.Tour) (tour.Tour, error)
	GetByID(ctx context.Context, id string) (tour.Tour, error)
	List(ctx context.Context, opts query.Options) ([]tour.Tour, error)
	Update(ctx context.Context, id string, req tour.UpdateTourRequest) (tour.Tour, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) ([]mongodb.DifficultyStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]mongodb.MonthPlan, error)
	HiddenFields() []string
}

type ToursHandler struct {
	repo    ToursStore
	reports cache.Store
	metrics *observability.Prom
	resp    *Responder
}

func NewToursHandler(repo ToursStore, reports cache.Store, metrics *observability.Prom, resp *Responder) *ToursHandler {
	return &ToursHandler{repo: repo, reports: reports, metrics: metrics, resp: resp}
}

const statsCacheKey = "reports:tour-stats"

func monthlyPlanCacheKey(year int) string {
	return fmt.Sprintf("reports:monthly-plan:%d", year)
}

// AliasTopTours pre-seeds the list query for the top-5-cheap route.
func AliasTopTours(ctx *gin.Context) {
	q := ctx.Request.URL.Query()

	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")

	ctx.Request.URL.RawQuery = q.Encode()
}

func (h *ToursHandler) ListTours(ctx *gin.Context) {
	opts := query.Build(ctx.Request.URL.Query(), h.repo.HiddenFields()...)

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	tours, err := h.repo.List(cctx, opts)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	Success(ctx, http.StatusOK, gin.H{
		"results": len(tours),
		"data":    gin.H{"tours": tours},
	})
}

func (h *ToursHandler) CreateTour(ctx *gin.Context) {
	var req tour.CreateTourRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		h.resp.Fail(ctx, http.StatusNotFound, "Invalid input data. "+err.Error())
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	t, err := h.repo.Create(cctx, tour.New(req))

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, "Could not create tour"))
		return
	}

	h.invalidateReports(cctx, t.StartDates)

	Success(ctx, http.StatusCreated, gin.H{
		"data": gin.H{"tour": t},
	})
}

func (h *ToursHandler) GetTour(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	t, err := h.repo.GetByID(cctx, id)

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, fmt.Sprintf("No tour is present with the id: %s", id)))
		return
	}

	Success(ctx, http.StatusOK, gin.H{
		"data": gin.H{"tour": t},
	})
}

func (h *ToursHandler) UpdateTour(ctx *gin.Context) {
	id := ctx.Param("id")

	var req tour.UpdateTourRequest

	if !h.resp.BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	t, err := h.repo.Update(cctx, id, req)

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, fmt.Sprintf("No tour is present with the id: %s", id)))
		return
	}

	h.invalidateReports(cctx, t.StartDates)

	Success(ctx, http.StatusOK, gin.H{
		"data": gin.H{"tour": t},
	})
}

func (h *ToursHandler) DeleteTour(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		h.resp.Error(ctx, translateRepoErr(err, fmt.Sprintf("No tour is present with the id: %s", id)))
		return
	}

	h.invalidateReports(cctx, nil)

	ctx.Status(http.StatusNoContent)
}

func (h *ToursHandler) TourStats(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	if cached, ok := h.cachedReport(cctx, statsCacheKey); ok {
		Success(ctx, http.StatusOK, gin.H{"stats": cached})
		return
	}

	stats, err := h.repo.Stats(cctx)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	h.storeReport(cctx, statsCacheKey, stats)

	Success(ctx, http.StatusOK, gin.H{"stats": stats})
}

func (h *ToursHandler) MonthlyPlan(ctx *gin.Context) {
	year, err := strconv.Atoi(ctx.Param("year"))

	if err != nil || year < 1 {
		h.resp.Fail(ctx, http.StatusBadRequest, "Invalid year")
		return
	}

	cacheKey := monthlyPlanCacheKey(year)

	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	if cached, ok := h.cachedReport(cctx, cacheKey); ok {
		Success(ctx, http.StatusOK, gin.H{
			"results": reportLength(cached),
			"plan":    cached,
		})
		return
	}

	plan, err := h.repo.MonthlyPlan(cctx, year)

	if err != nil {
		h.resp.Error(ctx, err)
		return
	}

	h.storeReport(cctx, cacheKey, plan)

	Success(ctx, http.StatusOK, gin.H{
		"results": len(plan),
		"plan":    plan,
	})
}

// invalidateReports drops the cached aggregates touched by a tour write: the
// stats report always, and the monthly plans for the years the written tour
// departs in. Deletions with unknown years lean on the TTL instead.
func (h *ToursHandler) invalidateReports(ctx context.Context, startDates []time.Time) {
	if h.reports == nil {
		return
	}

	h.reports.Delete(ctx, statsCacheKey)

	years := map[int]struct{}{}

	for _, d := range startDates {
		years[d.UTC().Year()] = struct{}{}
	}

	for year := range years {
		h.reports.Delete(ctx, monthlyPlanCacheKey(year))
	}
}

func (h *ToursHandler) cachedReport(ctx context.Context, key string) (json.RawMessage, bool) {
	if h.reports == nil {
		return nil, false
	}

	raw, ok := h.reports.Get(ctx, key)

	if !ok {
		if h.metrics != nil {
			h.metrics.CacheMissesTotal.WithLabelValues(key).Inc()
		}

		return nil, false
	}

	if h.metrics != nil {
		h.metrics.CacheHitsTotal.WithLabelValues(key).Inc()
	}

	return json.RawMessage(raw), true
}

func (h *ToursHandler) storeReport(ctx context.Context, key string, report interface{}) {
	if h.reports == nil {
		return
	}

	raw, err := json.Marshal(report)

	if err != nil {
		return
	}

	h.reports.Set(ctx, key, raw)
}

func reportLength(raw json.RawMessage) int {
	var items []json.RawMessage

	if err := json.Unmarshal(raw, &items); err != nil {
		return 0
	}

	return len(items)
}
