package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/service/ratelimit"
	"FinTrain/internal/usecase"
	xhttp "FinTrain/pkg/http"
	xlogger "FinTrain/pkg/logger"
	"FinTrain/pkg/queue"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// TrainingEchoHandler exposes the training trigger and model metadata.
type TrainingEchoHandler struct {
	logger     *xlogger.Logger
	jobs       queue.Publisher
	cooldown   *ratelimit.Cooldown
	allPeriod  time.Duration
	unitPeriod time.Duration
	artifacts  domrepo.ArtifactStore
	checks     map[string]HealthCheck
}

func NewTrainingEchoHandler(
	logger *xlogger.Logger,
	jobs queue.Publisher,
	cooldown *ratelimit.Cooldown,
	allPeriod, unitPeriod time.Duration,
	artifacts domrepo.ArtifactStore,
	checks map[string]HealthCheck,
) *TrainingEchoHandler {
	return &TrainingEchoHandler{
		logger:     logger,
		jobs:       jobs,
		cooldown:   cooldown,
		allPeriod:  allPeriod,
		unitPeriod: unitPeriod,
		artifacts:  artifacts,
		checks:     checks,
	}
}

func (h *TrainingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/train", h.TrainAll)
	g.POST("/train/:symbol/:horizon", h.TrainUnit)
	g.GET("/models/:symbol/:horizon/:model", h.ModelMeta)
	g.GET("/health", h.Health)
}

func (h *TrainingEchoHandler) TrainAll(c echo.Context) error {
	return h.enqueue(c, usecase.TrainPayload{}, h.allPeriod)
}

func (h *TrainingEchoHandler) TrainUnit(c echo.Context) error {
	req := &models.TrainUnitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.enqueue(c, usecase.TrainPayload{Symbol: req.Symbol, Horizon: req.Horizon}, h.unitPeriod)
}

func (h *TrainingEchoHandler) enqueue(c echo.Context, p usecase.TrainPayload, period time.Duration) error {
	scope := p.Scope()
	if ok, wait := h.cooldown.Allow(scope, period); !ok {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError(fmt.Sprintf("training %s is cooling down", scope)).
			WithParam("retry_after_seconds", int(wait.Seconds())+1))
	}
	id, err := h.jobs.Enqueue(c.Request().Context(), usecase.TrainJobType, p)
	if err != nil {
		h.cooldown.Reset(scope)
		h.logger.Error("enqueue training job", xlogger.String("scope", scope), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("could not queue training").WithError(err))
	}
	h.logger.Info("training job queued", xlogger.String("scope", scope), xlogger.String("job_id", id))
	return xhttp.AcceptedResponse(c, models.TrainAccepted{JobID: id, Scope: scope})
}

func (h *TrainingEchoHandler) ModelMeta(c echo.Context) error {
	req := &models.ModelMetaRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := models.TrainingUnit{Symbol: req.Symbol, Horizon: req.Horizon}.Key(req.Model)
	meta, found, err := h.artifacts.LoadMeta(c.Request().Context(), key)
	if err != nil {
		h.logger.Error("load model meta", xlogger.String("key", key), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("could not read model metadata").WithError(err))
	}
	if !found {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no model %s", key))
	}
	return xhttp.SuccessResponse(c, meta)
}

func (h *TrainingEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

var _ xhttp.Handler = (*TrainingEchoHandler)(nil)
