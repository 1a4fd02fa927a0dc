package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/nba-fantasy-sync/internal/platform/logging"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
)

// SyncRunner runs one sync pass. *usecase.SyncOrchestrator implements it.
type SyncRunner interface {
	Sync(ctx context.Context, currentDate time.Time) (usecase.SyncReport, error)
	Phase() usecase.SyncPhase
}

type Handler struct {
	queries   *usecase.QueryService
	syncer    SyncRunner
	logger    *logging.Logger
	validator *validator.Validate
	now       func() time.Time
}

func NewHandler(queries *usecase.QueryService, syncer SyncRunner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queries:   queries,
		syncer:    syncer,
		logger:    logger,
		validator: validator.New(),
		now:       time.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerSpan(r, "Healthz")
	defer span.End()

	body := map[string]string{"status": "ok"}
	if h.syncer != nil {
		body["sync_phase"] = string(h.syncer.Phase())
	}
	writeSuccess(ctx, w, http.StatusOK, body)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
