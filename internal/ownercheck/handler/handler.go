package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"namecheck/internal/ownercheck/models"
	"namecheck/pkg/platform/httputil"
	"namecheck/pkg/requestcontext"
)

// Service defines the interface for name verification.
type Service interface {
	Check(ctx context.Context, req models.LookupRequest) (models.Verdict, error)
}

// Handler wires the verification endpoint to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the verification endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/check_bank_name", h.HandleCheckBankName)
}

// HandleCheckBankName handles POST /check_bank_name. Every verdict, including
// timeouts and inconclusive ones, is a 200.
func (h *Handler) HandleCheckBankName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verdict, err := h.service.Check(ctx, req.toLookup())
	if err != nil {
		h.logger.ErrorContext(ctx, "bank name check failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if verdict.Failure != "" {
		h.logger.ErrorContext(ctx, "bank name check could not run",
			"request_id", requestID,
			"failure", verdict.Failure,
		)
	}
	h.logger.InfoContext(ctx, "bank name check answered",
		"request_id", requestID,
		"verdict", verdict.Label(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromVerdict(verdict))
}
