package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderchat/orderchat-backend/api/middleware"
	"github.com/orderchat/orderchat-backend/api/responses"
	"github.com/orderchat/orderchat-backend/internal/signature"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

const eventBodyLimit = 1 << 20

// cartClearer is the slice of the session store the worker surface exposes.
type cartClearer interface {
	ClearAllCarts(ctx context.Context) (int, error)
}

// HandlerParams carry everything the worker's internal HTTP surface needs.
type HandlerParams struct {
	Logger    *logger.Logger
	Processor *Processor
	Sessions  cartClearer
}

// NewHandler assembles the worker's internal HTTP surface. It is not meant
// to be reachable from outside the deployment.
func NewHandler(params HandlerParams) (http.Handler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("processor required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}

	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	})

	r.Route("/worker", func(r chi.Router) {
		r.Post("/events", handleEvents(params.Processor, logg))
		r.Post("/clear-carts", handleClearCarts(params.Sessions, logg))
	})

	return r, nil
}

func handleEvents(processor *Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, eventBodyLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read event body"))
			return
		}

		result, err := processor.Process(ctx, body, r.Header.Get(signature.Header))
		if result == nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err != nil {
			// Per-unit failures are settled in the result; the delivery
			// itself was accepted and must not be redelivered.
			logg.Warn(ctx, fmt.Sprintf("delivery settled with %d failed units: %v", result.Failed, err))
		}
		responses.WriteSuccess(w, result)
	}
}

func handleClearCarts(sessions cartClearer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cleared, err := sessions.ClearAllCarts(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear carts"))
			return
		}
		logg.Info(ctx, fmt.Sprintf("cleared %d carts", cleared))
		responses.WriteSuccess(w, map[string]int{"clearedCount": cleared})
	}
}
