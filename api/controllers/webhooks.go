package controllers

import (
	"io"
	"net/http"

	"github.com/orderchat/orderchat-backend/api/responses"
	"github.com/orderchat/orderchat-backend/internal/signature"
	pkgerrors "github.com/orderchat/orderchat-backend/pkg/errors"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

const webhookBodyLimit = 1 << 20

// EventForwarder ships verified deliveries to the worker without blocking
// the response path.
type EventForwarder interface {
	Forward(body []byte, sigHeader string)
}

// PayloadVerifier checks the provider MAC over the raw request bytes.
type PayloadVerifier interface {
	Verify(payload []byte, header string) bool
}

// WebhookVerify answers the provider's subscription handshake. The
// challenge is echoed verbatim only for a subscribe request with the
// configured token.
func WebhookVerify(verifyToken string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		mode := query.Get("hub.mode")
		token := query.Get("hub.verify_token")
		challenge := query.Get("hub.challenge")

		if mode != "subscribe" || token != verifyToken {
			if logg != nil {
				logg.Warn(r.Context(), "webhook handshake rejected")
			}
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

// WebhookReceive is the delivery fast path: verify the signature over the
// exact raw bytes, hand the payload to the forwarder, answer 200
// immediately. The provider's delivery timeout is the binding constraint;
// downstream outcomes never influence this response.
func WebhookReceive(verifier PayloadVerifier, forwarder EventForwarder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if verifier == nil || forwarder == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook intake unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(signature.Header)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "signature header missing"))
			return
		}
		if !verifier.Verify(payload, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "invalid payload signature"))
			return
		}

		forwarder.Forward(payload, sigHeader)
		responses.WriteSuccess(w, map[string]string{"status": "received"})
	}
}
