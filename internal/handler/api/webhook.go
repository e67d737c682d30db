package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"booking-core/internal/domain/payment"
	reqdto "booking-core/internal/handler/dto/request"
	resdto "booking-core/internal/handler/dto/response"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookHandler receives payment events from the provider. The
// endpoint is unauthenticated in the JWT sense; authenticity comes
// from the HMAC signature over the raw body.
type WebhookHandler struct {
	paymentCommands commands.PaymentEventCommands
	webhookSecret   []byte
}

func NewWebhookHandler(paymentCommands commands.PaymentEventCommands, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		paymentCommands: paymentCommands,
		webhookSecret:   []byte(webhookSecret),
	}
}

// @Summary Ingest payment event
// @Description Receive a signed payment event from the provider
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC-SHA256 signature over the raw body"
// @Param request body reqdto.PaymentWebhookRequest true "Provider event payload"
// @Success 202 {object} resdto.WebhookAckResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /payments/webhook [post]
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	if !h.verifySignature(body, c.GetHeader(signatureHeader)) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid webhook signature",
		})
		return
	}

	var req reqdto.PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Malformed event payload",
		})
		return
	}

	ev, err := h.normalize(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := h.paymentCommands.IngestPaymentEvent(c.Request.Context(), ev)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUnknownCorrelation):
			// Kept out of the booking ledger entirely; the log line is
			// the input for manual reconciliation.
			slog.Warn("payment event matched no booking",
				"external_event_id", ev.ExternalEventID,
				"payment_id", ev.Correlation.PaymentID,
				"session_id", ev.Correlation.SessionID,
				"type", req.Type,
			)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "No booking matches the event's correlation key",
			})
		case errors.Is(err, errs.ErrInvalidTransition):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Event contradicts the booking's current state",
			})
		case errors.Is(err, errs.ErrRefundExceedsCharge):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Refund amount exceeds the charged amount",
			})
		case errors.Is(err, errs.ErrMalformedEvent):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Malformed event payload",
			})
		default:
			// 5xx tells the provider to redeliver.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	// 202: accepted for processing, including dedupe no-ops.
	c.JSON(http.StatusAccepted, resdto.FromIngestResult(result))
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

func (h *WebhookHandler) normalize(req reqdto.PaymentWebhookRequest) (payment.Event, error) {
	kind, err := payment.NormalizeKind(req.Type)
	if err != nil {
		return payment.Event{}, err
	}

	corr := payment.Correlation{
		PaymentID: req.PaymentID,
		SessionID: req.SessionID,
	}
	return payment.NewEvent(req.EventID, corr, kind, req.AmountCents, req.Currency, req.OccurredAt)
}
