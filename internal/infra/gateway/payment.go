package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"booking-core/internal/pkg/config"
	"booking-core/internal/pkg/errs"
	"booking-core/internal/usecase/commands"
)

// PaymentClient talks to the external payment provider. Every call is
// fire-and-acknowledge: the authoritative outcome arrives later through
// the webhook feed, so callers must not treat a 2xx here as settled.
type PaymentClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPaymentClient(cfg config.PaymentConfig) *PaymentClient {
	return &PaymentClient{
		baseURL: cfg.GatewayBaseURL,
		apiKey:  cfg.GatewayAPIKey,
		client:  &http.Client{Timeout: cfg.GatewayTimeout},
	}
}

type authorizeRequest struct {
	ReferenceID string `json:"reference_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type authorizeResponse struct {
	SessionID string `json:"session_id"`
}

func (c *PaymentClient) Authorize(ctx context.Context, req commands.AuthorizeRequest) (*commands.AuthorizeAck, error) {
	body := authorizeRequest{
		ReferenceID: req.BookingID.String(),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
	}

	var resp authorizeResponse
	if err := c.post(ctx, "/v1/payment_sessions", body, &resp); err != nil {
		return nil, err
	}
	return &commands.AuthorizeAck{ExternalSessionID: resp.SessionID}, nil
}

func (c *PaymentClient) Capture(ctx context.Context, externalPaymentID string, amountCents *int64) error {
	body := map[string]any{}
	if amountCents != nil {
		body["amount_cents"] = *amountCents
	}
	path := fmt.Sprintf("/v1/payments/%s/capture", url.PathEscape(externalPaymentID))
	return c.post(ctx, path, body, nil)
}

func (c *PaymentClient) Refund(ctx context.Context, externalPaymentID string, amountCents int64, reason string) error {
	body := map[string]any{
		"amount_cents": amountCents,
		"reason":       reason,
	}
	path := fmt.Sprintf("/v1/payments/%s/refunds", url.PathEscape(externalPaymentID))
	return c.post(ctx, path, body, nil)
}

func (c *PaymentClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Wrap(err, "failed to marshal gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(err, "failed to build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "gateway request failed"), errs.ErrGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Mark(
			errs.New(fmt.Sprintf("gateway returned %d: %s", resp.StatusCode, string(snippet))),
			errs.ErrGateway,
		)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errs.Mark(errs.Wrap(err, "failed to decode gateway response"), errs.ErrGateway)
		}
	}
	return nil
}
