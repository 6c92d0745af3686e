package itau

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pix-disbursement-service/internal/config"
	"github.com/pix-disbursement-service/internal/domain/audit"
	"github.com/pix-disbursement-service/internal/domain/exchange"
	"github.com/pix-disbursement-service/internal/domain/shared"
	"github.com/pix-disbursement-service/internal/pix"
)

const (
	transferPath = "/itau-ep9-gtw-sispag-ext/v1/transferencias"
	statusPath   = "/itau-ep9-gtw-sispag-ext/v1/pagamentos_sispag/"

	headerAPIKey = "X-API-Key"
)

// Client talks to the SISPAG gateway. Every successful send persists an
// exchange record carrying both raw bodies; a 409 from the bank is resolved
// against previously persisted records before being surfaced as a conflict.
type Client struct {
	cfg          config.ItauConfig
	httpClient   *http.Client
	tokens       *TokenSource
	exchangeRepo exchange.Repository
	auditRepo    audit.Repository
	logger       *slog.Logger
}

// NewClient creates a gateway client
func NewClient(cfg config.ItauConfig, tokens *TokenSource, exchangeRepo exchange.Repository, auditRepo audit.Repository, logger *slog.Logger) *Client {
	return &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		tokens:       tokens,
		exchangeRepo: exchangeRepo,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// SendRequest carries a transfer to submit together with the identifiers
// the resulting exchange record is linked to.
type SendRequest struct {
	PaymentID     uuid.UUID
	InvoiceLineID uuid.UUID
	Description   string
	Payload       *pix.TransferPayload
}

type sendResponse struct {
	BankPixID  string `json:"cod_pagamento"`
	BankStatus string `json:"status_pagamento"`
	BankType   string `json:"tipo_pagamento"`
}

// SendTransfer posts the transfer to the gateway and persists the exchange
// record. A 409 answer is recovered by locating the record of the earlier
// send, by payment, then txid, then correlation id; when none matches the
// conflict is surfaced as a business error.
func (c *Client) SendTransfer(ctx context.Context, req SendRequest) (*exchange.Record, error) {
	payload := req.Payload
	if payload.CorrelationID == "" {
		return nil, shared.NewValidationError("transfer payload is missing a correlation id")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	requestJSON, err := marshalPretty(payload)
	if err != nil {
		return nil, shared.WrapInternal(err, "failed to encode transfer payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+transferPath, strings.NewReader(requestJSON))
	if err != nil {
		return nil, shared.WrapInternal(err, "failed to build transfer request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerAPIKey, c.cfg.ClientID)
	httpReq.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordSendFailure(ctx, req.PaymentID, fmt.Sprintf("transfer request failed: %v", err), time.Since(start))
		return nil, shared.NewTransportError(err, "transfer request to gateway failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordSendFailure(ctx, req.PaymentID, fmt.Sprintf("reading transfer response failed: %v", err), time.Since(start))
		return nil, shared.NewTransportError(err, "reading transfer response failed")
	}

	if resp.StatusCode == http.StatusConflict {
		return c.resolveConflict(ctx, req, payload)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("gateway rejected transfer with status %d: %s", resp.StatusCode, truncateBody(body))
		c.recordSendFailure(ctx, req.PaymentID, msg, time.Since(start))
		return nil, shared.NewTransportError(nil, "%s", msg)
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		c.logger.Warn("transfer response did not match the expected shape", "payment_id", req.PaymentID, "error", err)
	}

	responseJSON, err := prettyJSON(body)
	if err != nil {
		responseJSON = string(body)
	}

	rec := &exchange.Record{
		ID:            uuid.New(),
		Name:          payload.ReceiptID,
		Description:   req.Description,
		PaymentID:     req.PaymentID,
		InvoiceLineID: req.InvoiceLineID,
		Amount:        payload.Amount,
		TxID:          payload.TxID,
		CorrelationID: payload.CorrelationID,
		BankPixID:     sr.BankPixID,
		BankStatus:    sr.BankStatus,
		BankType:      sr.BankType,
		State:         shared.ExchangeStateSent,
		RequestJSON:   requestJSON,
		ResponseJSON:  responseJSON,
		CreatedAt:     time.Now(),
	}
	if err := c.exchangeRepo.Create(ctx, rec); err != nil {
		return nil, shared.WrapInternal(err, "failed to persist exchange record")
	}

	c.logger.Info("transfer accepted by gateway",
		"payment_id", req.PaymentID,
		"txid", payload.TxID,
		"bank_status", sr.BankStatus,
		"latency_ms", time.Since(start).Milliseconds())
	return rec, nil
}

// resolveConflict locates the exchange record of the send the bank already
// processed. Lookup order mirrors how specific each identifier is.
func (c *Client) resolveConflict(ctx context.Context, req SendRequest, payload *pix.TransferPayload) (*exchange.Record, error) {
	rec, err := c.exchangeRepo.FindByPaymentID(ctx, req.PaymentID)
	if err != nil {
		return nil, shared.WrapInternal(err, "conflict lookup by payment failed")
	}
	if rec == nil && payload.TxID != "" {
		rec, err = c.exchangeRepo.FindByTxID(ctx, payload.TxID)
		if err != nil {
			return nil, shared.WrapInternal(err, "conflict lookup by txid failed")
		}
	}
	if rec == nil {
		rec, err = c.exchangeRepo.FindByCorrelationID(ctx, payload.CorrelationID)
		if err != nil {
			return nil, shared.WrapInternal(err, "conflict lookup by correlation id failed")
		}
	}
	if rec == nil {
		return nil, shared.NewConflictError("gateway reported a duplicate transfer but no exchange record matches payment %s, txid %q or correlation id %q",
			req.PaymentID, payload.TxID, payload.CorrelationID)
	}

	c.logger.Info("duplicate transfer resolved to an existing exchange record",
		"payment_id", req.PaymentID, "exchange_record_id", rec.ID)
	return rec, nil
}

type statusResponse struct {
	Data struct {
		DadosPagamento struct {
			Status string `json:"status"`
		} `json:"dados_pagamento"`
	} `json:"data"`
}

// PaymentStatus polls the gateway for the settlement status of a transfer
func (c *Client) PaymentStatus(ctx context.Context, txid string) (string, error) {
	if txid == "" {
		return "", shared.NewValidationError("payment status poll requires a txid")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+statusPath+txid, nil)
	if err != nil {
		return "", shared.WrapInternal(err, "failed to build status request")
	}
	httpReq.Header.Set(headerAPIKey, c.cfg.ClientID)
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("status request to gateway failed", "txid", txid, "error", err)
		return "", shared.NewTransportError(err, "status request to gateway failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("reading status response failed", "txid", txid, "error", err)
		return "", shared.NewTransportError(err, "reading status response failed")
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gateway status poll rejected", "txid", txid, "status_code", resp.StatusCode, "body", truncateBody(body))
		return "", shared.NewTransportError(nil, "gateway status poll for txid %s returned %d: %s", txid, resp.StatusCode, truncateBody(body))
	}

	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		c.logger.Error("gateway returned a malformed status response", "txid", txid, "error", err)
		return "", shared.NewTransportError(err, "gateway returned a malformed status response for txid %s", txid)
	}
	return sr.Data.DadosPagamento.Status, nil
}

// recordSendFailure appends a NOTIFICATION audit event for a failed send
func (c *Client) recordSendFailure(ctx context.Context, paymentID uuid.UUID, message string, latency time.Duration) {
	event := audit.NewEvent("payment", paymentID.String(), audit.EventTypeNotification, "failed", message)
	event.DurationMS = latency.Milliseconds()
	if err := c.auditRepo.Append(ctx, event); err != nil {
		c.logger.Error("failed to append send failure audit event", "error", err)
	}
}

// marshalPretty encodes v indented without escaping non-ASCII text, so the
// persisted bodies read the way they went over the wire
func marshalPretty(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func prettyJSON(raw []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return marshalPretty(v)
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
