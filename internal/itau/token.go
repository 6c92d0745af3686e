// Package itau implements the SISPAG gateway client: OAuth token handling,
// transfer submission with idempotency-conflict recovery, and payment status
// polling.
package itau

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pix-disbursement-service/internal/config"
	"github.com/pix-disbursement-service/internal/domain/audit"
	"github.com/pix-disbursement-service/internal/domain/shared"
)

const tokenPath = "/api/oauth/jwt"

// auditEntityIntegration is the entity kind used for token renewal events
const auditEntityIntegration = "integration"

// TokenSource caches the gateway bearer token and renews it when the
// remaining lifetime falls under the configured safety margin. Renewal is
// serialized with a mutex so concurrent sends trigger at most one refresh.
// A failed renewal is reported to the caller and never retried on its own.
type TokenSource struct {
	cfg        config.ItauConfig
	httpClient *http.Client
	auditRepo  audit.Repository
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenSource creates a token source for the given gateway configuration
func NewTokenSource(cfg config.ItauConfig, auditRepo audit.Repository, logger *slog.Logger) *TokenSource {
	return &TokenSource{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		auditRepo:  auditRepo,
		logger:     logger,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a bearer token valid for at least the safety margin,
// renewing it against the gateway when the cached one is too close to expiry
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt.Add(-s.cfg.TokenSafetyMargin)) {
		return s.token, nil
	}

	token, expiresIn, err := s.renew(ctx)
	if err != nil {
		return "", err
	}

	s.token = token
	s.expiresAt = s.now().Add(time.Duration(expiresIn) * time.Second)
	return s.token, nil
}

func (s *TokenSource) renew(ctx context.Context) (string, int64, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, shared.WrapInternal(err, "failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := s.now()
	resp, err := s.httpClient.Do(req)
	latency := time.Since(start)

	if err != nil {
		s.recordRenewal(ctx, "failed", fmt.Sprintf("token request failed: %v", err), latency)
		return "", 0, shared.NewTransportError(err, "token request to gateway failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.recordRenewal(ctx, "failed", fmt.Sprintf("reading token response failed: %v", err), latency)
		return "", 0, shared.NewTransportError(err, "reading token response failed")
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("gateway rejected credentials with status %d", resp.StatusCode)
		s.recordRenewal(ctx, "failed", msg, latency)
		return "", 0, shared.NewConfigError("%s", msg)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		s.recordRenewal(ctx, "failed", fmt.Sprintf("malformed token response: %v", err), latency)
		return "", 0, shared.NewConfigError("gateway returned a malformed token response")
	}
	if tr.AccessToken == "" {
		s.recordRenewal(ctx, "failed", "token response carried no access_token", latency)
		return "", 0, shared.NewConfigError("gateway returned no access token")
	}

	s.recordRenewal(ctx, "success", "bearer token renewed", latency)
	s.logger.Info("gateway token renewed", "expires_in_seconds", tr.ExpiresIn, "latency_ms", latency.Milliseconds())
	return tr.AccessToken, tr.ExpiresIn, nil
}

// recordRenewal appends a TOKEN_RENEWAL audit event. Audit failures are
// logged and swallowed, they must not mask the renewal outcome.
func (s *TokenSource) recordRenewal(ctx context.Context, outcome, message string, latency time.Duration) {
	event := audit.NewEvent(auditEntityIntegration, s.cfg.ClientID, audit.EventTypeTokenRenewal, outcome, message)
	event.DurationMS = latency.Milliseconds()
	if err := s.auditRepo.Append(ctx, event); err != nil {
		s.logger.Error("failed to append token renewal audit event", "error", err)
	}
}
