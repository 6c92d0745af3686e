// Package service orchestrates the PIX disbursement lifecycle: installment
// creation against posted invoices, transfer submission, bank status sync
// with settlement posting, and deletion guarded by paid immutability.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pix-disbursement-service/internal/domain/audit"
	"github.com/pix-disbursement-service/internal/domain/company"
	"github.com/pix-disbursement-service/internal/domain/exchange"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/invoice"
	"github.com/pix-disbursement-service/internal/domain/ledger"
	"github.com/pix-disbursement-service/internal/domain/payment"
	"github.com/pix-disbursement-service/internal/domain/shared"
	"github.com/pix-disbursement-service/internal/itau"
)

// TxRunner runs a function inside one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Gateway is the bank-facing surface the lifecycle depends on
type Gateway interface {
	SendTransfer(ctx context.Context, req itau.SendRequest) (*exchange.Record, error)
	PaymentStatus(ctx context.Context, txid string) (string, error)
}

// EventPublisher publishes lifecycle events, best effort
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// InstallmentService implements the installment lifecycle operations
type InstallmentService struct {
	db              TxRunner
	installmentRepo installment.Repository
	paymentRepo     payment.Repository
	invoiceRepo     invoice.Repository
	companyRepo     company.Repository
	ledgerRepo      ledger.Repository
	exchangeRepo    exchange.Repository
	auditRepo       audit.Repository
	gateway         Gateway
	publisher       EventPublisher
	logger          *slog.Logger
}

// NewInstallmentService wires the lifecycle service
func NewInstallmentService(
	db TxRunner,
	installmentRepo installment.Repository,
	paymentRepo payment.Repository,
	invoiceRepo invoice.Repository,
	companyRepo company.Repository,
	ledgerRepo ledger.Repository,
	exchangeRepo exchange.Repository,
	auditRepo audit.Repository,
	gateway Gateway,
	publisher EventPublisher,
	logger *slog.Logger,
) *InstallmentService {
	return &InstallmentService{
		db:              db,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		invoiceRepo:     invoiceRepo,
		companyRepo:     companyRepo,
		ledgerRepo:      ledgerRepo,
		exchangeRepo:    exchangeRepo,
		auditRepo:       auditRepo,
		gateway:         gateway,
		publisher:       publisher,
		logger:          logger,
	}
}

// Get returns one installment
func (s *InstallmentService) Get(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	return s.installmentRepo.GetByID(ctx, id)
}

// recordStatusChange appends a STATUS_CHANGE audit event. Audit failures are
// logged and swallowed, the transition already happened.
func (s *InstallmentService) recordStatusChange(ctx context.Context, inst *installment.Installment, from shared.PixStatus, message string) {
	event := audit.NewEvent("installment", inst.ID.String(), audit.EventTypeStatusChange, "success", message)
	event.Details = map[string]interface{}{
		"from_status": string(from),
		"to_status":   string(inst.PixStatus),
		"txid":        inst.PixTxID,
	}
	if err := s.auditRepo.Append(ctx, event); err != nil {
		s.logger.Error("failed to append status change audit event", "installment_id", inst.ID, "error", err)
	}
}

// publishLifecycle emits a lifecycle event to Kafka. Broker failures are
// logged and swallowed, they never roll back a transition.
func (s *InstallmentService) publishLifecycle(ctx context.Context, inst *installment.Installment, from shared.PixStatus, correlationID string, occurredAt time.Time) {
	if s.publisher == nil {
		return
	}
	event := &shared.LifecycleEvent{
		InstallmentID: inst.ID,
		PaymentID:     inst.PaymentID,
		FromStatus:    from,
		ToStatus:      inst.PixStatus,
		TxID:          inst.PixTxID,
		CorrelationID: correlationID,
		OccurredAt:    occurredAt,
	}
	if err := s.publisher.Publish(ctx, inst.ID.String(), event); err != nil {
		s.logger.Error("failed to publish lifecycle event", "installment_id", inst.ID, "error", err)
	}
}

// marshalPayload renders a request body the way it is persisted for audit:
// indented, with non-ASCII text kept readable
func marshalPayload(v interface{}) (string, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
