package handler

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pix-disbursement-service/internal/domain/audit"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/service"
)

// LifecycleService is the single-installment surface the handler depends on
type LifecycleService interface {
	CreateInstallments(ctx context.Context, req service.CreateInstallmentsRequest) ([]*installment.Installment, error)
	Get(ctx context.Context, id uuid.UUID) (*installment.Installment, error)
	Send(ctx context.Context, id uuid.UUID) (*installment.Installment, error)
	Sync(ctx context.Context, id uuid.UUID) (*service.SyncResult, error)
	Unlink(ctx context.Context, id uuid.UUID, force bool) error
}

// BatchSyncer fans status polls out over the worker pool
type BatchSyncer interface {
	SyncPending(ctx context.Context, companyID uuid.UUID, limit int) ([]service.BatchItemResult, error)
}

const (
	defaultBatchSyncLimit  = 100
	defaultAuditTrailLimit = 50
)

// InstallmentHandler handles HTTP requests for installment lifecycle operations
type InstallmentHandler struct {
	lifecycle LifecycleService
	batch     BatchSyncer
	auditRepo audit.Repository
	logger    *slog.Logger
}

// NewInstallmentHandler creates a new installment handler
func NewInstallmentHandler(logger *slog.Logger, lifecycle LifecycleService, batch BatchSyncer, auditRepo audit.Repository) *InstallmentHandler {
	return &InstallmentHandler{
		lifecycle: lifecycle,
		batch:     batch,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Create creates draft installments against a posted supplier invoice
func (h *InstallmentHandler) Create(c *gin.Context) {
	var req CreateInstallmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		RespondBadRequest(c, "Invalid invoice ID")
		return
	}
	payeeID, err := uuid.Parse(req.PayeeBankAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid payee bank account ID")
		return
	}
	journalID := uuid.Nil
	if req.JournalID != "" {
		journalID, err = uuid.Parse(req.JournalID)
		if err != nil {
			RespondBadRequest(c, "Invalid journal ID")
			return
		}
	}

	splits := make([]service.InstallmentSplit, 0, len(req.Splits))
	for _, split := range req.Splits {
		dueDate, err := time.Parse("2006-01-02", split.DueDate)
		if err != nil {
			RespondBadRequest(c, "Invalid due date: "+split.DueDate)
			return
		}
		splits = append(splits, service.InstallmentSplit{Amount: split.Amount, DueDate: dueDate})
	}

	created, err := h.lifecycle.CreateInstallments(c.Request.Context(), service.CreateInstallmentsRequest{
		InvoiceID:          invoiceID,
		JournalID:          journalID,
		PayeeBankAccountID: payeeID,
		Memo:               req.Memo,
		Splits:             splits,
	})
	if err != nil {
		h.logger.Error("Failed to create installments", "invoice_id", req.InvoiceID, "error", err)
		RespondDomainError(c, err)
		return
	}

	responses := make([]InstallmentResponse, 0, len(created))
	for _, inst := range created {
		responses = append(responses, mapInstallmentToResponse(inst))
	}
	RespondCreated(c, responses)
}

// GetByID retrieves installment details by ID, returns 404 if not found
func (h *InstallmentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	inst, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get installment", "id", id, "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondOK(c, mapInstallmentToResponse(inst))
}

// Send submits the installment to the bank gateway
func (h *InstallmentHandler) Send(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	inst, err := h.lifecycle.Send(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to send installment", "id", id, "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondOK(c, mapInstallmentToResponse(inst))
}

// Sync polls the bank for the installment's settlement status
func (h *InstallmentHandler) Sync(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.lifecycle.Sync(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to sync installment", "id", id, "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondOK(c, result)
}

// SyncPending polls every pending installment of a company across the worker pool
func (h *InstallmentHandler) SyncPending(c *gin.Context) {
	var req BatchSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		RespondBadRequest(c, "Invalid company ID")
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultBatchSyncLimit
	}

	results, err := h.batch.SyncPending(c.Request.Context(), companyID, limit)
	if err != nil {
		h.logger.Error("Failed to sync pending installments", "company_id", req.CompanyID, "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondOK(c, gin.H{"count": len(results), "items": results})
}

// Delete removes an installment. Paid installments require ?force=true.
func (h *InstallmentHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	force := c.Query("force") == "true"

	if err := h.lifecycle.Unlink(c.Request.Context(), id, force); err != nil {
		h.logger.Error("Failed to delete installment", "id", id, "force", force, "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondNoContent(c)
}

// AuditTrail returns the audit events recorded for the installment, newest first
func (h *InstallmentHandler) AuditTrail(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	limit := defaultAuditTrailLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondBadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	events, err := h.auditRepo.ListByEntity(c.Request.Context(), "installment", id.String(), limit)
	if err != nil {
		h.logger.Error("Failed to list audit events", "id", id, "error", err)
		RespondDomainError(c, err)
		return
	}

	RespondOK(c, events)
}

func (h *InstallmentHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid installment ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid installment ID")
		return uuid.Nil, false
	}
	return id, true
}
