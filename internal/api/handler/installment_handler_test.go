package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pix-disbursement-service/internal/domain/audit"
	"github.com/pix-disbursement-service/internal/domain/installment"
	"github.com/pix-disbursement-service/internal/domain/shared"
	"github.com/pix-disbursement-service/internal/service"
)

type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) CreateInstallments(ctx context.Context, req service.CreateInstallmentsRequest) ([]*installment.Installment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*installment.Installment), args.Error(1)
}

func (m *MockLifecycleService) Get(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.Installment), args.Error(1)
}

func (m *MockLifecycleService) Send(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.Installment), args.Error(1)
}

func (m *MockLifecycleService) Sync(ctx context.Context, id uuid.UUID) (*service.SyncResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func (m *MockLifecycleService) Unlink(ctx context.Context, id uuid.UUID, force bool) error {
	args := m.Called(ctx, id, force)
	return args.Error(0)
}

type MockBatchSyncer struct {
	mock.Mock
}

func (m *MockBatchSyncer) SyncPending(ctx context.Context, companyID uuid.UUID, limit int) ([]service.BatchItemResult, error) {
	args := m.Called(ctx, companyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.BatchItemResult), args.Error(1)
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Append(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepo) ListByEntity(ctx context.Context, entityKind, entityID string, limit int) ([]*audit.Event, error) {
	args := m.Called(ctx, entityKind, entityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Event), args.Error(1)
}

func testHandler() (*InstallmentHandler, *MockLifecycleService, *MockBatchSyncer, *MockAuditRepo) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	lifecycle := new(MockLifecycleService)
	batch := new(MockBatchSyncer)
	auditRepo := new(MockAuditRepo)
	return NewInstallmentHandler(logger, lifecycle, batch, auditRepo), lifecycle, batch, auditRepo
}

func testRouter(h *InstallmentHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/installments", h.Create)
	router.POST("/installments/sync", h.SyncPending)
	router.GET("/installments/:id", h.GetByID)
	router.POST("/installments/:id/send", h.Send)
	router.POST("/installments/:id/sync", h.Sync)
	router.GET("/installments/:id/audit", h.AuditTrail)
	router.DELETE("/installments/:id", h.Delete)
	return router
}

func newInstallment(t *testing.T) *installment.Installment {
	t.Helper()
	inst, err := installment.New(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 150000, "BRL", time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	return inst
}

func TestInstallmentHandler_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		inst := newInstallment(t)
		lifecycle.On("CreateInstallments", mock.Anything, mock.MatchedBy(func(req service.CreateInstallmentsRequest) bool {
			return len(req.Splits) == 2 && req.Splits[0].Amount == 100000 && req.Splits[1].Amount == 50000
		})).Return([]*installment.Installment{inst}, nil)

		reqBody := CreateInstallmentsRequest{
			InvoiceID:          uuid.New().String(),
			PayeeBankAccountID: uuid.New().String(),
			Memo:               "NF 1234",
			Splits: []SplitRequest{
				{Amount: 100000, DueDate: "2026-09-15"},
				{Amount: 50000, DueDate: "2026-10-15"},
			},
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/installments", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var response struct {
			Data []InstallmentResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, inst.ID.String(), response.Data[0].ID)
		assert.Equal(t, "draft", response.Data[0].PixStatus)
		lifecycle.AssertExpectations(t)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		h, _, _, _ := testHandler()
		router := testRouter(h)

		req, _ := http.NewRequest(http.MethodPost, "/installments", bytes.NewBufferString(`{"splits": []}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("InvalidDueDate", func(t *testing.T) {
		h, _, _, _ := testHandler()
		router := testRouter(h)

		reqBody := CreateInstallmentsRequest{
			InvoiceID:          uuid.New().String(),
			PayeeBankAccountID: uuid.New().String(),
			Splits:             []SplitRequest{{Amount: 100000, DueDate: "15/09/2026"}},
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/installments", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("AmountExceedsOutstanding", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		lifecycle.On("CreateInstallments", mock.Anything, mock.Anything).
			Return(nil, shared.NewValidationError("requested amount exceeds outstanding payable"))

		reqBody := CreateInstallmentsRequest{
			InvoiceID:          uuid.New().String(),
			PayeeBankAccountID: uuid.New().String(),
			Splits:             []SplitRequest{{Amount: 100000, DueDate: "2026-09-15"}},
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/installments", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInstallmentHandler_GetByID(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		inst := newInstallment(t)
		lifecycle.On("Get", mock.Anything, inst.ID).Return(inst, nil)

		req, _ := http.NewRequest(http.MethodGet, "/installments/"+inst.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Data InstallmentResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, inst.ID.String(), response.Data.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Get", mock.Anything, id).Return(nil, installment.ErrInstallmentNotFound{InstallmentID: id})

		req, _ := http.NewRequest(http.MethodGet, "/installments/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		h, _, _, _ := testHandler()
		router := testRouter(h)

		req, _ := http.NewRequest(http.MethodGet, "/installments/not-a-uuid", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInstallmentHandler_Send(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		inst := newInstallment(t)
		inst.MarkPending("1234567890abcdef123456789", "{}", time.Now())
		lifecycle.On("Send", mock.Anything, inst.ID).Return(inst, nil)

		req, _ := http.NewRequest(http.MethodPost, "/installments/"+inst.ID.String()+"/send", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Data InstallmentResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, "pending", response.Data.PixStatus)
		assert.Equal(t, "1234567890abcdef123456789", response.Data.PixTxID)
	})

	t.Run("AlreadySent", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Send", mock.Anything, id).
			Return(nil, installment.ErrAlreadySent{InstallmentID: id, Status: shared.PixStatusPending})

		req, _ := http.NewRequest(http.MethodPost, "/installments/"+id.String()+"/send", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("MissingPixKeyIsConfiguration", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Send", mock.Anything, id).
			Return(nil, shared.NewConfigError("payee bank account has no PIX key"))

		req, _ := http.NewRequest(http.MethodPost, "/installments/"+id.String()+"/send", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("GatewayDown", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Send", mock.Anything, id).
			Return(nil, shared.NewTransportError(errors.New("connection refused"), "failed to reach gateway"))

		req, _ := http.NewRequest(http.MethodPost, "/installments/"+id.String()+"/send", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestInstallmentHandler_Sync(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Sync", mock.Anything, id).Return(&service.SyncResult{
			InstallmentID:    id,
			BankStatus:       shared.BankStatusCompleted,
			FromStatus:       shared.PixStatusPending,
			ToStatus:         shared.PixStatusPaid,
			SettlementPosted: true,
		}, nil)

		req, _ := http.NewRequest(http.MethodPost, "/installments/"+id.String()+"/sync", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Data service.SyncResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, shared.PixStatusPaid, response.Data.ToStatus)
		assert.True(t, response.Data.SettlementPosted)
	})

	t.Run("NeverSent", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Sync", mock.Anything, id).
			Return(nil, shared.NewValidationError("installment has no txid, it was never sent"))

		req, _ := http.NewRequest(http.MethodPost, "/installments/"+id.String()+"/sync", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInstallmentHandler_SyncPending(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, _, batch, _ := testHandler()
		router := testRouter(h)

		companyID := uuid.New()
		batch.On("SyncPending", mock.Anything, companyID, 100).Return([]service.BatchItemResult{
			{InstallmentID: uuid.New(), Result: &service.SyncResult{ToStatus: shared.PixStatusPaid}},
			{InstallmentID: uuid.New(), Error: "gateway timeout"},
		}, nil)

		jsonBody, _ := json.Marshal(BatchSyncRequest{CompanyID: companyID.String()})
		req, _ := http.NewRequest(http.MethodPost, "/installments/sync", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Data struct {
				Count int                       `json:"count"`
				Items []service.BatchItemResult `json:"items"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, 2, response.Data.Count)
		batch.AssertExpectations(t)
	})

	t.Run("InvalidCompanyID", func(t *testing.T) {
		h, _, _, _ := testHandler()
		router := testRouter(h)

		req, _ := http.NewRequest(http.MethodPost, "/installments/sync", bytes.NewBufferString(`{"company_id": "nope"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestInstallmentHandler_Delete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Unlink", mock.Anything, id, false).Return(nil)

		req, _ := http.NewRequest(http.MethodDelete, "/installments/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("PaidWithoutForce", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Unlink", mock.Anything, id, false).Return(installment.ErrPaidImmutable)

		req, _ := http.NewRequest(http.MethodDelete, "/installments/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("ForceFlagIsForwarded", func(t *testing.T) {
		h, lifecycle, _, _ := testHandler()
		router := testRouter(h)

		id := uuid.New()
		lifecycle.On("Unlink", mock.Anything, id, true).Return(nil)

		req, _ := http.NewRequest(http.MethodDelete, "/installments/"+id.String()+"?force=true", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		lifecycle.AssertExpectations(t)
	})
}

func TestInstallmentHandler_AuditTrail(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, _, _, auditRepo := testHandler()
		router := testRouter(h)

		id := uuid.New()
		events := []*audit.Event{
			audit.NewEvent("installment", id.String(), audit.EventTypeStatusChange, "success", "bank confirmed payment"),
		}
		auditRepo.On("ListByEntity", mock.Anything, "installment", id.String(), 50).Return(events, nil)

		req, _ := http.NewRequest(http.MethodGet, "/installments/"+id.String()+"/audit", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Data []audit.Event `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, audit.EventTypeStatusChange, response.Data[0].Type)
	})

	t.Run("CustomLimit", func(t *testing.T) {
		h, _, _, auditRepo := testHandler()
		router := testRouter(h)

		id := uuid.New()
		auditRepo.On("ListByEntity", mock.Anything, "installment", id.String(), 5).Return([]*audit.Event{}, nil)

		req, _ := http.NewRequest(http.MethodGet, "/installments/"+id.String()+"/audit?limit=5", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		auditRepo.AssertExpectations(t)
	})
}
