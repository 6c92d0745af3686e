package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

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

// fakeTxRunner runs the function directly; repository mocks ignore the tx
type fakeTxRunner struct{}

func (fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type MockInstallmentRepo struct {
	mock.Mock
}

func (m *MockInstallmentRepo) Create(ctx context.Context, inst *installment.Installment) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func (m *MockInstallmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.Installment), args.Error(1)
}

func (m *MockInstallmentRepo) ListByStatus(ctx context.Context, companyID uuid.UUID, status shared.PixStatus, limit int) ([]*installment.Installment, error) {
	args := m.Called(ctx, companyID, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*installment.Installment), args.Error(1)
}

func (m *MockInstallmentRepo) Update(ctx context.Context, inst *installment.Installment) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func (m *MockInstallmentRepo) MarkPaidIfNot(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInstallmentRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*installment.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.Installment), args.Error(1)
}

func (m *MockInstallmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInstallmentRepo) WithTx(tx pgx.Tx) installment.Repository {
	return m
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, pmt *payment.Payment) error {
	args := m.Called(ctx, pmt)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) Update(ctx context.Context, pmt *payment.Payment) error {
	args := m.Called(ctx, pmt)
	return args.Error(0)
}

func (m *MockPaymentRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) WithTx(tx pgx.Tx) payment.Repository {
	return m
}

type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) WithTx(tx pgx.Tx) invoice.Repository {
	return m
}

type MockCompanyRepo struct {
	mock.Mock
}

func (m *MockCompanyRepo) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyRepo) GetJournal(ctx context.Context, id uuid.UUID) (*company.Journal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Journal), args.Error(1)
}

func (m *MockCompanyRepo) GetBankAccount(ctx context.Context, id uuid.UUID) (*company.BankAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.BankAccount), args.Error(1)
}

func (m *MockCompanyRepo) FindBankJournalWithAccount(ctx context.Context, companyID uuid.UUID) (*company.Journal, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Journal), args.Error(1)
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) PostEntry(ctx context.Context, entry *ledger.Entry) (uuid.UUID, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockLedgerRepo) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) GetLine(ctx context.Context, id uuid.UUID) (*ledger.Line, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Line), args.Error(1)
}

func (m *MockLedgerRepo) GetPayableLines(ctx context.Context, entryID, partnerID uuid.UUID) ([]*ledger.Line, error) {
	args := m.Called(ctx, entryID, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Line), args.Error(1)
}

func (m *MockLedgerRepo) MarkPosted(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockLedgerRepo) Reconcile(ctx context.Context, lineIDs []uuid.UUID) error {
	args := m.Called(ctx, lineIDs)
	return args.Error(0)
}

func (m *MockLedgerRepo) WithTx(tx pgx.Tx) ledger.Repository {
	return m
}

type MockExchangeRepo struct {
	mock.Mock
}

func (m *MockExchangeRepo) Create(ctx context.Context, rec *exchange.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockExchangeRepo) GetByID(ctx context.Context, id uuid.UUID) (*exchange.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Record), args.Error(1)
}

func (m *MockExchangeRepo) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*exchange.Record, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Record), args.Error(1)
}

func (m *MockExchangeRepo) FindByTxID(ctx context.Context, txid string) (*exchange.Record, error) {
	args := m.Called(ctx, txid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Record), args.Error(1)
}

func (m *MockExchangeRepo) FindByCorrelationID(ctx context.Context, correlationID string) (*exchange.Record, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Record), args.Error(1)
}

func (m *MockExchangeRepo) UpdateState(ctx context.Context, id uuid.UUID, state shared.ExchangeState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *MockExchangeRepo) WithTx(tx pgx.Tx) exchange.Repository {
	return m
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

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SendTransfer(ctx context.Context, req itau.SendRequest) (*exchange.Record, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Record), args.Error(1)
}

func (m *MockGateway) PaymentStatus(ctx context.Context, txid string) (string, error) {
	args := m.Called(ctx, txid)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
