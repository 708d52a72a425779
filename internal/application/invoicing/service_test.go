package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeGateway struct {
	challan.AuthorityGateway

	submitResult *challan.ChallanResult
	submitErr    error
	submitCalls  int

	returnResult *challan.ChallanResult
	returnErr    error
	returnAmount string

	document    *challan.ChallanDocument
	downloadErr error
}

func (g *fakeGateway) SubmitChallan(ctx context.Context, inv *challan.VATInvoice) (*challan.ChallanResult, error) {
	g.submitCalls++
	return g.submitResult, g.submitErr
}

func (g *fakeGateway) ReturnChallan(ctx context.Context, inv *challan.VATInvoice, amount, returnInvoiceNo string) (*challan.ChallanResult, error) {
	g.returnAmount = amount
	return g.returnResult, g.returnErr
}

func (g *fakeGateway) DownloadChallan(ctx context.Context, challanID string) (*challan.ChallanDocument, error) {
	return g.document, g.downloadErr
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*challan.VATInvoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*challan.VATInvoice)}
}

func (r *fakeInvoiceRepo) Save(ctx context.Context, inv *challan.VATInvoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
		inv.CreatedAt = time.Now()
	}
	clone := *inv
	r.invoices[inv.ID] = &clone
	return nil
}

func (r *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*challan.VATInvoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, challan.ErrInvoiceNotFound
	}
	clone := *inv
	return &clone, nil
}

func (r *fakeInvoiceRepo) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*challan.VATInvoice, error) {
	for _, inv := range r.invoices {
		if inv.InvoiceNumber == invoiceNumber {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, challan.ErrInvoiceNotFound
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter challan.InvoiceFilter) ([]challan.VATInvoice, error) {
	var out []challan.VATInvoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) ListSyncable(ctx context.Context) ([]challan.VATInvoice, error) {
	var out []challan.VATInvoice
	for _, inv := range r.invoices {
		if inv.Status.CanSync() {
			out = append(out, *inv)
		}
	}
	return out, nil
}

type fakeRegistrationRepo struct {
	challan.RegistrationRepository

	retailers map[uuid.UUID]*challan.RetailerRegistration
	branches  map[uuid.UUID]*challan.BranchRegistration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		retailers: make(map[uuid.UUID]*challan.RetailerRegistration),
		branches:  make(map[uuid.UUID]*challan.BranchRegistration),
	}
}

func (r *fakeRegistrationRepo) FindRetailer(ctx context.Context, id uuid.UUID) (*challan.RetailerRegistration, error) {
	reg, ok := r.retailers[id]
	if !ok {
		return nil, challan.ErrRetailerNotFound
	}
	return reg, nil
}

func (r *fakeRegistrationRepo) FindBranch(ctx context.Context, id uuid.UUID) (*challan.BranchRegistration, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, challan.ErrBranchNotFound
	}
	return b, nil
}

type fakeReferenceRepo struct {
	challan.ReferenceRepository

	rates map[string]*challan.CommissionRate
}

func newFakeReferenceRepo() *fakeReferenceRepo {
	return &fakeReferenceRepo{rates: make(map[string]*challan.CommissionRate)}
}

func (r *fakeReferenceRepo) FindCommissionRateByRemoteID(ctx context.Context, remoteID string) (*challan.CommissionRate, error) {
	rate, ok := r.rates[remoteID]
	if !ok {
		return nil, challan.ErrCommissionRateNotFound
	}
	return rate, nil
}

func (r *fakeReferenceRepo) ListCommissionRates(ctx context.Context, filter challan.ReferenceFilter) ([]challan.CommissionRate, error) {
	var out []challan.CommissionRate
	for _, rate := range r.rates {
		out = append(out, *rate)
	}
	return out, nil
}

type fakeObjectStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = content
	return nil
}

func (s *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return data, "application/pdf", nil
}

func (s *fakeObjectStore) URL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	return "https://storage.example.com/" + key + "?signed=1", nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type fixture struct {
	gateway  *fakeGateway
	invoices *fakeInvoiceRepo
	regs     *fakeRegistrationRepo
	refs     *fakeReferenceRepo
	store    *fakeObjectStore
	svc      *Service
	retailer *challan.RetailerRegistration
}

func newFixture() *fixture {
	f := &fixture{
		gateway:  &fakeGateway{},
		invoices: newFakeInvoiceRepo(),
		regs:     newFakeRegistrationRepo(),
		refs:     newFakeReferenceRepo(),
		store:    newFakeObjectStore(),
	}

	f.retailer = &challan.RetailerRegistration{
		ID:               uuid.New(),
		BusinessName:     "Dhanmondi Eats",
		RemoteRetailerID: "RET-100",
		Jurisdiction: challan.JurisdictionSelection{
			ZoneRemoteID:     "Z-1",
			DivisionRemoteID: "D-1",
			CircleRemoteID:   "C-1",
		},
		CommissionRateID: "CR-1",
		Status:           challan.RegistrationStatusRegistered,
	}
	f.regs.retailers[f.retailer.ID] = f.retailer
	f.refs.rates["CR-1"] = &challan.CommissionRate{
		RemoteID: "CR-1",
		Rate:     decimal.NewFromFloat(7.5),
	}

	f.svc = NewService(f.gateway, f.invoices, f.regs, f.refs, f.store, nil)
	return f
}

func (f *fixture) saleInput(invoiceNumber string) CreateInvoiceInput {
	return CreateInvoiceInput{
		InvoiceNumber:  invoiceNumber,
		OrderID:        "ORD-9",
		InvoiceDate:    time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC),
		RetailerID:     f.retailer.ID,
		CustomerID:     "CUST-5",
		ServiceType:    "ST-1",
		PaymentMethod:  "cash",
		TxnAmount:      decimal.NewFromInt(1000),
		DiscountAmount: decimal.NewFromInt(100),
		ServiceCharge:  decimal.NewFromInt(50),
	}
}

func (f *fixture) syncedInvoice(t *testing.T) *challan.VATInvoice {
	t.Helper()
	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)
	require.NoError(t, inv.MarkSynced("CH-77", `{"status":"success"}`))
	require.NoError(t, f.invoices.Save(context.Background(), inv))
	return inv
}

// ---------------------------------------------------------------------------
// CreateFromSale
// ---------------------------------------------------------------------------

func TestCreateFromSale_ComputesAmounts(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))

	require.NoError(t, err)
	assert.Equal(t, challan.InvoiceStatusPending, inv.Status)
	assert.Equal(t, "RET-100", inv.RemoteRetailerID)
	// taxable = 1000 - 100 + 50 = 950; VAT = 950 * 7.5% = 71.25
	assert.True(t, inv.VATAmount.Equal(decimal.RequireFromString("71.25")), inv.VATAmount.String())
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("1021.25")), inv.TotalAmount.String())
	assert.True(t, inv.ReturnedAmount.IsZero())
}

func TestCreateFromSale_IdempotentOnInvoiceNumber(t *testing.T) {
	f := newFixture()
	first, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)

	input := f.saleInput("INV-1001")
	input.TxnAmount = decimal.NewFromInt(9999)
	second, err := f.svc.CreateFromSale(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.TxnAmount.Equal(first.TxnAmount))
	assert.Len(t, f.invoices.invoices, 1)
}

func TestCreateFromSale_RequiresRegisteredRetailer(t *testing.T) {
	f := newFixture()
	f.retailer.Status = challan.RegistrationStatusSubmitted

	_, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	assert.ErrorIs(t, err, challan.ErrRetailerNotRegistered)
}

func TestCreateFromSale_CapturesBranchRemoteID(t *testing.T) {
	f := newFixture()
	branchID := uuid.New()
	f.regs.branches[branchID] = &challan.BranchRegistration{
		ID:             branchID,
		RetailerID:     f.retailer.ID,
		RemoteBranchID: "BR-7",
		Status:         challan.RegistrationStatusRegistered,
	}

	input := f.saleInput("INV-1001")
	input.BranchID = &branchID
	inv, err := f.svc.CreateFromSale(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "BR-7", inv.RemoteBranchID)
}

func TestCreateFromSale_FallsBackToCoveringRate(t *testing.T) {
	f := newFixture()
	// The configured rate no longer covers the retailer's zone; a general rate
	// does.
	f.refs.rates["CR-1"].ZoneRemoteID = "Z-9"
	f.refs.rates["CR-2"] = &challan.CommissionRate{RemoteID: "CR-2", Rate: decimal.NewFromInt(5)}

	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)
	assert.True(t, inv.VATRate.Equal(decimal.NewFromInt(5)))
}

// ---------------------------------------------------------------------------
// SyncInvoice
// ---------------------------------------------------------------------------

func TestSyncInvoice_Accepted(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)

	f.gateway.submitResult = &challan.ChallanResult{
		ChallanID: "CH-77",
		Accepted:  true,
		Raw:       `{"status":"success","challan_id":"CH-77"}`,
	}

	synced, err := f.svc.SyncInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, challan.InvoiceStatusSynced, synced.Status)
	assert.Equal(t, "CH-77", synced.RemoteChallanID)
}

func TestSyncInvoice_RejectionMarksFailedWithRaw(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)

	f.gateway.submitResult = &challan.ChallanResult{
		Accepted: false,
		Raw:      `{"status":"failed","message":"invalid service type"}`,
	}

	failed, err := f.svc.SyncInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, challan.InvoiceStatusFailed, failed.Status)
	assert.Contains(t, failed.LastResponse, "invalid service type")
	assert.True(t, failed.Status.CanSync(), "rejected invoice stays retryable")
}

func TestSyncInvoice_TransportErrorMarksFailed(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)

	f.gateway.submitErr = challan.ErrAuthorityUnavailable

	_, err = f.svc.SyncInvoice(context.Background(), inv.ID)
	assert.ErrorIs(t, err, challan.ErrAuthorityUnavailable)

	stored, findErr := f.invoices.FindByID(context.Background(), inv.ID)
	require.NoError(t, findErr)
	assert.Equal(t, challan.InvoiceStatusFailed, stored.Status)
}

func TestSyncInvoice_SyncedInvoiceNotSyncable(t *testing.T) {
	f := newFixture()
	inv := f.syncedInvoice(t)

	_, err := f.svc.SyncInvoice(context.Background(), inv.ID)
	assert.ErrorIs(t, err, challan.ErrInvoiceNotSyncable)
	assert.Equal(t, 0, f.gateway.submitCalls)
}

func TestAutoSyncInvoices_ContinuesPastFailures(t *testing.T) {
	f := newFixture()
	for _, number := range []string{"INV-1", "INV-2", "INV-3"} {
		_, err := f.svc.CreateFromSale(context.Background(), f.saleInput(number))
		require.NoError(t, err)
	}

	// Every submission is rejected; the batch still processes all three.
	f.gateway.submitResult = &challan.ChallanResult{Accepted: false, Raw: `{"status":"failed"}`}

	outcomes, err := f.svc.AutoSyncInvoices(context.Background())
	require.NoError(t, err)
	assert.Len(t, outcomes, 3)
	assert.Equal(t, 3, f.gateway.submitCalls)
	for _, outcome := range outcomes {
		assert.Equal(t, challan.InvoiceStatusFailed, outcome.Status)
	}
}

// ---------------------------------------------------------------------------
// ReturnInvoice
// ---------------------------------------------------------------------------

func TestReturnInvoice_PartialThenFull(t *testing.T) {
	f := newFixture()
	inv := f.syncedInvoice(t)
	f.gateway.returnResult = &challan.ChallanResult{Accepted: true, Raw: `{"status":"success"}`}

	partial, err := f.svc.ReturnInvoice(context.Background(), inv.ID, decimal.RequireFromString("21.25"), "RINV-1")
	require.NoError(t, err)
	assert.Equal(t, challan.InvoiceStatusPartlyReturn, partial.Status)
	assert.Equal(t, "21.25", f.gateway.returnAmount)

	full, err := f.svc.ReturnInvoice(context.Background(), inv.ID, decimal.NewFromInt(1000), "RINV-2")
	require.NoError(t, err)
	assert.Equal(t, challan.InvoiceStatusReturn, full.Status)
	assert.True(t, full.ReturnedAmount.Equal(full.TotalAmount))
	// VATAmount is never recomputed by a return.
	assert.True(t, full.VATAmount.Equal(inv.VATAmount))
}

func TestReturnInvoice_ValidatesBeforeCallingAuthority(t *testing.T) {
	f := newFixture()
	inv := f.syncedInvoice(t)

	_, err := f.svc.ReturnInvoice(context.Background(), inv.ID, decimal.NewFromInt(99999), "RINV-1")
	assert.ErrorIs(t, err, challan.ErrReturnExceedsInvoice)

	_, err = f.svc.ReturnInvoice(context.Background(), inv.ID, decimal.Zero, "RINV-1")
	assert.ErrorIs(t, err, challan.ErrReturnAmountInvalid)
}

func TestReturnInvoice_RejectionLeavesInvoiceUnchanged(t *testing.T) {
	f := newFixture()
	inv := f.syncedInvoice(t)
	f.gateway.returnResult = &challan.ChallanResult{Accepted: false, Raw: `{"status":"failed","message":"return window closed"}`}

	_, err := f.svc.ReturnInvoice(context.Background(), inv.ID, decimal.NewFromInt(100), "RINV-1")
	require.ErrorIs(t, err, challan.ErrAuthorityRequestFailed)

	stored, findErr := f.invoices.FindByID(context.Background(), inv.ID)
	require.NoError(t, findErr)
	assert.Equal(t, challan.InvoiceStatusSynced, stored.Status)
	assert.True(t, stored.ReturnedAmount.IsZero())
	assert.Contains(t, stored.LastResponse, "return window closed")
}

func TestReturnInvoice_PendingInvoiceNotReturnable(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)

	_, err = f.svc.ReturnInvoice(context.Background(), inv.ID, decimal.NewFromInt(10), "RINV-1")
	assert.ErrorIs(t, err, challan.ErrInvoiceNotReturnable)
}

// ---------------------------------------------------------------------------
// DownloadSchallan
// ---------------------------------------------------------------------------

func TestDownloadSchallan_StoresCopyAndSignsURL(t *testing.T) {
	f := newFixture()
	inv := f.syncedInvoice(t)
	f.gateway.document = &challan.ChallanDocument{
		FileName:    "schallan_CH-77.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4 challan"),
	}

	doc, url, err := f.svc.DownloadSchallan(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "schallan_CH-77.pdf", doc.FileName)
	assert.Contains(t, url, "schallans/CH-77.pdf")
	assert.Contains(t, f.store.objects, "schallans/CH-77.pdf")

	stored, findErr := f.invoices.FindByID(context.Background(), inv.ID)
	require.NoError(t, findErr)
	assert.Equal(t, "schallans/CH-77.pdf", stored.SchallanURL)
	assert.Equal(t, challan.InvoiceStatusSynced, stored.Status, "download never changes status")
}

func TestDownloadSchallan_RequiresChallan(t *testing.T) {
	f := newFixture()
	inv, err := f.svc.CreateFromSale(context.Background(), f.saleInput("INV-1001"))
	require.NoError(t, err)

	_, _, err = f.svc.DownloadSchallan(context.Background(), inv.ID)
	assert.ErrorIs(t, err, challan.ErrInvoiceNotSynced)
}
