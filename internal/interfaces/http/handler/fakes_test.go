package handler_test

import (
	"github.com/erp/vatchallan/internal/interfaces/http/handler"

	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/vatchallan/internal/application/invoicing"
	"github.com/erp/vatchallan/internal/application/masterdata"
	"github.com/erp/vatchallan/internal/application/registration"
	"github.com/erp/vatchallan/internal/application/report"
	"github.com/erp/vatchallan/internal/application/vendorconfig"
	"github.com/erp/vatchallan/internal/domain/challan"
	"github.com/erp/vatchallan/internal/interfaces/http/middleware"
	"github.com/erp/vatchallan/internal/interfaces/http/router"
)

// ---------------------------------------------------------------------------
// Fakes shared by the handler tests
// ---------------------------------------------------------------------------

type fakeGateway struct {
	zones        []challan.RemoteRow[challan.Zone]
	fetchErr     error
	authExpiry   time.Time
	authErr      error
	regResult    *challan.RegistrationResult
	regErr       error
	docResult    *challan.RegistrationResult
	docErr       error
	submitResult *challan.ChallanResult
	submitErr    error
	returnResult *challan.ChallanResult
	returnErr    error
	document     *challan.ChallanDocument
	downloadErr  error
}

func (g *fakeGateway) Authenticate(ctx context.Context) (time.Time, error) {
	return g.authExpiry, g.authErr
}

func (g *fakeGateway) FetchZones(ctx context.Context) ([]challan.RemoteRow[challan.Zone], error) {
	return g.zones, g.fetchErr
}

func (g *fakeGateway) FetchDivisions(ctx context.Context) ([]challan.RemoteRow[challan.Division], error) {
	return nil, g.fetchErr
}

func (g *fakeGateway) FetchCircles(ctx context.Context) ([]challan.RemoteRow[challan.Circle], error) {
	return nil, g.fetchErr
}

func (g *fakeGateway) FetchCommissionRates(ctx context.Context) ([]challan.RemoteRow[challan.CommissionRate], error) {
	return nil, g.fetchErr
}

func (g *fakeGateway) FetchServiceTypes(ctx context.Context) ([]challan.RemoteRow[challan.ServiceType], error) {
	return nil, g.fetchErr
}

func (g *fakeGateway) RegisterRetailer(ctx context.Context, r *challan.RetailerRegistration) (*challan.RegistrationResult, error) {
	return g.regResult, g.regErr
}

func (g *fakeGateway) RegisterBranch(ctx context.Context, remoteRetailerID string, b *challan.BranchRegistration) (*challan.RegistrationResult, error) {
	return g.regResult, g.regErr
}

func (g *fakeGateway) UploadDocument(ctx context.Context, doc *challan.DocumentUpload) (*challan.RegistrationResult, error) {
	return g.docResult, g.docErr
}

func (g *fakeGateway) SubmitChallan(ctx context.Context, inv *challan.VATInvoice) (*challan.ChallanResult, error) {
	return g.submitResult, g.submitErr
}

func (g *fakeGateway) ReturnChallan(ctx context.Context, inv *challan.VATInvoice, amount, returnInvoiceNo string) (*challan.ChallanResult, error) {
	return g.returnResult, g.returnErr
}

func (g *fakeGateway) DownloadChallan(ctx context.Context, challanID string) (*challan.ChallanDocument, error) {
	return g.document, g.downloadErr
}

type fakeReferenceRepo struct {
	zones        map[string]*challan.Zone
	divisions    map[string]*challan.Division
	circles      map[string]*challan.Circle
	rates        map[string]*challan.CommissionRate
	serviceTypes map[string]*challan.ServiceType
}

func newFakeReferenceRepo() *fakeReferenceRepo {
	return &fakeReferenceRepo{
		zones:        make(map[string]*challan.Zone),
		divisions:    make(map[string]*challan.Division),
		circles:      make(map[string]*challan.Circle),
		rates:        make(map[string]*challan.CommissionRate),
		serviceTypes: make(map[string]*challan.ServiceType),
	}
}

func (r *fakeReferenceRepo) UpsertZone(ctx context.Context, z *challan.Zone) (bool, error) {
	_, existed := r.zones[z.RemoteID]
	r.zones[z.RemoteID] = z
	return !existed, nil
}

func (r *fakeReferenceRepo) UpsertDivision(ctx context.Context, d *challan.Division) (bool, error) {
	_, existed := r.divisions[d.RemoteID]
	r.divisions[d.RemoteID] = d
	return !existed, nil
}

func (r *fakeReferenceRepo) UpsertCircle(ctx context.Context, c *challan.Circle) (bool, error) {
	_, existed := r.circles[c.RemoteID]
	r.circles[c.RemoteID] = c
	return !existed, nil
}

func (r *fakeReferenceRepo) UpsertCommissionRate(ctx context.Context, cr *challan.CommissionRate) (bool, error) {
	_, existed := r.rates[cr.RemoteID]
	r.rates[cr.RemoteID] = cr
	return !existed, nil
}

func (r *fakeReferenceRepo) UpsertServiceType(ctx context.Context, s *challan.ServiceType) (bool, error) {
	_, existed := r.serviceTypes[s.RemoteID]
	r.serviceTypes[s.RemoteID] = s
	return !existed, nil
}

func (r *fakeReferenceRepo) ListZones(ctx context.Context) ([]challan.Zone, error) {
	out := make([]challan.Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, *z)
	}
	return out, nil
}

func (r *fakeReferenceRepo) ListDivisions(ctx context.Context, filter challan.ReferenceFilter) ([]challan.Division, error) {
	out := make([]challan.Division, 0, len(r.divisions))
	for _, d := range r.divisions {
		if filter.ZoneRemoteID != "" && d.ZoneRemoteID != filter.ZoneRemoteID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeReferenceRepo) ListCircles(ctx context.Context, filter challan.ReferenceFilter) ([]challan.Circle, error) {
	out := make([]challan.Circle, 0, len(r.circles))
	for _, c := range r.circles {
		if filter.DivisionRemoteID != "" && c.DivisionRemoteID != filter.DivisionRemoteID {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeReferenceRepo) ListCommissionRates(ctx context.Context, filter challan.ReferenceFilter) ([]challan.CommissionRate, error) {
	out := make([]challan.CommissionRate, 0, len(r.rates))
	for _, cr := range r.rates {
		out = append(out, *cr)
	}
	return out, nil
}

func (r *fakeReferenceRepo) ListServiceTypes(ctx context.Context) ([]challan.ServiceType, error) {
	out := make([]challan.ServiceType, 0, len(r.serviceTypes))
	for _, s := range r.serviceTypes {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeReferenceRepo) FindDivisionByRemoteID(ctx context.Context, remoteID string) (*challan.Division, error) {
	d, ok := r.divisions[remoteID]
	if !ok {
		return nil, challan.ErrDivisionNotFound
	}
	return d, nil
}

func (r *fakeReferenceRepo) FindCircleByRemoteID(ctx context.Context, remoteID string) (*challan.Circle, error) {
	c, ok := r.circles[remoteID]
	if !ok {
		return nil, challan.ErrCircleNotFound
	}
	return c, nil
}

func (r *fakeReferenceRepo) FindCommissionRateByRemoteID(ctx context.Context, remoteID string) (*challan.CommissionRate, error) {
	cr, ok := r.rates[remoteID]
	if !ok {
		return nil, challan.ErrCommissionRateNotFound
	}
	return cr, nil
}

func (r *fakeReferenceRepo) FindServiceTypeByRemoteID(ctx context.Context, remoteID string) (*challan.ServiceType, error) {
	s, ok := r.serviceTypes[remoteID]
	if !ok {
		return nil, challan.ErrServiceTypeNotFound
	}
	return s, nil
}

type fakeRegistrationRepo struct {
	retailers map[uuid.UUID]*challan.RetailerRegistration
	branches  map[uuid.UUID]*challan.BranchRegistration
	documents map[uuid.UUID][]challan.RetailerDocument
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		retailers: make(map[uuid.UUID]*challan.RetailerRegistration),
		branches:  make(map[uuid.UUID]*challan.BranchRegistration),
		documents: make(map[uuid.UUID][]challan.RetailerDocument),
	}
}

func (r *fakeRegistrationRepo) SaveRetailer(ctx context.Context, reg *challan.RetailerRegistration) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
		reg.CreatedAt = time.Now()
	}
	reg.UpdatedAt = time.Now()
	clone := *reg
	r.retailers[reg.ID] = &clone
	return nil
}

func (r *fakeRegistrationRepo) FindRetailer(ctx context.Context, id uuid.UUID) (*challan.RetailerRegistration, error) {
	reg, ok := r.retailers[id]
	if !ok {
		return nil, challan.ErrRetailerNotFound
	}
	clone := *reg
	return &clone, nil
}

func (r *fakeRegistrationRepo) ListRetailers(ctx context.Context) ([]challan.RetailerRegistration, error) {
	out := make([]challan.RetailerRegistration, 0, len(r.retailers))
	for _, reg := range r.retailers {
		out = append(out, *reg)
	}
	return out, nil
}

func (r *fakeRegistrationRepo) SaveBranch(ctx context.Context, b *challan.BranchRegistration) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = time.Now()
	clone := *b
	r.branches[b.ID] = &clone
	return nil
}

func (r *fakeRegistrationRepo) FindBranch(ctx context.Context, id uuid.UUID) (*challan.BranchRegistration, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, challan.ErrBranchNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeRegistrationRepo) ListBranches(ctx context.Context, retailerID uuid.UUID) ([]challan.BranchRegistration, error) {
	var out []challan.BranchRegistration
	for _, b := range r.branches {
		if b.RetailerID == retailerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) SaveDocument(ctx context.Context, d *challan.RetailerDocument) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
		d.CreatedAt = time.Now()
	}
	r.documents[d.RetailerID] = append(r.documents[d.RetailerID], *d)
	return nil
}

func (r *fakeRegistrationRepo) ListDocuments(ctx context.Context, retailerID uuid.UUID) ([]challan.RetailerDocument, error) {
	return r.documents[retailerID], nil
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
	inv.UpdatedAt = time.Now()
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
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.InvoiceNumber != "" && inv.InvoiceNumber != filter.InvoiceNumber {
			continue
		}
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

type fakeConfigRepo struct {
	current *challan.VendorConfiguration
}

func (r *fakeConfigRepo) FindCurrent(ctx context.Context) (*challan.VendorConfiguration, error) {
	if r.current == nil {
		return nil, challan.ErrConfigNotFound
	}
	clone := *r.current
	return &clone, nil
}

func (r *fakeConfigRepo) Save(ctx context.Context, cfg *challan.VendorConfiguration) error {
	clone := *cfg
	r.current = &clone
	return nil
}

func (r *fakeConfigRepo) SaveToken(ctx context.Context, id uuid.UUID, token, companyID string, expiresAt time.Time) error {
	if r.current != nil && r.current.ID == id {
		r.current.ApplyToken(token, companyID, expiresAt)
	}
	return nil
}

type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	s.objects[key] = content
	return nil
}

func (s *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	content, ok := s.objects[key]
	if !ok {
		return nil, "", challan.ErrInvoiceNotFound
	}
	return content, "application/pdf", nil
}

func (s *fakeObjectStore) URL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

type noopCache struct{}

func (noopCache) GetList(ctx context.Context, key string, out any) (bool, error) { return false, nil }
func (noopCache) SetList(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (noopCache) Invalidate(ctx context.Context, keys ...string) error { return nil }

type fakeReportRepo struct {
	serviceTypeRows []challan.SalesSummary
	branchRows      []challan.SalesSummary
}

func (r *fakeReportRepo) ServiceTypeWiseSales(ctx context.Context, period challan.ReportPeriod) ([]challan.SalesSummary, error) {
	return r.serviceTypeRows, nil
}

func (r *fakeReportRepo) BranchWiseSales(ctx context.Context, retailerID *uuid.UUID, period challan.ReportPeriod) ([]challan.SalesSummary, error) {
	return r.branchRows, nil
}

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

type testEnv struct {
	engine  *gin.Engine
	gateway *fakeGateway
	refs    *fakeReferenceRepo
	regs    *fakeRegistrationRepo
	inv     *fakeInvoiceRepo
	configs *fakeConfigRepo
	store   *fakeObjectStore
	reports *fakeReportRepo
}

// newTestEnv builds the full API over in-memory fakes.
func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		gateway: &fakeGateway{},
		refs:    newFakeReferenceRepo(),
		regs:    newFakeRegistrationRepo(),
		inv:     newFakeInvoiceRepo(),
		configs: &fakeConfigRepo{},
		store:   newFakeObjectStore(),
		reports: &fakeReportRepo{},
	}

	logger := zap.NewNop()
	syncSvc := masterdata.NewSyncService(env.gateway, env.refs, noopCache{}, logger)
	listingSvc := masterdata.NewListingService(env.refs, noopCache{}, logger)
	configSvc := vendorconfig.NewService(env.configs, env.gateway, logger)
	regSvc := registration.NewService(env.gateway, env.regs, env.refs, env.store, logger)
	invSvc := invoicing.NewService(env.gateway, env.inv, env.regs, env.refs, env.store, logger)
	reportSvc := report.NewService(env.reports, env.inv, env.refs, logger)

	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine)
	router.RegisterAll(r, router.Handlers{
		System:       handler.NewSystemHandler(nil),
		MasterData:   handler.NewMasterDataHandler(syncSvc, listingSvc),
		VendorConfig: handler.NewVendorConfigHandler(configSvc),
		Registration: handler.NewRegistrationHandler(regSvc),
		Invoice:      handler.NewInvoiceHandler(invSvc),
		Report:       handler.NewReportHandler(reportSvc),
	})
	r.Setup()

	env.engine = engine
	return env
}

// apiResponse mirrors the response envelope for decoding in tests.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

// do performs a request against the test engine and decodes the envelope.
func (env *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	var resp apiResponse
	if ct := w.Header().Get("Content-Type"); w.Body.Len() > 0 && ct != "" && ct != "application/pdf" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

// seedJurisdiction loads a minimal consistent hierarchy into the reference
// repo: zone Z-1 > division D-1 > circle C-1, rate CR-1 at 7.5 percent and
// service type ST-1.
func (env *testEnv) seedJurisdiction() {
	env.refs.zones["Z-1"] = &challan.Zone{ID: uuid.New(), RemoteID: "Z-1", Name: "Dhaka North"}
	env.refs.divisions["D-1"] = &challan.Division{ID: uuid.New(), RemoteID: "D-1", Name: "Gulshan", ZoneRemoteID: "Z-1"}
	env.refs.circles["C-1"] = &challan.Circle{ID: uuid.New(), RemoteID: "C-1", Name: "Circle 7", DivisionRemoteID: "D-1", ZoneRemoteID: "Z-1"}
	env.refs.rates["CR-1"] = &challan.CommissionRate{
		ID:           uuid.New(),
		RemoteID:     "CR-1",
		Name:         "Standard",
		Rate:         decimal.NewFromFloat(7.5),
		ZoneRemoteID: "Z-1",
	}
	env.refs.serviceTypes["ST-1"] = &challan.ServiceType{ID: uuid.New(), RemoteID: "ST-1", Code: "REST", Name: "Restaurant"}
}

// seedRegisteredRetailer stores a retailer that already carries a remote id.
func (env *testEnv) seedRegisteredRetailer() *challan.RetailerRegistration {
	reg := &challan.RetailerRegistration{
		ID:           uuid.New(),
		BusinessName: "Demo Mart",
		OwnerName:    "Rahim",
		Jurisdiction: challan.JurisdictionSelection{
			ZoneRemoteID:     "Z-1",
			DivisionRemoteID: "D-1",
			CircleRemoteID:   "C-1",
		},
		CommissionRateID: "CR-1",
		ServiceTypes:     []string{"ST-1"},
		RemoteRetailerID: "RET-100",
		Status:           challan.RegistrationStatusRegistered,
		CreatedAt:        time.Now(),
	}
	env.regs.retailers[reg.ID] = reg
	return reg
}
