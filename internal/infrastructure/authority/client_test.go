package authority

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// fakeConfigRepo is an in-memory VendorConfigurationRepository.
type fakeConfigRepo struct {
	mu  sync.Mutex
	cfg *challan.VendorConfiguration
}

func (r *fakeConfigRepo) FindCurrent(ctx context.Context) (*challan.VendorConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		return nil, challan.ErrConfigNotFound
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *fakeConfigRepo) Save(ctx context.Context, cfg *challan.VendorConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cfg
	r.cfg = &cp
	return nil
}

func (r *fakeConfigRepo) SaveToken(ctx context.Context, id uuid.UUID, token, companyID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.AccessToken = token
	r.cfg.CompanyID = companyID
	r.cfg.TokenExpiresAt = &expiresAt
	return nil
}

func newFakeConfigRepo(baseURL string) *fakeConfigRepo {
	return &fakeConfigRepo{cfg: &challan.VendorConfiguration{
		ID:           uuid.New(),
		BaseURL:      baseURL,
		ClientID:     "client-1",
		ClientSecret: "secret-1",
	}}
}

func tokenXML(token string, expiresAt time.Time) string {
	return `<response><access_token>` + token + `</access_token>` +
		`<expiry_time>` + expiresAt.Format(expiryTimeLayout) + `</expiry_time>` +
		`<company_id>COMP-1</company_id></response>`
}

func TestClient_Authenticate(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, authenticatePath, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-1", user)
		assert.Equal(t, "secret-1", pass)
		w.Write([]byte(tokenXML("tok-1", expiry)))
	}))
	defer server.Close()

	repo := newFakeConfigRepo(server.URL)
	client := NewClient(repo)

	got, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expiry, got.Truncate(time.Second))

	cfg, _ := repo.FindCurrent(context.Background())
	assert.Equal(t, "tok-1", cfg.AccessToken)
	assert.Equal(t, "COMP-1", cfg.CompanyID)
}

func TestClient_Authenticate_BadXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not xml at all"))
	}))
	defer server.Close()

	client := NewClient(newFakeConfigRepo(server.URL))
	_, err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, challan.ErrAuthorityInvalidResponse)
	// The raw body is kept in the error for the audit trail.
	assert.Contains(t, err.Error(), "not xml at all")
}

func TestClient_Authenticate_MissingCredentials(t *testing.T) {
	repo := newFakeConfigRepo("https://vat.example.gov")
	repo.cfg.ClientSecret = ""

	client := NewClient(repo)
	_, err := client.Authenticate(context.Background())
	assert.ErrorIs(t, err, challan.ErrConfigMissingSecret)
}

func TestClient_TokenReuse(t *testing.T) {
	var authCalls int
	expiry := time.Now().Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case authenticatePath:
			authCalls++
			w.Write([]byte(tokenXML("tok-1", expiry)))
		case zoneListPath:
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.Write([]byte(`{"status":"success","data":[]}`))
		}
	}))
	defer server.Close()

	client := NewClient(newFakeConfigRepo(server.URL))

	for range 3 {
		_, err := client.FetchZones(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, authCalls, "valid token must be reused")
}

func TestClient_UnauthorizedRetriesOnce(t *testing.T) {
	var authCalls, listCalls int
	expiry := time.Now().Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case authenticatePath:
			authCalls++
			w.Write([]byte(tokenXML("tok-2", expiry)))
		case zoneListPath:
			listCalls++
			// The stored token is stale; only the refreshed one passes.
			if r.Header.Get("Authorization") != "Bearer tok-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"status":"success","data":[{"zone_id":"Z1","zone_name":"North"}]}`))
		}
	}))
	defer server.Close()

	repo := newFakeConfigRepo(server.URL)
	stale := time.Now().Add(time.Hour)
	repo.cfg.AccessToken = "tok-stale"
	repo.cfg.TokenExpiresAt = &stale

	client := NewClient(repo)
	rows, err := client.FetchZones(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Z1", rows[0].Value.RemoteID)
	assert.Equal(t, 1, authCalls)
	assert.Equal(t, 2, listCalls)
}

func TestClient_UnauthorizedTwiceFails(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authenticatePath {
			w.Write([]byte(tokenXML("tok-3", expiry)))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(newFakeConfigRepo(server.URL))
	_, err := client.FetchZones(context.Background())
	assert.ErrorIs(t, err, challan.ErrAuthorityAuthFailed)
}

func TestClient_FetchZones_SkipsMalformedRows(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authenticatePath {
			w.Write([]byte(tokenXML("tok", expiry)))
			return
		}
		w.Write([]byte(`{"status":"success","data":[
			{"zone_id":"Z1","zone_name":"North"},
			{"zone_name":"missing id"},
			{"zone_id":"Z2","zone_name":"South"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(newFakeConfigRepo(server.URL))
	rows, err := client.FetchZones(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.NoError(t, rows[0].Err)
	assert.Error(t, rows[1].Err)
	assert.Contains(t, rows[1].Raw, "missing id")
	assert.NoError(t, rows[2].Err)
	assert.Equal(t, "Z2", rows[2].Value.RemoteID)
}

func TestClient_FetchCommissionRates(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authenticatePath {
			w.Write([]byte(tokenXML("tok", expiry)))
			return
		}
		require.Equal(t, commissionRateListPath, r.URL.Path)
		w.Write([]byte(`{"status":"success","data":[
			{"vat_commissionrate_id":"R1","rate":7.5,"zone_id":"Z1","service_type_id":"ST1"},
			{"vat_commissionrate_id":"R2","rate":"15.00"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(newFakeConfigRepo(server.URL))
	rows, err := client.FetchCommissionRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Rates arrive both as numbers and strings.
	assert.True(t, rows[0].Value.Rate.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, rows[1].Value.Rate.Equal(decimal.RequireFromString("15")))
	assert.Equal(t, "ST1", rows[0].Value.ServiceTypeRemoteID)
}

func TestClient_RegisterRetailer(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	tests := []struct {
		name         string
		response     string
		statusCode   int
		wantRemoteID string
		wantExisting bool
		wantErr      bool
	}{
		{
			name:         "registered",
			response:     `{"status":"success","message":"registered","retailer_id":"RT-9"}`,
			statusCode:   http.StatusOK,
			wantRemoteID: "RT-9",
		},
		{
			name:         "already exists is success",
			response:     `{"status":"error","message":"Retailer already exists","retailer_id":"RT-9"}`,
			statusCode:   http.StatusOK,
			wantRemoteID: "RT-9",
			wantExisting: true,
		},
		{
			name:       "validation rejection",
			response:   `{"status":"error","message":"invalid trade license"}`,
			statusCode: http.StatusUnprocessableEntity,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == authenticatePath {
					w.Write([]byte(tokenXML("tok", expiry)))
					return
				}
				require.Equal(t, retailerRegistrationPath, r.URL.Path)
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient(newFakeConfigRepo(server.URL))
			result, err := client.RegisterRetailer(context.Background(), &challan.RetailerRegistration{
				BusinessName: "Acme Stores",
				Jurisdiction: challan.JurisdictionSelection{ZoneRemoteID: "Z1", DivisionRemoteID: "D1", CircleRemoteID: "C1"},
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, challan.ErrAuthorityRequestFailed)
				// Raw payload travels with the error.
				assert.Contains(t, err.Error(), "invalid trade license")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemoteID, result.RemoteID)
			assert.Equal(t, tt.wantExisting, result.AlreadyExists)
			assert.JSONEq(t, tt.response, result.Raw)
		})
	}
}

func TestClient_UploadDocument(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authenticatePath {
			w.Write([]byte(tokenXML("tok", expiry)))
			return
		}
		require.Equal(t, uploadFilePath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "RT-9", r.FormValue("retailer_id"))
		assert.Equal(t, "trade_license", r.FormValue("document_category"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "license.pdf", header.Filename)

		w.Write([]byte(`{"status":"success","message":"received"}`))
	}))
	defer server.Close()

	client := NewClient(newFakeConfigRepo(server.URL))
	result, err := client.UploadDocument(context.Background(), &challan.DocumentUpload{
		RemoteRetailerID: "RT-9",
		Category:         challan.DocumentCategoryTradeLicense,
		FileName:         "license.pdf",
		Content:          []byte("%PDF-1.4 fake"),
	})
	require.NoError(t, err)
	assert.Equal(t, "received", result.Message)
}

func TestClient_UploadDocument_RequiresRemoteID(t *testing.T) {
	client := NewClient(newFakeConfigRepo("https://vat.example.gov"))
	_, err := client.UploadDocument(context.Background(), &challan.DocumentUpload{
		Category: challan.DocumentCategoryNID,
		FileName: "nid.png",
		Content:  []byte("png"),
	})
	assert.ErrorIs(t, err, challan.ErrRetailerNotRegistered)
}

func TestClient_SubmitChallan(t *testing.T) {
	expiry := time.Now().Add(time.Hour)

	t.Run("accepted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authenticatePath {
				w.Write([]byte(tokenXML("tok", expiry)))
				return
			}
			require.Equal(t, vatChallanPath, r.URL.Path)
			w.Write([]byte(`{"status":"success","challan_id":"CH-55","message":"ok"}`))
		}))
		defer server.Close()

		client := NewClient(newFakeConfigRepo(server.URL))
		result, err := client.SubmitChallan(context.Background(), submittableInvoice())
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.Equal(t, "CH-55", result.ChallanID)
	})

	t.Run("rejection is a result, not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authenticatePath {
				w.Write([]byte(tokenXML("tok", expiry)))
				return
			}
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"status":"error","message":"vat_amount mismatch"}`))
		}))
		defer server.Close()

		client := NewClient(newFakeConfigRepo(server.URL))
		result, err := client.SubmitChallan(context.Background(), submittableInvoice())
		require.NoError(t, err)
		assert.False(t, result.Accepted)
		assert.Contains(t, result.Raw, "vat_amount mismatch")
	})

	t.Run("missing remote retailer id", func(t *testing.T) {
		client := NewClient(newFakeConfigRepo("https://vat.example.gov"))
		inv := submittableInvoice()
		inv.RemoteRetailerID = ""
		_, err := client.SubmitChallan(context.Background(), inv)
		assert.ErrorIs(t, err, challan.ErrRetailerNotRegistered)
	})
}

func TestClient_DownloadChallan(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	pdf := []byte("%PDF-1.4 schallan body")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == authenticatePath {
			w.Write([]byte(tokenXML("tok", expiry)))
			return
		}
		require.Equal(t, downloadSchallanPath, r.URL.Path)
		assert.Equal(t, "CH-55", r.URL.Query().Get("challan_id"))
		w.Write(pdf)
	}))
	defer server.Close()

	client := NewClient(newFakeConfigRepo(server.URL))
	doc, err := client.DownloadChallan(context.Background(), "CH-55")
	require.NoError(t, err)
	assert.Equal(t, pdf, doc.Content)
	assert.Equal(t, "schallan_CH-55.pdf", doc.FileName)
}

func submittableInvoice() *challan.VATInvoice {
	return &challan.VATInvoice{
		ID:               uuid.New(),
		InvoiceNumber:    "INV-0001",
		InvoiceDate:      time.Now(),
		RemoteRetailerID: "RT-9",
		ServiceType:      "ST1",
		TxnAmount:        decimal.NewFromInt(1000),
		VATRate:          decimal.NewFromInt(15),
		VATAmount:        decimal.NewFromInt(150),
		TotalAmount:      decimal.NewFromInt(1150),
		Status:           challan.InvoiceStatusPending,
	}
}
