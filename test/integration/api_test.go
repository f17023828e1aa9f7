package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystonemortgage/backend/internal/app"
	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/handler"
	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/repository"
	"github.com/keystonemortgage/backend/internal/service"
)

const adminPassword = "correct horse battery staple"

// passwordHash is computed once; bcrypt is slow on purpose.
var passwordHash = func() string {
	hash, err := service.HashPassword(adminPassword)
	if err != nil {
		panic(err)
	}
	return hash
}()

// apiDeps are the services behind a test router
type apiDeps struct {
	Snapshots repository.SnapshotRepository
	Leads     repository.LeadRepository
	Pipeline  *app.Pipeline
}

// newRouter mounts the API the same way cmd/api does
func newRouter(t *testing.T, deps apiDeps) *chi.Mux {
	t.Helper()

	rateService := service.NewRateService(deps.Snapshots, service.DefaultRateServiceConfig())
	contactService := service.NewContactService(deps.Leads, nil)
	adminService := service.NewAdminService(passwordHash, "integration-secret")

	var refresher handler.RefreshServiceInterface
	if deps.Pipeline != nil {
		refresher = service.NewRefreshService(deps.Pipeline.Orchestrator, rateService, nil)
	}

	rateHandler := handler.NewRateHandler(rateService)
	contactHandler := handler.NewContactHandler(contactService)
	adminHandler := handler.NewAdminHandler(adminService, rateService, refresher, nil, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/rates", rateHandler.GetRates)
	r.Get("/api/rates/regions", rateHandler.ListRegions)
	r.Post("/api/contact", contactHandler.Submit)
	r.Post("/api/admin/login", adminHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(handler.AdminAuth(adminService))

		r.Put("/api/admin/rates/{region}", adminHandler.PublishRates)
		r.Get("/api/admin/rates/{region}/history", adminHandler.GetHistory)
		r.Get("/api/admin/leads", contactHandler.ListLeads)
		if refresher != nil {
			r.Post("/api/admin/rates/refresh", adminHandler.RefreshRates)
			r.Get("/api/admin/scraper-health", adminHandler.GetScraperHealth)
		}
	})

	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/admin/login", "", handler.LoginRequest{Password: adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func fileStore(t *testing.T) repository.SnapshotRepository {
	t.Helper()
	repo, err := repository.NewFileSnapshotRepository(filepath.Join(t.TempDir(), "rates"))
	require.NoError(t, err)
	return repo
}

func torontoSnapshot() *model.RateSnapshot {
	return &model.RateSnapshot{
		Source:    "RateHub",
		URL:       "https://www.ratehub.ca/best-mortgage-rates",
		ScrapedAt: time.Now().Add(-2 * time.Hour).UTC(),
		Rates: []model.RateRecord{
			{Term: "5 Year", Rate: "4.79%", Type: model.RateTypeFixed, Lender: "RMG", Payment: "$2,278.83"},
			{Term: "3 Year", Rate: "4.99%", Type: model.RateTypeFixed, Lender: "MCAP", Payment: "$2,324.14"},
			{Term: "5 Year", Rate: "5.95%", Type: model.RateTypeVariable, Lender: "TD", Payment: "$2,547.35"},
		},
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})

	rec := doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_Rates_UnavailableWithoutSnapshot(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})

	rec := doJSON(t, r, http.MethodGet, "/api/rates", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.UnavailableErrorKind, body["error"])
	assert.Contains(t, body["message"], "1-800-555-0199")
	assert.NotContains(t, body, "rates")
}

func TestAPI_PublishThenRead(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})
	token := login(t, r)

	rec := doJSON(t, r, http.MethodPut, "/api/admin/rates/Toronto", token, torontoSnapshot())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var published handler.PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &published))
	assert.Equal(t, "toronto", published.Region)

	rec = doJSON(t, r, http.MethodGet, "/api/rates?region=toronto", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rates model.RatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rates))
	assert.Equal(t, "RateHub", rates.Source)
	assert.Equal(t, 2, rates.DataAge)
	assert.False(t, rates.Stale)

	var popular []string
	for _, provider := range rates.Rates {
		for _, rate := range provider.Rates {
			if rate.Popular {
				popular = append(popular, rate.Term+" "+string(rate.Type))
			}
		}
	}
	assert.Equal(t, []string{"5 Year Fixed"}, popular)

	rec = doJSON(t, r, http.MethodGet, "/api/rates/regions", "", nil)
	assert.JSONEq(t, `["toronto"]`, rec.Body.String())
}

func TestAPI_Publish_RequiresToken(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})

	rec := doJSON(t, r, http.MethodPut, "/api/admin/rates/toronto", "", torontoSnapshot())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPut, "/api/admin/rates/toronto", "not-a-token", torontoSnapshot())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_Publish_RejectsInvalidSnapshot(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})
	token := login(t, r)

	snap := torontoSnapshot()
	snap.Rates = nil
	rec := doJSON(t, r, http.MethodPut, "/api/admin/rates/toronto", token, snap)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/rates?region=toronto", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "rejected snapshot is not stored")
}

func TestAPI_Login_WrongPassword(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})

	rec := doJSON(t, r, http.MethodPost, "/api/admin/login", "", handler.LoginRequest{Password: "guess"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_Contact(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})

	rec := doJSON(t, r, http.MethodPost, "/api/contact", "", model.ContactRequest{
		Name:     "Priya Natarajan",
		Email:    "priya@example.com",
		Message:  "My renewal is coming up in March.",
		LoanType: "renewal",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.ContactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	rec = doJSON(t, r, http.MethodPost, "/api/contact", "", model.ContactRequest{Name: "No Email", Message: "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_RefreshFromManualProducer(t *testing.T) {
	dir := t.TempDir()
	manual := filepath.Join(dir, "toronto.yaml")
	require.NoError(t, os.WriteFile(manual, []byte(`
rates:
  - term: 5 Year
    rate: "4.79%"
    type: Fixed
    lender: RMG
  - term: 3 Year
    rate: "4.99%"
    type: Fixed
    lender: MCAP
`), 0o644))
	producers := filepath.Join(dir, "producers.yaml")
	require.NoError(t, os.WriteFile(producers, []byte(`
min_delay: 1ms
max_delay: 2ms
producers:
  - name: toronto-manual
    region: toronto
    kind: manual
    source: Keystone Mortgage
    file: `+manual+`
`), 0o644))

	pipeline, err := app.BuildPipeline(&config.Config{
		ProducersFile:     producers,
		PaymentPrincipal:  400000,
		AmortizationYears: 25,
	}, nil)
	require.NoError(t, err)
	defer pipeline.Close()

	r := newRouter(t, apiDeps{Snapshots: fileStore(t), Pipeline: pipeline})
	token := login(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/admin/rates/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var refresh handler.RefreshResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refresh))
	require.Len(t, refresh.Summary.Published, 1)
	assert.Equal(t, "toronto", refresh.Summary.Published[0].Region)

	rec = doJSON(t, r, http.MethodGet, "/api/rates?region=toronto", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rates model.RatesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rates))
	assert.Equal(t, "Keystone Mortgage", rates.Source)

	rec = doJSON(t, r, http.MethodGet, "/api/admin/scraper-health", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/admin/rates/refresh?region=calgary", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_NotFound(t *testing.T) {
	r := newRouter(t, apiDeps{Snapshots: fileStore(t)})

	rec := doJSON(t, r, http.MethodGet, "/api/nonexistent", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
