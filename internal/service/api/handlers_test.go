package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"field_visits/internal/model"
	"field_visits/internal/repository/memory"
	"field_visits/internal/service/export"
	"field_visits/internal/service/visits"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

var errStoreDown = errors.New("store unavailable")

// downRepo имитирует недоступное хранилище.
type downRepo struct {
	*memory.VisitRepository
}

func (downRepo) InsertCustomer(context.Context, *model.Customer) error { return errStoreDown }
func (downRepo) InsertPartnerVisit(context.Context, *model.PartnerVisit) error {
	return errStoreDown
}
func (downRepo) FindCustomers(context.Context, model.VisitFilter) ([]model.Customer, error) {
	return nil, errStoreDown
}
func (downRepo) Ping(context.Context) error { return errStoreDown }

type testServer struct {
	router *gin.Engine
	repo   *memory.VisitRepository
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	repo := memory.NewVisitRepository()
	logger := zaptest.NewLogger(t)
	svc := visits.NewService(repo, time.UTC, logger)
	return testServer{
		router: NewRouter(NewHandler(svc, repo, logger), Options{CORSOrigin: "*"}),
		repo:   repo,
	}
}

func newDownServer(t *testing.T) *gin.Engine {
	t.Helper()
	repo := downRepo{memory.NewVisitRepository()}
	logger := zaptest.NewLogger(t)
	svc := visits.NewService(repo, time.UTC, logger)
	return NewRouter(NewHandler(svc, repo, logger), Options{})
}

func do(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func customerBody(name, at string) map[string]any {
	return map[string]any{
		"name": name, "arn": "ARN-1", "sip": "1", "health": "0", "motor": "2", "mf": "1", "life": "0",
		"visitingDateTime": at, "customerImage": "https://img/x.jpg",
		"latitude": 26.9124, "longitude": 75.7873,
	}
}

func TestCreateCustomer_Created(t *testing.T) {
	s := newTestServer(t)

	w := do(s.router, http.MethodPost, "/api/customers", customerBody("Ravi", "2024-01-15T10:30"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Customer saved successfully", message(t, w))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	stored, _ := s.repo.FindCustomers(context.Background(), model.VisitFilter{})
	require.Len(t, stored, 1)
	assert.Equal(t, "Ravi", stored[0].Name)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), *stored[0].VisitingDateTime)
	assert.Equal(t, 26.9124, *stored[0].Latitude)
}

func TestCreateCustomer_WithoutVisitTime(t *testing.T) {
	s := newTestServer(t)

	body := customerBody("Ravi", "")
	delete(body, "visitingDateTime")
	w := do(s.router, http.MethodPost, "/api/customers", body)
	require.Equal(t, http.StatusCreated, w.Code)

	stored, _ := s.repo.FindCustomers(context.Background(), model.VisitFilter{})
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].VisitingDateTime)
}

func TestCreateCustomer_InvalidVisitTimeRejected(t *testing.T) {
	s := newTestServer(t)

	w := do(s.router, http.MethodPost, "/api/customers", customerBody("Ravi", "not a date"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid visitingDateTime", message(t, w))

	stored, _ := s.repo.FindCustomers(context.Background(), model.VisitFilter{})
	assert.Empty(t, stored)
}

func TestCreateCustomer_MalformedJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/customers", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCustomer_ConvertsScalarTypes(t *testing.T) {
	s := newTestServer(t)

	body := customerBody("Ravi", "2024-01-15T10:30")
	body["sip"] = 5000
	body["life"] = true
	body["latitude"] = "26.9"
	body["longitude"] = ""
	w := do(s.router, http.MethodPost, "/api/customers", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, _ := s.repo.FindCustomers(context.Background(), model.VisitFilter{})
	require.Len(t, stored, 1)
	assert.Equal(t, "5000", stored[0].SIP)
	assert.Equal(t, "true", stored[0].Life)
	require.NotNil(t, stored[0].Latitude)
	assert.Equal(t, 26.9, *stored[0].Latitude)
	assert.Nil(t, stored[0].Longitude)
}

func TestCreatePartnerVisit_ConvertsScalarTypes(t *testing.T) {
	s := newTestServer(t)

	w := do(s.router, http.MethodPost, "/api/partner-visits", map[string]any{
		"employeeName": "Sunil", "customerContact": 9876543210, "insurance": 2.5, "mfSif": 0,
		"latitude": "26.8", "longitude": 76,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, _ := s.repo.FindPartnerVisits(context.Background(), model.VisitFilter{})
	require.Len(t, stored, 1)
	assert.Equal(t, "9876543210", stored[0].CustomerContact)
	assert.Equal(t, "2.5", stored[0].Insurance)
	assert.Equal(t, "0", stored[0].MFSIF)
	assert.Equal(t, 26.8, *stored[0].Latitude)
	assert.Equal(t, 76.0, *stored[0].Longitude)
}

func TestCreateCustomer_NonScalarRejected(t *testing.T) {
	s := newTestServer(t)

	body := customerBody("Ravi", "2024-01-15T10:30")
	body["sip"] = map[string]any{"amount": 1}
	w := do(s.router, http.MethodPost, "/api/customers", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = customerBody("Ravi", "2024-01-15T10:30")
	body["latitude"] = "north"
	w = do(s.router, http.MethodPost, "/api/customers", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, _ := s.repo.FindCustomers(context.Background(), model.VisitFilter{})
	assert.Empty(t, stored)
}

func TestCreateCustomer_StoreUnavailable(t *testing.T) {
	r := newDownServer(t)

	w := do(r, http.MethodPost, "/api/customers", customerBody("Ravi", "2024-01-15T10:30"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server error", message(t, w))
}

func seed(t *testing.T, s testServer) {
	t.Helper()
	for _, b := range []map[string]any{
		customerBody("ABC Traders", "2024-01-01T00:00"),
		customerBody("xyzabc", "2024-01-31T21:00"),
		customerBody("Priya", "2024-01-20T10:00"),
		customerBody("abc february", "2024-02-01T00:00"),
	} {
		require.Equal(t, http.StatusCreated, do(s.router, http.MethodPost, "/api/customers", b).Code)
	}
}

func readRows(t *testing.T, w *httptest.ResponseRecorder, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func firstColumn(rows [][]string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows[1:] {
		out = append(out, r[0])
	}
	return out
}

func TestExportCustomers_NameFilter(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	w := do(s.router, http.MethodGet, "/api/customers/excel?name=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=customers_data.xlsx", w.Header().Get("Content-Disposition"))

	rows := readRows(t, w, "Customers")
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, []string{"ABC Traders", "xyzabc", "abc february"}, firstColumn(rows))
}

func TestExportCustomers_DateRangeInclusive(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	w := do(s.router, http.MethodGet, "/api/customers/excel?startDate=2024-01-01&endDate=2024-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ABC Traders", "xyzabc", "Priya"}, firstColumn(readRows(t, w, "Customers")))

	w = do(s.router, http.MethodGet, "/api/customers/excel?startDate=2024-01-20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"xyzabc", "Priya", "abc february"}, firstColumn(readRows(t, w, "Customers")))
}

func TestExportCustomers_RowProjection(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	w := do(s.router, http.MethodGet, "/api/customers/excel?name=priya", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := readRows(t, w, "Customers")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"Priya", "ARN-1", "1", "0", "2", "1", "0", "1/20/2024, 10:00:00 AM", "https://img/x.jpg", "26.9124", "75.7873",
	}, rows[1])
}

func TestExportCustomers_NotFound(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	w := do(s.router, http.MethodGet, "/api/customers/excel?name=nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No data found for given filters", message(t, w))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestExportCustomers_BadDate(t *testing.T) {
	s := newTestServer(t)

	w := do(s.router, http.MethodGet, "/api/customers/excel?startDate=01-2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCustomers_StoreUnavailable(t *testing.T) {
	r := newDownServer(t)

	w := do(r, http.MethodGet, "/api/customers/excel", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error generating Excel", message(t, w))
}

func TestPartnerVisits_CreateAndExport(t *testing.T) {
	s := newTestServer(t)

	w := do(s.router, http.MethodPost, "/api/partner-visits", map[string]any{
		"employeeName": "Sunil", "customerName": "Meena", "customerContact": "9876543210",
		"customerEmail": "meena@example.com", "cityVillage": "Bassi", "tehsil": "", "district": "Jaipur",
		"state": "Rajasthan", "visitingDateTime": "2024-02-01T11:00", "insurance": "2", "mfSif": "0",
		"statusOfConversation": "yes", "customerImage": "https://img/p.jpg", "latitude": 26.8, "longitude": 76.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(s.router, http.MethodGet, "/api/partner-visits/excel?name=SUN", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=partner_visits_data.xlsx", w.Header().Get("Content-Disposition"))
	rows := readRows(t, w, "Partner Visits")
	require.Len(t, rows, 2)
	assert.Equal(t, "Meena", rows[1][1])

	w = do(s.router, http.MethodGet, "/api/partner-visits/excel?name=nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(s.router, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(newDownServer(t), http.MethodGet, "/healthz", nil).Code)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	repo := memory.NewVisitRepository()
	logger := zaptest.NewLogger(t)
	r := NewRouter(NewHandler(visits.NewService(repo, time.UTC, logger), repo, logger),
		Options{CORSOrigin: "https://forms.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/customers", nil)
	req.Header.Set("Origin", "https://forms.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://forms.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
