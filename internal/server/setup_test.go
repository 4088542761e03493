package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"invoiceflow/internal/logger"
	"invoiceflow/internal/mailer"
	"invoiceflow/internal/pdf"
	"invoiceflow/internal/testutil"
	"invoiceflow/internal/validator"
)

const testResendKey = "re_abcdefghijklmnopqrstuvwxyz_123"

// fakeSender records outgoing messages instead of calling the provider.
type fakeSender struct {
	mu       sync.Mutex
	err      error
	messages []mailer.Message
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("msg_%d", len(f.messages)), nil
}

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Sender *fakeSender
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func defaultOptions() Options {
	return Options{CORSOrigin: "*", AuthRateLimit: 1000, AuthRateBurst: 1000}
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	return setupAppWithOptions(t, defaultOptions())
}

func setupAppWithOptions(t *testing.T, opts Options) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	sender := &fakeSender{}
	svc := NewServices(db, pdf.NewRenderer(), sender, testResendKey)
	return &testApp{DB: db, Router: NewRouter(svc, opts), Sender: sender}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	d, ok := parseJSON(t, rec)["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got %s", rec.Body.String())
	}
	return d
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %s, got %v", code, errObj["code"])
	}
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Owner","email":%q,"password":"password123","companyName":"Studio %s"}`, email, email)
	rec := app.request("POST", "/api/auth/register", body, "")
	expectStatus(t, rec, http.StatusCreated)
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createClient creates a client and returns its ID.
func (app *testApp) createClient(t *testing.T, token, name, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"email":%q}`, name, email)
	rec := app.request("POST", "/api/clients", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return data(t, rec)["id"].(string)
}

// createInvoice creates the reference two-item invoice and returns its data.
func (app *testApp) createInvoice(t *testing.T, token, clientID string) map[string]interface{} {
	t.Helper()
	body := fmt.Sprintf(`{"clientId":%q,"dueDate":"2030-01-31","taxRate":10,
		"items":[{"description":"A","quantity":2,"price":10},{"description":"B","quantity":1,"price":5}]}`, clientID)
	rec := app.request("POST", "/api/invoices", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return data(t, rec)
}
