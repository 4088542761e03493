package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/models"
	"invoiceflow/internal/pagination"
	"invoiceflow/internal/services"
)

type mockClientService struct {
	createClientFn   func(userID string, input services.ClientInput) (*models.Client, error)
	getUserClientsFn func(userID string, page pagination.PageRequest, search string) (*pagination.PageResponse[models.Client], error)
	getClientByIDFn  func(userID, clientID string) (*models.Client, error)
	updateClientFn   func(userID, clientID string, update services.ClientUpdate) (*models.Client, error)
	deleteClientFn   func(userID, clientID string) error
}

func (m *mockClientService) CreateClient(userID string, input services.ClientInput) (*models.Client, error) {
	if m.createClientFn != nil {
		return m.createClientFn(userID, input)
	}
	return &models.Client{}, nil
}

func (m *mockClientService) GetUserClients(userID string, page pagination.PageRequest, search string) (*pagination.PageResponse[models.Client], error) {
	if m.getUserClientsFn != nil {
		return m.getUserClientsFn(userID, page, search)
	}
	resp := pagination.NewPageResponse[models.Client](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockClientService) GetClientByID(userID, clientID string) (*models.Client, error) {
	if m.getClientByIDFn != nil {
		return m.getClientByIDFn(userID, clientID)
	}
	return &models.Client{}, nil
}

func (m *mockClientService) UpdateClient(userID, clientID string, update services.ClientUpdate) (*models.Client, error) {
	if m.updateClientFn != nil {
		return m.updateClientFn(userID, clientID, update)
	}
	return &models.Client{}, nil
}

func (m *mockClientService) DeleteClient(userID, clientID string) error {
	if m.deleteClientFn != nil {
		return m.deleteClientFn(userID, clientID)
	}
	return nil
}

func setupClientRouter(handler *ClientHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/clients", injectUserID(testUserID))
	g.GET("", handler.ListClients)
	g.POST("", handler.CreateClient)
	g.GET("/:id", handler.GetClient)
	g.PUT("/:id", handler.UpdateClient)
	g.DELETE("/:id", handler.DeleteClient)
	return r
}

func TestClientHandler_ListClients(t *testing.T) {
	t.Run("returns list envelope", func(t *testing.T) {
		var gotSearch string
		var gotPage pagination.PageRequest
		svc := &mockClientService{
			getUserClientsFn: func(userID string, page pagination.PageRequest, search string) (*pagination.PageResponse[models.Client], error) {
				gotSearch, gotPage = search, page
				resp := pagination.NewPageResponse([]models.Client{{Name: "Acme"}, {Name: "Beta"}}, 2, 2, 5)
				return &resp, nil
			},
		}
		r := setupClientRouter(NewClientHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/clients?page=2&pageSize=2&search=+ac+", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotSearch != "ac" {
			t.Errorf("expected trimmed search, got %q", gotSearch)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 2 {
			t.Errorf("unexpected page request %+v", gotPage)
		}
		result := parseJSON(t, rec)
		if result["success"] != true || result["count"] != float64(2) {
			t.Errorf("unexpected envelope %v", result)
		}
		if result["totalItems"] != float64(5) || result["totalPages"] != float64(3) {
			t.Errorf("unexpected totals %v / %v", result["totalItems"], result["totalPages"])
		}
		if data := result["data"].([]interface{}); len(data) != 2 {
			t.Errorf("expected 2 clients, got %d", len(data))
		}
	})

	t.Run("returns 400 on bad page size", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/clients?pageSize=1000", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestClientHandler_CreateClient(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		svc := &mockClientService{
			createClientFn: func(userID string, input services.ClientInput) (*models.Client, error) {
				return &models.Client{Base: models.Base{ID: "client-1"}, UserID: userID, Name: input.Name, Email: input.Email}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupClientRouter(NewClientHandler(svc, audit))

		rec := doRequest(r, "POST", "/clients", `{"name":"Acme","email":"billing@acme.test","address":{"city":"Springfield"}}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		data := parseJSON(t, rec)["data"].(map[string]interface{})
		if data["name"] != "Acme" || data["userId"] != testUserID {
			t.Errorf("unexpected client %v", data)
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceID != "client-1" {
			t.Errorf("expected audit entry for client-1, got %+v", audit.entries)
		}
	})

	t.Run("email is optional", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/clients", `{"name":"Walk-in"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/clients", `{"email":"billing@acme.test"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid email", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/clients", `{"name":"Acme","email":"nope"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestClientHandler_GetClient(t *testing.T) {
	svc := &mockClientService{
		getClientByIDFn: func(_, clientID string) (*models.Client, error) {
			if clientID == "missing" {
				return nil, apperrors.ErrClientNotFound
			}
			return &models.Client{Base: models.Base{ID: clientID}, Name: "Acme"}, nil
		},
	}
	r := setupClientRouter(NewClientHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/clients/client-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(r, "GET", "/clients/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "CLIENT_NOT_FOUND")
}

func TestClientHandler_UpdateClient(t *testing.T) {
	t.Run("empty string clears and absent stays nil", func(t *testing.T) {
		var got services.ClientUpdate
		svc := &mockClientService{
			updateClientFn: func(_, clientID string, update services.ClientUpdate) (*models.Client, error) {
				got = update
				return &models.Client{Base: models.Base{ID: clientID}}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupClientRouter(NewClientHandler(svc, audit))

		rec := doRequest(r, "PUT", "/clients/client-1", `{"email":"","phone":"555-0100"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Email == nil || *got.Email != "" {
			t.Errorf("expected explicit empty email, got %v", got.Email)
		}
		if got.Name != nil || got.Address != nil {
			t.Error("absent fields must be nil")
		}
		if audit.entries[0].changes["phone"] != "555-0100" {
			t.Errorf("expected phone change audited, got %v", audit.entries[0].changes)
		}
	})

	t.Run("returns 400 on invalid email", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/clients/client-1", `{"email":"nope"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for foreign client", func(t *testing.T) {
		svc := &mockClientService{
			updateClientFn: func(_, _ string, _ services.ClientUpdate) (*models.Client, error) {
				return nil, apperrors.ErrClientNotFound
			},
		}
		r := setupClientRouter(NewClientHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/clients/other", `{"name":"X"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestClientHandler_DeleteClient(t *testing.T) {
	t.Run("returns 200 with message", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupClientRouter(NewClientHandler(&mockClientService{}, audit))

		rec := doRequest(r, "DELETE", "/clients/client-1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if msg := parseJSON(t, rec)["message"]; msg != "Client deleted successfully" {
			t.Errorf("unexpected message %v", msg)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditDeleteClient {
			t.Errorf("expected delete audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 409 when in use", func(t *testing.T) {
		svc := &mockClientService{
			deleteClientFn: func(_, _ string) error { return apperrors.ErrClientInUse },
		}
		audit := &mockAuditService{}
		r := setupClientRouter(NewClientHandler(svc, audit))

		rec := doRequest(r, "DELETE", "/clients/client-1", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CLIENT_IN_USE")
		if len(audit.entries) != 0 {
			t.Error("failed deletes must not be audited")
		}
	})
}
