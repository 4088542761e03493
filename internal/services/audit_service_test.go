package services

import (
	"testing"

	"invoiceflow/internal/models"
	"invoiceflow/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	user := testutil.CreateTestUser(t, db)

	svc.Log(user.ID, AuditCreateClient, "client", "client-1", "127.0.0.1", map[string]interface{}{"name": "Acme"})
	svc.Log(user.ID, AuditLogin, "user", user.ID, "127.0.0.1", nil)

	var entries []models.AuditLog
	if err := db.Where("user_id = ?", user.ID).Order("created_at ASC").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load audit entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != AuditCreateClient || entries[0].Changes != `{"name":"Acme"}` {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Changes != "" {
		t.Errorf("expected empty changes, got %q", entries[1].Changes)
	}
}
