package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/invoices/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/invoices/:id", "204"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invoices/abc", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/invoices/:id", "204"))
	assert.Equal(t, before+1, after)
}

func TestDomainCounters(t *testing.T) {
	created := testutil.ToFloat64(invoicesCreated)
	RecordInvoiceCreated()
	assert.Equal(t, created+1, testutil.ToFloat64(invoicesCreated))

	overdue := testutil.ToFloat64(invoicesMarkedOverdue)
	RecordOverdueMarked(3)
	RecordOverdueMarked(0)
	assert.Equal(t, overdue+3, testutil.ToFloat64(invoicesMarkedOverdue))

	failed := testutil.ToFloat64(emailsSent.WithLabelValues(EmailFailed))
	RecordEmail(EmailFailed)
	assert.Equal(t, failed+1, testutil.ToFloat64(emailsSent.WithLabelValues(EmailFailed)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordInvoiceCreated()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invoiceflow_invoices_created_total")
}
