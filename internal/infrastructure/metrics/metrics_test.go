package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"festival-hub/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.ObserveSessionCheck("authenticated")
	r.ObserveSessionCheck("authenticated")
	r.ObserveRouteDecision("/festivals", domain.DecisionDeny)
	r.ObserveSignOut("success")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.sessionChecks.WithLabelValues("authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.routeDecisions.WithLabelValues("/festivals", "deny")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signOuts.WithLabelValues("success")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveSignOut("failure")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `festival_hub_sign_outs_total{outcome="failure"} 1`)
}
