package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func TestInstrumentHandler_LabelsByRouteName(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Name("items.get")

	before := counterValue(httpRequests.WithLabelValues("GET", "items.get", "418"))

	r.Use(InstrumentHandler)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, counterValue(httpRequests.WithLabelValues("GET", "items.get", "418")))
}

func TestInstrumentHandler_OutsideRouterIsUnmatched(t *testing.T) {
	before := counterValue(httpRequests.WithLabelValues("GET", "unmatched", "200"))

	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+1, counterValue(httpRequests.WithLabelValues("GET", "unmatched", "200")))
}

func TestRecordRentalTransition(t *testing.T) {
	okBefore := counterValue(rentalTransitions.WithLabelValues("approve", "ok"))
	errBefore := counterValue(rentalTransitions.WithLabelValues("approve", "error"))

	RecordRentalTransition("approve", nil)
	RecordRentalTransition("approve", errors.New("boom"))

	assert.Equal(t, okBefore+1, counterValue(rentalTransitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, errBefore+1, counterValue(rentalTransitions.WithLabelValues("approve", "error")))
}

func TestHandler_ExposesNamespace(t *testing.T) {
	RecordTicketFallback()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "clan_rental_rentals_ticket_fallbacks_total"))
}
