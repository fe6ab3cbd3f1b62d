package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	SetCatalogSize(3, 7)
	assert.Equal(t, 3.0, testutil.ToFloat64(catalogStages))
	assert.Equal(t, 7.0, testutil.ToFloat64(catalogAlts))

	before := testutil.ToFloat64(patchSlotsTotal.WithLabelValues("search", "apply"))
	RecordPatch("search", "apply", 4)
	assert.Equal(t, before+4, testutil.ToFloat64(patchSlotsTotal.WithLabelValues("search", "apply")))

	changes := testutil.ToFloat64(altChangesTotal)
	RecordAltChange(2)
	assert.Equal(t, changes+1, testutil.ToFloat64(altChangesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(activeAlt))

	hits := testutil.ToFloat64(loaderResolvesTotal.WithLabelValues("true"))
	RecordResolve(true)
	assert.Equal(t, hits+1, testutil.ToFloat64(loaderResolvesTotal.WithLabelValues("true")))

	SetResident(12)
	assert.Equal(t, 12.0, testutil.ToFloat64(loaderResident))
}

func TestHandler(t *testing.T) {
	RecordFUSERead()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "arcalts_fuse_reads_total"))
}
