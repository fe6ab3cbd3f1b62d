// Package metrics provides Prometheus metrics for arcalts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog metrics
	catalogStages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcalts_catalog_stages",
			Help: "Number of stages in the alt catalog",
		},
	)

	catalogAlts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcalts_catalog_alts",
			Help: "Number of discovered alts, excluding vanilla",
		},
	)

	catalogSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcalts_catalog_stages_skipped_total",
			Help: "Stages skipped while building the catalog",
		},
	)

	// Patch metrics
	patchSlotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcalts_patch_slots_total",
			Help: "Table slots written by the mutator",
		},
		[]string{"table", "op"},
	)

	patchSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcalts_patch_skipped_total",
			Help: "Variant files skipped because a hash was missing from a table",
		},
		[]string{"table"},
	)

	// Selection metrics
	altChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcalts_alt_changes_total",
			Help: "Number of times the active alt was changed",
		},
	)

	selectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcalts_selections_total",
			Help: "Selections consumed by advance, by kind",
		},
		[]string{"kind"},
	)

	activeAlt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcalts_active_alt",
			Help: "Ordinal of the active alt, 0 when none is patched in",
		},
	)

	// Loader metrics
	loaderResolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcalts_loader_resolves_total",
			Help: "Directory child resolutions, by whether the alt substituted the list",
		},
		[]string{"substituted"},
	)

	loaderResident = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arcalts_loader_resident_files",
			Help: "File paths currently holding a loader reference",
		},
	)

	// Filesystem metrics
	fuseReadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcalts_fuse_reads_total",
			Help: "Files read through the FUSE view",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func SetCatalogSize(stages, alts int) {
	catalogStages.Set(float64(stages))
	catalogAlts.Set(float64(alts))
}

func RecordStageSkipped() {
	catalogSkipped.Inc()
}

func RecordPatch(table, op string, slots int) {
	patchSlotsTotal.WithLabelValues(table, op).Add(float64(slots))
}

func RecordPatchSkipped(table string) {
	patchSkippedTotal.WithLabelValues(table).Inc()
}

func RecordAltChange(ordinal int) {
	altChangesTotal.Inc()
	activeAlt.Set(float64(ordinal))
}

func RecordSelection(kind string) {
	selectionsTotal.WithLabelValues(kind).Inc()
}

func RecordResolve(substituted bool) {
	if substituted {
		loaderResolvesTotal.WithLabelValues("true").Inc()
		return
	}
	loaderResolvesTotal.WithLabelValues("false").Inc()
}

func SetResident(n int) {
	loaderResident.Set(float64(n))
}

func RecordFUSERead() {
	fuseReadsTotal.Inc()
}
