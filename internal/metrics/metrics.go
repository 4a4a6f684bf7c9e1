package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ubxtrk/internal/ubx"
)

var (
	bytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ubxtrk_input_bytes_total",
			Help: "Bytes read from the receiver transport.",
		},
	)

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubxtrk_frames_total",
			Help: "Complete UBX frames by message.",
		},
		[]string{"msg"},
	)

	syncEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubxtrk_sync_events_total",
			Help: "Framing events: sync misses, overflows, checksum failures and dropped frames.",
		},
		[]string{"event"},
	)

	decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubxtrk_decode_errors_total",
			Help: "Handler errors by message.",
		},
		[]string{"msg"},
	)

	epochsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ubxtrk_epochs_total",
			Help: "Measurement epochs emitted.",
		},
	)

	observationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubxtrk_observations_total",
			Help: "Observations emitted by constellation.",
		},
		[]string{"sys"},
	)

	subframesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubxtrk_subframes_total",
			Help: "Navigation subframes emitted by subframe id.",
		},
		[]string{"id"},
	)
)

func init() {
	prometheus.MustRegister(bytesTotal)
	prometheus.MustRegister(framesTotal)
	prometheus.MustRegister(syncEventsTotal)
	prometheus.MustRegister(decodeErrorsTotal)
	prometheus.MustRegister(epochsTotal)
	prometheus.MustRegister(observationsTotal)
	prometheus.MustRegister(subframesTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// msgLabel collapses message ids into a bounded label set: the messages this
// tool decodes or configures keep their name, everything else is "other".
func msgLabel(m ubx.MsgID) string {
	switch m {
	case ubx.MsgTrkD5:
		return "trk-d5"
	case ubx.MsgTrkSfrbx:
		return "trk-sfrbx"
	case ubx.MsgCfgMsg:
		return "cfg-msg"
	}
	return "other"
}

func AddBytes(n int) {
	bytesTotal.Add(float64(n))
}

func RecordFrame(m ubx.MsgID) {
	framesTotal.WithLabelValues(msgLabel(m)).Inc()
}

func RecordDecodeError(m ubx.MsgID) {
	decodeErrorsTotal.WithLabelValues(msgLabel(m)).Inc()
}

// RecordSync adds the framing events that happened between two snapshots of
// the same synchronizer.
func RecordSync(prev, cur ubx.SyncStats) {
	add := func(event string, a, b uint64) {
		if b > a {
			syncEventsTotal.WithLabelValues(event).Add(float64(b - a))
		}
	}
	add("sync_miss", prev.SyncMisses, cur.SyncMisses)
	add("overflow", prev.Overflows, cur.Overflows)
	add("checksum", prev.ChecksumFailures, cur.ChecksumFailures)
	add("dropped", prev.Dropped, cur.Dropped)
}

func RecordEpoch() {
	epochsTotal.Inc()
}

func RecordObservation(sys string) {
	observationsTotal.WithLabelValues(sys).Inc()
}

func RecordSubframe(id int) {
	subframesTotal.WithLabelValues(strconv.Itoa(id)).Inc()
}
