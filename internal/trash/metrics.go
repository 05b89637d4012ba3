package trash

import "github.com/prometheus/client_golang/prometheus"

var relocatedRows = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "trash_relocated_rows_total",
		Help: "Rows moved or purged by trash-table operations",
	},
	[]string{"table", "op"},
)

func init() { prometheus.MustRegister(relocatedRows) }

func observe(table, op string, n int64) {
	if n > 0 {
		relocatedRows.WithLabelValues(table, op).Add(float64(n))
	}
}
