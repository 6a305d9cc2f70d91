package metrics

import (
	"kanban-board-api/internal/kanban"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the board collectors. They are registered on the registry
// passed to New so tests can use a private one.
type Metrics struct {
	Events        *prometheus.CounterVec
	TasksInColumn *prometheus.GaugeVec
	WSClients     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_board_events_total",
			Help: "Committed board mutations by event type",
		}, []string{"type"}),

		TasksInColumn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kanban_column_tasks",
			Help: "Number of tasks listed in each column",
		}, []string{"column"}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kanban_websocket_clients",
			Help: "Currently connected WebSocket clients",
		}),
	}
	reg.MustRegister(m.Events, m.TasksInColumn, m.WSClients)
	return m
}

// Observe returns a board listener that counts events and refreshes the
// per-column gauges.
func (m *Metrics) Observe(board *kanban.Board) kanban.Listener {
	m.refreshColumns(board)
	return func(ev kanban.Event) {
		m.Events.WithLabelValues(string(ev.Kind)).Inc()
		m.refreshColumns(board)
	}
}

func (m *Metrics) refreshColumns(board *kanban.Board) {
	for _, col := range board.Columns() {
		m.TasksInColumn.WithLabelValues(col.ID).Set(float64(len(col.TaskIDs)))
	}
}
