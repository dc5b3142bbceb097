package manager

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"cwmanager/internal/installer"
)

var (
	statusQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cwmanager",
			Subsystem: "manager",
			Name:      "status_queries_total",
			Help:      "Installer status queries by result",
		},
		[]string{"result"},
	)

	installStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cwmanager",
			Subsystem: "manager",
			Name:      "install_status",
			Help:      "1 for the last observed install status, 0 otherwise",
		},
		[]string{"status"},
	)

	localConnectionGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cwmanager",
			Subsystem: "manager",
			Name:      "local_connection",
			Help:      "1 while the local connection exists",
		},
	)

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cwmanager",
			Subsystem: "manager",
			Name:      "installer_operations_total",
			Help:      "Installer operations by operation and result",
		},
		[]string{"op", "result"},
	)
)

func init() {
	prometheus.MustRegister(statusQueriesTotal, installStatusGauge, localConnectionGauge, operationsTotal)
}

func setInstallStatusGauge(st InstallStatus) {
	for _, s := range []InstallStatus{StatusUnknown, StatusNotInstalled, StatusStopped, StatusRunning} {
		v := 0.0
		if s == st {
			v = 1
		}
		installStatusGauge.WithLabelValues(string(s)).Set(v)
	}
}

// resultLabel classifies err for metric labels.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case installer.IsTimeout(err):
		return "timeout"
	case installer.IsMalformed(err):
		return "malformed"
	case errors.Is(err, errInvalidURL):
		return "invalid_url"
	case errors.Is(err, installer.ErrIO):
		return "io"
	case installer.IsOperationFailed(err):
		return "failed"
	}
	return "error"
}
