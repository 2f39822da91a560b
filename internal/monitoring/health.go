package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger checks that the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the body of the health endpoint.
type Report struct {
	Status          string  `json:"status"`
	Database        string  `json:"database"`
	MemoryUsedPct   float64 `json:"memoryUsedPercent,omitempty"`
	UploadsDiskFree uint64  `json:"uploadsDiskFreeBytes,omitempty"`
}

// Health reports whether the server can serve requests.
type Health struct {
	db          Pinger
	uploadsPath string
}

// NewHealth creates a Health checker.
func NewHealth(db Pinger, uploadsPath string) *Health {
	return &Health{db: db, uploadsPath: uploadsPath}
}

// Check builds a report. Host statistics are best effort; only the
// database decides the status.
func (h *Health) Check(ctx context.Context) Report {
	report := Report{Status: "ok", Database: "ok"}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(pingCtx); err != nil {
		log.Error().Err(err).Msg("Health check: database unreachable")
		report.Status = "unavailable"
		report.Database = "unreachable"
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		report.MemoryUsedPct = vm.UsedPercent
	}
	if usage, err := disk.UsageWithContext(ctx, h.uploadsPath); err == nil {
		report.UploadsDiskFree = usage.Free
	}
	return report
}

// ServeHTTP writes the report as JSON, with 503 when unhealthy.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(report)
}
