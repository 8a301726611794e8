// Path: smarttools-be/internal/monitoring/health.go
package monitoring

import (
	"context"
	"time"

	"github.com/isdelr/smarttools-be/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthProvider reports host resource usage for the admin dashboard.
type HealthProvider interface {
	Snapshot(ctx context.Context) models.SystemHealth
}

// HostHealth reads usage from the local machine. Every probe is best-effort:
// a failed probe leaves its field at zero.
type HostHealth struct {
	DiskPath string
	Timeout  time.Duration
}

// NewHostHealth creates a HostHealth that measures the disk holding diskPath.
func NewHostHealth(diskPath string) *HostHealth {
	if diskPath == "" {
		diskPath = "/"
	}
	return &HostHealth{DiskPath: diskPath, Timeout: 2 * time.Second}
}

// Snapshot takes a single non-blocking reading.
func (h *HostHealth) Snapshot(ctx context.Context) models.SystemHealth {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	var health models.SystemHealth

	// A zero interval compares against the previous call instead of sleeping.
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		log.Warn().Err(err).Msg("Health: failed to read CPU usage")
	} else if len(percents) > 0 {
		health.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("Health: failed to read memory usage")
	} else {
		health.MemoryPercent = vm.UsedPercent
	}

	if usage, err := disk.UsageWithContext(ctx, h.DiskPath); err != nil {
		log.Warn().Err(err).Str("path", h.DiskPath).Msg("Health: failed to read disk usage")
	} else {
		health.DiskPercent = usage.UsedPercent
	}

	if uptime, err := host.UptimeWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("Health: failed to read uptime")
	} else {
		health.UptimeSeconds = uptime
	}

	return health
}
