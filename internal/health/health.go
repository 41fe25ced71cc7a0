package health

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is anything that can check its connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db    Pinger
	cache Pinger
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Cache    ComponentHealth `json:"cache"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

// DetailedStatus adds a host snapshot to the basic status.
type DetailedStatus struct {
	HealthStatus
	System SystemStats `json:"system"`
}

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
}

// NewHealthChecker takes the database and an optional cache. The cache
// being down degrades the service but does not make it unready.
func NewHealthChecker(db, cache Pinger) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:   "healthy",
		Database: check(ctx, h.db),
		Cache:    ComponentHealth{Status: "disabled"},
	}
	if h.cache != nil {
		status.Cache = check(ctx, h.cache)
	}

	switch {
	case status.Database.Status != "healthy":
		status.Status = "unhealthy"
	case status.Cache.Status == "unhealthy":
		status.Status = "degraded"
	}
	return status
}

func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	return DetailedStatus{HealthStatus: h.CheckBasic(ctx), System: systemStats()}
}

func check(ctx context.Context, p Pinger) ComponentHealth {
	if p == nil {
		return ComponentHealth{Status: "unhealthy", Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

// systemStats samples the current host. Sampling errors leave zeros.
func systemStats() SystemStats {
	var s SystemStats

	if cpuPercents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		s.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = memStats.UsedPercent
		s.MemoryUsed = formatBytes(memStats.Used)
		s.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		s.DiskPercent = diskStats.UsedPercent
		s.DiskUsed = formatBytes(diskStats.Used)
		s.DiskTotal = formatBytes(diskStats.Total)
	}
	return s
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}
