package systemwatch

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"
)

const (
	cpuSampleWindow = 150 * time.Millisecond
	routeProbeAddr  = "1.1.1.1:53"
	routeTimeout    = 600 * time.Millisecond

	// Common on Raspberry Pi OS, where gopsutil sensor support is spotty.
	piThermalPath = "/sys/class/thermal/thermal_zone0/temp"
)

// Snapshot is a point-in-time view of host health. Every field is best-effort;
// probes that fail leave zero values rather than erroring the whole read.
type Snapshot struct {
	At          time.Time `json:"at"`
	CPUPercent  float64   `json:"cpu_percent"`
	RAMPercent  float64   `json:"ram_percent"`
	RAMUsedMB   int64     `json:"ram_used_mb"`
	RAMTotalMB  int64     `json:"ram_total_mb"`
	DiskPercent float64   `json:"disk_percent"`
	DiskUsedGB  float64   `json:"disk_used_gb"`
	DiskTotalGB float64   `json:"disk_total_gb"`
	TempC       *float64  `json:"temp_c"`
	NetworkUp   bool      `json:"network_up"`
}

// Read samples the host and returns a snapshot. The CPU sample blocks for a
// short window; callers on a request path should budget for that.
func Read(ctx context.Context) Snapshot {
	snap := Snapshot{At: time.Now().UTC()}

	if percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.RAMPercent = vm.UsedPercent
		snap.RAMUsedMB = int64(vm.Used / (1024 * 1024))
		snap.RAMTotalMB = int64(vm.Total / (1024 * 1024))
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		snap.DiskPercent = du.UsedPercent
		snap.DiskUsedGB = roundGiB(du.Used)
		snap.DiskTotalGB = roundGiB(du.Total)
	}

	snap.TempC = readTempC(ctx)
	snap.NetworkUp = networkUp(ctx)
	return snap
}

func roundGiB(bytes uint64) float64 {
	gib := float64(bytes) / (1024 * 1024 * 1024)
	return float64(int64(gib*100+0.5)) / 100
}

func readTempC(ctx context.Context) *float64 {
	if temps, err := sensors.TemperaturesWithContext(ctx); err == nil {
		for _, entry := range temps {
			if entry.Temperature != 0 {
				value := entry.Temperature
				return &value
			}
		}
	}
	return readThermalZone(piThermalPath)
}

func readThermalZone(path string) *float64 {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil
	}
	value := float64(milli) / 1000.0
	return &value
}

// networkUp reports a fast, local-ish connectivity signal: at least one
// interface is up and a UDP "connect" resolves a route. No packets are sent.
func networkUp(ctx context.Context) bool {
	if ifaces, err := psnet.InterfacesWithContext(ctx); err == nil {
		anyUp := false
		for _, iface := range ifaces {
			for _, flag := range iface.Flags {
				if strings.EqualFold(flag, "up") {
					anyUp = true
				}
			}
		}
		if !anyUp {
			return false
		}
	}

	dialer := net.Dialer{Timeout: routeTimeout}
	conn, err := dialer.DialContext(ctx, "udp", routeProbeAddr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
