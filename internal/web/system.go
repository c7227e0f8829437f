package web

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type SystemInfo struct {
	CPUCount      int     `json:"cpu_count"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryPercent float64 `json:"memory_percent"`
	Hostname      string  `json:"hostname,omitempty"`
	OS            string  `json:"os,omitempty"`
	Platform      string  `json:"platform,omitempty"`
	UptimeSeconds uint64  `json:"host_uptime_seconds"`
}

// CollectSystem reads host stats. Fields that cannot be read stay zero.
func CollectSystem() SystemInfo {
	var info SystemInfo
	if count, err := cpu.Counts(true); err == nil {
		info.CPUCount = count
	}
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		info.CPUPercent = percent[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotalMB = vm.Total / 1024 / 1024
		info.MemoryUsedMB = vm.Used / 1024 / 1024
		info.MemoryPercent = vm.UsedPercent
	}
	if hostInfo, err := host.Info(); err == nil {
		info.Hostname = hostInfo.Hostname
		info.OS = hostInfo.OS
		info.Platform = hostInfo.Platform
		info.UptimeSeconds = hostInfo.Uptime
	}
	return info
}
