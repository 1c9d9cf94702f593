// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package sysres reports host memory, disk and CPU headroom.
package sysres

import (
	"context"
	"fmt"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	GiB = 1 << 30

	// DefaultMemoryFloor is the free memory required before each embedding batch.
	DefaultMemoryFloor uint64 = 1 * GiB

	healthyMemory = 2 * GiB
	healthyDisk   = 1 * GiB
	healthyCPU    = 90.0
)

// Probe reports available memory in bytes.
type Probe interface {
	AvailableMemory(ctx context.Context) (uint64, error)
}

// Snapshot is a point-in-time view of host resources.
type Snapshot struct {
	MemoryTotal     uint64  `json:"memory_total"`
	MemoryAvailable uint64  `json:"memory_available"`
	MemoryUsedPct   float64 `json:"memory_used_percent"`
	DiskTotal       uint64  `json:"disk_total"`
	DiskFree        uint64  `json:"disk_free"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryOK        bool    `json:"memory_ok"`
	DiskOK          bool    `json:"disk_ok"`
	CPUOK           bool    `json:"cpu_ok"`
}

// AllOK reports whether every resource is above its healthy threshold.
func (s Snapshot) AllOK() bool { return s.MemoryOK && s.DiskOK && s.CPUOK }

// Host probes the local machine through gopsutil.
type Host struct {
	// DiskPath selects the filesystem reported in snapshots.
	DiskPath string
}

func (h Host) AvailableMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, ragerr.Wrap(err, ragerr.CodeResourceProbeFailure, "reading virtual memory")
	}
	return vm.Available, nil
}

// Snapshot collects memory, disk and CPU usage. CPU is sampled without
// waiting, so the first call after start may report 0.
func (h Host) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, ragerr.Wrap(err, ragerr.CodeResourceProbeFailure, "reading virtual memory")
	}
	s.MemoryTotal = vm.Total
	s.MemoryAvailable = vm.Available
	s.MemoryUsedPct = vm.UsedPercent

	path := h.DiskPath
	if path == "" {
		path = "."
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return s, ragerr.Wrap(err, ragerr.CodeResourceProbeFailure, "reading disk usage", ragerr.FieldPath(path))
	}
	s.DiskTotal = du.Total
	s.DiskFree = du.Free

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}

	s.MemoryOK = s.MemoryAvailable >= healthyMemory
	s.DiskOK = s.DiskFree >= healthyDisk
	s.CPUOK = s.CPUPercent < healthyCPU
	return s, nil
}

// EnsureMemory fails with resource.memory.exhausted when less than floor
// bytes are available. A zero floor disables the check.
func EnsureMemory(ctx context.Context, p Probe, floor uint64) error {
	if p == nil || floor == 0 {
		return nil
	}
	avail, err := p.AvailableMemory(ctx)
	if err != nil {
		return err
	}
	if avail < floor {
		return ragerr.New(ragerr.CodeResourceMemoryExhausted,
			fmt.Sprintf("insufficient memory: %.2f GiB available, %.2f GiB required", float64(avail)/GiB, float64(floor)/GiB),
			ragerr.Field("available_bytes", avail),
		)
	}
	return nil
}

// Static is a Probe that always reports the same value.
type Static uint64

func (s Static) AvailableMemory(context.Context) (uint64, error) { return uint64(s), nil }
