package system

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"sysbro/internal/domain"

	"github.com/shirou/gopsutil/v3/host"
)

type KernelInfo interface {
	KernelVersion(ctx context.Context) (string, error)
	KernelArch(ctx context.Context) (string, error)
}

type GopsutilKernel struct{}

func (GopsutilKernel) KernelVersion(ctx context.Context) (string, error) {
	return host.KernelVersionWithContext(ctx)
}

func (GopsutilKernel) KernelArch(ctx context.Context) (string, error) {
	return host.KernelArch()
}

func (r *SystemReader) Uptime() (time.Duration, error) {
	const op = "read uptime"

	lines, err := r.readLines(op, procUptime)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, domain.Errorf(domain.KindParse, op, "empty uptime")
	}

	parts := strings.Fields(lines[0])
	if len(parts) == 0 {
		return 0, domain.Errorf(domain.KindParse, op, "empty uptime")
	}

	secs, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, domain.NewError(domain.KindParse, op, err)
	}

	return time.Duration(secs * float64(time.Second)), nil
}

func (r *SystemReader) Hostname() string {
	value, err := os.Hostname()
	if err != nil {
		r.log.Debug("failed to read hostname", "error", err)
		return ""
	}
	return value
}

func (r *SystemReader) UserName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}

// Distribution returns PRETTY_NAME from os-release, or "".
func (r *SystemReader) Distribution() string {
	lines, err := r.readLines("read os-release", osRelease)
	if err != nil {
		r.log.Debug("failed to read os-release", "error", err)
		return ""
	}

	for _, line := range lines {
		value, ok := strings.CutPrefix(line, "PRETTY_NAME=")
		if !ok {
			continue
		}
		return strings.Trim(value, `"'`)
	}
	return ""
}

// DebianVersion returns etc/debian_version, or "" on non-Debian systems.
func (r *SystemReader) DebianVersion() string {
	lines, err := r.readLines("read debian_version", debianVer)
	if err != nil || len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}

// Platform is "<kernel type> <cpu architecture>", e.g. "linux x86_64".
func (r *SystemReader) Platform(ctx context.Context) string {
	arch, err := r.kernel.KernelArch(ctx)
	if err != nil || arch == "" {
		arch = runtime.GOARCH
	}
	return runtime.GOOS + " " + arch
}

func (r *SystemReader) HostInfo(ctx context.Context) domain.HostInfo {
	info := domain.HostInfo{
		Hostname:     r.Hostname(),
		UserName:     r.UserName(),
		Platform:     r.Platform(ctx),
		Distribution: r.Distribution(),
		Debian:       r.DebianVersion(),
		CPU:          r.CPUInfo(),
	}

	if kernel, err := r.kernel.KernelVersion(ctx); err == nil {
		info.Kernel = kernel
	} else {
		r.log.Debug("failed to read kernel version", "error", err)
	}

	if uptime, err := r.Uptime(); err == nil {
		info.UptimeSecs = uptime.Seconds()
	} else {
		r.log.Debug("failed to read uptime", "error", err)
	}

	return info
}
