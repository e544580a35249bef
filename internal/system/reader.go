// Package system reads CPU, memory, disk and network state from proc-style
// sources. Every reader validates line and field counts before indexing and
// reports malformed data as a domain.ErrParse.
package system

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"sysbro/internal/domain"
	"sysbro/internal/logger"
)

const (
	procStat    = "proc/stat"
	procMeminfo = "proc/meminfo"
	procNetDev  = "proc/net/dev"
	procCPUInfo = "proc/cpuinfo"
	procUptime  = "proc/uptime"
	osRelease   = "etc/os-release"
	debianVer   = "etc/debian_version"
)

type SystemReader struct {
	log     logger.Logger
	fsys    fs.FS
	volumes VolumeLister
	kernel  KernelInfo
	home    string
}

type Option func(*SystemReader)

// WithFS replaces the root filesystem. Paths are looked up as "proc/stat" etc.
func WithFS(fsys fs.FS) Option {
	return func(r *SystemReader) { r.fsys = fsys }
}

// WithRoot reads proc data below dir instead of "/".
func WithRoot(dir string) Option {
	return func(r *SystemReader) { r.fsys = os.DirFS(dir) }
}

func WithVolumes(v VolumeLister) Option {
	return func(r *SystemReader) { r.volumes = v }
}

func WithKernelInfo(k KernelInfo) Option {
	return func(r *SystemReader) { r.kernel = k }
}

// WithHomeDir sets the home directory whose .cache is scanned for junk. An
// empty dir disables that category.
func WithHomeDir(dir string) Option {
	return func(r *SystemReader) { r.home = fsPath(dir) }
}

func NewReader(log logger.Logger, opts ...Option) *SystemReader {
	r := &SystemReader{
		log:     log,
		fsys:    os.DirFS("/"),
		volumes: GopsutilVolumes{},
		kernel:  GopsutilKernel{},
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.home = fsPath(home)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SystemReader) readLines(op, name string) ([]string, error) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, domain.NewError(domain.KindParse, op, err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, domain.NewError(domain.KindParse, op, err)
	}

	return lines, nil
}

// fsPath turns an absolute host path into a key for the fs.FS root.
func fsPath(dir string) string {
	if dir == "" {
		return ""
	}
	p := strings.TrimPrefix(path.Clean(filepath.ToSlash(dir)), "/")
	if p == "." {
		return ""
	}
	return p
}
