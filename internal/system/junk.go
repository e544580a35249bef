package system

import (
	"context"
	"errors"
	"io/fs"
	"path"

	"sysbro/internal/domain"
	"sysbro/pkg/units"
)

const (
	aptArchives = "var/cache/apt/archives"
	crashDir    = "var/crash"
	logDir      = "var/log"
)

const (
	JunkPackages     = "packages"
	JunkCrashReports = "crash_reports"
	JunkLogs         = "logs"
	JunkCaches       = "caches"
)

type junkRoot struct {
	name     string
	dir      string
	withDirs bool
}

func (r *SystemReader) junkRoots() []junkRoot {
	roots := []junkRoot{
		{name: JunkPackages, dir: aptArchives},
		{name: JunkCrashReports, dir: crashDir},
		{name: JunkLogs, dir: logDir, withDirs: true},
	}
	if r.home != "" {
		roots = append(roots, junkRoot{name: JunkCaches, dir: path.Join(r.home, ".cache"), withDirs: true})
	}
	return roots
}

// JunkScan lists and sizes the top-level entries of each cleanup location.
// It only reads. A missing or unreadable location reports no entries.
func (r *SystemReader) JunkScan(ctx context.Context) ([]domain.JunkCategory, error) {
	roots := r.junkRoots()
	out := make([]domain.JunkCategory, 0, len(roots))

	for _, root := range roots {
		cat, err := r.scanJunkRoot(ctx, root)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

func (r *SystemReader) scanJunkRoot(ctx context.Context, root junkRoot) (domain.JunkCategory, error) {
	cat := domain.JunkCategory{
		Name:    root.name,
		Path:    "/" + root.dir,
		Entries: []domain.JunkEntry{},
	}

	entries, err := fs.ReadDir(r.fsys, root.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.log.Debug("failed to list junk location", "path", cat.Path, "error", err)
	}

	for _, e := range entries {
		if e.IsDir() && !root.withDirs {
			continue
		}
		if !e.IsDir() && !e.Type().IsRegular() {
			continue
		}

		size, err := r.treeSize(ctx, path.Join(root.dir, e.Name()))
		if err != nil {
			return cat, err
		}

		cat.Entries = append(cat.Entries, domain.JunkEntry{Name: e.Name(), Dir: e.IsDir(), SizeBytes: size})
		cat.SizeBytes += size
	}

	cat.Formatted = units.FormatBytes(cat.SizeBytes, "")
	return cat, nil
}

// treeSize sums the regular files at or below name. Unreadable parts count as
// zero; only cancellation is returned.
func (r *SystemReader) treeSize(ctx context.Context, name string) (uint64, error) {
	var total uint64

	err := fs.WalkDir(r.fsys, name, func(_ string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > 0 {
			total += uint64(info.Size())
		}
		return nil
	})

	return total, err
}
