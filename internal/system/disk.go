package system

import (
	"context"

	"sysbro/internal/domain"

	"github.com/shirou/gopsutil/v3/disk"
)

type Volume struct {
	Device     string
	Mountpoint string
	TotalBytes int64
	FreeBytes  int64
}

type VolumeLister interface {
	Volumes(ctx context.Context) ([]Volume, error)
}

// GopsutilVolumes lists mounted physical volumes through gopsutil.
type GopsutilVolumes struct{}

func (GopsutilVolumes) Volumes(ctx context.Context) ([]Volume, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	volumes := make([]Volume, 0, len(partitions))
	for _, p := range partitions {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}

		volumes = append(volumes, Volume{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			TotalBytes: int64(usage.Total),
			FreeBytes:  int64(usage.Free),
		})
	}

	return volumes, nil
}

// DiskAggregate sums size and free space over mounted volumes, counting a
// device mounted at several points once. An empty result is not an error
// here; Percent on it is.
func (r *SystemReader) DiskAggregate(ctx context.Context) (domain.DiskAggregate, error) {
	volumes, err := r.volumes.Volumes(ctx)
	if err != nil {
		return domain.DiskAggregate{}, domain.NewError(domain.KindParse, "read disk aggregate", err)
	}

	var agg domain.DiskAggregate
	seen := make(map[string]struct{}, len(volumes))

	for _, v := range volumes {
		if _, ok := seen[v.Device]; ok {
			r.log.Debug("skipping duplicate mount", "device", v.Device, "mountpoint", v.Mountpoint)
			continue
		}
		seen[v.Device] = struct{}{}

		if v.TotalBytes < 0 || v.FreeBytes < 0 {
			continue
		}

		agg.TotalBytes += v.TotalBytes
		agg.FreeBytes += v.FreeBytes
	}

	return agg, nil
}
