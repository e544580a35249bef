package system

import (
	"strconv"
	"strings"

	"sysbro/internal/domain"
)

func (r *SystemReader) Memory() (domain.MemoryReading, error) {
	const op = "read memory"

	lines, err := r.readLines(op, procMeminfo)
	if err != nil {
		return domain.MemoryReading{}, err
	}

	stats := make(map[string]uint64)
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		key := strings.TrimSuffix(fields[0], ":")
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}

		stats[key] = value
	}

	total, ok := stats["MemTotal"]
	if !ok {
		return domain.MemoryReading{}, domain.Errorf(domain.KindParse, op, "MemTotal not found")
	}
	available, ok := stats["MemAvailable"]
	if !ok {
		return domain.MemoryReading{}, domain.Errorf(domain.KindParse, op, "MemAvailable not found")
	}

	// meminfo reports kibibytes
	return domain.MemoryReading{
		TotalBytes:     total * 1024,
		AvailableBytes: available * 1024,
	}, nil
}
