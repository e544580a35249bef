package system

import (
	"strconv"
	"strings"

	"sysbro/internal/domain"
)

// cpu user nice system idle iowait irq softirq steal [guest guest_nice]
const cpuStatFields = 8

func (r *SystemReader) CPUSample() (domain.CPUSample, error) {
	const op = "read cpu sample"

	lines, err := r.readLines(op, procStat)
	if err != nil {
		return domain.CPUSample{}, err
	}

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "cpu" {
			continue
		}
		return parseCPUStat(op, fields[1:])
	}

	return domain.CPUSample{}, domain.Errorf(domain.KindParse, op, "aggregate cpu line not found")
}

func parseCPUStat(op string, fields []string) (domain.CPUSample, error) {
	if len(fields) < cpuStatFields {
		return domain.CPUSample{}, domain.Errorf(domain.KindParse, op, "expected %d cpu fields, got %d", cpuStatFields, len(fields))
	}

	var v [cpuStatFields]uint64
	for i := range v {
		n, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return domain.CPUSample{}, domain.NewError(domain.KindParse, op, err)
		}
		v[i] = n
	}

	user, nice, sys := v[0], v[1], v[2]
	idle, iowait, irq, softirq, steal := v[3], v[4], v[5], v[6], v[7]

	work := user + nice + sys
	return domain.CPUSample{
		WorkTicks:  work,
		TotalTicks: work + idle + iowait + irq + softirq + steal,
	}, nil
}

// CPUUsage returns the busy percentage between an earlier sample a and a
// later sample b.
func CPUUsage(a, b domain.CPUSample) (float64, error) {
	if b.TotalTicks <= a.TotalTicks {
		return 0, domain.Errorf(domain.KindCompute, "cpu usage", "no ticks elapsed between samples")
	}
	if b.WorkTicks < a.WorkTicks {
		return 0, domain.Errorf(domain.KindCompute, "cpu usage", "work ticks went backwards")
	}

	work := float64(b.WorkTicks - a.WorkTicks)
	total := float64(b.TotalTicks - a.TotalTicks)
	return work / total * 100, nil
}

// CPUInfo never fails: a missing or unreadable cpuinfo yields the zero value.
func (r *SystemReader) CPUInfo() domain.CPUInfo {
	lines, err := r.readLines("read cpu info", procCPUInfo)
	if err != nil {
		r.log.Debug("failed to read cpuinfo", "error", err)
		return domain.CPUInfo{}
	}

	var info domain.CPUInfo
	modelSeen := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "model name"):
			if modelSeen {
				continue
			}
			modelSeen = true
			if _, value, ok := strings.Cut(line, ":"); ok {
				info.Model = strings.TrimSpace(value)
			}
		case strings.HasPrefix(line, "processor"):
			info.CoreCount++
		}
	}

	return info
}
