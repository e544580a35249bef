package system

import (
	"strconv"
	"strings"
	"time"

	"sysbro/internal/domain"
)

const loopbackInterface = "lo"

// NetworkCounters sums received and transmitted bytes over every interface
// except loopback. The first two lines of /proc/net/dev are headers.
func (r *SystemReader) NetworkCounters() (domain.NetworkCounters, error) {
	const op = "read network counters"

	lines, err := r.readLines(op, procNetDev)
	if err != nil {
		return domain.NetworkCounters{}, err
	}
	if len(lines) < 2 {
		return domain.NetworkCounters{}, domain.Errorf(domain.KindParse, op, "missing header lines")
	}

	var counters domain.NetworkCounters
	for _, line := range lines[2:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// "eth0: 1234 ..." and "eth0:1234 ..." both occur
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return domain.NetworkCounters{}, domain.Errorf(domain.KindParse, op, "no interface name in %q", line)
		}
		if strings.TrimSpace(name) == loopbackInterface {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 9 {
			return domain.NetworkCounters{}, domain.Errorf(domain.KindParse, op, "interface %s: expected at least 9 counters, got %d", name, len(fields))
		}

		rx, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return domain.NetworkCounters{}, domain.NewError(domain.KindParse, op, err)
		}
		tx, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			return domain.NetworkCounters{}, domain.NewError(domain.KindParse, op, err)
		}

		counters.RxBytes += rx
		counters.TxBytes += tx
	}

	return counters, nil
}

// NetworkRate divides the counter delta between two snapshots by elapsed.
// A counter that went backwards (interface reset) yields zero for that side.
func NetworkRate(a, b domain.NetworkCounters, elapsed time.Duration) (domain.NetworkRate, error) {
	if elapsed <= 0 {
		return domain.NetworkRate{}, domain.Errorf(domain.KindCompute, "network rate", "elapsed time is %s", elapsed)
	}

	return domain.NetworkRate{
		RxBytesPerSecond: perSecond(a.RxBytes, b.RxBytes, elapsed),
		TxBytesPerSecond: perSecond(a.TxBytes, b.TxBytes, elapsed),
	}, nil
}

func perSecond(prev, curr uint64, elapsed time.Duration) uint64 {
	if curr < prev {
		return 0
	}
	return uint64(float64(curr-prev) / elapsed.Seconds())
}
