package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sysbro/internal/domain"
	"sysbro/pkg/units"

	"github.com/google/uuid"
)

// Session is one probe run. Samples delivers progress and is closed before
// Done; Result blocks until the run is terminal.
type Session struct {
	ID          uuid.UUID
	ServerIndex int
	Target      Target
	StartedAt   time.Time

	samples chan domain.SpeedSample
	done    chan struct{}
	cancel  context.CancelFunc

	dropped int
	state   domain.ProbeState
	result  domain.ProbeResult
	err     error
}

func (s *Session) Samples() <-chan domain.SpeedSample {
	return s.samples
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Cancel() {
	s.cancel()
}

// Result returns the peak of a successful run, or the TransferError that
// aborted it.
func (s *Session) Result() (domain.ProbeResult, error) {
	<-s.done
	if s.err != nil {
		return domain.ProbeResult{}, s.err
	}
	return s.result, nil
}

func (s *Session) State() domain.ProbeState {
	select {
	case <-s.done:
		return s.state
	default:
		return domain.ProbeRunning
	}
}

// Record blocks until the run is terminal.
func (s *Session) Record() domain.ProbeRecord {
	<-s.done
	return s.record()
}

func (s *Session) record() domain.ProbeRecord {
	rec := domain.ProbeRecord{ProbeResult: s.result, State: s.state}
	if s.err != nil {
		rec.Error = s.err.Error()
	}
	return rec
}

func (p *Prober) run(ctx context.Context, s *Session) {
	t := newTracker(p.maxDuration)

	err := p.download(ctx, s, t)
	finished := p.now()

	s.result = domain.ProbeResult{
		ID:            s.ID,
		ServerIndex:   s.ServerIndex,
		URL:           s.Target.URL,
		Samples:       len(t.samples),
		BytesReceived: t.received,
		Duration:      finished.Sub(s.StartedAt),
		FinishedAt:    finished,
	}

	if err != nil {
		s.state = domain.ProbeAborted
		s.err = err
		p.log.Warn("probe: aborted", "id", s.ID, "error", err)
	} else {
		s.state = domain.ProbeSucceeded
		s.result.PeakBytesPerSecond = t.peak()
		s.result.Formatted = units.FormatRate(s.result.PeakBytesPerSecond)
		p.log.Info("probe: succeeded", "id", s.ID, "peak", s.result.Formatted, "samples", len(t.samples))
	}

	if s.dropped > 0 {
		p.log.Debug("probe: slow sample consumer", "id", s.ID, "dropped", s.dropped)
	}

	s.cancel()
	p.finish(s, s.state)
	close(s.samples)
	p.publish(domain.EventProbeFinished{Record: s.record()})
	close(s.done)
}

func (p *Prober) download(ctx context.Context, s *Session, t *tracker) error {
	const op = "probe download"

	// caps a server that stops sending; the tracker only runs on reads
	deadlineCtx, stop := context.WithTimeout(ctx, p.maxDuration)
	defer stop()

	req, err := http.NewRequestWithContext(deadlineCtx, http.MethodGet, s.Target.URL, nil)
	if err != nil {
		return domain.NewError(domain.KindTransfer, op, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.transferError(ctx, deadlineCtx, t, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Errorf(domain.KindTransfer, op, "unexpected status %s", resp.Status)
	}

	total := resp.ContentLength
	var received int64
	buf := make([]byte, readBufferSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			received += int64(n)
			if p.observe(s, t, received, total) {
				return nil
			}
		}

		if readErr == nil {
			continue
		}

		if errors.Is(readErr, io.EOF) {
			if total < 0 || received == total {
				// unknown length: EOF is completion
				p.observe(s, t, received, received)
				return nil
			}
			return domain.Errorf(domain.KindTransfer, op, "body ended after %d of %d bytes", received, total)
		}

		return p.transferError(ctx, deadlineCtx, t, op, readErr)
	}
}

// observe feeds the tracker and reports whether the probe should stop.
func (p *Prober) observe(s *Session, t *tracker, received, total int64) bool {
	sample, recorded, stop := t.observe(received, total, p.now().Sub(s.StartedAt))
	if recorded {
		select {
		case s.samples <- sample:
		default:
			s.dropped++
		}

		p.publish(domain.EventProbeSample{
			ID:        s.ID,
			Sample:    sample,
			Formatted: units.FormatRate(sample.BytesPerSecond),
		})
	}
	return stop
}

// transferError classifies a failed request or read. Hitting the duration cap
// while blocked counts as a normal stop when something was measured.
func (p *Prober) transferError(ctx, deadlineCtx context.Context, t *tracker, op string, err error) error {
	if ctx.Err() != nil {
		return domain.NewError(domain.KindTransfer, op, fmt.Errorf("%w: %w", ctx.Err(), err))
	}

	if errors.Is(deadlineCtx.Err(), context.DeadlineExceeded) {
		if len(t.samples) > 0 {
			return nil
		}
		return domain.Errorf(domain.KindTransfer, op, "no data received within %s", p.maxDuration)
	}

	return domain.NewError(domain.KindTransfer, op, err)
}
