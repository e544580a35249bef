package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"sysbro/internal/domain"
	"sysbro/pkg/units"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

type recordingBus struct {
	mu     sync.Mutex
	events []any
}

func (b *recordingBus) Publish(event any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) count(match func(any) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, e := range b.events {
		if match(e) {
			n++
		}
	}
	return n
}

func chunkedServer(t *testing.T, chunks, chunkSize int, withLength bool) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if withLength {
			w.Header().Set("Content-Length", strconv.Itoa(chunks*chunkSize))
		}
		flusher := w.(http.Flusher)
		chunk := make([]byte, chunkSize)

		for range chunks {
			time.Sleep(5 * time.Millisecond)
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func stallingServer(t *testing.T, first int) *httptest.Server {
	t.Helper()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa((first+1)*100))
		time.Sleep(10 * time.Millisecond)
		if first > 0 {
			_, _ = w.Write(make([]byte, first))
		}
		w.(http.Flusher).Flush()

		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

func drain(s *Session) []domain.SpeedSample {
	var out []domain.SpeedSample
	for sample := range s.Samples() {
		out = append(out, sample)
	}
	return out
}

func TestProbeCompletesOnFullBody(t *testing.T) {
	srv := chunkedServer(t, 8, 32*1024, true)
	bus := &recordingBus{}
	p := New(NewHTTPClient(), TargetsFromURLs([]string{srv.URL}), WithPublisher(bus))

	s, err := p.Start(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ProbeRunning, p.State())

	samples := drain(s)
	result, err := s.Result()
	require.NoError(t, err)

	require.NotEmpty(t, samples)
	assert.Equal(t, Peak(samples), result.PeakBytesPerSecond)
	assert.Equal(t, units.FormatRate(result.PeakBytesPerSecond), result.Formatted)
	assert.Equal(t, uint64(8*32*1024), result.BytesReceived)
	assert.Less(t, result.Duration, DefaultMaxDuration)
	assert.Equal(t, domain.ProbeSucceeded, p.State())
	assert.Equal(t, domain.ProbeSucceeded, s.State())

	assert.Equal(t, 1, bus.count(func(e any) bool { _, ok := e.(domain.EventProbeStarted); return ok }))
	assert.Equal(t, 1, bus.count(func(e any) bool { _, ok := e.(domain.EventProbeFinished); return ok }))
	assert.Equal(t, len(samples), bus.count(func(e any) bool { _, ok := e.(domain.EventProbeSample); return ok }))
}

func TestProbeUnknownLengthCompletesAtEOF(t *testing.T) {
	srv := chunkedServer(t, 4, 16*1024, false)
	p := New(NewHTTPClient(), TargetsFromURLs([]string{srv.URL}))

	s, err := p.Start(context.Background(), 0)
	require.NoError(t, err)

	result, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, uint64(4*16*1024), result.BytesReceived)
	assert.Positive(t, result.PeakBytesPerSecond)
}

func TestProbeStopsStalledTransferAtCap(t *testing.T) {
	srv := stallingServer(t, 64*1024)
	p := New(NewHTTPClient(), TargetsFromURLs([]string{srv.URL}), WithMaxDuration(200*time.Millisecond))

	s, err := p.Start(context.Background(), 0)
	require.NoError(t, err)

	result, err := s.Result()
	require.NoError(t, err)
	assert.Positive(t, result.Samples)
	assert.GreaterOrEqual(t, result.Duration, 200*time.Millisecond)
	assert.Less(t, result.Duration, 5*time.Second)
	assert.Equal(t, domain.ProbeSucceeded, p.State())
}

func TestProbeStallWithoutDataAborts(t *testing.T) {
	srv := stallingServer(t, 0)
	p := New(NewHTTPClient(), TargetsFromURLs([]string{srv.URL}), WithMaxDuration(100*time.Millisecond))

	s, err := p.Start(context.Background(), 0)
	require.NoError(t, err)

	_, err = s.Result()
	assert.ErrorIs(t, err, domain.ErrTransfer)
	assert.Equal(t, domain.ProbeAborted, p.State())
}

func TestProbeTransferFailures(t *testing.T) {
	refused := httptest.NewServer(http.NotFoundHandler())
	refusedURL := refused.URL
	refused.Close()

	notFound := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(notFound.Close)

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write(make([]byte, 500))
	}))
	t.Cleanup(short.Close)

	tests := map[string]string{
		"connection refused": refusedURL,
		"http status":        notFound.URL,
		"short body":         short.URL,
	}

	for name, url := range tests {
		t.Run(name, func(t *testing.T) {
			bus := &recordingBus{}
			p := New(NewHTTPClient(), TargetsFromURLs([]string{url}), WithPublisher(bus))

			s, err := p.Start(context.Background(), 0)
			require.NoError(t, err)

			result, err := s.Result()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrTransfer)
			assert.Zero(t, result)
			assert.Equal(t, domain.ProbeAborted, p.State())

			rec := s.Record()
			assert.Equal(t, domain.ProbeAborted, rec.State)
			assert.NotEmpty(t, rec.Error)
		})
	}
}

func TestProbeInvalidSelection(t *testing.T) {
	called := false
	client := doerFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return nil, nil
	})
	p := New(client, nil)

	s, err := p.Start(context.Background(), 9)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	_, err = p.Start(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	assert.False(t, called)
	assert.Equal(t, domain.ProbeIdle, p.State())
	assert.Nil(t, p.Current())
}

func TestStartAgainRightAfterSamplesClose(t *testing.T) {
	srv := chunkedServer(t, 2, 1024, true)
	p := New(NewHTTPClient(), TargetsFromURLs([]string{srv.URL}))

	for i := range 10 {
		s, err := p.Start(context.Background(), 0)
		require.NoError(t, err, "run %d", i)
		drain(s)
		assert.NotEqual(t, domain.ProbeRunning, p.State(), "run %d", i)
	}
}

func TestProbeRejectsOverlapAndCancels(t *testing.T) {
	srv := stallingServer(t, 1024)
	p := New(NewHTTPClient(), TargetsFromURLs([]string{srv.URL, srv.URL}), WithMaxDuration(10*time.Second))

	first, err := p.Start(context.Background(), 0)
	require.NoError(t, err)

	_, err = p.Start(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrProbeInProgress)
	assert.Same(t, first, p.Current())

	assert.True(t, p.Cancel())

	select {
	case <-first.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("probe did not stop after cancel")
	}

	_, err = first.Result()
	assert.ErrorIs(t, err, domain.ErrTransfer)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.ProbeAborted, p.State())

	drain(first)
	_, open := <-first.Samples()
	assert.False(t, open, "samples channel must be closed")

	assert.False(t, p.Cancel(), "nothing left to cancel")
}

func TestProbeParentContextCancel(t *testing.T) {
	srv := stallingServer(t, 1024)
	p := New(NewHTTPClient(), TargetsFromURLs([]string{srv.URL}))

	ctx, cancel := context.WithCancel(context.Background())
	s, err := p.Start(ctx, 0)
	require.NoError(t, err)

	cancel()

	_, err = s.Result()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.ProbeAborted, s.State())
}

func TestNewHTTPClientIgnoresProxy(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://127.0.0.1:1")
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:1")

	client := NewHTTPClient()
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, transport.Proxy)
}

func TestDefaultTargets(t *testing.T) {
	p := New(nil, nil)

	targets := p.Targets()
	require.Len(t, targets, 5)
	for _, target := range targets {
		assert.NotEmpty(t, target.URL)
	}

	targets[0].URL = "mutated"
	assert.NotEqual(t, "mutated", p.Targets()[0].URL)
}
