package httpprobe

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vk/stagehand/internal/ctxlog"
)

// Input defines the manifest arguments for an http_probe component.
type Input struct {
	URL           string `hcl:"url"`
	Timeout       string `hcl:"timeout,optional"`
	Interval      string `hcl:"interval,optional"`
	ExpectStatus  int    `hcl:"expect_status,optional"`
	Method        string `hcl:"method,optional"`
	FailureBudget int    `hcl:"failure_budget,optional"`
}

const (
	defaultTimeout = 10 * time.Second
	defaultMethod  = http.MethodGet
)

// Probe checks one HTTP endpoint. Start performs a synchronous probe and, if
// an interval is configured, keeps probing in the background until Stop.
type Probe struct {
	url          string
	method       string
	interval     time.Duration
	expectStatus int
	budget       int
	client       *http.Client

	mu       sync.Mutex
	stopCh   chan struct{}
	doneCh   chan struct{}
	failures int
}

func newProbe(input *Input) (*Probe, error) {
	if input.URL == "" {
		return nil, fmt.Errorf("http_probe: url is required")
	}

	timeout := defaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return nil, fmt.Errorf("http_probe: invalid timeout: %w", err)
		}
		timeout = d
	}

	var interval time.Duration
	if input.Interval != "" {
		d, err := time.ParseDuration(input.Interval)
		if err != nil {
			return nil, fmt.Errorf("http_probe: invalid interval: %w", err)
		}
		interval = d
	}

	method := input.Method
	if method == "" {
		method = defaultMethod
	}

	return &Probe{
		url:          input.URL,
		method:       method,
		interval:     interval,
		expectStatus: input.ExpectStatus,
		budget:       input.FailureBudget,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Start probes the endpoint once; failure fails the start phase. With an
// interval configured, a background loop keeps probing until Stop.
func (p *Probe) Start(ctx context.Context) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if p.interval <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh != nil {
		return nil // already running
	}
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.failures = 0
	go p.loop(ctxlog.WithLogger(context.Background(), ctxlog.FromContext(ctx)), p.stopCh, p.doneCh)
	return nil
}

// Stop halts the background probe loop, if one is running.
func (p *Probe) Stop(ctx context.Context) error {
	p.mu.Lock()
	stopCh, doneCh := p.stopCh, p.doneCh
	p.stopCh, p.doneCh = nil, nil
	p.mu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the probe's idle connections.
func (p *Probe) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *Probe) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	logger := ctxlog.FromContext(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if err := p.check(ctx); err != nil {
				p.mu.Lock()
				p.failures++
				n := p.failures
				p.mu.Unlock()
				logger.Warn("probe failed", "url", p.url, "consecutiveFailures", n, "error", err)
				if p.budget > 0 && n >= p.budget {
					logger.Error("probe failure budget exhausted", "url", p.url, "budget", p.budget)
					return
				}
				continue
			}
			p.mu.Lock()
			p.failures = 0
			p.mu.Unlock()
		}
	}
}

// check performs a single probe request and validates the status code.
func (p *Probe) check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, p.method, p.url, nil)
	if err != nil {
		return fmt.Errorf("http_probe: building request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http_probe: %s %s: %w", p.method, p.url, err)
	}
	defer resp.Body.Close()

	if p.expectStatus > 0 {
		if resp.StatusCode != p.expectStatus {
			return fmt.Errorf("http_probe: %s returned %d, want %d", p.url, resp.StatusCode, p.expectStatus)
		}
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("http_probe: %s returned %d, want 2xx", p.url, resp.StatusCode)
	}
	return nil
}
