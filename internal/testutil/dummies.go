// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sync"

	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/scan"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// DebugCount returns how many debug lines equal msg.
func (l *DummyLogger) DebugCount(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.Debugs {
		if m == msg {
			n++
		}
	}
	return n
}

// ─── Scan Service ──────────────────────────────────────────────────────

// ScanReply is a canned Scan Service outcome.
type ScanReply struct {
	Findings []scan.Finding
	Err      error
}

// DummyScanService implements scan.Service.
// By default it returns an empty finding list. Replies keyed by target URL
// override that, and Hold makes calls for a URL block until released.
type DummyScanService struct {
	mu       sync.Mutex
	Replies  map[string]ScanReply
	holds    map[string]chan struct{}
	Requests []scan.Request
}

// SetReply configures the outcome for url.
func (d *DummyScanService) SetReply(url string, reply ScanReply) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Replies == nil {
		d.Replies = make(map[string]ScanReply)
	}
	d.Replies[url] = reply
}

// Hold makes the next Scan calls for url block until release is called.
func (d *DummyScanService) Hold(url string) (release func()) {
	ch := make(chan struct{})
	d.mu.Lock()
	if d.holds == nil {
		d.holds = make(map[string]chan struct{})
	}
	d.holds[url] = ch
	d.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (d *DummyScanService) Scan(ctx context.Context, req scan.Request) ([]scan.Finding, error) {
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	hold := d.holds[req.URL]
	reply, ok := d.Replies[req.URL]
	d.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return []scan.Finding{}, nil
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return reply.Findings, nil
}

// RequestCount returns how many calls Scan has received.
func (d *DummyScanService) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}
