// Package health runs diagnostic probes and reports their results.
//
// Checks are registered up front and executed together by Run. Every check
// gets its own timeout and runs concurrently with the others; the report lists
// each check by name with its outcome. A check marked optional is reported but
// does not make the overall status unhealthy.
package health

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Status values used in reports.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

type checkConfig struct {
	name     string
	timeout  time.Duration
	check    CheckFunc
	optional bool
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Optional bool
	Err      error
	Duration time.Duration
}

// OK reports whether the check passed.
func (r Result) OK() bool { return r.Err == nil }

// Report is the outcome of a Run.
type Report struct {
	Status  string
	Results []Result
}

// Healthy reports whether every required check passed.
func (r *Report) Healthy() bool { return r.Status != StatusUnhealthy }

// Failures maps the name of each failed check to its error message.
func (r *Report) Failures() map[string]string {
	failures := make(map[string]string)
	for _, res := range r.Results {
		if !res.OK() {
			failures[res.Name] = res.Err.Error()
		}
	}
	return failures
}

// Health holds the registered checks.
type Health struct {
	mu          sync.RWMutex
	checks      []*checkConfig
	concurrency int
}

// New creates a new Health instance.
func New() *Health {
	return &Health{}
}

// SetConcurrency bounds how many checks run at once. Zero or less means no
// bound.
func (h *Health) SetConcurrency(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.concurrency = n
}

// AddCheck registers a required check. A failure makes the report unhealthy.
func (h *Health) AddCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(&checkConfig{name: name, timeout: timeout, check: check})
}

// AddOptionalCheck registers a check whose failure only degrades the report.
func (h *Health) AddOptionalCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(&checkConfig{name: name, timeout: timeout, check: check, optional: true})
}

func (h *Health) add(c *checkConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, c)
}

// Run executes every registered check once and waits for all of them.
// Results are ordered by check name.
func (h *Health) Run(ctx context.Context) *Report {
	h.mu.RLock()
	checks := slices.Clone(h.checks)
	limit := h.concurrency
	h.mu.RUnlock()

	results := make([]Result, len(checks))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, c := range checks {
		g.Go(func() error {
			results[i] = c.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(results, func(a, b Result) int {
		return strings.Compare(a.Name, b.Name)
	})

	report := &Report{Status: StatusOK, Results: results}
	for _, res := range results {
		if res.OK() {
			continue
		}
		if !res.Optional {
			report.Status = StatusUnhealthy
			break
		}
		report.Status = StatusDegraded
	}
	return report
}

func (c *checkConfig) run(ctx context.Context) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	err := c.check(ctx)
	return Result{
		Name:     c.name,
		Optional: c.optional,
		Err:      err,
		Duration: time.Since(start),
	}
}

// WriteJSON writes the report as
//
//	{"status":"unhealthy","checks":{"api":{"ok":false,"error":"..."}}}
func (r *Report) WriteJSON(w io.Writer) error {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(r.Status) })
		if len(r.Results) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, res := range r.Results {
					e.Field(res.Name, func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							e.Field("ok", func(e *jx.Encoder) { e.Bool(res.OK()) })
							if res.Optional {
								e.Field("optional", func(e *jx.Encoder) { e.Bool(true) })
							}
							e.Field("duration_ms", func(e *jx.Encoder) { e.Int64(res.Duration.Milliseconds()) })
							if res.Err != nil {
								e.Field("error", func(e *jx.Encoder) { e.Str(res.Err.Error()) })
							}
						})
					})
				}
			})
		})
	})
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}
