// Package dispatch serializes operation requests onto a bounded worker
// pool in front of the store. Callers submit a typed request and block
// on a per-call reply channel; workers share one store handle, so
// SQLite contention stays bounded by the pool size rather than by the
// number of concurrent callers.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/auditkit/ismsp/internal/store"
)

// Request is the tagged union of dispatchable operations. Each concrete
// request type corresponds to one store-backed operation.
type Request interface {
	operation() string
}

// SearchRequirements asks for catalog entries matching a keyword.
type SearchRequirements struct {
	Keyword string
}

// GetRequirementDetail asks for one catalog entry plus its recent
// evidence trail.
type GetRequirementDetail struct {
	ItemCode string
}

// GenerateEvidence appends an evidence row for a requirement.
type GenerateEvidence struct {
	ItemCode     string
	EvidenceType string
	Content      string
}

// CheckCompliance asks for the coverage rollup, optionally scoped to
// one category.
type CheckCompliance struct {
	Category string
}

// CreateAuditReport asks for the windowed evidence report. Empty dates
// take the store defaults.
type CreateAuditReport struct {
	StartDate string
	EndDate   string
}

func (SearchRequirements) operation() string   { return "search_requirements" }
func (GetRequirementDetail) operation() string { return "get_requirement_detail" }
func (GenerateEvidence) operation() string     { return "generate_evidence" }
func (CheckCompliance) operation() string      { return "check_compliance" }
func (CreateAuditReport) operation() string    { return "create_audit_report" }

// RequirementDetail pairs a catalog entry with its most recent evidence.
type RequirementDetail struct {
	Requirement store.Requirement
	Evidence    []store.Evidence
	Coverage    store.Coverage
}

// GeneratedEvidence echoes a successful evidence append.
type GeneratedEvidence struct {
	ID          int64
	Requirement store.Requirement
	Evidence    store.Evidence
}

// ComplianceStatus is the rollup produced by CheckCompliance.
type ComplianceStatus struct {
	Overall    store.Coverage
	Categories []store.Coverage
	Tier       string
}

// Outcome carries the result of one dispatched request. Exactly one
// field is populated, matching the request type.
type Outcome struct {
	Matches    []store.Requirement
	Detail     *RequirementDetail
	Evidence   *GeneratedEvidence
	Compliance *ComplianceStatus
	Report     *store.Report
}

type job struct {
	id    string
	req   Request
	ctx   context.Context
	reply chan result
}

type result struct {
	out Outcome
	err error
}

// Dispatcher owns the worker pool. Safe for concurrent use; Close
// drains the pool and must be called exactly once.
type Dispatcher struct {
	store      *store.Store
	thresholds store.Thresholds
	jobs       chan job
	wg         sync.WaitGroup
}

// New starts a dispatcher with the given number of workers (minimum 1).
func New(st *store.Store, th store.Thresholds, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		store:      st,
		thresholds: th,
		jobs:       make(chan job),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Close stops accepting requests and waits for in-flight ones to finish.
func (d *Dispatcher) Close() {
	close(d.jobs)
	d.wg.Wait()
}

// Do submits a request and blocks until its outcome is ready or ctx is
// done. Unknown request types fail with a not-found error.
func (d *Dispatcher) Do(ctx context.Context, req Request) (Outcome, error) {
	j := job{
		id:    uuid.NewString(),
		req:   req,
		ctx:   ctx,
		reply: make(chan result, 1),
	}

	select {
	case d.jobs <- j:
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}

	select {
	case res := <-j.reply:
		return res.out, res.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		out, err := d.handle(j.ctx, j.req)
		if err != nil {
			slog.Debug("request failed",
				"request_id", j.id, "operation", j.req.operation(), "error", err)
		}
		j.reply <- result{out: out, err: err}
	}
}

// handle runs one request against the store. The schema probe runs
// first so every operation sees an adapted catalog (or a clean
// schema-missing failure).
func (d *Dispatcher) handle(ctx context.Context, req Request) (Outcome, error) {
	if err := d.store.EnsureSchema(ctx); err != nil {
		return Outcome{}, err
	}

	switch r := req.(type) {
	case SearchRequirements:
		matches, err := d.store.SearchRequirements(ctx, r.Keyword)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Matches: matches}, nil

	case GetRequirementDetail:
		return d.requirementDetail(ctx, r.ItemCode)

	case GenerateEvidence:
		return d.generateEvidence(ctx, r)

	case CheckCompliance:
		return d.checkCompliance(ctx, r.Category)

	case CreateAuditReport:
		rep, err := d.store.BuildAuditReport(ctx, r.StartDate, r.EndDate, d.thresholds)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Report: &rep}, nil

	default:
		return Outcome{}, store.NewNotFoundError("unknown operation %T", req)
	}
}

func (d *Dispatcher) requirementDetail(ctx context.Context, itemCode string) (Outcome, error) {
	req, err := d.store.GetRequirement(ctx, itemCode)
	if err != nil {
		return Outcome{}, err
	}
	evs, err := d.store.RecentEvidence(ctx, itemCode, 5)
	if err != nil {
		return Outcome{}, err
	}
	n, err := d.store.CountEvidence(ctx, itemCode)
	if err != nil {
		return Outcome{}, err
	}

	detail := &RequirementDetail{
		Requirement: req,
		Evidence:    evs,
		Coverage: store.Coverage{
			Category: req.Category,
			Total:    1,
			Covered:  boolToInt(n > 0),
		},
	}
	detail.Coverage.Rate = 100.0 * float64(detail.Coverage.Covered)
	return Outcome{Detail: detail}, nil
}

func (d *Dispatcher) generateEvidence(ctx context.Context, r GenerateEvidence) (Outcome, error) {
	id, err := d.store.InsertEvidence(ctx, r.ItemCode, r.EvidenceType, r.Content)
	if err != nil {
		return Outcome{}, err
	}
	req, err := d.store.GetRequirement(ctx, r.ItemCode)
	if err != nil {
		return Outcome{}, err
	}

	// Read the committed row back so the outcome carries the
	// store-assigned timestamps and status.
	ev, err := d.store.GetEvidence(ctx, id)
	if err != nil {
		return Outcome{}, err
	}

	slog.Info("evidence recorded", "item_code", r.ItemCode, "evidence_id", id)
	return Outcome{Evidence: &GeneratedEvidence{ID: id, Requirement: req, Evidence: ev}}, nil
}

func (d *Dispatcher) checkCompliance(ctx context.Context, category string) (Outcome, error) {
	overall, err := d.store.OverallCompliance(ctx, category)
	if err != nil {
		return Outcome{}, err
	}

	status := &ComplianceStatus{
		Overall: overall,
		Tier:    d.thresholds.Tier(overall.Rate),
	}

	// The per-category breakdown only makes sense on the unscoped rollup.
	if category == "" {
		cats, err := d.store.ComplianceByCategory(ctx)
		if err != nil {
			return Outcome{}, err
		}
		status.Categories = cats
	}

	return Outcome{Compliance: status}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
