package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"git.appkode.ru/pub/go/failure"
	"golang.org/x/sync/errgroup"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/service/guard"
	"syncshield/internal/domain/value"
	"syncshield/internal/metrics"
	"syncshield/pkg/errcodes"
	"syncshield/pkg/logx"
)

var (
	ErrQueueFull               = errors.New("bid intake queue is full")
	ErrDeadlineExceeded        = fmt.Errorf("bid deadline exceeded: %w", context.DeadlineExceeded)
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrDispatcherStopped       = errors.New("bid dispatcher is not running")
	ErrDispatcherRunning       = errors.New("bid dispatcher is already running")
)

type StrategyPlanner interface {
	GetStrategyPlan(ctx context.Context, userID, bidContext string) (string, error)
}

// BidEvaluator must report an unavailable prediction as an error; the
// dispatcher never serves a decision built on a substituted value.
type BidEvaluator interface {
	EvaluateWithPrediction(ctx context.Context, userID string, requestedBid float64) (entity.BidDecision, error)
}

type DispatcherConfig struct {
	Workers         int
	QueueCapacity   int
	RequestDeadline time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:         8,
		QueueCapacity:   256,
		RequestDeadline: 50 * time.Millisecond,
	}
}

type bidJob struct {
	ctx    context.Context //nolint:containedctx
	req    entity.BidRequest
	result chan bidResult
}

type bidResult struct {
	resp entity.BidResponse
	err  error
}

// BidDispatcher serves bid executions from a fixed pool of workers reading
// one bounded intake queue.
type BidDispatcher struct {
	strategy StrategyPlanner
	guard    BidEvaluator
	metrics  *metrics.Registry
	cfg      DispatcherConfig

	intake  chan bidJob
	running atomic.Bool
}

func NewBidDispatcher(
	strategy StrategyPlanner,
	guard BidEvaluator,
	m *metrics.Registry,
	cfg DispatcherConfig,
) *BidDispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if cfg.QueueCapacity < 0 {
		cfg.QueueCapacity = 0
	}

	return &BidDispatcher{
		strategy: strategy,
		guard:    guard,
		metrics:  m,
		cfg:      cfg,
		intake:   make(chan bidJob, cfg.QueueCapacity),
	}
}

func (d *BidDispatcher) IsRunning() bool {
	return d.running.Load()
}

func (d *BidDispatcher) QueueLen() int {
	return len(d.intake)
}

// Run starts the workers and blocks until ctx is done. Workers finish the
// job they hold; queued jobs run into their own deadlines.
func (d *BidDispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrDispatcherRunning
	}

	var wg sync.WaitGroup

	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}

	logger(ctx).Info("bid dispatcher started",
		slog.Int("workers", d.cfg.Workers),
		slog.Int("queue-capacity", d.cfg.QueueCapacity),
		slog.Duration("deadline", d.cfg.RequestDeadline),
	)

	<-ctx.Done()

	d.running.Store(false)
	wg.Wait()

	logger(ctx).Info("bid dispatcher stopped")

	return nil
}

func (d *BidDispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.intake:
			d.metrics.QueueDepth.Set(float64(len(d.intake)))
			job.result <- d.process(job)
		}
	}
}

// ExecuteBid rejects immediately when the queue is full. The deadline
// covers queue wait and both collaborator calls.
func (d *BidDispatcher) ExecuteBid(ctx context.Context, req entity.BidRequest) (entity.BidResponse, error) {
	started := time.Now()

	if err := validateRequest(req); err != nil {
		d.metrics.ObserveExecution("invalid", started)
		return entity.BidResponse{}, err
	}

	if !d.running.Load() {
		d.metrics.ObserveExecution("stopped", started)
		return entity.BidResponse{}, ErrDispatcherStopped
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.RequestDeadline)
	defer cancel()

	job := bidJob{
		ctx:    ctx,
		req:    req,
		result: make(chan bidResult, 1),
	}

	select {
	case d.intake <- job:
		d.metrics.QueueDepth.Set(float64(len(d.intake)))
	default:
		d.metrics.ObserveExecution("queue_full", started)
		logger(ctx).Warn("bid intake queue is full", slog.String(logx.FieldUserID, req.UserID))
		return entity.BidResponse{}, ErrQueueFull
	}

	select {
	case res := <-job.result:
		d.metrics.ObserveExecution(resultLabel(res), started)
		return res.resp, res.err
	case <-ctx.Done():
		d.metrics.ObserveExecution("deadline_exceeded", started)
		return entity.BidResponse{}, deadlineError(ctx)
	}
}

func (d *BidDispatcher) process(job bidJob) bidResult {
	ctx := job.ctx

	if ctx.Err() != nil {
		return bidResult{err: deadlineError(ctx)}
	}

	var (
		strategy string
		decision entity.BidDecision
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := d.strategy.GetStrategyPlan(gctx, job.req.UserID, job.req.Context)
		if err != nil {
			return fmt.Errorf("strategy.GetStrategyPlan: %w", err)
		}

		strategy = s

		return nil
	})

	g.Go(func() error {
		dec, err := d.guard.EvaluateWithPrediction(gctx, job.req.UserID, job.req.RequestedBid)
		if err != nil {
			return fmt.Errorf("guard.EvaluateWithPrediction: %w", err)
		}

		decision = dec

		return nil
	})

	done := make(chan error, 1)

	go func() {
		done <- g.Wait()
	}()

	// Never build a response from one result: either both calls finished
	// in time or the request fails closed.
	select {
	case <-ctx.Done():
		return bidResult{err: deadlineError(ctx)}
	case err := <-done:
		if ctx.Err() != nil {
			return bidResult{err: deadlineError(ctx)}
		}

		if err != nil {
			if failure.IsInvalidArgumentError(err) {
				return bidResult{err: err}
			}

			logger(ctx).Error("bid collaborator failed",
				slog.String(logx.FieldUserID, job.req.UserID),
				logx.Error(err),
			)

			return bidResult{err: fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)}
		}

		return bidResult{resp: newBidResponse(strategy, decision)}
	}
}

func newBidResponse(strategy string, decision entity.BidDecision) entity.BidResponse {
	status := value.BidApproved

	switch {
	case !decision.Approved:
		status = value.BidRejected
	case decision.RiskLevel == value.RiskCapped:
		status = value.BidCapped
	}

	return entity.BidResponse{
		Status:    status,
		BidAmount: decision.ApprovedBid,
		Strategy:  strategy,
		Decision:  decision,
	}
}

func validateRequest(req entity.BidRequest) error {
	if err := guard.ValidateBid(req.UserID, req.RequestedBid); err != nil {
		return err
	}

	if strings.TrimSpace(req.Context) == "" {
		return failure.NewInvalidArgumentError(
			"bid context is required",
			failure.WithCode(errcodes.InvalidBidContext),
			failure.WithDescription("context must not be empty"),
		)
	}

	return nil
}

func deadlineError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrDeadlineExceeded
	}

	return fmt.Errorf("bid cancelled: %w", ctx.Err())
}

func resultLabel(res bidResult) string {
	switch {
	case res.err == nil:
		return string(res.resp.Status)
	case errors.Is(res.err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(res.err, ErrCollaboratorUnavailable):
		return "collaborator_unavailable"
	default:
		return "error"
	}
}
