package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/zipline/accesslist"
	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/tracer"
)

const txChanSize = 4096

var ErrStopped = errors.New("executor stopped")

// Result is what a submitted transaction produced. Receipt is nil when the
// transaction was rejected before execution.
type Result struct {
	Receipt    *ledger.Receipt
	AccessList accesslist.RWAccessListsMarshal
}

// ExecutedEvent is posted after every transaction that reached the ledger.
type ExecutedEvent struct {
	Tx     *types.Transaction
	Result *Result
	Err    error
}

type submission struct {
	tx     *types.Transaction
	respCh chan response
}

type response struct {
	result *Result
	err    error
}

// ExecutorService applies submitted transactions to the ledger one at a
// time, in the order they were accepted.
type ExecutorService struct {
	Ledger *ledger.Ledger

	submitCh     chan submission
	executedFeed event.Feed
	scope        event.SubscriptionScope

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   log.Logger
}

func NewExecutorService(l *ledger.Ledger, logger log.Logger) *ExecutorService {
	if logger == nil {
		logger = log.Root()
	}
	es := &ExecutorService{
		Ledger:   l,
		submitCh: make(chan submission, txChanSize),
		quit:     make(chan struct{}),
		logger:   logger,
	}
	es.wg.Add(1)
	go es.ExecuteLoop()
	return es
}

// Submit queues tx and waits for its result. The error is the execution
// error, if any, and the result still carries the failed receipt.
func (e *ExecutorService) Submit(ctx context.Context, tx *types.Transaction) (*Result, error) {
	sub := submission{tx: tx, respCh: make(chan response, 1)}
	select {
	case e.submitCh <- sub:
	case <-e.quit:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-sub.respCh:
		return resp.result, resp.err
	case <-e.quit:
		return nil, ErrStopped
	case <-ctx.Done():
		// already queued, it will still run
		return nil, ctx.Err()
	}
}

// Simulate runs tx without keeping its changes. Like Submit, a transaction
// the ledger rejects before execution yields no result, only the error.
func (e *ExecutorService) Simulate(ctx context.Context, tx *types.Transaction) (*Result, error) {
	rwal, receipt, err := tracer.CreateRWAL(ctx, e.Ledger, tx)
	if receipt == nil {
		return nil, err
	}
	return &Result{Receipt: receipt, AccessList: rwal.ToMarshal()}, err
}

// SubscribeExecutedEvent registers ch to receive an event per executed
// transaction.
func (e *ExecutorService) SubscribeExecutedEvent(ch chan<- ExecutedEvent) event.Subscription {
	return e.scope.Track(e.executedFeed.Subscribe(ch))
}

func (e *ExecutorService) ExecuteLoop() {
	defer e.wg.Done()
	for {
		select {
		case sub := <-e.submitCh:
			result, err := e.execute(sub.tx)
			sub.respCh <- response{result: result, err: err}
			if result != nil && result.Receipt != nil {
				e.executedFeed.Send(ExecutedEvent{Tx: sub.tx, Result: result, Err: err})
			}
		case <-e.quit:
			return
		}
	}
}

func (e *ExecutorService) execute(tx *types.Transaction) (*Result, error) {
	t := tracer.NewFeePayerTracer(tx)

	receipt, err := e.Ledger.ProcessTransactionWithTracer(context.Background(), tx, t)
	if receipt == nil {
		e.logger.Warn("Transaction rejected", "err", err)
		return nil, err
	}
	result := &Result{Receipt: receipt, AccessList: t.RWAccessList().ToMarshal()}
	if err != nil {
		e.logger.Info("Transaction failed", "hash", receipt.TxHash, "err", err)
		return result, err
	}
	e.logger.Info("Transaction executed", "hash", receipt.TxHash, "logs", len(receipt.Logs))
	return result, nil
}

// Stop ends the execution loop. Pending submissions fail with ErrStopped.
func (e *ExecutorService) Stop() {
	e.stopOnce.Do(func() {
		close(e.quit)
		e.wg.Wait()
		e.scope.Close()
	})
}
