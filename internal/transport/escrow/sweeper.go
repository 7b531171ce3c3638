// Package escrow периодически переводит продавцам средства по эскроу, срок удержания которых истек.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultServiceTimeout         = 5 * time.Second
	defaultInterval               = time.Minute
	defaultLimitPerIteration uint = 100
	defaultReleaseWorkers    uint = 4
)

var ErrNothingDue = errors.New("nothing due")

// Observer учитывает результат попытки выплаты.
type Observer interface {
	ObserveRelease(released bool)
}

type noopObserver struct{}

func (noopObserver) ObserveRelease(bool) {}

// Sweeper выбирает эскроу с истекшим сроком и выплачивает их пулом воркеров.
type Sweeper struct {
	svs               Releaser
	observer          Observer
	l                 *logrus.Entry
	interval          time.Duration
	limitPerIteration uint
	releaseWorkers    uint
}

func New(svs Releaser, l *logrus.Logger) *Sweeper {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "escrow",
		"module":    "sweeper",
	})

	return &Sweeper{
		svs:               svs,
		observer:          noopObserver{},
		l:                 loggerEntry,
		interval:          defaultInterval,
		limitPerIteration: defaultLimitPerIteration,
		releaseWorkers:    defaultReleaseWorkers,
	}
}

// SetInterval устанавливает паузу между проходами.
func (s *Sweeper) SetInterval(d time.Duration) *Sweeper {
	s.interval = d
	return s
}

// SetLimitPerIteration устанавливает кол-во эскроу, выбираемых за один проход.
func (s *Sweeper) SetLimitPerIteration(limit uint) *Sweeper {
	s.limitPerIteration = limit
	return s
}

func (s *Sweeper) SetReleaseWorkers(workers uint) *Sweeper {
	s.releaseWorkers = workers
	return s
}

func (s *Sweeper) SetObserver(o Observer) *Sweeper {
	s.observer = o
	return s
}

// Run выполняет проходы до отмены контекста. Следующий проход начинается сразу, только если пачка
// была полной и в ней что-то выплачено. Иначе ждем интервал: удержанные эскроу вернутся в той же пачке.
func (s *Sweeper) Run(ctx context.Context) error {
	s.l.WithFields(logrus.Fields{
		"interval":          s.interval,
		"limitPerIteration": s.limitPerIteration,
		"releaseWorkers":    s.releaseWorkers,
	}).Info("Starting")

	for {
		res, err := s.sweep(ctx)
		if err != nil && !errors.Is(err, ErrNothingDue) {
			s.l.WithError(err).Error("sweep error")
		}

		if err == nil && res.hasMore(s.limitPerIteration) && ctx.Err() == nil {
			continue
		}

		select {
		case <-ctx.Done():
			s.l.Info("Got stop signal, exiting...")
			return nil
		case <-time.After(s.interval):
		}
	}
}

type sweepResult struct {
	Due      int
	Released int
}

// hasMore полная пачка с продвижением: вероятно есть еще, ждать не нужно.
func (r sweepResult) hasMore(limit uint) bool {
	return r.Released > 0 && uint(r.Due) >= limit //nolint:gosec
}

// sweep выполняет один проход.
func (s *Sweeper) sweep(ctx context.Context) (sweepResult, error) {
	ids, err := s.produce(ctx)
	if err != nil {
		return sweepResult{}, fmt.Errorf("sweep: %w", err)
	}

	results := s.runWorkers(ctx, ids)

	var released int
	for _, r := range results {
		l := s.l.WithFields(logrus.Fields{"worker": r.WorkerID, "escrowID": r.EscrowID})
		if r.Error != nil {
			l.WithError(r.Error).Error("release escrow")
			continue
		}
		s.observer.ObserveRelease(r.Released)
		if r.Released {
			released++
			l.Info("Released")
		}
	}
	s.l.WithFields(logrus.Fields{"due": len(ids), "released": released}).Debug("sweep done")
	return sweepResult{Due: len(ids), Released: released}, nil
}

func (s *Sweeper) produce(ctx context.Context) ([]int64, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	ids, err := s.svs.DueForRelease(produceCtx, s.limitPerIteration)
	if err != nil {
		return nil, fmt.Errorf("produce: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNothingDue
	}
	return ids, nil
}

type workerResult struct {
	WorkerID uint
	EscrowID int64
	Released bool
	Error    error
}

// runWorkers раздает эскроу воркерам и собирает результаты (fan-out/fan-in).
func (s *Sweeper) runWorkers(ctx context.Context, ids []int64) []workerResult {
	var taskCh = make(chan int64, len(ids))
	for _, id := range ids {
		taskCh <- id
	}
	close(taskCh)

	var resultCh = make(chan workerResult, len(ids))

	wg := new(sync.WaitGroup)
	for i := range s.releaseWorkers {
		wg.Add(1)
		go s.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()
	close(resultCh)

	var results = make([]workerResult, 0, len(ids))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

func (s *Sweeper) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID uint,
	taskCh <-chan int64,
	resultCh chan<- workerResult,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-taskCh:
			if !ok {
				return
			}
			// начатая выплата доводится до конца даже при остановке.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultServiceTimeout)
			released, err := s.svs.Release(releaseCtx, id)
			cancel()
			resultCh <- workerResult{WorkerID: workerID, EscrowID: id, Released: released, Error: err}
		}
	}
}
