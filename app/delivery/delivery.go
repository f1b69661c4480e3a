// Package delivery hands produced audio files to a messaging backend. Jobs are queued through a channel
// and sent by a group of workers; each submitted job gets a ticket reporting its outcome.
// The file and its per-download directory are removed once the job is finished.
package delivery

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/syncs"
	"github.com/hashicorp/go-multierror"
)

//go:generate moq -out mocks/sender.go -pkg mocks -skip-ensure -fmt goimports . Sender

var (
	// ErrNotStarted returned by Submit before Start
	ErrNotStarted = errors.New("delivery service not started")
	// ErrStopped returned by Submit after Stop
	ErrStopped = errors.New("delivery service stopped")
	// ErrPending returned by Ticket.Err while the job is not finished
	ErrPending = errors.New("delivery pending")
)

// Job is a single file to deliver
type Job struct {
	ID          string
	ChatID      int64
	File        string
	Dir         string // removed together with the file, optional
	Title       string
	Duration    int
	Performer   string
	RequestedBy string
}

// Sender sends a job's file to its destination
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// Stats of the delivery service
type Stats struct {
	Pending   int64 `json:"pending"`
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
}

// Service delivers submitted jobs with Sender
type Service struct {
	Sender     Sender
	Workers    int           // concurrent sends, 1 if not set
	QueueSize  int           // submitted jobs waiting for a worker
	Retries    int           // attempts per job, 1 if not set
	RetryDelay time.Duration // delay between attempts
	Timeout    time.Duration // per job, 0 means no timeout

	lock     sync.RWMutex // write lock guards state changes, read lock is held by submitters
	jobs     chan *Ticket
	quit     chan struct{} // closed by Stop to release submitters blocked on a full queue
	stopOnce sync.Once
	stopped  bool
	done     chan struct{}
	cancel   context.CancelFunc

	pending   atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
}

// Start launches the workers. Jobs are processed until Stop or ctx cancellation,
// after cancellation queued jobs still finish with ctx error.
func (s *Service) Start(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.jobs != nil {
		return errors.New("delivery service already started")
	}
	if s.Sender == nil {
		return errors.New("no sender defined")
	}

	s.jobs = make(chan *Ticket, s.QueueSize)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	go s.dispatch(ctx)
	log.Printf("[INFO] delivery service started, workers: %d, queue: %d, retries: %d", s.workers(), s.QueueSize, s.retries())
	return nil
}

// Stop rejects new jobs and waits for queued and in-flight jobs to finish.
// Submitters blocked on a full queue get ErrStopped.
func (s *Service) Stop() {
	s.lock.RLock()
	started := s.jobs != nil
	s.lock.RUnlock()
	if !started {
		return
	}

	s.stopOnce.Do(func() {
		close(s.quit)
		s.lock.Lock() // waits for submitters to leave
		s.stopped = true
		close(s.jobs)
		s.lock.Unlock()

		<-s.done
		s.cancel()
		log.Printf("[INFO] delivery service stopped, %+v", s.Stats())
	})
}

// Submit queues the job and returns its ticket. Blocks while the queue is full,
// until ctx is done or the service is stopped.
func (s *Service) Submit(ctx context.Context, job Job) (*Ticket, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.jobs == nil {
		return nil, ErrNotStarted
	}
	if s.stopped {
		return nil, ErrStopped
	}

	t := NewTicket(job)
	s.pending.Add(1)
	select {
	case s.jobs <- t:
		log.Printf("[DEBUG] delivery %s queued, %q to %d", job.ID, job.Title, job.ChatID)
		return t, nil
	case <-ctx.Done():
		s.pending.Add(-1)
		return nil, ctx.Err()
	case <-s.quit:
		s.pending.Add(-1)
		return nil, ErrStopped
	}
}

// Stats returns counters of the service
func (s *Service) Stats() Stats {
	return Stats{Pending: s.pending.Load(), Delivered: s.delivered.Load(), Failed: s.failed.Load()}
}

func (s *Service) dispatch(ctx context.Context) {
	defer close(s.done)
	swg := syncs.NewSizedGroup(s.workers(), syncs.Preemptive)
	for t := range s.jobs {
		t := t
		swg.Go(func(context.Context) { s.deliver(ctx, t) })
	}
	swg.Wait()
}

func (s *Service) deliver(ctx context.Context, t *Ticket) {
	job := t.Job

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	st := time.Now()
	err := repeater.NewDefault(s.retries(), s.RetryDelay).Do(ctx, func() error {
		if e := s.Sender.Send(ctx, job); e != nil {
			log.Printf("[DEBUG] send attempt for %s failed: %v", job.ID, e)
			return e
		}
		return nil
	})
	if err != nil {
		s.failed.Add(1)
		log.Printf("[WARN] failed to deliver %s (%s) to %d: %v", job.ID, job.Title, job.ChatID, err)
	} else {
		s.delivered.Add(1)
		log.Printf("[INFO] delivered %s (%s) to %d in %v", job.ID, job.Title, job.ChatID, time.Since(st).Truncate(time.Millisecond))
	}

	if cerr := cleanup(job); cerr != nil {
		log.Printf("[DEBUG] cleanup of %s incomplete: %v", job.ID, cerr)
	}
	s.pending.Add(-1) // before Complete, waiters see final stats
	t.Complete(err)
}

func (s *Service) workers() int {
	if s.Workers < 1 {
		return 1
	}
	return s.Workers
}

func (s *Service) retries() int {
	if s.Retries < 1 {
		return 1
	}
	return s.Retries
}

// cleanup removes job's file and directory, missing ones are not errors
func cleanup(job Job) error {
	var errs *multierror.Error
	if job.File != "" {
		if err := os.Remove(job.File); err != nil && !os.IsNotExist(err) {
			errs = multierror.Append(errs, err)
		}
	}
	if job.Dir != "" {
		if err := os.RemoveAll(job.Dir); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
