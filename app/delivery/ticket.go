package delivery

import (
	"context"
	"sync"
)

// Ticket tracks a submitted job until it is finished
type Ticket struct {
	Job Job

	once sync.Once
	done chan struct{}
	err  error
}

// NewTicket makes an unfinished ticket for the job
func NewTicket(job Job) *Ticket {
	return &Ticket{Job: job, done: make(chan struct{})}
}

// Complete finishes the ticket with the outcome of the job. Only the first call has effect.
func (t *Ticket) Complete(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done is closed when the job is finished
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Err returns the outcome of finished job, ErrPending if not finished yet
func (t *Ticket) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return ErrPending
	}
}

// Wait blocks until the job is finished or ctx is done
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
