package delivery_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/tube-relay/app/delivery"
	"github.com/umputun/tube-relay/app/delivery/mocks"
)

func makeJob(t *testing.T, id string) delivery.Job {
	dir := filepath.Join(t.TempDir(), id)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	file := filepath.Join(dir, "Some Title.mp3")
	require.NoError(t, os.WriteFile(file, []byte("fake audio"), 0o600))
	return delivery.Job{ID: id, ChatID: 12345, File: file, Dir: dir, Title: "Some Title", Duration: 215}
}

func TestService_Deliver(t *testing.T) {
	sender := &mocks.SenderMock{SendFunc: func(_ context.Context, job delivery.Job) error {
		_, err := os.Stat(job.File)
		return err // file must exist while sending
	}}
	svc := &delivery.Service{Sender: sender, QueueSize: 4}
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	job := makeJob(t, "job1")
	ticket, err := svc.Submit(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, job, ticket.Job)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ticket.Wait(ctx))
	require.NoError(t, ticket.Err())

	require.Len(t, sender.SendCalls(), 1)
	assert.Equal(t, job, sender.SendCalls()[0].Job)

	assert.NoFileExists(t, job.File, "file removed after delivery")
	assert.NoDirExists(t, job.Dir, "job directory removed after delivery")
	assert.Equal(t, delivery.Stats{Pending: 0, Delivered: 1, Failed: 0}, svc.Stats())
}

func TestService_DeliverFailed(t *testing.T) {
	sender := &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error {
		return errors.New("telegram is down")
	}}
	svc := &delivery.Service{Sender: sender, Retries: 3, RetryDelay: time.Millisecond}
	require.NoError(t, svc.Start(context.Background()))

	job := makeJob(t, "job2")
	ticket, err := svc.Submit(context.Background(), job)
	require.NoError(t, err)

	select {
	case <-ticket.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("delivery not finished")
	}
	require.Error(t, ticket.Err())
	assert.Contains(t, ticket.Err().Error(), "telegram is down")
	assert.Len(t, sender.SendCalls(), 3, "all attempts used")
	assert.NoFileExists(t, job.File, "file removed after failed delivery")

	svc.Stop()
	assert.Equal(t, delivery.Stats{Pending: 0, Delivered: 0, Failed: 1}, svc.Stats())
}

func TestService_DeliverRetry(t *testing.T) {
	var attempts int32
	sender := &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("temporary failure")
		}
		return nil
	}}
	svc := &delivery.Service{Sender: sender, Retries: 2, RetryDelay: time.Millisecond}
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	ticket, err := svc.Submit(context.Background(), makeJob(t, "job3"))
	require.NoError(t, err)
	require.NoError(t, ticket.Wait(context.Background()))
	assert.Len(t, sender.SendCalls(), 2)
}

func TestService_StopWaitsForQueued(t *testing.T) {
	var sent int32
	sender := &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&sent, 1)
		return nil
	}}
	svc := &delivery.Service{Sender: sender, Workers: 2, QueueSize: 10}
	require.NoError(t, svc.Start(context.Background()))

	tickets := make([]*delivery.Ticket, 0, 5)
	for i := 0; i < 5; i++ {
		ticket, err := svc.Submit(context.Background(), makeJob(t, "job"+string(rune('a'+i))))
		require.NoError(t, err)
		tickets = append(tickets, ticket)
	}
	svc.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&sent))
	for _, ticket := range tickets {
		assert.NoError(t, ticket.Err())
	}

	_, err := svc.Submit(context.Background(), makeJob(t, "late"))
	assert.Equal(t, delivery.ErrStopped, err)
	svc.Stop() // second stop is a no-op
}

func TestService_Lifecycle(t *testing.T) {
	svc := &delivery.Service{Sender: &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error { return nil }}}
	_, err := svc.Submit(context.Background(), delivery.Job{ID: "x"})
	assert.Equal(t, delivery.ErrNotStarted, err)
	svc.Stop() // stop before start is a no-op

	require.NoError(t, svc.Start(context.Background()))
	assert.Error(t, svc.Start(context.Background()), "second start rejected")
	svc.Stop()

	noSender := &delivery.Service{}
	assert.Error(t, noSender.Start(context.Background()))
}

func TestService_SubmitCanceled(t *testing.T) {
	release := make(chan struct{})
	sender := &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error {
		<-release
		return nil
	}}
	svc := &delivery.Service{Sender: sender, Workers: 1, QueueSize: 0}
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()
	defer close(release)

	// first job is taken by the dispatcher, the second one blocks it in the worker group
	_, err := svc.Submit(context.Background(), makeJob(t, "busy1"))
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), makeJob(t, "busy2"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = svc.Submit(ctx, makeJob(t, "rejected"))
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestService_SubmitCanceledBehindBlockedSubmit(t *testing.T) {
	release := make(chan struct{})
	sender := &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error {
		<-release
		return nil
	}}
	svc := &delivery.Service{Sender: sender, Workers: 1, QueueSize: 1}
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()
	defer close(release)

	// fill the worker, the dispatcher and the queue
	for _, id := range []string{"busy1", "busy2", "busy3"} {
		_, err := svc.Submit(context.Background(), makeJob(t, id))
		require.NoError(t, err)
	}

	// this one blocks without a deadline
	blocked := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), makeJob(t, "blocked"))
		blocked <- err
	}()
	time.Sleep(50 * time.Millisecond)

	res := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := svc.Submit(ctx, makeJob(t, "with-deadline"))
		res <- err
	}()

	select {
	case err := <-res:
		assert.Equal(t, context.DeadlineExceeded, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submit didn't honor its context while another submit was blocked")
	}
	assert.Equal(t, int64(4), svc.Stats().Pending, "rejected job not counted")

	release <- struct{}{} // frees one slot for the blocked submit
	select {
	case err := <-blocked:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked submit not released")
	}
}

func TestService_StopReleasesBlockedSubmit(t *testing.T) {
	release := make(chan struct{})
	sender := &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error {
		<-release
		return nil
	}}
	svc := &delivery.Service{Sender: sender, Workers: 1, QueueSize: 0}
	require.NoError(t, svc.Start(context.Background()))

	for _, id := range []string{"busy1", "busy2"} {
		_, err := svc.Submit(context.Background(), makeJob(t, id))
		require.NoError(t, err)
	}
	blocked := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), makeJob(t, "blocked"))
		blocked <- err
	}()
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		svc.Stop()
		close(stopped)
	}()

	select {
	case err := <-blocked:
		assert.Equal(t, delivery.ErrStopped, err)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked submit not released by stop")
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop not finished")
	}
	assert.Equal(t, delivery.Stats{Pending: 0, Delivered: 2, Failed: 0}, svc.Stats())
}

func TestService_StatsAfterWait(t *testing.T) {
	sender := &mocks.SenderMock{SendFunc: func(context.Context, delivery.Job) error { return nil }}
	svc := &delivery.Service{Sender: sender, Workers: 4, QueueSize: 10}
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	for i := 0; i < 20; i++ {
		ticket, err := svc.Submit(context.Background(), makeJob(t, "stats"+string(rune('a'+i))))
		require.NoError(t, err)
		require.NoError(t, ticket.Wait(context.Background()))
		assert.Equal(t, int64(0), svc.Stats().Pending, "no pending job after its ticket is done")
	}
	assert.Equal(t, int64(20), svc.Stats().Delivered)
}

func TestTicket(t *testing.T) {
	ticket := delivery.NewTicket(delivery.Job{ID: "t1"})
	assert.Equal(t, delivery.ErrPending, ticket.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, ticket.Wait(ctx))

	ticket.Complete(errors.New("failed"))
	ticket.Complete(nil) // ignored
	assert.EqualError(t, ticket.Err(), "failed")
	assert.EqualError(t, ticket.Wait(context.Background()), "failed")
}
