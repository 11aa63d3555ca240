package actor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	running  int32
	overlap  bool
	received []any
	fail     bool
	restarts int
}

func (h *recordingHandler) Receive(msg any, sender Ref) error {
	if atomic.AddInt32(&h.running, 1) > 1 {
		h.overlap = true
	}
	defer atomic.AddInt32(&h.running, -1)
	time.Sleep(time.Millisecond)
	h.mu.Lock()
	h.received = append(h.received, msg)
	h.mu.Unlock()
	if h.fail {
		return errors.New("boom")
	}
	return nil
}

func (h *recordingHandler) Restart() {
	h.mu.Lock()
	h.restarts++
	h.mu.Unlock()
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func TestLocalRef(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, h *recordingHandler, wg *sync.WaitGroup){
		"messages are handled one at a time in order": testSerialDelivery,
		"full mailbox is reported":                    testMailboxFull,
		"failed message restarts handler":             testRestartOnFailure,
		"stopped ref rejects messages":                testStopped,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, &recordingHandler{}, &sync.WaitGroup{})
		})
	}
}

func testSerialDelivery(t *testing.T, h *recordingHandler, wg *sync.WaitGroup) {
	ref := NewLocalRef("test/0", h, 64, wg)
	ref.Start()
	defer ref.Stop()

	for i := 0; i < 20; i++ {
		require.NoError(t, ref.Tell(i, nil))
	}
	require.Eventually(t, func() bool { return h.count() == 20 }, 2*time.Second, 5*time.Millisecond)
	require.False(t, h.overlap)
	h.mu.Lock()
	for i, v := range h.received {
		require.Equal(t, i, v)
	}
	h.mu.Unlock()
	require.EqualValues(t, 20, ref.Processed())
}

func testMailboxFull(t *testing.T, h *recordingHandler, wg *sync.WaitGroup) {
	ref := NewLocalRef("test/0", h, 1, wg)
	require.NoError(t, ref.Tell(1, nil))
	require.ErrorIs(t, ref.Tell(2, nil), ErrMailboxFull)
}

func testRestartOnFailure(t *testing.T, h *recordingHandler, wg *sync.WaitGroup) {
	h.fail = true
	ref := NewLocalRef("test/0", h, 4, wg)
	ref.Start()
	defer ref.Stop()

	require.NoError(t, ref.Tell("x", nil))
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.restarts == 1
	}, time.Second, 5*time.Millisecond)
}

func testStopped(t *testing.T, h *recordingHandler, wg *sync.WaitGroup) {
	ref := NewLocalRef("test/0", h, 4, wg)
	ref.Start()
	ref.Stop()
	ref.Stop()
	wg.Wait()
	require.ErrorIs(t, ref.Tell("x", nil), ErrStopped)
}

func TestPromiseKeepsFirstReply(t *testing.T) {
	p := NewPromise()
	require.NoError(t, p.Tell("first", nil))
	require.ErrorIs(t, p.Tell("second", nil), ErrStopped)
	require.Equal(t, "first", <-p.Result())
}

func TestCanceledPromiseDropsReply(t *testing.T) {
	p := NewPromise()
	p.Cancel()
	require.True(t, p.Canceled())
	require.ErrorIs(t, p.Tell("late", nil), ErrStopped)
	select {
	case <-p.Result():
		t.Fatal("canceled promise must not deliver")
	default:
	}
}
