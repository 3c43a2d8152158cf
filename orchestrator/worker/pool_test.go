package worker

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/pkg/eventstream"
)

// recordingPublisher records published events and can be blocked or failed.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []*eventstream.TurnHandledEvent
	err     error
	release chan struct{}
}

func (r *recordingPublisher) PublishTurn(_ context.Context, event *eventstream.TurnHandledEvent) error {
	if r.release != nil {
		<-r.release
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error {
	return nil
}

func (r *recordingPublisher) published() []*eventstream.TurnHandledEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.TurnHandledEvent(nil), r.events...)
}

// newTestPool creates a worker pool backed by a recording publisher.
// Callers should "wp.Close()" to drain enqueued jobs before asserting publisher state.
func newTestPool(pub *recordingPublisher, workers, queue uint) *Pool {
	logger, _ := zap.NewDevelopment()

	wp, err := NewPool(&Config{
		Publisher:  pub,
		NumWorkers: workers,
		QueueSize:  queue,
		Logger:     logger,
	})
	Expect(err).NotTo(HaveOccurred())

	return wp
}

var _ = Describe("Worker Pool", func() {
	It("requires a publisher", func() {
		_, err := NewPool(&Config{})
		Expect(err).To(HaveOccurred())
	})

	It("applies defaults", func() {
		wp := newTestPool(&recordingPublisher{}, 0, 0)
		defer wp.Close()

		Expect(wp.config.NumWorkers).To(Equal(defaultNumWorkers))
		Expect(cap(wp.queue)).To(Equal(int(defaultJobQueueSize)))
	})

	Describe("Enqueue", func() {
		It("publishes every enqueued event before Close returns", func() {
			pub := &recordingPublisher{}
			wp := newTestPool(pub, 2, 8)

			for _, id := range []string{"evt_1", "evt_2", "evt_3"} {
				Expect(wp.Enqueue(Job{Event: &eventstream.TurnHandledEvent{EventID: id}})).To(BeTrue())
			}
			wp.Close()

			ids := []string{}
			for _, e := range pub.published() {
				ids = append(ids, e.EventID)
			}
			Expect(ids).To(ConsistOf("evt_1", "evt_2", "evt_3"))
		})

		It("drops jobs when the queue is full", func() {
			pub := &recordingPublisher{release: make(chan struct{})}
			wp := newTestPool(pub, 1, 1)

			// The single worker blocks on the first job; the second fills the
			// queue and the third is dropped.
			Expect(wp.Enqueue(Job{Event: &eventstream.TurnHandledEvent{EventID: "evt_1"}})).To(BeTrue())
			Eventually(func() int { return len(wp.queue) }).Should(Equal(0))
			Expect(wp.Enqueue(Job{Event: &eventstream.TurnHandledEvent{EventID: "evt_2"}})).To(BeTrue())
			Expect(wp.Enqueue(Job{Event: &eventstream.TurnHandledEvent{EventID: "evt_3"}})).To(BeFalse())

			close(pub.release)
			wp.Close()
			Expect(pub.published()).To(HaveLen(2))
		})

		It("logs and continues when publishing fails", func() {
			pub := &recordingPublisher{err: errors.New("broker down")}
			wp := newTestPool(pub, 1, 4)

			Expect(wp.Enqueue(Job{Event: &eventstream.TurnHandledEvent{EventID: "evt_1"}})).To(BeTrue())
			Expect(func() { wp.Close() }).NotTo(Panic())
			Expect(pub.published()).To(BeEmpty())
		})
	})
})
