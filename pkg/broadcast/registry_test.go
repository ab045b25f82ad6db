package broadcast

import (
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

// fakeStream is a controllable Stream for registry tests. Writes can be
// made to fail or to stall for a fixed delay.
type fakeStream struct {
	mu      sync.Mutex
	frames  [][]byte
	fail    bool
	delay   time.Duration
	aborted bool
}

func (f *fakeStream) Write(frame []byte) (int, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return 0, errors.New("peer went away")
	}

	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.frames = append(f.frames, cp)
	return len(frame), nil
}

func (f *fakeStream) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = true
}

func (f *fakeStream) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeStream) lastFrame() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return ""
	}
	return string(f.frames[len(f.frames)-1])
}

func (f *fakeStream) wasAborted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}

var _ = Describe("Registry", func() {
	var reg *Registry

	BeforeEach(func() {
		reg = NewRegistry(zap.NewNop())
	})

	Describe("Attach and Count", func() {
		It("counts attached streams", func() {
			reg.Attach(&fakeStream{})
			reg.Attach(&fakeStream{})
			Expect(reg.Count()).To(Equal(2))
		})

		It("starts empty", func() {
			Expect(reg.Count()).To(BeZero())
		})
	})

	Describe("Broadcast", func() {
		It("delivers the frame to every attached stream", func() {
			s1 := &fakeStream{}
			s2 := &fakeStream{}
			reg.Attach(s1)
			reg.Attach(s2)

			n := reg.Broadcast([]byte("data: hi\n\n"))
			Expect(n).To(Equal(2))
			Expect(s1.lastFrame()).To(Equal("data: hi\n\n"))
			Expect(s2.lastFrame()).To(Equal("data: hi\n\n"))
		})

		It("prunes streams whose write fails and keeps the rest", func() {
			healthy := &fakeStream{}
			dead := &fakeStream{fail: true}
			reg.Attach(healthy)
			reg.Attach(dead)

			n := reg.Broadcast([]byte("data: x\n\n"))
			Expect(n).To(Equal(1))
			Expect(reg.Count()).To(Equal(1))

			// The pruned stream never sees another write.
			reg.Broadcast([]byte("data: y\n\n"))
			Expect(dead.writeCount()).To(BeZero())
			Expect(healthy.writeCount()).To(Equal(2))
		})

		It("does not abort pruned streams", func() {
			dead := &fakeStream{fail: true}
			reg.Attach(dead)

			reg.Broadcast([]byte("data: x\n\n"))
			Expect(dead.wasAborted()).To(BeFalse())
		})

		It("returns zero with no streams attached", func() {
			Expect(reg.Broadcast([]byte("data: x\n\n"))).To(BeZero())
		})

		It("writes concurrently and completes only after the slowest stream", func() {
			const delay = 50 * time.Millisecond
			streams := make([]*fakeStream, 4)
			for i := range streams {
				streams[i] = &fakeStream{delay: delay}
				reg.Attach(streams[i])
			}

			start := time.Now()
			n := reg.Broadcast([]byte("data: x\n\n"))
			elapsed := time.Since(start)

			Expect(n).To(Equal(4))
			// The join waits for the slowest write.
			Expect(elapsed).To(BeNumerically(">=", delay))
			// Serial writes would take at least 4x the delay.
			Expect(elapsed).To(BeNumerically("<", 4*delay))

			for _, s := range streams {
				Expect(s.writeCount()).To(Equal(1))
			}
		})

		It("retains successes regardless of completion order", func() {
			slow := &fakeStream{delay: 40 * time.Millisecond}
			fast := &fakeStream{}
			failing := &fakeStream{fail: true, delay: 20 * time.Millisecond}
			reg.Attach(slow)
			reg.Attach(fast)
			reg.Attach(failing)

			n := reg.Broadcast([]byte("data: x\n\n"))
			Expect(n).To(Equal(2))
			Expect(reg.Count()).To(Equal(2))
		})

		It("keeps streams attached mid-broadcast without writing to them", func() {
			slow := &fakeStream{delay: 50 * time.Millisecond}
			reg.Attach(slow)

			late := &fakeStream{}
			done := make(chan int, 1)
			go func() {
				defer GinkgoRecover()
				done <- reg.Broadcast([]byte("data: x\n\n"))
			}()

			// Attach while the slow write is still in flight.
			time.Sleep(10 * time.Millisecond)
			reg.Attach(late)

			Eventually(done).Should(Receive(Equal(2)))
			Expect(late.writeCount()).To(BeZero())
			Expect(reg.Count()).To(Equal(2))
		})
	})

	Describe("Heartbeat", func() {
		It("sends the comment-only frame", func() {
			s := &fakeStream{}
			reg.Attach(s)

			n := reg.Heartbeat()
			Expect(n).To(Equal(1))
			Expect(s.lastFrame()).To(Equal(":\n\n"))
		})

		It("is idempotent on healthy streams", func() {
			reg.Attach(&fakeStream{})
			reg.Attach(&fakeStream{})

			for range 5 {
				Expect(reg.Heartbeat()).To(Equal(2))
			}
			Expect(reg.Count()).To(Equal(2))
		})

		It("prunes dead streams like a broadcast", func() {
			reg.Attach(&fakeStream{})
			reg.Attach(&fakeStream{fail: true})

			Expect(reg.Heartbeat()).To(Equal(1))
			Expect(reg.Count()).To(Equal(1))
		})
	})

	Describe("DisconnectAll", func() {
		It("aborts every stream and empties the registry", func() {
			s1 := &fakeStream{}
			s2 := &fakeStream{}
			reg.Attach(s1)
			reg.Attach(s2)

			reg.DisconnectAll()

			Expect(reg.Count()).To(BeZero())
			Expect(s1.wasAborted()).To(BeTrue())
			Expect(s2.wasAborted()).To(BeTrue())
		})

		It("prevents further writes to previously attached streams", func() {
			s := &fakeStream{}
			reg.Attach(s)

			reg.DisconnectAll()
			reg.Broadcast([]byte("data: x\n\n"))

			Expect(s.writeCount()).To(BeZero())
		})

		It("is a no-op on an empty registry", func() {
			reg.DisconnectAll()
			Expect(reg.Count()).To(BeZero())
		})
	})
})
