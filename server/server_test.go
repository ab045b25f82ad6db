package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/pulse/pkg/broadcast"
	pulselogger "github.com/papercomputeco/pulse/pkg/logger"
)

// captureStream records broadcast frames; a failing variant simulates a
// subscriber whose connection died.
type captureStream struct {
	mu     sync.Mutex
	frames []string
	fail   bool
}

func (s *captureStream) Write(frame []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return 0, errors.New("closed pipe")
	}

	s.frames = append(s.frames, string(frame))
	return len(frame), nil
}

func (s *captureStream) Abort() {}

func (s *captureStream) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.frames...)
}

func newTestServer() (*Server, *broadcast.Registry) {
	registry := broadcast.NewRegistry(pulselogger.Nop())
	s := New(Config{ListenAddr: ":0"}, registry, pulselogger.Nop())
	return s, registry
}

var _ = Describe("Server", func() {
	var (
		s        *Server
		registry *broadcast.Registry
	)

	BeforeEach(func() {
		s, registry = newTestServer()
	})

	Describe("GET /", func() {
		It("serves the demo page", func() {
			resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring(`new EventSource("/events")`))
		})
	})

	Describe("GET /stats", func() {
		It("reports zero subscribers on a fresh hub", func() {
			resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var stats StatsResponse
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.Clients).To(BeZero())
		})

		It("counts attached streams without writing to them", func() {
			stream := &captureStream{}
			registry.Attach(stream)

			resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil), -1)
			Expect(err).NotTo(HaveOccurred())

			var stats StatsResponse
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.Clients).To(Equal(1))
			Expect(stream.received()).To(BeEmpty())
		})
	})

	Describe("POST /events", func() {
		newPublish := func(body string) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			return req
		}

		It("broadcasts the event to attached streams", func() {
			stream := &captureStream{}
			registry.Attach(stream)

			resp, err := s.app.Test(newPublish(`{"data": "deploy finished", "id": "42", "event": "deploy"}`), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var stats StatsResponse
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.Clients).To(Equal(1))

			Expect(stream.received()).To(ConsistOf("id: 42\nevent: deploy\ndata: deploy finished\n\n"))
		})

		It("generates an id when none is supplied", func() {
			stream := &captureStream{}
			registry.Attach(stream)

			resp, err := s.app.Test(newPublish(`{"data": "x"}`), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			frames := stream.received()
			Expect(frames).To(HaveLen(1))
			Expect(frames[0]).To(HavePrefix("id: "))
			Expect(frames[0]).To(HaveSuffix("data: x\n\n"))
		})

		It("reports the pruned count when a subscriber is gone", func() {
			registry.Attach(&captureStream{})
			registry.Attach(&captureStream{fail: true})

			resp, err := s.app.Test(newPublish(`{"data": "x"}`), -1)
			Expect(err).NotTo(HaveOccurred())

			var stats StatsResponse
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())
			Expect(stats.Clients).To(Equal(1))
			Expect(registry.Count()).To(Equal(1))
		})

		It("rejects a missing data field", func() {
			resp, err := s.app.Test(newPublish(`{"event": "deploy"}`), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects invalid JSON", func() {
			resp, err := s.app.Test(newPublish(`{not json`), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a multiline event type", func() {
			resp, err := s.app.Test(newPublish(`{"data": "x", "event": "a\nb"}`), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var errResp ErrorResponse
			Expect(json.NewDecoder(resp.Body).Decode(&errResp)).To(Succeed())
			Expect(errResp.Error).To(ContainSubstring("line break"))
		})
	})

	Describe("unmatched routes", func() {
		It("returns 404", func() {
			resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
