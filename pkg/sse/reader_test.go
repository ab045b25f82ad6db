package sse

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		Context("with standard SSE events", func() {
			It("parses a single event", func() {
				r := NewReader(strings.NewReader("data: hello world\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello world"))
				Expect(ev.Type).To(BeEmpty())
				Expect(ev.ID).To(BeEmpty())

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("parses multiple events", func() {
				r := NewReader(strings.NewReader("data: first\n\ndata: second\n\n"))

				ev1, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev1.Data).To(Equal("first"))

				ev2, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev2.Data).To(Equal("second"))

				ev3, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev3).To(BeNil())
			})

			It("parses id and event fields", func() {
				r := NewReader(strings.NewReader("id: 7\nevent: update\ndata: x\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.ID).To(Equal("7"))
				Expect(ev.Type).To(Equal("update"))
				Expect(ev.Data).To(Equal("x"))
			})

			It("joins multiple data lines with newlines", func() {
				r := NewReader(strings.NewReader("data: a\ndata: b\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("a\nb"))
			})
		})

		Context("with comment frames", func() {
			It("skips heartbeat frames entirely", func() {
				r := NewReader(strings.NewReader(":\n\ndata: real\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("real"))
			})

			It("skips comments interleaved within an event", func() {
				r := NewReader(strings.NewReader(": keep-alive\ndata: payload\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("payload"))
			})
		})

		Context("with edge-case framing", func() {
			It("yields an in-progress event when the stream ends early", func() {
				r := NewReader(strings.NewReader("data: truncated\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("truncated"))
			})

			It("ignores unknown fields", func() {
				r := NewReader(strings.NewReader("retry: 3000\ndata: x\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("x"))
			})

			It("handles fields without a value space", func() {
				r := NewReader(strings.NewReader("data:tight\n\n"))

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("tight"))
			})
		})

		Context("round-tripping encoded events", func() {
			It("recovers the exact payload including empty lines", func() {
				frame, err := Event{ID: "42", Type: "note", Data: "a\n\nb"}.Encode()
				Expect(err).NotTo(HaveOccurred())

				r := NewReader(strings.NewReader(string(frame)))
				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.ID).To(Equal("42"))
				Expect(ev.Type).To(Equal("note"))
				Expect(ev.Data).To(Equal("a\n\nb"))
			})

			It("recovers an empty payload", func() {
				frame, err := Event{Data: ""}.Encode()
				Expect(err).NotTo(HaveOccurred())

				r := NewReader(strings.NewReader(string(frame)))
				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).NotTo(BeNil())
				Expect(ev.Data).To(Equal(""))
			})
		})
	})
})
