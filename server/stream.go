package server

import "io"

// pipeStream adapts the write end of an io.Pipe into a broadcast.Stream.
//
// The matching pipe reader is handed to fasthttp as the response body
// stream, so a Write here blocks until the frame reaches the client
// socket. When the client goes away fasthttp closes the reader, and the
// next Write fails with io.ErrClosedPipe — the lazy disconnect signal
// the registry prunes on.
type pipeStream struct {
	pw *io.PipeWriter
}

func newPipeStream(pw *io.PipeWriter) *pipeStream {
	return &pipeStream{pw: pw}
}

func (s *pipeStream) Write(frame []byte) (int, error) {
	return s.pw.Write(frame)
}

// Abort closes the write end. The reader sees EOF, fasthttp finishes
// the chunked response, and the connection closes.
func (s *pipeStream) Abort() {
	_ = s.pw.Close()
}
