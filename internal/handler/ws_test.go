package handler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedFrame struct {
	kind int
	data []byte
}

type fakeSocket struct {
	mu      sync.Mutex
	frames  []recordedFrame
	closed  bool
	failing bool
}

func (s *fakeSocket) WriteMessage(kind int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("broken pipe")
	}
	s.frames = append(s.frames, recordedFrame{kind: kind, data: data})
	return nil
}

func (s *fakeSocket) SetWriteDeadline(time.Time) error { return nil }

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSocket) snapshot() ([]recordedFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedFrame(nil), s.frames...), s.closed
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not stop")
	}
}

func TestWriteLoop_ClosedQueueClosesSocket(t *testing.T) {
	h := &WSHandler{log: zerolog.Nop()}
	send := make(chan []byte, 2)
	sock := &fakeSocket{}
	done := make(chan struct{})

	send <- []byte(`{"type":"pong"}`)
	close(send)
	go h.writeLoop(send, sock, done)
	waitDone(t, done)

	frames, closed := sock.snapshot()
	require.Len(t, frames, 2)
	assert.Equal(t, websocket.TextMessage, frames[0].kind)
	assert.Equal(t, `{"type":"pong"}`, string(frames[0].data))
	assert.Equal(t, websocket.CloseMessage, frames[1].kind)
	assert.True(t, closed, "socket must be closed so the reader returns")
}

func TestWriteLoop_WriteErrorClosesSocket(t *testing.T) {
	h := &WSHandler{log: zerolog.Nop()}
	send := make(chan []byte, 1)
	sock := &fakeSocket{failing: true}
	done := make(chan struct{})

	send <- []byte(`{}`)
	go h.writeLoop(send, sock, done)
	waitDone(t, done)

	_, closed := sock.snapshot()
	assert.True(t, closed)
}
