package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickkiraana/kiraana/pkg/sse"
)

func TestEventFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)

	s, err := sse.New(rec, req)
	require.NoError(t, err)
	require.NoError(t, s.Send("order", map[string]string{"id": "O1"}))
	require.NoError(t, s.Event("", []byte("a\nb")))
	require.NoError(t, s.Comment("ping"))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"event: order\ndata: {\"id\":\"O1\"}\n\n"+
			"data: a\ndata: b\n\n"+
			": ping\n\n",
		rec.Body.String())
}

func TestPipeEndsWhenChannelCloses(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	s, err := sse.New(rec, req)
	require.NoError(t, err)

	events := make(chan []byte, 2)
	events <- []byte(`{"id":"O1"}`)
	events <- []byte(`{"id":"O2"}`)
	close(events)

	require.NoError(t, s.Pipe(events, "order", time.Hour))
	assert.Equal(t,
		"event: order\ndata: {\"id\":\"O1\"}\n\nevent: order\ndata: {\"id\":\"O2\"}\n\n",
		rec.Body.String())
}

func TestPipeEndsWhenClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/feed", nil).WithContext(ctx)
	s, err := sse.New(rec, req)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Pipe(make(chan []byte), "order", time.Hour) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pipe did not stop")
	}
}

type noFlush struct{ http.ResponseWriter }

func TestUnflushableWriter(t *testing.T) {
	_, err := sse.New(noFlush{httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, sse.ErrUnsupported)
}
