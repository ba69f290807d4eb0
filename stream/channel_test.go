package stream

import (
	"bytes"
	"errors"
	"testing"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestChannelSendFrameFormat(t *testing.T) {
	var buf bytes.Buffer
	flushed := 0
	ch := NewChannel("user-1", &buf, func() { flushed++ })

	if err := ch.Send("activity", []byte(`{"id":"a1"}`)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := "event: activity\ndata: {\"id\":\"a1\"}\n\n"
	if got := buf.String(); got != want {
		t.Fatalf("frame mismatch:\ngot  %q\nwant %q", got, want)
	}
	if flushed != 1 {
		t.Fatalf("expected 1 flush, got %d", flushed)
	}
}

func TestChannelCommentFrame(t *testing.T) {
	var buf bytes.Buffer
	ch := NewChannel("user-1", &buf, nil)

	if err := ch.Comment("keepalive"); err != nil {
		t.Fatalf("Comment failed: %v", err)
	}
	if got := buf.String(); got != ":keepalive\n\n" {
		t.Fatalf("unexpected comment frame %q", got)
	}
}

func TestChannelWriteErrorMarksClosed(t *testing.T) {
	ch := NewChannel("user-1", failWriter{}, nil)

	if err := ch.Send("activity", []byte("{}")); err == nil {
		t.Fatal("expected write error")
	}
	if err := ch.Send("activity", []byte("{}")); !errors.Is(err, errChannelClosed) {
		t.Fatalf("expected channel closed error, got %v", err)
	}
}

func TestChannelCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	ch := NewChannel("user-1", &buf, nil)

	ch.Close()
	ch.Close()

	select {
	case <-ch.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
	if err := ch.Send("activity", []byte("{}")); !errors.Is(err, errChannelClosed) {
		t.Fatalf("expected channel closed error, got %v", err)
	}
}
