package ws

import (
	"testing"
	"time"
)

func TestSessionSendIsBoundedAndNonBlocking(t *testing.T) {
	sess := newSession(nil, 2, time.Second, time.Second)

	if !sess.Send([]byte("a")) || !sess.Send([]byte("b")) {
		t.Fatalf("expected queue to accept two messages")
	}
	done := make(chan bool)
	go func() { done <- sess.Send([]byte("c")) }()
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected full queue to drop")
		}
	case <-time.After(time.Second):
		t.Fatalf("expected Send not to block")
	}
}

func TestSessionSendAfterCloseFails(t *testing.T) {
	sess := newSession(nil, 4, time.Second, time.Second)
	sess.Close()
	sess.Close()

	if sess.Send([]byte("late")) {
		t.Fatalf("expected closed session to reject sends")
	}
	select {
	case <-sess.Done():
	default:
		t.Fatalf("expected done to be closed")
	}
}

func TestSessionDefaultsQueueSize(t *testing.T) {
	sess := newSession(nil, 0, time.Second, time.Second)
	if cap(sess.send) != defaultQueueSize {
		t.Fatalf("expected queue size %d, got %d", defaultQueueSize, cap(sess.send))
	}
}
