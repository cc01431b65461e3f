package tracker

import (
	"testing"
	"time"
)

func TestDispatcherSubscribeAndNotify(t *testing.T) {
	d := NewDispatcher()
	peer := "peer-123"
	ch, cancel := d.Subscribe(peer)
	defer cancel()

	want := JobInfo{ID: "job-1", AssignedPeerID: peer, Status: StatusAssigned}
	d.Notify(peer, want)

	select {
	case got := <-ch:
		if got.ID != want.ID {
			t.Fatalf("expected job %s, got %+v", want.ID, got)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timed out waiting for notification")
	}

	// Notifications for other peers must not arrive here
	d.Notify("someone-else", JobInfo{ID: "job-2"})
	select {
	case got := <-ch:
		t.Fatalf("unexpected notification: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatcherUnsubscribeClosesChannel(t *testing.T) {
	d := NewDispatcher()
	ch, cancel := d.Subscribe("peer-123")
	cancel()

	if _, open := <-ch; open {
		t.Fatal("expected channel to be closed after cancel")
	}

	// Notifying after the last unsubscribe must not panic or block
	d.Notify("peer-123", JobInfo{ID: "job-1"})
}

func TestDispatcherDropsSlowSubscribers(t *testing.T) {
	d := NewDispatcher()
	ch, cancel := d.Subscribe("peer-123")
	defer cancel()

	// Overfill the buffered channel; Notify must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 32; i++ {
			d.Notify("peer-123", JobInfo{ID: "job"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow subscriber")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected a full buffer, got %d/%d", len(ch), cap(ch))
	}
}
