package app

import (
	"testing"

	"duet-quiz-service/internal/domain"
)

func TestFeedDeliversToSubscribers(t *testing.T) {
	feed := NewResultFeed()
	ch, cancel := feed.Subscribe("inst-1")
	defer cancel()

	feed.Publish("inst-1", domain.Result{ResponderID: "bob", Compatibility: 94})
	got := <-ch
	if got.ResponderID != "bob" || got.Compatibility != 94 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestFeedIsolatesInstances(t *testing.T) {
	feed := NewResultFeed()
	ch, cancel := feed.Subscribe("inst-1")
	defer cancel()

	feed.Publish("inst-2", domain.Result{ResponderID: "carol"})
	select {
	case got := <-ch:
		t.Fatalf("received event for another instance: %+v", got)
	default:
	}
}

func TestFeedCancelStopsDelivery(t *testing.T) {
	feed := NewResultFeed()
	ch, cancel := feed.Subscribe("inst-1")
	cancel()

	if _, open := <-ch; open {
		t.Fatalf("channel should be closed after cancel")
	}
	// Publishing after cancel must not panic.
	feed.Publish("inst-1", domain.Result{ResponderID: "bob"})
}

func TestFeedDropsStaleEventsForSlowSubscribers(t *testing.T) {
	feed := NewResultFeed()
	ch, cancel := feed.Subscribe("inst-1")
	defer cancel()

	for i := 0; i < 20; i++ {
		feed.Publish("inst-1", domain.Result{ResponderID: "bob", ResponderScore: i})
	}
	// The newest event is always retained.
	var last domain.Result
	for {
		select {
		case event := <-ch:
			last = event
			continue
		default:
		}
		break
	}
	if last.ResponderScore != 19 {
		t.Fatalf("latest event lost, got score %d", last.ResponderScore)
	}
}
