package notify

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRouterBuffersAndFlushes(t *testing.T) {
	router := NewRouter(RouterWithSubscriberCapacity(4))
	first := Event{EventID: "evt-1", DefinitionID: "button", Type: TypeOverlayApplied}
	second := Event{EventID: "evt-2", DefinitionID: "button", Type: TypeOverlaySkipped}
	router.Route(first)
	router.Route(second)
	sub := router.Subscribe("button")
	defer sub.Close()
	got1 := <-sub.Events
	if got1.EventID != first.EventID {
		t.Fatalf("expected first buffered event, got %s", got1.EventID)
	}
	got2 := <-sub.Events
	if got2.EventID != second.EventID {
		t.Fatalf("expected second buffered event, got %s", got2.EventID)
	}
	if got1.Sequence >= got2.Sequence {
		t.Fatalf("expected increasing sequence, got %d then %d", got1.Sequence, got2.Sequence)
	}
}

func TestRouterDedupeByEventID(t *testing.T) {
	router := NewRouter()
	sub := router.Subscribe("button")
	defer sub.Close()
	event := Event{EventID: "evt-1", DefinitionID: "button", Type: TypeOverlayApplied}
	router.Route(event)
	router.Route(event)
	select {
	case got := <-sub.Events:
		if got.EventID != event.EventID {
			t.Fatalf("unexpected event: %s", got.EventID)
		}
	default:
		t.Fatalf("expected first delivery")
	}
	select {
	case <-sub.Events:
		t.Fatalf("duplicate event delivered")
	default:
	}
}

func TestRouterDropsOldestPreferredEventOnOverflow(t *testing.T) {
	router := NewRouter(RouterWithSubscriberCapacity(1))
	sub := router.Subscribe("button")
	defer sub.Close()
	oldest := Event{EventID: "evt-1", DefinitionID: "button", Type: TypeOverlaySkipped}
	critical := Event{EventID: "evt-2", DefinitionID: "button", Type: TypeOverlayFailed}
	router.Route(oldest)
	router.Route(critical)
	if got := <-sub.Events; got.EventID != critical.EventID {
		t.Fatalf("expected failure event to replace oldest, got %s", got.EventID)
	}
}

func TestRouterDropsIncomingWhenOldestCritical(t *testing.T) {
	router := NewRouter(RouterWithSubscriberCapacity(1))
	sub := router.Subscribe("button")
	defer sub.Close()
	oldest := Event{EventID: "evt-1", DefinitionID: "button", Type: TypeOverlayFailed}
	droppable := Event{EventID: "evt-2", DefinitionID: "button", Type: TypeOverlaySkipped}
	router.Route(oldest)
	router.Route(droppable)
	if got := <-sub.Events; got.EventID != oldest.EventID {
		t.Fatalf("expected oldest failure event to remain, got %s", got.EventID)
	}
	select {
	case <-sub.Events:
		t.Fatalf("unexpected extra event")
	default:
	}
}

func TestRouterWildcardSubscription(t *testing.T) {
	router := NewRouter()
	all := router.Subscribe(SubscribeAll)
	defer all.Close()
	scoped := router.Subscribe("button")
	defer scoped.Close()

	router.Route(Event{EventID: "evt-1", DefinitionID: "button", Type: TypeOverlayApplied})
	router.Route(Event{EventID: "evt-2", Type: TypeCatalogReloaded})

	if got := <-all.Events; got.EventID != "evt-1" {
		t.Fatalf("expected wildcard to see definition event, got %s", got.EventID)
	}
	if got := <-all.Events; got.EventID != "evt-2" {
		t.Fatalf("expected wildcard to see reload event, got %s", got.EventID)
	}
	if got := <-scoped.Events; got.EventID != "evt-1" {
		t.Fatalf("expected scoped subscriber to see its event, got %s", got.EventID)
	}
	select {
	case got := <-scoped.Events:
		t.Fatalf("scoped subscriber saw unrelated event %s", got.EventID)
	default:
	}
}
