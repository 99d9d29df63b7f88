package collab

import "testing"

func TestSendDeliversToSubscriber(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe("worker-1")
	b.Send("planner", "worker-1", "assign", "task-1")

	select {
	case msg := <-ch:
		if msg.Type != "assign" || msg.Payload != "task-1" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	default:
		t.Fatalf("expected message to be delivered")
	}
}

func TestSendToUnknownRecipientIsNoop(t *testing.T) {
	b := NewBus()
	b.Send("planner", "nobody", "assign", "task-1") // must not panic
}

func TestBroadcastExcludesSender(t *testing.T) {
	b := NewBus()
	a := b.Subscribe("agent-a")
	bb := b.Subscribe("agent-b")
	b.Broadcast("agent-a", "status", "running")

	select {
	case <-a:
		t.Fatalf("sender should not receive its own broadcast")
	default:
	}
	select {
	case msg := <-bb:
		if msg.Type != "status" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	default:
		t.Fatalf("expected agent-b to receive broadcast")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	b.Subscribe("worker-1")
	b.Unsubscribe("worker-1")
	b.Send("planner", "worker-1", "assign", "task-1") // must not panic, silently dropped
}

func TestFIFOOrderingPerRecipient(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe("worker-1")
	b.Send("planner", "worker-1", "assign", "task-1")
	b.Send("planner", "worker-1", "assign", "task-2")

	first := <-ch
	second := <-ch
	if first.Payload != "task-1" || second.Payload != "task-2" {
		t.Fatalf("expected FIFO ordering, got %v then %v", first.Payload, second.Payload)
	}
}
