package tools

import (
	"encoding/json"
	"testing"

	"github.com/radiumhq/radium/internal/collab"
	"github.com/radiumhq/radium/pkg/radiumtypes"
)

func TestDelegateTaskHandlerMintsUniqueWorkerIDs(t *testing.T) {
	manager := collab.NewDelegationManager(4)
	handler := delegateTaskHandler(manager)

	args, _ := json.Marshal(map[string]string{"agent_id": "root", "task_id": "task-1"})
	res1, err := handler(radiumtypes.ToolCall{ID: "1", Arguments: args})
	if err != nil || !res1.Success {
		t.Fatalf("first delegate: %+v err=%v", res1, err)
	}
	res2, err := handler(radiumtypes.ToolCall{ID: "2", Arguments: args})
	if err != nil || !res2.Success {
		t.Fatalf("second delegate: %+v err=%v", res2, err)
	}
	if res1.Content == res2.Content {
		t.Fatal("expected distinct worker IDs across delegate_task calls")
	}
}

func TestDelegateTaskHandlerRejectsBeyondMaxDepth(t *testing.T) {
	manager := collab.NewDelegationManager(1)
	handler := delegateTaskHandler(manager)

	args, _ := json.Marshal(map[string]string{"agent_id": "root", "task_id": "t"})
	first, _ := handler(radiumtypes.ToolCall{ID: "1", Arguments: args})
	if !first.Success {
		t.Fatalf("expected first delegation to succeed: %+v", first)
	}

	var del struct {
		Worker string `json:"Worker"`
	}
	if err := json.Unmarshal([]byte(first.Content), &del); err != nil {
		t.Fatalf("unmarshal delegation: %v", err)
	}

	deeper, _ := json.Marshal(map[string]string{"agent_id": del.Worker, "task_id": "t2"})
	second, err := handler(radiumtypes.ToolCall{ID: "2", Arguments: deeper})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Success {
		t.Fatal("expected depth-exceeded delegation to fail")
	}
}

func TestRequestLockHandlerGrantsReadLock(t *testing.T) {
	locks := collab.NewLockManager()
	handler := requestLockHandler(locks)

	args, _ := json.Marshal(map[string]any{"resource": "workspace/file.go"})
	res, err := handler(radiumtypes.ToolCall{ID: "1", Arguments: args})
	if err != nil || !res.Success {
		t.Fatalf("expected lock grant, got %+v err=%v", res, err)
	}
}

func TestReportProgressHandlerUpdatesTracker(t *testing.T) {
	tracker := collab.NewProgressTracker(nil)
	handler := reportProgressHandler(tracker)

	args, _ := json.Marshal(map[string]any{"agent_id": "agent-a", "percent": 50.0, "status": "running"})
	res, err := handler(radiumtypes.ToolCall{ID: "1", Arguments: args})
	if err != nil || !res.Success {
		t.Fatalf("reportProgressHandler: %+v err=%v", res, err)
	}
	report, ok := tracker.Get("agent-a")
	if !ok || report.Status != "running" {
		t.Fatalf("expected recorded progress, got %+v ok=%v", report, ok)
	}
}

func TestSendMessageHandlerDeliversDirectAndBroadcast(t *testing.T) {
	bus := collab.NewBus()
	inbox := bus.Subscribe("agent-b")
	handler := sendMessageHandler(bus)

	args, _ := json.Marshal(map[string]string{"agent_id": "agent-a", "to": "agent-b", "type": "ping", "payload": "hi"})
	if res, err := handler(radiumtypes.ToolCall{ID: "1", Arguments: args}); err != nil || !res.Success {
		t.Fatalf("sendMessageHandler direct: %+v err=%v", res, err)
	}
	select {
	case msg := <-inbox:
		if msg.Type != "ping" {
			t.Fatalf("expected ping, got %+v", msg)
		}
	default:
		t.Fatal("expected a delivered message")
	}
}

func TestRegisterCollabToolsRegistersFourTools(t *testing.T) {
	reg := NewRegistry()
	bus := collab.NewBus()
	RegisterCollabTools(reg, bus, collab.NewLockManager(), collab.NewDelegationManager(4), collab.NewProgressTracker(bus))

	for _, name := range []string{"delegate_task", "request_lock", "report_progress", "send_message"} {
		if _, ok := reg.Find(name); !ok {
			t.Errorf("expected %s to be registered", name)
		}
	}
}
