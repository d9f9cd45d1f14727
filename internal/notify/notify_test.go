package notify

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSlackMessage_Build(t *testing.T) {
	msg := SlackMessage{
		Text: "Task exited",
		Attachments: []SlackAttachment{
			{
				Color: "warning",
				Title: "build_watcher",
				Text:  "exit code 1",
			},
		},
	}

	payload, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	if len(payload) == 0 {
		t.Error("Payload should not be empty")
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	// Mock Slack server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(server.URL)
	err := notifier.Send(Notification{
		Title:   "taskdeck",
		Message: "dev_server exited: exit code 2",
		Type:    NotifyWarning,
		TaskID:  "dev_server",
	})

	if err != nil {
		t.Errorf("Send failed: %v", err)
	}
}

func TestSlackNotifier_EmptyURLDisabled(t *testing.T) {
	notifier := NewSlackNotifier("")
	if err := notifier.Send(Notification{Title: "ignored"}); err != nil {
		t.Errorf("Send with empty webhook should be a no-op, got %v", err)
	}
}

func TestNotificationTypeColors(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotifySuccess, "good"},
		{NotifyWarning, "warning"},
		{NotifyError, "danger"},
		{NotifyInfo, "#439FE0"},
	}

	for _, tt := range tests {
		got := SlackColor(tt.typ)
		if got != tt.want {
			t.Errorf("SlackColor(%v) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestMultiNotifier(t *testing.T) {
	var called []string

	mock1 := FuncNotifier(func(n Notification) error {
		called = append(called, "mock1")
		return nil
	})
	mock2 := FuncNotifier(func(n Notification) error {
		called = append(called, "mock2")
		return errors.New("boom")
	})

	multi := NewMultiNotifier(mock1, mock2)
	err := multi.Send(Notification{Title: "Test"})

	if len(called) != 2 {
		t.Errorf("Expected 2 calls, got %d", len(called))
	}
	if err == nil {
		t.Error("Send should surface the last error")
	}
}
