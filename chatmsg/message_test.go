package chatmsg

import (
	"testing"
	"time"
)

func TestMessages_SequenceRoundTrip(t *testing.T) {
	in := []*Message{
		{ID: "m1", Author: "Alice", MentionedNames: []string{"Bob"},
			PlainText: "are you there", ReceivedAt: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)},
		{ID: "m2", Author: "Carol", PlainText: "ping"},
	}

	data, err := MarshalMessages(in)
	if err != nil {
		t.Fatalf("MarshalMessages: %v", err)
	}
	out, err := UnmarshalMessages(data)
	if err != nil {
		t.Fatalf("UnmarshalMessages: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].ID != "m1" || out[1].ID != "m2" {
		t.Errorf("order = %s,%s, want m1,m2", out[0].ID, out[1].ID)
	}
	if !out[0].ReceivedAt.Equal(in[0].ReceivedAt) {
		t.Errorf("receivedAt = %v, want %v", out[0].ReceivedAt, in[0].ReceivedAt)
	}
}

func TestUnmarshalMessages_Malformed(t *testing.T) {
	if _, err := UnmarshalMessages([]byte(`{"not":"a sequence"`)); err == nil {
		t.Fatal("UnmarshalMessages: expected error for malformed input")
	}
}
