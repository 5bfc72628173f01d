package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/codeclash/arena-backend/internal/model"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	roomID := uuid.New()
	env := Envelope{
		Type:   EventSessionStarted,
		RoomID: roomID,
		Payload: SessionStartedPayload{
			StartedAt:        1700000000,
			TimeLimitSeconds: 1800,
		},
	}

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := DecodeEnvelope(string(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != EventSessionStarted {
		t.Errorf("type = %q, want %q", decoded.Type, EventSessionStarted)
	}
	if decoded.RoomID != roomID {
		t.Errorf("room_id = %v, want %v", decoded.RoomID, roomID)
	}
	if decoded.UserID != nil {
		t.Errorf("user_id = %v, want nil for broadcast", decoded.UserID)
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := DecodeEnvelope("{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestForUserBroadcast(t *testing.T) {
	env := &Envelope{Type: EventParticipantJoined, RoomID: uuid.New()}
	if !env.ForUser(uuid.New()) {
		t.Fatal("broadcast envelope must reach every subscriber")
	}
}

func TestForUserSenderOnly(t *testing.T) {
	sender := uuid.New()
	other := uuid.New()
	env := &Envelope{
		Type:   EventAnswerResult,
		RoomID: uuid.New(),
		UserID: &sender,
		Payload: AnswerResultPayload{
			Verdict: model.VerdictPassed,
			Score:   50,
		},
	}

	if !env.ForUser(sender) {
		t.Error("sender must receive their answer result")
	}
	if env.ForUser(other) {
		t.Error("answer results must not reach the opponent")
	}
}
