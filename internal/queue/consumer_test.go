package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdir is t.Chdir from Go 1.24, reimplemented so the tests run on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func marshalEnvelope(t *testing.T, kind string, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(envelope{Kind: kind, Payload: raw})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHandleMessageWritesAuditLines(t *testing.T) {
	chdir(t, t.TempDir())

	placed := marshalEnvelope(t, "equipment.placed", EquipmentPlacedEvent{
		EquipmentID: 3, RackID: 1, RackName: "AE01", Name: "switch-01",
		StartUnit: 5, Size: 2, ActorID: 9, Action: "created",
		OccurredAt: "2026-08-30T10:00:00Z",
	})
	if err := handleMessage(placed); err != nil {
		t.Fatal(err)
	}

	grants := marshalEnvelope(t, "grants.replaced", GrantsReplacedEvent{
		UserID: 7, RackIDs: []uint64{1, 2}, ActorID: 9,
		OccurredAt: "2026-08-30T10:00:01Z",
	})
	if err := handleMessage(grants); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join("logs", "audit.log"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `rack="AE01"`) || !strings.Contains(out, "units=5-6") {
		t.Errorf("equipment line malformed:\n%s", out)
	}
	if !strings.Contains(out, "user_id=7") || !strings.Contains(out, "racks=[1 2]") {
		t.Errorf("grants line malformed:\n%s", out)
	}
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	chdir(t, t.TempDir())

	if err := handleMessage([]byte("not json")); err == nil {
		t.Error("malformed body accepted")
	}
	if err := handleMessage(marshalEnvelope(t, "something.else", struct{}{})); err == nil {
		t.Error("unknown event kind accepted")
	}
}
