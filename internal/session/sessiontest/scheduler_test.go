package sessiontest

import (
	"testing"
	"time"
)

func TestManualScheduler(t *testing.T) {
	var m ManualScheduler
	var runs []string

	stopA := m.AfterFunc(time.Second, func() { runs = append(runs, "a") })
	m.AfterFunc(2*time.Second, func() { runs = append(runs, "b") })

	if m.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", m.Pending())
	}
	if m.LastDelay() != 2*time.Second {
		t.Errorf("LastDelay() = %v, want 2s", m.LastDelay())
	}
	if !stopA() {
		t.Error("first stop should report a pending call")
	}
	if stopA() {
		t.Error("second stop should report nothing pending")
	}

	if !m.Fire() {
		t.Fatal("Fire() = false, want the live call to run")
	}
	if m.Fire() {
		t.Error("Fire() = true with nothing left")
	}
	if len(runs) != 1 || runs[0] != "b" {
		t.Errorf("runs = %v, want [b]", runs)
	}
}

func TestManualScheduler_FireStale(t *testing.T) {
	var m ManualScheduler
	ran := false
	stop := m.AfterFunc(time.Second, func() { ran = true })
	stop()

	if m.Pending() != 0 {
		t.Errorf("Pending() = %d after stop, want 0", m.Pending())
	}
	if !m.FireStale() || !ran {
		t.Error("FireStale should run the stopped call")
	}
	if m.FireStale() {
		t.Error("FireStale() = true with nothing recorded")
	}
}
