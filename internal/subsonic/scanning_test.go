package subsonic

import (
	"testing"
)

func TestScanLifecycle(t *testing.T) {
	h := newHarness(t)

	idle := h.getOK(t, "getScanStatus", nil).ScanStatus
	if idle == nil {
		t.Fatal("no scanStatus payload")
	}
	if idle.Scanning || idle.Count != 3 {
		t.Errorf("idle = %+v", idle)
	}

	started := h.getOK(t, "startScan", nil).ScanStatus
	if !started.Scanning {
		t.Errorf("started = %+v", started)
	}

	running := h.getOK(t, "getScanStatus", nil).ScanStatus
	if !running.Scanning {
		t.Errorf("running = %+v", running)
	}

	h.daemon.finishScan()
	done := h.getOK(t, "getScanStatus", nil).ScanStatus
	if done.Scanning {
		t.Errorf("done = %+v", done)
	}
}
