package main

import (
	"testing"
)

func TestSimulate(t *testing.T) {
	for _, incremental := range []bool{false, true} {
		name := "full"
		if incremental {
			name = "incremental"
		}
		t.Run(name, func(t *testing.T) {
			resetFlags(t)
			jsonOut = true
			maxHeap = 1 << 20
			simIncremental = incremental

			output, err := captureOutput(t, runSimulate)
			if err != nil {
				t.Fatalf("runSimulate() error = %v", err)
			}
			var res SimulateResult
			decodeJSON(t, output, &res)

			// 250 rings of 4, rings 0, 4, ..., 248 kept.
			if res.Rings != 250 || res.KeptRings != 63 {
				t.Fatalf("Rings = %d, KeptRings = %d, want 250, 63", res.Rings, res.KeptRings)
			}
			dropped := (res.Rings - res.KeptRings) * 4
			if res.Unreachable != dropped {
				t.Errorf("Unreachable = %d, want %d", res.Unreachable, dropped)
			}
			if res.Cycles != res.Rings {
				t.Errorf("Cycles = %d, want %d", res.Cycles, res.Rings)
			}
			if res.Finalized != dropped {
				t.Errorf("Finalized = %d, want %d", res.Finalized, dropped)
			}
			if res.LinksCleared != dropped {
				t.Errorf("LinksCleared = %d, want %d", res.LinksCleared, dropped)
			}
			if want := uint64(dropped * nodeSize); res.UsedReclaimed != want {
				t.Errorf("UsedReclaimed = %d, want %d", res.UsedReclaimed, want)
			}
			if len(res.RetentionPath) != 2 {
				t.Errorf("RetentionPath = %v, want root table then node", res.RetentionPath)
			}
			if res.Stats.LiveObjects != 2+res.KeptRings*4 {
				t.Errorf("LiveObjects = %d, want %d", res.Stats.LiveObjects, 2+res.KeptRings*4)
			}
			if incremental && res.Increments < 2 {
				t.Errorf("Increments = %d, want at least 2", res.Increments)
			}
		})
	}
}

func TestSimulateWithoutFinalizers(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	maxHeap = 1 << 20
	simObjects, simRingLen, simKeepEvery = 10, 5, 2
	simNoFinalize, simNoLinks = true, true

	output, err := captureOutput(t, runSimulate)
	if err != nil {
		t.Fatalf("runSimulate() error = %v", err)
	}
	var res SimulateResult
	decodeJSON(t, output, &res)

	if res.Finalized != 0 || res.LinksCleared != 0 {
		t.Errorf("Finalized = %d, LinksCleared = %d, want 0, 0", res.Finalized, res.LinksCleared)
	}
	if res.UsedReclaimed != 5*nodeSize {
		t.Errorf("UsedReclaimed = %d, want %d", res.UsedReclaimed, 5*nodeSize)
	}
}

func TestSimulateText(t *testing.T) {
	resetFlags(t)
	maxHeap = 1 << 20
	simObjects = 8

	output, err := captureOutput(t, runSimulate)
	if err != nil {
		t.Fatalf("runSimulate() error = %v", err)
	}
	assertContains(t, output, []string{
		"Simulation: 8 nodes in 2 rings of 4, keeping 1",
		"Finalized:      4",
		"Links cleared:  4",
	})
}

func TestSimulateRequiresManaged(t *testing.T) {
	resetFlags(t)
	backendName = "arena"
	if _, err := captureOutput(t, runSimulate); err == nil {
		t.Error("runSimulate() on arena succeeded, want error")
	}
}
