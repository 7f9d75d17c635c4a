package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// resetFlags restores every global flag to its default for one test.
func resetFlags(t *testing.T) {
	t.Helper()
	set := func() {
		verbose, quiet, jsonOut = false, false, false
		configPath, backendName, maxHeap, logDir = "", "", 0, ""
		benchCount, benchSize, benchKind, benchCollect = 10000, 32, "ordinary", 0
		simObjects, simRingLen, simKeepEvery = 1000, 4, 4
		simNoFinalize, simNoLinks, simIncremental = false, false, false
	}
	set()
	t.Cleanup(set)
	for _, env := range []string{"VMHEAP_BACKEND", "VMHEAP_MAX_HEAP", "VMHEAP_CHUNK_SIZE", "VMHEAP_INCREMENTAL"} {
		if v, ok := os.LookupEnv(env); ok {
			os.Unsetenv(env)
			t.Cleanup(func() { os.Setenv(env, v) })
		}
	}
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	<-done

	return buf.String(), fnErr
}

// decodeJSON unmarshals command output into v, failing the test on bad JSON.
func decodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
