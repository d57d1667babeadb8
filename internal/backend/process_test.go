package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	apperrors "github.com/agbru/mandelgrid/internal/errors"
)

// The process engine tests re-execute the test binary as the worker, using
// the helper-process pattern: the helper tests below are inert unless the
// marker environment variable is set by the parent test.

// TestHelperProcessWorker serves the line protocol on stdio like a real
// worker binary would.
func TestHelperProcessWorker(t *testing.T) {
	if os.Getenv("MANDELGRID_WANT_HELPER_PROCESS") != "1" {
		return
	}
	_ = Serve(context.Background(), os.Stdin, os.Stdout, &BigFloatEngine{})
	os.Exit(0)
}

// TestHelperProcessGarbage answers every request line with garbage that
// violates the protocol.
func TestHelperProcessGarbage(t *testing.T) {
	if os.Getenv("MANDELGRID_WANT_HELPER_PROCESS") != "1" {
		return
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		if _, err := reader.ReadString('\n'); err != nil {
			break
		}
		fmt.Println("?? this is not a protocol line")
	}
	os.Exit(0)
}

// TestHelperProcessQuit exits immediately without serving anything.
func TestHelperProcessQuit(t *testing.T) {
	if os.Getenv("MANDELGRID_WANT_HELPER_PROCESS") != "1" {
		return
	}
	os.Exit(0)
}

// helperEngine builds a ProcessEngine that re-runs this test binary with
// only the named helper test enabled.
func helperEngine(t *testing.T, helper string) *ProcessEngine {
	t.Helper()
	t.Setenv("MANDELGRID_WANT_HELPER_PROCESS", "1")
	return NewProcessEngine(os.Args[0], "-test.run="+helper)
}

func TestProcessEngine_Exchange(t *testing.T) {
	engine := helperEngine(t, "TestHelperProcessWorker")
	ctx := context.Background()

	resp, err := engine.EvaluateCore(ctx, Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "0", Cb: "0",
		Budget: 5, EscapeRadius: "2.",
	})
	if err != nil {
		t.Fatalf("EvaluateCore failed: %v", err)
	}
	if resp.Escaped || resp.Iterations != 5 || resp.Za != "0" || resp.Zb != "0" {
		t.Errorf("origin response = %+v, want 5 bounded iterations at the origin", resp)
	}

	// A second exchange reuses the same worker process.
	resp, err = engine.EvaluateCore(ctx, Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "4.", Cb: "0",
		Budget: 100, EscapeRadius: "2.",
	})
	if err != nil {
		t.Fatalf("EvaluateCore failed: %v", err)
	}
	if !resp.Escaped || resp.Iterations != 1 {
		t.Errorf("escape response = %+v, want escape at iteration 1", resp)
	}

	if err := engine.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestProcessEngine_AgreesWithInProcessKernel(t *testing.T) {
	engine := helperEngine(t, "TestHelperProcessWorker")
	defer engine.Close()
	inProcess := &BigFloatEngine{}
	ctx := context.Background()

	req := Request{
		Precision: 128, Za: "0", Zb: "0", Ca: "0.g@0", Cb: "0.g@0",
		Budget: 50, EscapeRadius: "2.",
	}
	viaProcess, err := engine.EvaluateCore(ctx, req)
	if err != nil {
		t.Fatalf("process EvaluateCore failed: %v", err)
	}
	direct, err := inProcess.EvaluateCore(ctx, req)
	if err != nil {
		t.Fatalf("in-process EvaluateCore failed: %v", err)
	}
	if viaProcess != direct {
		t.Errorf("process response %+v differs from in-process response %+v", viaProcess, direct)
	}
}

func TestProcessEngine_GarbageResponsePoisons(t *testing.T) {
	engine := helperEngine(t, "TestHelperProcessGarbage")
	defer engine.Close()
	ctx := context.Background()

	req := Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "0", Cb: "0",
		Budget: 1, EscapeRadius: "2.",
	}
	_, err := engine.EvaluateCore(ctx, req)
	var protoErr apperrors.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error should be a ProtocolError, got %T: %v", err, err)
	}

	// The engine is poisoned: later evaluations fail without touching the
	// worker.
	_, err = engine.EvaluateCore(ctx, req)
	var backendErr apperrors.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("error after poisoning should be a BackendError, got %T: %v", err, err)
	}
}

func TestProcessEngine_WorkerExitsEarly(t *testing.T) {
	engine := helperEngine(t, "TestHelperProcessQuit")
	defer engine.Close()

	_, err := engine.EvaluateCore(context.Background(), Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "0", Cb: "0",
		Budget: 1, EscapeRadius: "2.",
	})
	if err == nil {
		t.Fatal("EvaluateCore should fail when the worker exits without answering")
	}
	var backendErr apperrors.BackendError
	if !errors.As(err, &backendErr) {
		t.Errorf("error should be a BackendError, got %T: %v", err, err)
	}
}

func TestProcessEngine_StartFailure(t *testing.T) {
	t.Parallel()
	engine := NewProcessEngine("/nonexistent/mandelgrid-worker")

	_, err := engine.EvaluateCore(context.Background(), Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "0", Cb: "0",
		Budget: 1, EscapeRadius: "2.",
	})
	var backendErr apperrors.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("error should be a BackendError, got %T: %v", err, err)
	}

	// A failed start leaves nothing to clean up.
	if err := engine.Close(); err != nil {
		t.Errorf("Close after start failure returned %v", err)
	}
}

func TestProcessEngine_CloseIdempotent(t *testing.T) {
	engine := helperEngine(t, "TestHelperProcessWorker")

	if _, err := engine.EvaluateCore(context.Background(), Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "0", Cb: "0",
		Budget: 1, EscapeRadius: "2.",
	}); err != nil {
		t.Fatalf("EvaluateCore failed: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	_, err := engine.EvaluateCore(context.Background(), Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "0", Cb: "0",
		Budget: 1, EscapeRadius: "2.",
	})
	var backendErr apperrors.BackendError
	if !errors.As(err, &backendErr) {
		t.Errorf("evaluate after Close should return a BackendError, got %T: %v", err, err)
	}
}

func TestProcessEngine_CloseWithoutStart(t *testing.T) {
	t.Parallel()
	engine := NewProcessEngine("/nonexistent/mandelgrid-worker")
	if err := engine.Close(); err != nil {
		t.Errorf("Close on an unstarted engine returned %v", err)
	}
}
