//go:build gmp

package backend

import (
	"context"
	"fmt"
	"testing"
)

func TestGMPEngine_EvaluateCore(t *testing.T) {
	t.Parallel()

	engine := &GMPEngine{}
	ctx := context.Background()

	tests := []struct {
		name           string
		ca, cb         string
		budget         uint64
		wantEscaped    bool
		wantIterations uint64
	}{
		{name: "origin stays bounded", ca: "0", cb: "0", budget: 50, wantEscaped: false, wantIterations: 50},
		{name: "c=4 escapes immediately", ca: "4.", cb: "0", budget: 100, wantEscaped: true, wantIterations: 1},
		{name: "c=2 escapes on the second iteration", ca: "2.", cb: "0", budget: 10, wantEscaped: true, wantIterations: 2},
		{name: "c=-1 is periodic", ca: "-1.", cb: "0", budget: 100, wantEscaped: false, wantIterations: 100},
		{name: "c=0.5+0.5i escapes at five", ca: "0.g@0", cb: "0.g@0", budget: 50, wantEscaped: true, wantIterations: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, err := engine.EvaluateCore(ctx, Request{
				Precision: 64, Za: "0", Zb: "0", Ca: tt.ca, Cb: tt.cb,
				Budget: tt.budget, EscapeRadius: "2.",
			})
			if err != nil {
				t.Fatalf("EvaluateCore error = %v", err)
			}
			if resp.Escaped != tt.wantEscaped {
				t.Errorf("Escaped = %v, want %v", resp.Escaped, tt.wantEscaped)
			}
			if resp.Iterations != tt.wantIterations {
				t.Errorf("Iterations = %d, want %d", resp.Iterations, tt.wantIterations)
			}
		})
	}
}

// TestGMPEngine_AgreesWithBigFloat compares the escape decisions of both
// in-process engines on a dyadic sample where fixed point is exact.
func TestGMPEngine_AgreesWithBigFloat(t *testing.T) {
	t.Parallel()

	gmpEngine := &GMPEngine{}
	bigEngine := &BigFloatEngine{}
	ctx := context.Background()

	samples := []struct{ ca, cb string }{
		{"0", "0"},
		{"4.", "0"},
		{"-1.", "0"},
		{"0.g@0", "0.g@0"},
		{"-2.", "0"},
		{"0.8@0", "0.8@0"},
	}
	for i, s := range samples {
		t.Run(fmt.Sprintf("sample=%d", i), func(t *testing.T) {
			t.Parallel()
			req := Request{
				Precision: 64, Za: "0", Zb: "0", Ca: s.ca, Cb: s.cb,
				Budget: 30, EscapeRadius: "2.",
			}
			viaGMP, err := gmpEngine.EvaluateCore(ctx, req)
			if err != nil {
				t.Fatalf("gmp EvaluateCore error = %v", err)
			}
			viaBig, err := bigEngine.EvaluateCore(ctx, req)
			if err != nil {
				t.Fatalf("bigfloat EvaluateCore error = %v", err)
			}
			if viaGMP.Escaped != viaBig.Escaped || viaGMP.Iterations != viaBig.Iterations {
				t.Errorf("gmp (escaped=%v, iters=%d) disagrees with bigfloat (escaped=%v, iters=%d)",
					viaGMP.Escaped, viaGMP.Iterations, viaBig.Escaped, viaBig.Iterations)
			}
		})
	}
}

func TestGMPEngine_EvaluateCore_Cancel(t *testing.T) {
	t.Parallel()

	engine := &GMPEngine{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := engine.EvaluateCore(ctx, Request{
		Precision: 64, Za: "0", Zb: "0", Ca: "0", Cb: "0",
		Budget: 1000, EscapeRadius: "2.",
	})
	if err == nil {
		t.Error("EvaluateCore(canceled context) expected error, got nil")
	}
}

func TestGMPEngine_Name(t *testing.T) {
	t.Parallel()

	engine := &GMPEngine{}
	if engine.Name() != "GMP (fixed point)" {
		t.Errorf("Name() = %v, want %v", engine.Name(), "GMP (fixed point)")
	}
}

func TestGMPEngine_Registered(t *testing.T) {
	t.Parallel()

	if !GlobalFactory().Has(NameGMP) {
		t.Errorf("global factory should have %q when built with the gmp tag", NameGMP)
	}
}

// BenchmarkGMPEngine benchmarks the GMP engine against the math/big engine
// for interior points at increasing precision.
func BenchmarkGMPEngine(b *testing.B) {
	ctx := context.Background()

	precisions := []uint{64, 256, 1024}
	engines := []struct {
		name string
		core coreEvaluator
	}{
		{"gmp", &GMPEngine{}},
		{"bigfloat", &BigFloatEngine{}},
	}

	for _, eng := range engines {
		for _, prec := range precisions {
			b.Run(fmt.Sprintf("%s/prec=%d", eng.name, prec), func(b *testing.B) {
				b.ReportAllocs()
				req := Request{
					Precision: prec, Za: "0", Zb: "0", Ca: "-1.", Cb: "0",
					Budget: 1000, EscapeRadius: "2.",
				}
				for i := 0; i < b.N; i++ {
					_, _ = eng.core.EvaluateCore(ctx, req)
				}
			})
		}
	}
}
