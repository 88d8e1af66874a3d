package fuzzyctl

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

// TestController_Swap verifies engines are replaced atomically.
func TestController_Swap(t *testing.T) {
	first := mustDefaultSystem(t).Engine
	second := mustDefaultSystem(t).Engine

	c := NewController(first)
	if c.Engine() != first {
		t.Fatal("controller does not serve the initial engine")
	}
	if old := c.Swap(second); old != first {
		t.Errorf("Swap returned %p, want the previous engine %p", old, first)
	}
	if c.Engine() != second {
		t.Error("Swap did not install the new engine")
	}
	if got := c.Swap(nil); got != second || c.Engine() != second {
		t.Error("Swap(nil) replaced the engine in service")
	}
}

// TestController_Reload verifies a TOML reload takes effect.
func TestController_Reload(t *testing.T) {
	c := NewController(mustDefaultSystem(t).Engine)

	if err := c.Reload(strings.NewReader(smallSystem)); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	out, err := c.Evaluate(Inputs{"temp": 0})
	if err != nil {
		t.Fatalf("Evaluate after reload failed: %v", err)
	}
	if _, ok := out["fan"]; !ok {
		t.Errorf("outputs after reload = %v, want fan", out)
	}

	// The old system's inputs are now unknown.
	_, err = c.Evaluate(Inputs{"rain": 50, "soil": 0.5})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("stale inputs error = %v, want ErrValidation", err)
	}
}

// TestController_ReloadFailureKeepsEngine verifies a rejected reload leaves the engine in service.
func TestController_ReloadFailureKeepsEngine(t *testing.T) {
	e := mustDefaultSystem(t).Engine
	c := NewController(e)

	for _, src := range []string{
		"not toml at all [",
		strings.Replace(DefaultSystemTOML, `then = "water.low"`, `then = "water.flood"`, 1),
		strings.Replace(DefaultSystemTOML, "step = 0.1", "step = 1e-300", 1),
	} {
		if err := c.Reload(strings.NewReader(src)); err == nil {
			t.Fatal("Reload accepted an invalid definition")
		}
		if c.Engine() != e {
			t.Fatal("failed Reload replaced the engine in service")
		}
	}

	out, err := c.Evaluate(Inputs{"rain": 0, "soil": 0.5})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d := out["water"] - 6; d > 1e-9 || d < -1e-9 {
		t.Errorf("water = %v, want 6", out["water"])
	}
}

// TestController_ConcurrentReload verifies evaluations keep working across reloads.
func TestController_ConcurrentReload(t *testing.T) {
	c := NewController(mustDefaultSystem(t).Engine)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := c.Evaluate(Inputs{"rain": 20, "soil": 0.4}); err != nil {
					t.Errorf("Evaluate failed: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		if err := c.Reload(strings.NewReader(DefaultSystemTOML)); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
	}
	wg.Wait()
}

// TestController_NoEngine verifies an empty controller reports ErrNoEngine
// until an engine is installed.
func TestController_NoEngine(t *testing.T) {
	c := NewController(nil)
	if c.Engine() != nil {
		t.Fatal("empty controller reports an engine")
	}
	if _, err := c.Evaluate(Inputs{"rain": 0, "soil": 0}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("Evaluate error = %v, want ErrNoEngine", err)
	}

	e := mustDefaultSystem(t).Engine
	if old := c.Swap(e); old != nil {
		t.Errorf("Swap on empty controller returned %p, want nil", old)
	}
	if _, err := c.Evaluate(Inputs{"rain": 0, "soil": 0}); err != nil {
		t.Errorf("Evaluate after Swap failed: %v", err)
	}
}
