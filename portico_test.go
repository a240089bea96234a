package portico

import (
	"context"
	"testing"
)

func TestFacadeEngineLifecycle(t *testing.T) {
	eng := NewEngine()
	eng.Start(context.Background())
	defer eng.Stop()

	reg := eng.Registry()
	if err := reg.Register("dlg", Container, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !reg.HasRoot("dlg") {
		t.Error("root missing")
	}
}
