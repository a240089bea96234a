package main

import (
	stderrors "errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/portico-ui/portico/internal/errors"
)

func writeServeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portico.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRunServeAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	path := writeServeConfig(t, `{"server": {"address": "`+ln.Addr().String()+`"}}`)

	err = runServe("", path)
	var pe *errors.Error
	if !stderrors.As(err, &pe) || pe.Code != "E200" {
		t.Fatalf("err = %v, want E200", err)
	}
}

func TestRunServeBadAddressFlag(t *testing.T) {
	path := writeServeConfig(t, `{}`)

	// The flag override skips load-time validation and must be re-checked.
	err := runServe("8080", path)
	var pe *errors.Error
	if !stderrors.As(err, &pe) || pe.Code != "E201" {
		t.Fatalf("err = %v, want E201", err)
	}
}
