package main

import (
	"fmt"
	"os"

	"github.com/portico-ui/portico/internal/errors"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┌─┐┬─┐┌┬┐┬┌─┐┌─┐
  ╠═╝│ │├┬┘ │ ││  │ │
  ╩  └─┘┴└─ ┴ ┴└─┘└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "portico",
		Short: "Portal composition server for overlay UI",
		Long: `Portico serves hierarchical overlay portals over WebSocket.

Clients register portal roots, append children, and receive fully
composed HTML frames whenever a portal's category re-renders.

  • Flat portal scopes with ordered children
  • Category-isolated invalidation and rendering
  • Anchored positioning with live tracking
  • Prometheus metrics and OpenTelemetry tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		initCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the portico ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
