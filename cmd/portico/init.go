package main

import (
	"os"
	"path/filepath"

	"github.com/portico-ui/portico/internal/config"
	"github.com/portico-ui/portico/internal/errors"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a portico.json in the current directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing portico.json")

	return cmd
}

func runInit(args []string, force bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	path := filepath.Join(wd, config.ConfigFileName)

	if _, err := os.Stat(path); err == nil && !force {
		return errors.Newf(errors.CategoryCLI, "portico.json already exists").
			WithSuggestion("Use --force to overwrite")
	}

	cfg := config.New()
	if len(args) == 1 {
		cfg.Name = args[0]
	} else {
		cfg.Name = filepath.Base(wd)
	}

	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	success("created %s", config.ConfigFileName)
	info("run 'portico serve' to start the server")
	return nil
}
