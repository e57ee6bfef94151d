package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	schemaFileName       = "signal-engine-config.json"
	sampleConfigFileName = "signal-engine-config.yaml"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the run configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the schema and a sample config into this directory instead of printing",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	config := engine.DefaultConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	dir := cmd.String("out")
	if dir == "" {
		_, err = fmt.Fprintln(cmd.Root().Writer, schemaJSON)

		return err
	}

	return writeSchemaFiles(dir, config, schemaJSON)
}

// writeSchemaFiles writes the schema, and a sample config with the defaults unless one already exists.
func writeSchemaFiles(dir string, config engine.Config, schemaJSON string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, schemaFileName), []byte(schemaJSON), 0o644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	samplePath := filepath.Join(dir, sampleConfigFileName)
	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config: %w", err)
	}

	// Editors with the YAML language server pick up the schema from this comment.
	yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaFileName+"\n"), yamlBytes...)

	if err := os.WriteFile(samplePath, yamlBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}

	return nil
}
