// cmd/ecycle/helpers.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"ecycle-workers/internal/common/config"
	"ecycle-workers/internal/common/errors"

	"github.com/spf13/cobra"
)

// readInput reads the JSON document named by args[0], or stdin when no file
// (or "-") is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeError flattens a StandardError into one line for terminal output.
func describeError(err error) error {
	stdErr := errors.AsStandardError(err)
	if stdErr == nil {
		return nil
	}
	if stdErr.Details != "" {
		return fmt.Errorf("%s: %s (%s)", stdErr.Code, stdErr.Message, stdErr.Details)
	}
	return fmt.Errorf("%s: %s", stdErr.Code, stdErr.Message)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configFile != "" {
		return config.LoadFromFile(o.configFile)
	}
	return config.Load()
}
