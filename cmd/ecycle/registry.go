// cmd/ecycle/registry.go
package main

import (
	"fmt"
	"os"
	"time"

	classifyitem "ecycle-workers/internal/workers/ewaste/classify-item"
	estimatevalue "ecycle-workers/internal/workers/ewaste/estimate-value"
	locatefacilities "ecycle-workers/internal/workers/ewaste/locate-facilities"
	schedulepickup "ecycle-workers/internal/workers/ewaste/schedule-pickup"
	"ecycle-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var implementedTaskTypes = []string{
	classifyitem.TaskType,
	estimatevalue.TaskType,
	locatefacilities.TaskType,
	schedulepickup.TaskType,
}

func registryCmd(_ *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and maintain the activity registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "configs/activity-registry.json", "path to the registry file")

	cmd.AddCommand(registryValidateCmd(&path))
	cmd.AddCommand(registryListCmd(&path))
	cmd.AddCommand(registryAddCmd(&path))
	cmd.AddCommand(registryUpdateCmd(&path))
	cmd.AddCommand(registryScaffoldCmd(&path))
	return cmd
}

func registryValidateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry against the implemented workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(implementedTaskTypes...); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}
}

func registryListCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			for _, a := range reg.Activities {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-12s %-10s %s\n", a.TaskType, a.ImplementationStatus, a.Timeout, a.DisplayName)
			}
			return nil
		},
	}
}

func registryAddCmd(path *string) *cobra.Command {
	activity := registry.Activity{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if activity.TaskType == "" {
				activity.TaskType = activity.ID
			}

			reg, err := registry.LoadRegistry(*path)
			if os.IsNotExist(err) {
				reg, err = &registry.ActivityRegistry{Version: "1.0.0"}, nil
			}
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}

			activity.InputSchema = map[string]interface{}{}
			activity.OutputSchema = map[string]interface{}{}
			activity.ErrorCodes = []string{}
			activity.Workflows = []string{}
			activity.Tags = []string{}
			if err := reg.Add(activity, time.Now().UTC()); err != nil {
				return err
			}
			if err := registry.SaveRegistry(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", activity.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&activity.ID, "id", "", "activity ID (e.g. classify-item)")
	cmd.Flags().StringVar(&activity.DisplayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&activity.Description, "description", "", "description")
	cmd.Flags().StringVar(&activity.Category, "category", "ewaste", "category")
	cmd.Flags().StringVar(&activity.TaskType, "task-type", "", "job type (defaults to the ID)")
	cmd.Flags().StringVar(&activity.Version, "version", "1.0.0", "version")
	cmd.Flags().StringVar(&activity.ImplementationStatus, "status", registry.StatusPlanned, "planned, in-progress, completed or verified")
	cmd.Flags().StringVar(&activity.Timeout, "timeout", "10s", "job timeout")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("display-name")
	return cmd
}

func registryUpdateCmd(path *string) *cobra.Command {
	var id, field, value string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update one field of an activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(id, field, value, time.Now().UTC()); err != nil {
				return err
			}
			if err := registry.SaveRegistry(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "activity ID")
	cmd.Flags().StringVar(&field, "field", "", "status, version, displayName, description, category, timeout or retries")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func registryScaffoldCmd(path *string) *cobra.Command {
	var id, outDir string

	cmd := &cobra.Command{
		Use:   "scaffold",
		Short: "Generate a worker package from a registry entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			activity, ok := reg.Find(id)
			if !ok {
				return fmt.Errorf("activity %s not found in %s", id, *path)
			}

			files, err := registry.Scaffold(*activity, outDir)
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Generated %s\n", f)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Register %s in cmd/worker-manager and add workers.%s to configs/config.yaml\n", activity.TaskType, activity.TaskType)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "activity ID")
	cmd.Flags().StringVar(&outDir, "out", "internal/workers", "base directory for worker packages")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
