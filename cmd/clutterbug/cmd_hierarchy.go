// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clutterbug/clutterbug/pkg/ux"
	"github.com/clutterbug/clutterbug/services/catalog/hierarchy"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	hierarchyCreateFile string // YAML file describing the new configuration
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy",
	Short: "Inspect and manage hierarchy configurations",
	Long: `A hierarchy configuration defines the container levels of the
catalog: how many levels exist, what each is called, and which unit its
dimensions use. One configuration is active at a time; built-in presets
cover common setups (Workshop, Home, Warehouse, Simple, Office).`,
}

var hierarchyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all hierarchy configurations",
	RunE:  runHierarchyList,
}

var hierarchyActivateCmd = &cobra.Command{
	Use:   "activate <name>",
	Short: "Make a configuration the active one",
	Long: `Switches the active hierarchy configuration.

Activation is refused when containers already exist deeper than the
candidate configuration allows; delete or move those containers first.`,
	Args: cobra.ExactArgs(1),
	RunE: runHierarchyActivate,
}

var hierarchyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a custom configuration from a YAML file",
	Long: `Creates a custom hierarchy configuration described by a YAML file:

  name: Barn
  max_levels: 3
  levels:
    - order: 1
      name: Barn
      plural_name: Barns
      icon: house
      color: "#8B4513"
      unit: ft
    - order: 2
      ...

Orders must run 1..max_levels with no gaps. The new configuration is
not activated automatically.`,
	RunE: runHierarchyCreate,
}

var hierarchyDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a custom configuration",
	Long: `Deletes a custom hierarchy configuration. Built-in presets and the
currently active configuration cannot be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runHierarchyDelete,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	hierarchyCreateCmd.Flags().StringVarP(&hierarchyCreateFile, "file", "f", "",
		"YAML file describing the configuration (required)")
	hierarchyCreateCmd.MarkFlagRequired("file")

	hierarchyCmd.AddCommand(hierarchyListCmd)
	hierarchyCmd.AddCommand(hierarchyActivateCmd)
	hierarchyCmd.AddCommand(hierarchyCreateCmd)
	hierarchyCmd.AddCommand(hierarchyDeleteCmd)
	rootCmd.AddCommand(hierarchyCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runHierarchyList(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	configs, err := app.hierarchy.Store().List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLEVELS\tKIND\tACTIVE\tPATH")
	for _, cfg := range configs {
		kind := "custom"
		if cfg.IsDefault {
			kind = "built-in"
		}
		active := ""
		if cfg.IsActive {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			cfg.Name, cfg.MaxLevels, kind, active, levelPath(cfg))
	}
	return w.Flush()
}

// levelPath renders the level names in order, e.g. "Room > Shelf > Bin".
func levelPath(cfg *hierarchy.Configuration) string {
	path := ""
	for i, lvl := range cfg.Levels {
		if i > 0 {
			path += " > "
		}
		path += lvl.Name
	}
	return path
}

func runHierarchyActivate(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg, err := app.hierarchy.Store().GetByName(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := app.hierarchy.Activate(cmd.Context(), cfg.ID); err != nil {
		return err
	}
	ux.Success("Activated %q (%d levels)", cfg.Name, cfg.MaxLevels)
	return nil
}

// configFile is the YAML shape accepted by hierarchy create.
type configFile struct {
	Name      string `yaml:"name"`
	MaxLevels int    `yaml:"max_levels"`
	Levels    []struct {
		Order      int    `yaml:"order"`
		Name       string `yaml:"name"`
		PluralName string `yaml:"plural_name"`
		Icon       string `yaml:"icon"`
		Color      string `yaml:"color"`
		Unit       string `yaml:"unit"`
	} `yaml:"levels"`
}

func runHierarchyCreate(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	data, err := os.ReadFile(hierarchyCreateFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", hierarchyCreateFile, err)
	}
	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", hierarchyCreateFile, err)
	}

	cfg := &hierarchy.Configuration{
		Name:      file.Name,
		MaxLevels: file.MaxLevels,
	}
	for _, lvl := range file.Levels {
		unit := lvl.Unit
		if unit == "" {
			unit = hierarchy.DefaultUnit(lvl.Order)
		}
		cfg.Levels = append(cfg.Levels, hierarchy.Level{
			Order:      lvl.Order,
			Name:       lvl.Name,
			PluralName: lvl.PluralName,
			Icon:       lvl.Icon,
			Color:      lvl.Color,
			Unit:       unit,
		})
	}
	if err := app.hierarchy.Store().Create(cmd.Context(), cfg); err != nil {
		return err
	}
	ux.Success("Created %q (%d levels)", cfg.Name, cfg.MaxLevels)
	return nil
}

func runHierarchyDelete(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg, err := app.hierarchy.Store().GetByName(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := app.hierarchy.Delete(cmd.Context(), cfg.ID); err != nil {
		return err
	}
	ux.Success("Deleted %q", cfg.Name)
	return nil
}
