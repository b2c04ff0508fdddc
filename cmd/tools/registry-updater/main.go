// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"prompt-builder/pkg/registry"
)

const defaultRegistryPath = "configs/field-registry.json"

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	initPath := initCmd.String("path", defaultRegistryPath, "Path to registry file")
	force := initCmd.Bool("force", false, "Overwrite an existing file")

	updatePath := updateCmd.String("path", defaultRegistryPath, "Path to registry file")
	id := updateCmd.String("id", "", "Field ID to update (e.g., agent_name)")
	field := updateCmd.String("field", "", "Attribute to update (label, placeholder, required)")
	value := updateCmd.String("value", "", "New value for the attribute")

	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		if err := initRegistry(*initPath, *force); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default registry to %s\n", *initPath)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *id == "" || *field == "" {
			fmt.Println("Error: id and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateField(*updatePath, *id, *field, *value); err != nil {
			fmt.Printf("Error updating field: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated field %s, %s to %q\n", *id, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		n, err := validateRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d fields.\n", n)

	case "help":
		fallthrough
	default:
		help()
	}
}

func initRegistry(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	reg := registry.Default()
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func updateField(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range reg.Fields {
		if reg.Fields[i].ID != id {
			continue
		}
		found = true
		switch field {
		case "label":
			reg.Fields[i].Label = value
		case "placeholder":
			reg.Fields[i].Placeholder = value
		case "required":
			required, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid required value: %w", err)
			}
			reg.Fields[i].Required = required
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}

	if !found {
		return fmt.Errorf("field with ID %s not found", id)
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func validateRegistry(path string) (int, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return 0, err
	}
	return len(reg.Fields), nil
}

// saveRegistry handles saving the registry to file
func saveRegistry(reg *registry.FieldRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  init      Write the built-in field registry to a file
  update    Change a field's label, placeholder or required marker
  validate  Validate the registry file
  help      Show this help message

Examples:
  registry-updater init -path configs/field-registry.json
  registry-updater update -id agent_name -field label -value "Agent Name"
  registry-updater validate -path configs/field-registry.json

Point registry.path (or REGISTRY_PATH) at the file to use it.`)
}
