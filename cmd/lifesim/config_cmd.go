package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/myorg/lifesim/internal/actions"
	"github.com/myorg/lifesim/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
	Long:  "Generate, validate and inspect lifesim configuration files.",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Generate an example configuration file",
	Long: `Write the default configuration as YAML. Without a file argument the
configuration is printed to stdout.

Examples:
  lifesim config init lifesim.yaml
  lifesim config init > lifesim.yaml
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  "Print the configuration after defaults, the --config file and environment overrides are applied.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	data, err := config.LoadConfigWithDefaults().Marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append([]byte("# lifesim configuration\n"), data...)

	if len(args) == 0 {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	path := args[0]
	if !configInitForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	filename := args[0]

	fmt.Fprintf(out, "Validating: %s\n\n", filename)

	cfg, err := config.LoadConfig(filename)
	if err != nil {
		return err
	}
	catalog, err := actions.NewCatalog(cfg.Actions)
	if err != nil {
		return fmt.Errorf("validating actions: %w", err)
	}

	fmt.Fprintf(out, "Config is valid (%d actions: %v)\n", catalog.Len(), catalog.SortedNames())
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Keep secrets off the terminal.
	if cfg.Database.Password != "" {
		cfg.Database.Password = "********"
	}
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
