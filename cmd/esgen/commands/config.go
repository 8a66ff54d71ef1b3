package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/UCNot/esgen-sub001/am"
	"github.com/UCNot/esgen-sub001/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage esgen configuration",
	Long: `Display and manage esgen configuration settings.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (ESGEN_* prefix, e.g. ESGEN_GENERATE_FORMAT)
3. Project config (nearest esgen.toml, searching up directories)
4. User config (~/.esgen/esgen.toml)
5. System config (/etc/esgen/esgen.toml)
6. Default values

Examples:
  esgen config show                         # Show current configuration
  esgen config show --format json           # Show configuration in JSON format
  esgen config get generate.format          # Get specific config value
  esgen config set generate.indent "    "   # Set a value in the project config
  esgen config set --user log.verbosity 1   # Set a value in the user config
  esgen config where                        # Show where each setting comes from`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., generate.format, eval.timeout_ms)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the project config (the nearest esgen.toml,
or ./esgen.toml when there is none), or in the user config with --user.

The previous file is kept as esgen.toml.back1 (up to three backups).
Values the configuration rejects are reverted.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runConfigWhere,
}

var (
	configFormat string
	configUser   bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	configSetCmd.Flags().BoolVar(&configUser, "user", false, "Write to ~/.esgen/esgen.toml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configSetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	settings := am.GetViper().AllSettings()
	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# esgen configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(settings)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# esgen configuration\n%s", data)

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	if !am.GetViper().IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, err := configSetPath(configUser)
	if err != nil {
		return err
	}

	if err := am.SetValue(path, args[0], args[1]); err != nil {
		return err
	}

	// Revert values the configuration would not load with
	if _, err := am.LoadFromFile(path); err != nil {
		if restoreErr := restoreBackup(path); restoreErr != nil {
			return errors.WithSecondaryError(err, restoreErr)
		}
		return err
	}

	am.Reset()
	pterm.Success.Printf("%s = %s (%s)\n", args[0], args[1], path)
	return nil
}

// restoreBackup puts back the file SetValue backed up, or removes the file it created
func restoreBackup(path string) error {
	backup := path + ".back1"
	if _, err := os.Stat(backup); os.IsNotExist(err) {
		return os.Remove(path)
	}
	return os.Rename(backup, path)
}

// configSetPath returns the file config set writes to
func configSetPath(user bool) (string, error) {
	if user {
		path := am.UserConfigPath()
		if path == "" {
			return "", errors.New("no home directory for the user config")
		}
		return path, nil
	}
	if project := am.FindProjectConfig(); project != "" {
		return project, nil
	}
	return filepath.Abs(am.ConfigFileName)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Load validates
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	pterm.Success.Println("Configuration is valid")
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(cmd.OutOrStdout(), "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintf(cmd.OutOrStdout(), "  2. [SYSTEM]   %s\n", filepath.Join(am.SystemConfigDir, am.ConfigFileName))
	fmt.Fprintf(cmd.OutOrStdout(), "  3. [USER]     ~/%s\n", filepath.Join(am.UserConfigDir, am.ConfigFileName))
	fmt.Fprintf(cmd.OutOrStdout(), "  4. [PROJECT]  ./%s (searches up directories)\n", am.ConfigFileName)
	fmt.Fprintf(cmd.OutOrStdout(), "  5. [ENV]      %s_* environment variables\n", am.EnvPrefix)
	fmt.Fprintln(cmd.OutOrStdout())

	if len(intro.ConfigFiles) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Config files:")
		for _, file := range intro.ConfigFiles {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", file)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, setting := range intro.Settings {
		valueStr := fmt.Sprintf("%q", fmt.Sprint(setting.Value))
		// Truncate long values
		if len(valueStr) > 50 {
			valueStr = valueStr[:47] + "..."
		}
		data = append(data, []string{setting.Key, valueStr, string(setting.Source), setting.SourcePath})
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithWriter(cmd.OutOrStdout()).
		WithData(data).
		Render()
}
