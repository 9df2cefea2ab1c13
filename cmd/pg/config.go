package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/peoplegraph/peoplegraph/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  pg config                                # Show effective config
  pg config listen-addr                    # Get specific value
  pg config listen-addr :3000              # Set value
  pg config pinned-node "andrew huberman"  # Node whose selection is ignored

Showing and getting use the effective configuration, environment overrides
included. Setting a value edits only the config file; --data, .env and
PEOPLEGRAPH_* overrides are never written back.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Path   string `json:"path"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	values, err := configValues(cfg)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	// No args: show all config
	if len(args) == 0 {
		if !humanOutput {
			return outputJSON(values)
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			outputHuman("%-22s %v\n", k+":", values[k])
		}
		return nil
	}

	key := normalizeKey(args[0])
	current, ok := values[key]
	if !ok {
		exitWithError(ExitConfigError, "unknown config key %q", args[0])
	}

	// One arg: get specific value
	if len(args) == 1 {
		if humanOutput {
			outputHuman("%v\n", current)
			return nil
		}
		return outputJSON(map[string]interface{}{key: current})
	}

	path := configPath
	if path == "" {
		path = config.Path()
	}
	if err := updateConfigFile(path, key, args[1]); err != nil {
		code := ExitConfigError
		if errors.Is(err, errSaveConfig) {
			code = ExitError
		}
		exitWithError(code, "%v", err)
	}
	config.ResetCache()

	if humanOutput {
		outputHuman("Set %s = %s in %s\n", key, args[1], path)
		return nil
	}
	return outputJSON(UpdateResponse{Status: "updated", Key: key, Value: args[1], Path: path})
}

// normalizeKey accepts dashes as well as the file's underscores.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

// configValues flattens cfg into its file keys.
func configValues(cfg *config.Config) (map[string]interface{}, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	values := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return values, nil
}

// setConfigValue decodes value into the field named key, resolving the
// scalar the same way the config file would.
func setConfigValue(cfg *config.Config, key, value string) error {
	node := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: key},
			{Kind: yaml.ScalarNode, Value: value},
		},
	}
	if err := node.Decode(cfg); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

var errSaveConfig = errors.New("saving config")

// updateConfigFile sets key in the file at path, starting from the file's
// own contents rather than the effective config.
func updateConfigFile(path, key, value string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("%w: %w", errSaveConfig, err)
	}
	return nil
}
