package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/mdstream/internal/config"
	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/ui"
)

var configResetForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mdstream configuration",
	Long: `View or edit your mdstream configuration.

Examples:
  mdstream config                          # show current config
  mdstream config edit                     # edit in $EDITOR
  mdstream config set render.preset nord
  mdstream config get stream.delay
  mdstream config reset --force            # reset to defaults
  mdstream config completion zsh           # generate shell completions`,
	Args: cobra.NoArgs,
	RunE: configShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in $EDITOR",
	Args:  cobra.NoArgs,
	RunE:  configEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	Args:  cobra.NoArgs,
	RunE:  configPath,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	Long:  `Write a commented config file holding the default values. An existing file is only replaced with --force.`,
	Args:  cobra.NoArgs,
	RunE:  configReset,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value while preserving comments. The file is checked
after the change and left untouched if the new value is invalid.

Examples:
  mdstream config set provider openai
  mdstream config set render.width 100
  mdstream config set styles.h1.fg "#ff8700"`,
	Args:              cobra.ExactArgs(2),
	RunE:              configSet,
	ValidArgsFunction: configSetCompletion,
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Get a configuration value",
	Args:              cobra.ExactArgs(1),
	RunE:              configGet,
	ValidArgsFunction: configGetCompletion,
}

var configCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script.

Examples:
  mdstream config completion bash > /etc/bash_completion.d/mdstream
  mdstream config completion zsh > "${fpath[1]}/_mdstream"
  mdstream config completion fish > ~/.config/fish/completions/mdstream.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      configCompletion,
}

func init() {
	configResetCmd.Flags().BoolVar(&configResetForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configEditCmd, configPathCmd, configResetCmd, configSetCmd, configGetCmd, configCompletionCmd)
	rootCmd.AddCommand(configCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := configFile
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Fprintf(out, "# No config file (using defaults)\n")
		fmt.Fprintf(out, "# Create one with: mdstream config reset\n\n")
	} else {
		fmt.Fprintf(out, "# %s\n\n", path)
	}
	return writeMaskedConfig(out, cfg)
}

// writeMaskedConfig prints cfg as YAML with API keys replaced by their
// status.
func writeMaskedConfig(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.Anthropic.APIKey = credentialStatus(cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	masked.OpenAI.APIKey = credentialStatus(cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	masked.Gemini.APIKey = credentialStatus(cfg.Gemini.APIKey, "GEMINI_API_KEY")

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return err
	}
	return enc.Close()
}

func credentialStatus(key, envVar string) string {
	if key == "" {
		return "[NOT SET - export " + envVar + "]"
	}
	return "[set]"
}

func configEdit(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if !config.Exists() {
		if err := config.Save(config.Defaults()); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	return editorCmd.Run()
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func configReset(cmd *cobra.Command, args []string) error {
	if config.Exists() && !configResetForce {
		return errors.New("config file exists; pass --force to overwrite it")
	}
	if err := config.Save(config.Defaults()); err != nil {
		return err
	}
	path, _ := config.GetConfigPath()
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func configSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var root yaml.Node
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		root = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	case err != nil:
		return fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := setYAMLValue(&root, strings.Split(key, "."), value); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	// Check the result before replacing the real file
	tmp := strings.TrimSuffix(configPath, ".yaml") + ".new.yaml"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if _, err := config.LoadFile(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := os.Rename(tmp, configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

// setYAMLValue walks path in a yaml.Node tree, creating mappings as it
// goes, and sets the final key to value.
func setYAMLValue(root *yaml.Node, path []string, value string) error {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid document structure")
	}
	current := root.Content[0]
	if current.Kind != yaml.MappingNode {
		return fmt.Errorf("root is not a mapping")
	}

	for i, part := range path {
		isLast := i == len(path)-1
		var next *yaml.Node
		for j := 0; j+1 < len(current.Content); j += 2 {
			if current.Content[j].Value == part {
				next = current.Content[j+1]
				break
			}
		}

		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode}
			current.Content = append(current.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, next)
		}
		if isLast {
			next.Kind = yaml.ScalarNode
			next.Tag = ""
			next.Value = value
			next.Content = nil
			return nil
		}
		if next.Kind != yaml.MappingNode {
			next.Kind = yaml.MappingNode
			next.Content = nil
			next.Value = ""
			next.Tag = ""
		}
		current = next
	}
	return nil
}

func configGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist")
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	value, err := getYAMLValue(&root, strings.Split(key, "."))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

// getYAMLValue returns the scalar at path
func getYAMLValue(root *yaml.Node, path []string) (string, error) {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return "", fmt.Errorf("invalid document structure")
	}

	current := root.Content[0]
	for _, part := range path {
		if current.Kind != yaml.MappingNode {
			return "", fmt.Errorf("path not found: expected mapping")
		}
		found := false
		for j := 0; j+1 < len(current.Content); j += 2 {
			if current.Content[j].Value == part {
				current = current.Content[j+1]
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("key not found: %s", part)
		}
	}

	if current.Kind == yaml.ScalarNode {
		return current.Value, nil
	}
	return "", fmt.Errorf("value is not a scalar")
}

// configKeys lists the settable scalar keys. Style overrides are added per
// registry style name.
func configKeys() []string {
	keys := []string{
		"provider",
		"ask.instructions",
		"anthropic.api_key", "anthropic.model", "anthropic.max_tokens",
		"openai.api_key", "openai.model", "openai.base_url",
		"gemini.api_key", "gemini.model",
		"render.width", "render.preset", "render.color", "render.highlight_style", "render.hold_unstable",
		"theme.primary", "theme.secondary", "theme.success", "theme.error", "theme.warning",
		"theme.muted", "theme.text", "theme.spinner", "theme.code_bg",
		"stream.chunk_size", "stream.delay",
		"record.enabled", "record.dir", "record.retention",
		"log.level",
	}
	for _, name := range ui.StyleNames {
		for _, field := range []string{"bold", "italic", "underline", "size", "fg", "bg"} {
			keys = append(keys, "styles."+name+"."+field)
		}
	}
	return keys
}

func configValueCompletions(key string) []string {
	switch {
	case key == "provider":
		return llm.ProviderNames
	case key == "render.preset":
		return ui.PresetThemeNames
	case key == "render.color":
		return []string{"auto", "none", "ansi", "ansi256", "truecolor"}
	case key == "log.level":
		return []string{"debug", "info", "warn", "error"}
	case key == "render.hold_unstable", key == "record.enabled",
		strings.HasSuffix(key, ".bold"),
		strings.HasSuffix(key, ".italic"),
		strings.HasSuffix(key, ".underline"):
		return []string{"true", "false"}
	}
	return nil
}

func configSetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return filterPrefix(configKeys(), toComplete), cobra.ShellCompDirectiveNoFileComp
	case 1:
		return filterPrefix(configValueCompletions(args[0]), toComplete), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func configGetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(configKeys(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			result = append(result, item)
		}
	}
	return result
}

func configCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletion(out)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return nil
}
