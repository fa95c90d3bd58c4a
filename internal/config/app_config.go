package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/temirov/treetext/internal/utils"
)

const (
	environmentKeySeparator = "_"
	configurationKeyNesting = "."
)

// environmentKeys lists the configuration keys that can be overridden from the environment.
var environmentKeys = []string{
	"tree.format",
	"tree.summary",
	"tree.include_hidden",
	"tree.max_depth",
	"tree.ignore_case",
	"tree.clipboard",
	"tree.exclude",
	"tree.exclude_path",
	"tree.exclude_from",
	"mcp.address",
}

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipEnvironment disables TREETEXT_* environment overrides.
	SkipEnvironment bool
	// FileSystem holds the configuration files. Nil reads from the operating system.
	FileSystem afero.Fs
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Tree TreeConfiguration   `mapstructure:"tree"`
	MCP  ServerConfiguration `mapstructure:"mcp"`
}

// TreeConfiguration defines defaults for the tree command. Nil pointers and
// empty values mean "not configured" so that later sources can tell them apart
// from explicit false or zero settings.
type TreeConfiguration struct {
	Format        string   `mapstructure:"format"`
	Summary       *bool    `mapstructure:"summary"`
	IncludeHidden *bool    `mapstructure:"include_hidden"`
	MaxDepth      *int     `mapstructure:"max_depth"`
	IgnoreCase    *bool    `mapstructure:"ignore_case"`
	Clipboard     *bool    `mapstructure:"clipboard"`
	Exclude       []string `mapstructure:"exclude"`
	ExcludePath   []string `mapstructure:"exclude_path"`
	ExcludeFrom   string   `mapstructure:"exclude_from"`
}

// ServerConfiguration defines defaults for the mcp command.
type ServerConfiguration struct {
	Address string `mapstructure:"address"`
}

// LoadApplicationConfiguration loads configuration from the global file, the
// local file and the environment, later sources overriding earlier ones.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	fileSystem := options.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(fileSystem, globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(fileSystem, localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	if !options.SkipEnvironment {
		environmentConfig, environmentErr := loadConfigurationFromEnvironment()
		if environmentErr != nil {
			return ApplicationConfiguration{}, environmentErr
		}
		merged = merged.Merge(environmentConfig)
	}

	merged.Tree.Exclude = utils.NormalizePatterns(merged.Tree.Exclude)
	merged.Tree.ExcludePath = utils.NormalizePatterns(merged.Tree.ExcludePath)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.LocalConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

// loadConfigurationFromPath reads one YAML file. A missing file is only an
// error when it was requested explicitly.
func loadConfigurationFromPath(fileSystem afero.Fs, path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := fileSystem.Stat(path)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetFs(fileSystem)
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	// exclusion files referenced from a config file are relative to that file
	if config.Tree.ExcludeFrom != "" && !filepath.IsAbs(config.Tree.ExcludeFrom) {
		config.Tree.ExcludeFrom = filepath.Join(filepath.Dir(path), config.Tree.ExcludeFrom)
	}
	return config, nil
}

func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(configurationKeyNesting, environmentKeySeparator))
	reader.AutomaticEnv()
	for _, key := range environmentKeys {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode environment configuration: %w", decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Tree = result.Tree.merge(override.Tree)
	if override.MCP.Address != "" {
		result.MCP.Address = override.MCP.Address
	}
	return result
}

func (config TreeConfiguration) merge(override TreeConfiguration) TreeConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.IncludeHidden != nil {
		result.IncludeHidden = cloneBool(override.IncludeHidden)
	}
	if override.MaxDepth != nil {
		result.MaxDepth = cloneInt(override.MaxDepth)
	}
	if override.IgnoreCase != nil {
		result.IgnoreCase = cloneBool(override.IgnoreCase)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if len(override.ExcludePath) > 0 {
		result.ExcludePath = append([]string{}, utils.DeduplicatePatterns(override.ExcludePath)...)
	}
	if override.ExcludeFrom != "" {
		result.ExcludeFrom = override.ExcludeFrom
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
