package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/ctxdump/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds defaults read from configuration files.
// Unset values stay nil or empty so flags and built-in defaults can apply.
type ApplicationConfiguration struct {
	Output         string                 `mapstructure:"output" yaml:"output"`
	Exclusions     ExclusionConfiguration `mapstructure:"exclusions" yaml:"exclusions"`
	Gitignore      *bool                  `mapstructure:"gitignore" yaml:"gitignore"`
	NaturalSort    *bool                  `mapstructure:"natural_sort" yaml:"natural_sort"`
	Clipboard      *bool                  `mapstructure:"clipboard" yaml:"clipboard"`
	ProgressFormat string                 `mapstructure:"progress" yaml:"progress"`
	Tokens         TokenConfiguration     `mapstructure:"tokens" yaml:"tokens"`
}

// ExclusionConfiguration lists excluded folder names, file names and extensions.
// A nil list keeps the built-in defaults; an empty list excludes nothing.
type ExclusionConfiguration struct {
	Folders    []string `mapstructure:"folders" yaml:"folders"`
	Files      []string `mapstructure:"files" yaml:"files"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

// loadConfigurationFromPath decodes one file. A missing file is an empty
// configuration unless required is set.
func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Output != "" {
		result.Output = override.Output
	}
	result.Exclusions = result.Exclusions.Merge(override.Exclusions)
	if override.Gitignore != nil {
		result.Gitignore = cloneBool(override.Gitignore)
	}
	if override.NaturalSort != nil {
		result.NaturalSort = cloneBool(override.NaturalSort)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.ProgressFormat != "" {
		result.ProgressFormat = override.ProgressFormat
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

// Merge replaces each list that override sets.
func (config ExclusionConfiguration) Merge(override ExclusionConfiguration) ExclusionConfiguration {
	result := config
	if override.Folders != nil {
		result.Folders = utils.DeduplicatePatterns(override.Folders)
	}
	if override.Files != nil {
		result.Files = utils.DeduplicatePatterns(override.Files)
	}
	if override.Extensions != nil {
		result.Extensions = utils.DeduplicatePatterns(override.Extensions)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// BoolValue dereferences value, returning fallback when it is unset.
func BoolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
