package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/temirov/ctxdump/internal/exclusion"
	"github.com/temirov/ctxdump/internal/tokenizer"
	"github.com/temirov/ctxdump/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	configurationHeader = "# ctxdump configuration. Local files override ~/" + utils.GlobalConfigDirectoryName + "/" + utils.ConfigFileName + ".\n"
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// DefaultConfiguration returns the configuration written by InitializeConfiguration.
func DefaultConfiguration() ApplicationConfiguration {
	disabled := false
	return ApplicationConfiguration{
		Exclusions: ExclusionConfiguration{
			Folders:    append([]string{}, exclusion.DefaultFolders...),
			Files:      append([]string{}, exclusion.DefaultFiles...),
			Extensions: append([]string{}, exclusion.DefaultExtensions...),
		},
		Gitignore:      cloneBool(&disabled),
		NaturalSort:    cloneBool(&disabled),
		Clipboard:      cloneBool(&disabled),
		ProgressFormat: "auto",
		Tokens: TokenConfiguration{
			Enabled: cloneBool(&disabled),
			Model:   tokenizer.DefaultModel,
		},
	}
}

// RenderDefaultConfiguration returns the default configuration as YAML.
func RenderDefaultConfiguration() ([]byte, error) {
	body, marshalErr := yaml.Marshal(DefaultConfiguration())
	if marshalErr != nil {
		return nil, fmt.Errorf("render default configuration: %w", marshalErr)
	}
	return append([]byte(configurationHeader), body...), nil
}

// InitializeConfiguration writes the default configuration to the requested target.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		destinationPath = filepath.Join(workingDirectory, utils.ConfigFileName)
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", err)
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if err := os.MkdirAll(configurationDirectory, 0o755); err != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, err)
		}
		destinationPath = filepath.Join(configurationDirectory, utils.ConfigFileName)
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}

	if _, err := os.Stat(destinationPath); err == nil {
		if !options.Force {
			return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, err)
	}

	content, renderErr := RenderDefaultConfiguration()
	if renderErr != nil {
		return "", renderErr
	}
	if err := os.WriteFile(destinationPath, content, 0o600); err != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, err)
	}

	return destinationPath, nil
}
