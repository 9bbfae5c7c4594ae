package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/docmcp/internal/utils"
)

const dotenvConfigType = "env"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// LoadApplicationConfiguration merges, from lowest to highest precedence, the
// global dotenv file, the working directory dotenv file, the explicit
// configuration file and the process environment.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	reader := viper.New()
	reader.SetDefault(KeyDocumentationRoot, DefaultDocumentationRoot)
	for key, environmentName := range environmentBindings {
		if bindErr := reader.BindEnv(key, environmentName); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind %s: %w", environmentName, bindErr)
		}
	}

	var sources []string
	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		sources = append(sources, filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.EnvironmentFileName))
	}
	sources = append(sources, filepath.Join(workingDirectory, utils.EnvironmentFileName))

	for _, sourcePath := range sources {
		if mergeErr := mergeConfigurationFile(reader, sourcePath, false); mergeErr != nil {
			return ApplicationConfiguration{}, mergeErr
		}
	}

	if options.ExplicitFilePath != "" {
		explicitPath := options.ExplicitFilePath
		if !filepath.IsAbs(explicitPath) {
			explicitPath = filepath.Join(workingDirectory, explicitPath)
		}
		if mergeErr := mergeConfigurationFile(reader, explicitPath, true); mergeErr != nil {
			return ApplicationConfiguration{}, mergeErr
		}
	}

	var configuration ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&configuration); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration: %w", decodeErr)
	}
	return configuration.normalized(), nil
}

func mergeConfigurationFile(reader *viper.Viper, path string, required bool) error {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return nil
		}
		return fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return fmt.Errorf("configuration path %s is a directory", path)
	}
	reader.SetConfigFile(path)
	reader.SetConfigType(configTypeForPath(path))
	if readErr := reader.MergeInConfig(); readErr != nil {
		return fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	return nil
}

func configTypeForPath(path string) string {
	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if extension == "" {
		return dotenvConfigType
	}
	return extension
}
