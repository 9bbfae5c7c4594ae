package utils

// Configuration file locations shared by the config and cli packages.
const (
	// GlobalConfigDirectoryName is the directory under the user's home that holds global configuration.
	GlobalConfigDirectoryName = ".docmcp"
	// EnvironmentFileName is the dotenv file read from the working and global configuration directories.
	EnvironmentFileName = ".env"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

// Messages reported by the application entry point.
const (
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal execution errors.
	ApplicationExecutionFailedMessage = "application execution failed"
)
