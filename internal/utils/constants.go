package utils

const (
	// EmptyString represents a reusable empty string constant.
	EmptyString = ""

	// ApplicationName is the command name and configuration namespace.
	ApplicationName = "treetext"
	// EnvironmentPrefix prefixes environment variables that override configuration.
	EnvironmentPrefix = "TREETEXT"
	// LocalConfigFileName is the configuration file looked up in the working directory.
	LocalConfigFileName = ".treetext.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".treetext"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"

	// LoggerInitializationFailedMessageFormat is used when the logger cannot be built.
	LoggerInitializationFailedMessageFormat = "initialize logger: %w"
)
