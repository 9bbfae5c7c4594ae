// Package config loads the repository coordinates and credential used to reach the documentation source.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration keys and the environment variables bound to them.
const (
	KeyToken             = "github_token"
	KeyOwner             = "github_repo_owner"
	KeyRepositoryName    = "github_repo_name"
	KeyBranch            = "github_branch"
	KeyAPIBaseURL        = "github_api_url"
	KeyDocumentationRoot = "docmcp_documentation_root"

	EnvToken             = "GITHUB_TOKEN"
	EnvOwner             = "GITHUB_REPO_OWNER"
	EnvRepositoryName    = "GITHUB_REPO_NAME"
	EnvBranch            = "GITHUB_BRANCH"
	EnvAPIBaseURL        = "GITHUB_API_URL"
	EnvDocumentationRoot = "DOCMCP_DOCUMENTATION_ROOT"

	// DefaultDocumentationRoot is the repository directory holding the documentation files.
	DefaultDocumentationRoot = "src/documentation/"

	pathSeparator = "/"
)

var environmentBindings = map[string]string{
	KeyToken:             EnvToken,
	KeyOwner:             EnvOwner,
	KeyRepositoryName:    EnvRepositoryName,
	KeyBranch:            EnvBranch,
	KeyAPIBaseURL:        EnvAPIBaseURL,
	KeyDocumentationRoot: EnvDocumentationRoot,
}

// ErrMissingCoordinates reports that owner, name or branch were not supplied.
var ErrMissingCoordinates = errors.New("repository coordinates are incomplete")

// Repository identifies the documentation source.
type Repository struct {
	Owner             string `mapstructure:"github_repo_owner"`
	Name              string `mapstructure:"github_repo_name"`
	Branch            string `mapstructure:"github_branch"`
	DocumentationRoot string `mapstructure:"docmcp_documentation_root"`
}

// ApplicationConfiguration holds everything the tool handlers need.
type ApplicationConfiguration struct {
	Token      string     `mapstructure:"github_token"`
	APIBaseURL string     `mapstructure:"github_api_url"`
	Repository Repository `mapstructure:",squash"`
}

// HasToken reports whether a credential was supplied.
func (configuration ApplicationConfiguration) HasToken() bool {
	return strings.TrimSpace(configuration.Token) != ""
}

// Validate checks that the repository coordinates are present. The token is
// checked per operation instead so a server can start without one.
func (configuration ApplicationConfiguration) Validate() error {
	var missing []string
	if strings.TrimSpace(configuration.Repository.Owner) == "" {
		missing = append(missing, EnvOwner)
	}
	if strings.TrimSpace(configuration.Repository.Name) == "" {
		missing = append(missing, EnvRepositoryName)
	}
	if strings.TrimSpace(configuration.Repository.Branch) == "" {
		missing = append(missing, EnvBranch)
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", ErrMissingCoordinates, strings.Join(missing, ", "))
}

func (configuration ApplicationConfiguration) normalized() ApplicationConfiguration {
	result := configuration
	result.Token = strings.TrimSpace(result.Token)
	result.APIBaseURL = strings.TrimSpace(result.APIBaseURL)
	result.Repository.Owner = strings.TrimSpace(result.Repository.Owner)
	result.Repository.Name = strings.TrimSpace(result.Repository.Name)
	result.Repository.Branch = strings.TrimSpace(result.Repository.Branch)
	result.Repository.DocumentationRoot = NormalizeDocumentationRoot(result.Repository.DocumentationRoot)
	return result
}

// NormalizeDocumentationRoot strips the leading slash and guarantees exactly one trailing slash.
func NormalizeDocumentationRoot(root string) string {
	trimmed := strings.Trim(strings.TrimSpace(root), pathSeparator)
	if trimmed == "" {
		return DefaultDocumentationRoot
	}
	return trimmed + pathSeparator
}
