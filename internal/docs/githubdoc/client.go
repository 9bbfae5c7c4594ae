// Package githubdoc lists and fetches Markdown documentation stored in a GitHub repository.
package githubdoc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/temirov/docmcp/internal/config"
)

const (
	markdownExtension = ".md"
	branchPathFormat  = "repos/%s/%s/branches/%s"
)

var (
	errMissingTreeSHA   = errors.New("branch response carries no tree sha")
	errMissingTreeArray = errors.New("tree response carries no entry array")
	errDirectoryContent = errors.New("path resolves to a directory")
	errMissingContent   = errors.New("content response carries no content field")
)

// Client resolves the branch tree and reads documentation files through the GitHub REST API.
type Client struct {
	github     *gogithub.Client
	repository config.Repository
}

// NewClient creates a Client for repository using an authenticated go-github client.
func NewClient(github *gogithub.Client, repository config.Repository) *Client {
	normalized := repository
	normalized.DocumentationRoot = config.NormalizeDocumentationRoot(repository.DocumentationRoot)
	return &Client{github: github, repository: normalized}
}

// DocumentationRoot returns the normalized repository prefix holding the documentation.
func (client *Client) DocumentationRoot() string {
	return client.repository.DocumentationRoot
}

// ResolveTreeID returns the tree sha of the configured branch head.
// The branch is requested through Client.Do so a non-200 answer surfaces as
// *github.ErrorResponse with its status and body.
func (client *Client) ResolveTreeID(ctx context.Context) (string, error) {
	branchPath := fmt.Sprintf(branchPathFormat, url.PathEscape(client.repository.Owner), url.PathEscape(client.repository.Name), url.PathEscape(client.repository.Branch))
	request, err := client.github.NewRequest(http.MethodGet, branchPath, nil)
	if err != nil {
		return "", NewError(KindRepoOrBranchNotFound, fmt.Errorf("build branch request: %w", err))
	}
	branch := new(gogithub.Branch)
	if _, err := client.github.Do(ctx, request, branch); err != nil {
		return "", NewError(KindRepoOrBranchNotFound, err)
	}
	treeSHA := branch.GetCommit().GetCommit().GetTree().GetSHA()
	if treeSHA == "" {
		return "", NewError(KindRepoOrBranchNotFound, errMissingTreeSHA)
	}
	return treeSHA, nil
}

// ListDocumentationFiles returns the paths below the documentation root,
// relative to it, in listing order. recursive selects a full-depth listing.
func (client *Client) ListDocumentationFiles(ctx context.Context, treeID string, recursive bool) ([]string, error) {
	entries, err := client.listTree(ctx, treeID, recursive)
	if err != nil {
		return nil, err
	}
	documentationRoot := client.repository.DocumentationRoot
	relativePaths := make([]string, 0, len(entries))
	for _, entry := range entries {
		entryPath := entry.GetPath()
		if !strings.HasPrefix(entryPath, documentationRoot) {
			continue
		}
		relativePath := strings.TrimPrefix(entryPath, documentationRoot)
		if relativePath == "" {
			continue
		}
		relativePaths = append(relativePaths, relativePath)
	}
	return relativePaths, nil
}

// ListMarkdownFiles returns the full repository paths of every Markdown file
// below the documentation root. The listing is always recursive.
func (client *Client) ListMarkdownFiles(ctx context.Context, treeID string) ([]string, error) {
	entries, err := client.listTree(ctx, treeID, true)
	if err != nil {
		return nil, err
	}
	documentationRoot := client.repository.DocumentationRoot
	var fullPaths []string
	for _, entry := range entries {
		entryPath := entry.GetPath()
		if strings.HasPrefix(entryPath, documentationRoot) && strings.HasSuffix(entryPath, markdownExtension) {
			fullPaths = append(fullPaths, entryPath)
		}
	}
	return fullPaths, nil
}

// FetchFileContent returns the decoded bytes of path at ref.
func (client *Client) FetchFileContent(ctx context.Context, path string, ref string) ([]byte, error) {
	options := &gogithub.RepositoryContentGetOptions{Ref: ref}
	fileContent, _, _, err := client.github.Repositories.GetContents(ctx, client.repository.Owner, client.repository.Name, path, options)
	if err != nil {
		return nil, NewError(KindUpstreamError, fmt.Errorf("get contents %s: %w", path, err))
	}
	if fileContent == nil {
		return nil, NewError(KindContentUnavailable, fmt.Errorf("%s: %w", path, errDirectoryContent))
	}
	if fileContent.Content == nil {
		return nil, NewError(KindContentUnavailable, fmt.Errorf("%s: %w", path, errMissingContent))
	}
	decoded, decodeErr := fileContent.GetContent()
	if decodeErr != nil {
		return nil, NewError(KindContentUnavailable, fmt.Errorf("decode content %s: %w", path, decodeErr))
	}
	return []byte(decoded), nil
}

func (client *Client) listTree(ctx context.Context, treeID string, recursive bool) ([]*gogithub.TreeEntry, error) {
	tree, _, err := client.github.Git.GetTree(ctx, client.repository.Owner, client.repository.Name, treeID, recursive)
	if err != nil {
		return nil, NewError(KindUpstreamError, fmt.Errorf("get tree %s: %w", treeID, err))
	}
	if tree == nil || tree.Entries == nil {
		return nil, NewError(KindListingUnavailable, errMissingTreeArray)
	}
	return tree.Entries, nil
}
