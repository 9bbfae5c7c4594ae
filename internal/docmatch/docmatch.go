// Package docmatch resolves a component name against documentation file paths.
package docmatch

import (
	"strings"
)

const (
	pathSeparator     = "/"
	markdownExtension = ".md"
)

// Candidate describes a documentation file that a query can match.
type Candidate struct {
	FullPath        string
	RelativePath    string
	Stem            string
	ParentDirectory string
}

// NewCandidate derives a Candidate from a repository path located below documentationRoot.
func NewCandidate(documentationRoot string, fullPath string) Candidate {
	relativePath := strings.TrimPrefix(fullPath, documentationRoot)
	segments := strings.Split(relativePath, pathSeparator)
	fileName := segments[len(segments)-1]
	parentDirectory := ""
	if len(segments) > 1 {
		parentDirectory = segments[len(segments)-2]
	}
	return Candidate{
		FullPath:        fullPath,
		RelativePath:    relativePath,
		Stem:            strings.TrimSuffix(fileName, markdownExtension),
		ParentDirectory: parentDirectory,
	}
}

// NewCandidates derives candidates for every path, preserving order.
func NewCandidates(documentationRoot string, fullPaths []string) []Candidate {
	candidates := make([]Candidate, 0, len(fullPaths))
	for _, fullPath := range fullPaths {
		candidates = append(candidates, NewCandidate(documentationRoot, fullPath))
	}
	return candidates
}

// Match returns the candidates whose stem or parent directory contains query,
// ignoring case. Input order is preserved.
func Match(candidates []Candidate, query string) []Candidate {
	loweredQuery := strings.ToLower(query)
	var matches []Candidate
	for _, candidate := range candidates {
		if candidate.matches(loweredQuery) {
			matches = append(matches, candidate)
		}
	}
	return matches
}

func (candidate Candidate) matches(loweredQuery string) bool {
	if strings.Contains(strings.ToLower(candidate.Stem), loweredQuery) {
		return true
	}
	if candidate.ParentDirectory == "" {
		return false
	}
	return strings.Contains(strings.ToLower(candidate.ParentDirectory), loweredQuery)
}

// RelativePaths lists the relative path of every candidate.
func RelativePaths(candidates []Candidate) []string {
	paths := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		paths = append(paths, candidate.RelativePath)
	}
	return paths
}
