// Package doctree converts flat repository paths into a directory tree and
// renders it as a decorated text listing.
package doctree

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	pathSeparator = "/"

	// MarkdownExtension is the only leaf suffix that is rendered.
	MarkdownExtension = ".md"

	directoryGlyph       = "📁"
	documentGlyph        = "🧩"
	branchConnector      = "├── "
	cornerConnector      = "└── "
	blankContinuation    = "    "
	verticalContinuation = "│   "
	lineTerminator       = "\n"
)

// Node maps a path segment to its child. A nil child marks a file leaf, a
// non-nil child (possibly empty) is a directory.
type Node map[string]Node

// Build converts slash-delimited relative paths into a Node tree.
// Empty segments are skipped. The final segment of a path always becomes a
// file marker, replacing any directory previously registered under that name.
func Build(paths []string) Node {
	root := Node{}
	for _, path := range paths {
		segments := strings.Split(path, pathSeparator)
		current := root
		for segmentIndex, segment := range segments {
			if segment == "" {
				continue
			}
			if segmentIndex == len(segments)-1 {
				current[segment] = nil
				continue
			}
			child, exists := current[segment]
			if !exists || child == nil {
				child = Node{}
				current[segment] = child
			}
			current = child
		}
	}
	return root
}

// Render produces the indented listing for node. Every emitted line ends
// with a newline. isLastSubtree reports whether node itself was the last
// entry of its parent listing and selects the continuation used for the
// children of node.
func Render(node Node, prefix string, isLastSubtree bool) string {
	var builder strings.Builder
	renderInto(&builder, newSiblingSorter(), node, prefix, isLastSubtree)
	return builder.String()
}

// RenderDocumentation renders node below a synthetic root directory line and
// strips the single trailing newline.
func RenderDocumentation(rootName string, node Node) string {
	var builder strings.Builder
	builder.WriteString(rootName)
	builder.WriteString("/ " + directoryGlyph + lineTerminator)
	renderInto(&builder, newSiblingSorter(), node, "", true)
	return strings.TrimSuffix(builder.String(), lineTerminator)
}

// RootName returns the display name for a documentation root such as
// "src/documentation/".
func RootName(documentationRoot string) string {
	trimmed := strings.Trim(documentationRoot, pathSeparator)
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, pathSeparator)
	return segments[len(segments)-1]
}

func renderInto(builder *strings.Builder, sorter siblingSorter, node Node, prefix string, isLastSubtree bool) {
	names := sorter.sortedNames(node)
	childPrefix := prefix + verticalContinuation
	if isLastSubtree {
		childPrefix = prefix + blankContinuation
	}
	for nameIndex, name := range names {
		isLastSibling := nameIndex == len(names)-1
		connector := branchConnector
		if isLastSibling {
			connector = cornerConnector
		}
		child := node[name]
		if child == nil {
			if strings.HasSuffix(name, MarkdownExtension) {
				builder.WriteString(prefix + connector + name + " " + documentGlyph + lineTerminator)
			}
			continue
		}
		builder.WriteString(prefix + connector + name + "/ " + directoryGlyph + lineTerminator)
		renderInto(builder, sorter, child, childPrefix, isLastSibling)
	}
}

// siblingSorter orders names with Spanish collation rules. A collator keeps
// internal buffers, so one sorter serves a single render.
type siblingSorter struct {
	collator *collate.Collator
}

func newSiblingSorter() siblingSorter {
	return siblingSorter{collator: collate.New(language.Spanish)}
}

func (sorter siblingSorter) sortedNames(node Node) []string {
	names := make([]string, 0, len(node))
	for name := range node {
		names = append(names, name)
	}
	sort.SliceStable(names, func(left, right int) bool {
		comparison := sorter.collator.CompareString(names[left], names[right])
		if comparison != 0 {
			return comparison < 0
		}
		return names[left] < names[right]
	})
	return names
}
