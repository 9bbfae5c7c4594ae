package githubdoc

import (
	"encoding/json"
	"errors"
	"fmt"

	gogithub "github.com/google/go-github/v75/github"
)

// ErrorKind classifies failures of the documentation operations.
type ErrorKind string

const (
	// KindMissingCredential reports an absent GitHub token.
	KindMissingCredential ErrorKind = "MissingCredential"
	// KindRepoOrBranchNotFound covers every failure of the branch lookup.
	KindRepoOrBranchNotFound ErrorKind = "RepoOrBranchNotFound"
	// KindListingUnavailable reports a tree response without an entry array.
	KindListingUnavailable ErrorKind = "ListingUnavailable"
	// KindContentUnavailable reports a file response without decodable content.
	KindContentUnavailable ErrorKind = "ContentUnavailable"
	// KindNoMatch reports that no documentation file matched the query.
	KindNoMatch ErrorKind = "NoMatch"
	// KindUpstreamError is the catch-all for other remote failures.
	KindUpstreamError ErrorKind = "UpstreamError"
)

// Detail carries the diagnostic payload extracted from a remote failure.
type Detail struct {
	Message    string
	StatusCode int
	Body       string
}

// Error is the typed failure returned by Client.
type Error struct {
	Kind   ErrorKind
	Detail Detail
	Err    error
}

// Error returns the error string.
func (documentationError *Error) Error() string {
	if documentationError.Err == nil {
		return string(documentationError.Kind)
	}
	return fmt.Sprintf("%s: %v", documentationError.Kind, documentationError.Err)
}

// Unwrap exposes the wrapped error.
func (documentationError *Error) Unwrap() error {
	return documentationError.Err
}

// NewError wraps cause with kind and extracts the remote detail from it.
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Detail: DescribeFailure(cause), Err: cause}
}

// KindOf returns the kind of err, or KindUpstreamError when err is not an *Error.
func KindOf(err error) ErrorKind {
	var documentationError *Error
	if errors.As(err, &documentationError) {
		return documentationError.Kind
	}
	return KindUpstreamError
}

// DetailOf returns the detail attached to err, extracting it when err is not an *Error.
func DetailOf(err error) Detail {
	var documentationError *Error
	if errors.As(err, &documentationError) {
		return documentationError.Detail
	}
	return DescribeFailure(err)
}

// DescribeFailure extracts the message, HTTP status and response body from a go-github error.
func DescribeFailure(err error) Detail {
	if err == nil {
		return Detail{}
	}
	var rateLimitError *gogithub.RateLimitError
	if errors.As(err, &rateLimitError) {
		detail := Detail{Message: rateLimitError.Message}
		if rateLimitError.Response != nil {
			detail.StatusCode = rateLimitError.Response.StatusCode
		}
		return detail
	}
	var errorResponse *gogithub.ErrorResponse
	if errors.As(err, &errorResponse) {
		detail := Detail{Message: errorResponse.Message}
		if errorResponse.Response != nil {
			detail.StatusCode = errorResponse.Response.StatusCode
		}
		if encoded, encodeErr := json.Marshal(errorResponse); encodeErr == nil {
			detail.Body = string(encoded)
		}
		if detail.Message == "" {
			detail.Message = err.Error()
		}
		return detail
	}
	return Detail{Message: err.Error()}
}
