package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/common"
)

var (
	// ErrNoDocument is returned when a template carries no document payload.
	ErrNoDocument = errors.New("template has no document")
	// ErrDocumentUnreadable covers corrupt archives, bad payload encodings and
	// malformed tag structure. It is a parse failure, never a mismatch.
	ErrDocumentUnreadable = errors.New("document is unreadable")
)

// IssueKind classifies a structural problem in document tags.
type IssueKind string

const (
	IssueUnopenedLoop   IssueKind = "unopened_loop"
	IssueUnclosedLoop   IssueKind = "unclosed_loop"
	IssueMismatchedLoop IssueKind = "mismatched_loop"
	IssueUnclosedTag    IssueKind = "unclosed_tag"
	IssueUnopenedTag    IssueKind = "unopened_tag"
)

// Issue is one structural diagnostic. Offset is the byte offset in the
// extracted document text; -1 when unknown.
type Issue struct {
	Kind IssueKind `json:"kind"`
	// Tag is the offending identifier (loop name or raw tag text).
	Tag string `json:"tag"`
	// Expected is the loop that should have been closed; set for
	// IssueMismatchedLoop only.
	Expected string `json:"expected,omitempty"`
	Offset   int    `json:"offset"`
}

func (i Issue) String() string {
	switch i.Kind {
	case IssueUnopenedLoop:
		return fmt.Sprintf("loop %q is closed at offset %d but was never opened", i.Tag, i.Offset)
	case IssueUnclosedLoop:
		return fmt.Sprintf("loop %q opened at offset %d is never closed", i.Tag, i.Offset)
	case IssueMismatchedLoop:
		return fmt.Sprintf("loop %q is closed at offset %d while %q is still open", i.Tag, i.Offset, i.Expected)
	case IssueUnclosedTag:
		return fmt.Sprintf("tag %q at offset %d is not closed", i.Tag, i.Offset)
	case IssueUnopenedTag:
		return fmt.Sprintf("closing brace at offset %d has no opening brace", i.Offset)
	}
	return fmt.Sprintf("%s %q at offset %d", i.Kind, i.Tag, i.Offset)
}

// DocumentError carries every structural issue found while scanning a
// document. It matches ErrDocumentUnreadable.
type DocumentError struct {
	Issues []Issue
}

func (e *DocumentError) Error() string {
	return "document has malformed tags: " + strings.Join(e.Messages(), "; ")
}

// Messages returns one message per issue.
func (e *DocumentError) Messages() []string {
	out := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		out[i] = is.String()
	}
	return out
}

func (e *DocumentError) Is(target error) bool {
	return target == ErrDocumentUnreadable
}

// ValidationError wraps a failed ValidationResult so callers can return it
// through error paths without losing individual messages.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == common.ErrorValidation
}
