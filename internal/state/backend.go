package state

import (
	"context"
	"errors"
	"fmt"
)

// Document names one independently persisted piece of project state.
type Document string

const (
	DocProject      Document = "project"
	DocConversation Document = "conversation"
	DocDeliverables Document = "deliverables"
	DocReviews      Document = "reviews"
	DocStories      Document = "stories"
)

// Documents lists every document the store persists, in load order.
var Documents = []Document{DocProject, DocConversation, DocDeliverables, DocReviews, DocStories}

// ErrDocumentNotFound is returned by Backend.Read when a document has
// never been written.
var ErrDocumentNotFound = errors.New("document not found")

// Backend persists raw document bodies. Abstracted for testability (DIP).
// Implementations must make Write atomic per document: a failed write
// leaves the previously committed body intact.
type Backend interface {
	Read(ctx context.Context, doc Document) ([]byte, error)
	Write(ctx context.Context, doc Document, body []byte) error
	Purge(ctx context.Context) error
	Close() error
}

// BackendKind selects a Backend implementation.
type BackendKind string

const (
	BackendFile   BackendKind = "file"
	BackendSQLite BackendKind = "sqlite"
)

// OpenBackend constructs the backend of the given kind rooted at stateDir.
func OpenBackend(kind BackendKind, stateDir string) (Backend, error) {
	switch kind {
	case BackendFile, "":
		return NewFileBackend(stateDir), nil
	case BackendSQLite:
		return NewSQLiteBackend(stateDir)
	default:
		return nil, fmt.Errorf("unknown state backend %q", kind)
	}
}
