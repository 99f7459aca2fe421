package domain

import "context"

// Transaction exposes the workspace operations that a persistence
// implementation must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	PutSequence(SequenceRecord) (SequenceRecord, error)
	UpdateSequence(id string, mutator func(*SequenceRecord) error) (SequenceRecord, error)
	DeleteSequence(id string) error
	CreateAlignment(AlignmentRecord) (AlignmentRecord, error)
	UpdateAlignment(id string, mutator func(*AlignmentRecord) error) (AlignmentRecord, error)
	DeleteAlignment(id string) error
	CreateBookmark(Bookmark) (Bookmark, error)
	DeleteBookmark(id string) error
	FindSequence(id string) (SequenceRecord, bool)
	FindAlignment(id string) (AlignmentRecord, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListSequences() []SequenceRecord
	ListAlignments() []AlignmentRecord
	ListBookmarks() []Bookmark
	FindSequence(id string) (SequenceRecord, bool)
	FindAlignment(id string) (AlignmentRecord, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetSequence(id string) (SequenceRecord, bool)
	ListSequences() []SequenceRecord
	GetAlignment(id string) (AlignmentRecord, bool)
	ListAlignments() []AlignmentRecord
	ListBookmarks() []Bookmark
}
