// Package memory provides an in-memory implementation of the workspace
// persistence store used for tests, ephemeral sessions and as the
// transactional core of the snapshotting SQL stores.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"helixcanvas/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// SequenceRecord aliases domain.SequenceRecord.
	SequenceRecord = domain.SequenceRecord
	// AlignmentRecord aliases domain.AlignmentRecord.
	AlignmentRecord = domain.AlignmentRecord
	// Bookmark aliases domain.Bookmark.
	Bookmark = domain.Bookmark
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// ordered keeps records keyed by id while remembering insertion order, so
// upserts replace in place and lists come back in the order records arrived.
type ordered[T any] struct {
	items map[string]T
	order []string
}

func newOrdered[T any]() ordered[T] {
	return ordered[T]{items: make(map[string]T)}
}

func (o *ordered[T]) get(id string) (T, bool) {
	v, ok := o.items[id]
	return v, ok
}

func (o *ordered[T]) put(id string, v T) {
	if _, exists := o.items[id]; !exists {
		o.order = append(o.order, id)
	}
	o.items[id] = v
}

func (o *ordered[T]) remove(id string) {
	if _, ok := o.items[id]; !ok {
		return
	}
	delete(o.items, id)
	for i, existing := range o.order {
		if existing == id {
			o.order = append(o.order[:i:i], o.order[i+1:]...)
			break
		}
	}
}

func (o ordered[T]) list(clone func(T) T) []T {
	out := make([]T, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, clone(o.items[id]))
	}
	return out
}

func (o ordered[T]) clone(cloneItem func(T) T) ordered[T] {
	cp := ordered[T]{items: make(map[string]T, len(o.items)), order: make([]string, len(o.order))}
	copy(cp.order, o.order)
	for k, v := range o.items {
		cp.items[k] = cloneItem(v)
	}
	return cp
}

type memoryState struct {
	sequences  ordered[SequenceRecord]
	alignments ordered[AlignmentRecord]
	bookmarks  ordered[Bookmark]
}

// Snapshot captures a point-in-time clone of the store state. Each list keeps
// insertion order.
type Snapshot struct {
	Sequences  []SequenceRecord  `json:"sequences"`
	Alignments []AlignmentRecord `json:"alignments"`
	Bookmarks  []Bookmark        `json:"bookmarks"`
}

func newMemoryState() memoryState {
	return memoryState{
		sequences:  newOrdered[SequenceRecord](),
		alignments: newOrdered[AlignmentRecord](),
		bookmarks:  newOrdered[Bookmark](),
	}
}

func cloneBookmark(b Bookmark) Bookmark { return b }

func (s memoryState) clone() memoryState {
	return memoryState{
		sequences:  s.sequences.clone(domain.CloneSequence),
		alignments: s.alignments.clone(domain.CloneAlignment),
		bookmarks:  s.bookmarks.clone(cloneBookmark),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Sequences:  state.sequences.list(domain.CloneSequence),
		Alignments: state.alignments.list(domain.CloneAlignment),
		Bookmarks:  state.bookmarks.list(cloneBookmark),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, seq := range s.Sequences {
		state.sequences.put(seq.ID, domain.CloneSequence(seq))
	}
	for _, a := range s.Alignments {
		state.alignments.put(a.ID, domain.CloneAlignment(a))
	}
	for _, b := range s.Bookmarks {
		state.bookmarks.put(b.ID, b)
	}
	return state
}

// migrateSnapshot normalizes snapshots written by older builds or edited by
// hand: records without ids are dropped, nil lists become empty, lengths are
// re-derived and bookmarks pointing at missing sequences are discarded.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	out := Snapshot{
		Sequences:  make([]SequenceRecord, 0, len(snapshot.Sequences)),
		Alignments: make([]AlignmentRecord, 0, len(snapshot.Alignments)),
		Bookmarks:  make([]Bookmark, 0, len(snapshot.Bookmarks)),
	}
	known := make(map[string]struct{}, len(snapshot.Sequences))
	for _, seq := range snapshot.Sequences {
		if seq.ID == "" {
			continue
		}
		seq.Length = len(seq.Residues)
		if seq.Features == nil {
			seq.Features = []domain.Feature{}
		}
		if seq.Annotations == nil {
			seq.Annotations = []domain.Annotation{}
		}
		known[seq.ID] = struct{}{}
		out.Sequences = append(out.Sequences, seq)
	}
	for _, a := range snapshot.Alignments {
		if a.ID == "" {
			continue
		}
		if a.Sequences == nil {
			a.Sequences = []domain.AlignmentSequence{}
		}
		out.Alignments = append(out.Alignments, a)
	}
	for _, b := range snapshot.Bookmarks {
		if _, ok := known[b.SequenceID]; !ok || b.ID == "" {
			continue
		}
		out.Bookmarks = append(out.Bookmarks, b)
	}
	return out
}

// Store provides an in-memory transactional store for workspace records.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListSequences() []SequenceRecord {
	return v.state.sequences.list(domain.CloneSequence)
}

func (v transactionView) ListAlignments() []AlignmentRecord {
	return v.state.alignments.list(domain.CloneAlignment)
}

func (v transactionView) ListBookmarks() []Bookmark {
	return v.state.bookmarks.list(cloneBookmark)
}

func (v transactionView) FindSequence(id string) (SequenceRecord, bool) {
	seq, ok := v.state.sequences.get(id)
	if !ok {
		return SequenceRecord{}, false
	}
	return domain.CloneSequence(seq), true
}

func (v transactionView) FindAlignment(id string) (AlignmentRecord, bool) {
	a, ok := v.state.alignments.get(id)
	if !ok {
		return AlignmentRecord{}, false
	}
	return domain.CloneAlignment(a), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces committed state only when fn succeeds and no rule blocks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindSequence(id string) (SequenceRecord, bool) {
	return newTransactionView(&tx.state).FindSequence(id)
}

func (tx *transaction) FindAlignment(id string) (AlignmentRecord, bool) {
	return newTransactionView(&tx.state).FindAlignment(id)
}

// PutSequence inserts seq or replaces the record with the same id in place.
func (tx *transaction) PutSequence(seq SequenceRecord) (SequenceRecord, error) {
	if seq.ID == "" {
		seq.ID = domain.NewID()
	}
	seq.Length = len(seq.Residues)
	if seq.UpdatedAt.IsZero() {
		seq.UpdatedAt = tx.now
	}
	before, exists := tx.state.sequences.get(seq.ID)
	if seq.CreatedAt.IsZero() {
		seq.CreatedAt = tx.now
		if exists {
			seq.CreatedAt = before.CreatedAt
		}
	}
	tx.state.sequences.put(seq.ID, domain.CloneSequence(seq))
	if exists {
		tx.recordChange(Change{Entity: domain.EntitySequence, Action: domain.ActionUpdate, Before: domain.CloneSequence(before), After: domain.CloneSequence(seq)})
	} else {
		tx.recordChange(Change{Entity: domain.EntitySequence, Action: domain.ActionCreate, After: domain.CloneSequence(seq)})
	}
	return domain.CloneSequence(seq), nil
}

// UpdateSequence mutates a sequence using the provided mutator function.
func (tx *transaction) UpdateSequence(id string, mutator func(*SequenceRecord) error) (SequenceRecord, error) {
	current, ok := tx.state.sequences.get(id)
	if !ok {
		return SequenceRecord{}, fmt.Errorf("sequence %q not found", id)
	}
	before := domain.CloneSequence(current)
	current = domain.CloneSequence(current)
	if err := mutator(&current); err != nil {
		return SequenceRecord{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.Length = len(current.Residues)
	current.UpdatedAt = tx.now
	tx.state.sequences.put(id, domain.CloneSequence(current))
	tx.recordChange(Change{Entity: domain.EntitySequence, Action: domain.ActionUpdate, Before: before, After: domain.CloneSequence(current)})
	return domain.CloneSequence(current), nil
}

// DeleteSequence removes a sequence together with its bookmarks.
func (tx *transaction) DeleteSequence(id string) error {
	current, ok := tx.state.sequences.get(id)
	if !ok {
		return fmt.Errorf("sequence %q not found", id)
	}
	for _, b := range tx.state.bookmarks.list(cloneBookmark) {
		if b.SequenceID == id {
			tx.state.bookmarks.remove(b.ID)
			tx.recordChange(Change{Entity: domain.EntityBookmark, Action: domain.ActionDelete, Before: b})
		}
	}
	tx.state.sequences.remove(id)
	tx.recordChange(Change{Entity: domain.EntitySequence, Action: domain.ActionDelete, Before: domain.CloneSequence(current)})
	return nil
}

// CreateAlignment stores a new alignment.
func (tx *transaction) CreateAlignment(a AlignmentRecord) (AlignmentRecord, error) {
	if a.ID == "" {
		a.ID = domain.NewID()
	}
	if _, exists := tx.state.alignments.get(a.ID); exists {
		return AlignmentRecord{}, fmt.Errorf("alignment %q already exists", a.ID)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = tx.now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = tx.now
	}
	tx.state.alignments.put(a.ID, domain.CloneAlignment(a))
	tx.recordChange(Change{Entity: domain.EntityAlignment, Action: domain.ActionCreate, After: domain.CloneAlignment(a)})
	return domain.CloneAlignment(a), nil
}

// UpdateAlignment mutates an alignment using the provided mutator function.
// The mutator may set UpdatedAt itself; otherwise the transaction time is used.
func (tx *transaction) UpdateAlignment(id string, mutator func(*AlignmentRecord) error) (AlignmentRecord, error) {
	current, ok := tx.state.alignments.get(id)
	if !ok {
		return AlignmentRecord{}, fmt.Errorf("alignment %q not found", id)
	}
	before := domain.CloneAlignment(current)
	current = domain.CloneAlignment(current)
	if err := mutator(&current); err != nil {
		return AlignmentRecord{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	if !current.UpdatedAt.After(before.UpdatedAt) {
		current.UpdatedAt = tx.now
	}
	tx.state.alignments.put(id, domain.CloneAlignment(current))
	tx.recordChange(Change{Entity: domain.EntityAlignment, Action: domain.ActionUpdate, Before: before, After: domain.CloneAlignment(current)})
	return domain.CloneAlignment(current), nil
}

// DeleteAlignment removes an alignment from the transaction state.
func (tx *transaction) DeleteAlignment(id string) error {
	current, ok := tx.state.alignments.get(id)
	if !ok {
		return fmt.Errorf("alignment %q not found", id)
	}
	tx.state.alignments.remove(id)
	tx.recordChange(Change{Entity: domain.EntityAlignment, Action: domain.ActionDelete, Before: domain.CloneAlignment(current)})
	return nil
}

// CreateBookmark stores a bookmark on an existing sequence.
func (tx *transaction) CreateBookmark(b Bookmark) (Bookmark, error) {
	if _, ok := tx.state.sequences.get(b.SequenceID); !ok {
		return Bookmark{}, fmt.Errorf("sequence %q not found", b.SequenceID)
	}
	if b.ID == "" {
		b.ID = domain.NewID()
	}
	if _, exists := tx.state.bookmarks.get(b.ID); exists {
		return Bookmark{}, fmt.Errorf("bookmark %q already exists", b.ID)
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.bookmarks.put(b.ID, b)
	tx.recordChange(Change{Entity: domain.EntityBookmark, Action: domain.ActionCreate, After: b})
	return b, nil
}

// DeleteBookmark removes a bookmark from the transaction state.
func (tx *transaction) DeleteBookmark(id string) error {
	current, ok := tx.state.bookmarks.get(id)
	if !ok {
		return fmt.Errorf("bookmark %q not found", id)
	}
	tx.state.bookmarks.remove(id)
	tx.recordChange(Change{Entity: domain.EntityBookmark, Action: domain.ActionDelete, Before: current})
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetSequence retrieves a sequence by ID from committed state.
func (s *Store) GetSequence(id string) (SequenceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindSequence(id)
}

// ListSequences returns all sequences from committed state in insertion order.
func (s *Store) ListSequences() []SequenceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.sequences.list(domain.CloneSequence)
}

// GetAlignment retrieves an alignment by ID from committed state.
func (s *Store) GetAlignment(id string) (AlignmentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindAlignment(id)
}

// ListAlignments returns all alignments from committed state in insertion order.
func (s *Store) ListAlignments() []AlignmentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.alignments.list(domain.CloneAlignment)
}

// ListBookmarks returns all bookmarks from committed state.
func (s *Store) ListBookmarks() []Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.bookmarks.list(cloneBookmark)
}
