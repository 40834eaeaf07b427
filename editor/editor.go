// Package editor orchestrates the page editing operations: slot
// inspection, find/replace, instruction-driven edits through the
// proposal service, and direct batch edits. Every mutating operation is
// one session over a single page: load, mutate in memory, one save,
// then best-effort cache invalidation. Save failures are fatal to the
// request; invalidation failures are logged and swallowed.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ferrostack/pagemend/edits"
	"github.com/ferrostack/pagemend/element"
	"github.com/ferrostack/pagemend/findreplace"
	"github.com/ferrostack/pagemend/idgen"
	"github.com/ferrostack/pagemend/invalidate"
	"github.com/ferrostack/pagemend/proposal"
	"github.com/ferrostack/pagemend/slotdict"
	"github.com/ferrostack/pagemend/slots"
	"github.com/ferrostack/pagemend/treestore"
)

// Sentinel errors surfaced to transports.
var (
	// ErrNotFound reports an unknown page key.
	ErrNotFound = treestore.ErrNotFound
	// ErrInvalidInput reports a request the service cannot act on.
	ErrInvalidInput = errors.New("editor: invalid input")
	// ErrProposal wraps edit-proposal service failures.
	ErrProposal = errors.New("editor: proposal service failed")
)

// Store persists page trees as opaque blobs.
type Store interface {
	Load(ctx context.Context, pageKey string) ([]byte, error)
	Save(ctx context.Context, pageKey string, tree []byte) (revision string, err error)
	Delete(ctx context.Context, pageKey string) error
	List(ctx context.Context) ([]treestore.PageInfo, error)
}

// Proposer turns an instruction plus a slot dictionary into raw
// proposed edits.
type Proposer interface {
	Propose(ctx context.Context, req proposal.Request) ([]any, error)
}

// Service is the editing orchestrator.
type Service struct {
	store       Store
	proposer    Proposer
	invalidator invalidate.Invalidator
	table       *slots.Table
	allowed     []string
	maxTextLen  int
	newPageKey  idgen.Generator
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithProposer sets the edit-proposal client. Without one, Instruct
// returns ErrProposal.
func WithProposer(p Proposer) Option { return func(s *Service) { s.proposer = p } }

// WithInvalidator sets the render-cache invalidator (default nop).
func WithInvalidator(inv invalidate.Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithTable overrides the widget schema table.
func WithTable(t *slots.Table) Option { return func(s *Service) { s.table = t } }

// WithAllowedWidgets restricts text matching to the given widget types
// (nil means every type the table knows).
func WithAllowedWidgets(types []string) Option {
	return func(s *Service) { s.allowed = types }
}

// WithMaxTextLen caps dictionary text entries, in runes.
func WithMaxTextLen(n int) Option { return func(s *Service) { s.maxTextLen = n } }

// New creates a Service.
func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:       store,
		invalidator: invalidate.Nop{},
		table:       slots.DefaultTable(),
		maxTextLen:  500,
		newPageKey:  idgen.Prefixed("page_", idgen.Default),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import stores a tree under pageKey, generating a key when none is
// given. The blob must parse as a page tree; it is re-serialised
// through the field-preserving codec before storage so later reads are
// byte-stable.
func (s *Service) Import(ctx context.Context, pageKey string, raw []byte) (key, revision string, err error) {
	tree, err := element.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if pageKey == "" {
		pageKey = s.newPageKey()
	}
	blob, err := tree.Marshal()
	if err != nil {
		return "", "", fmt.Errorf("editor: marshal tree: %w", err)
	}
	rev, err := s.store.Save(ctx, pageKey, blob)
	if err != nil {
		return "", "", err
	}
	s.invalidateCache(ctx, pageKey)
	return pageKey, rev, nil
}

// Get returns the stored tree blob.
func (s *Service) Get(ctx context.Context, pageKey string) ([]byte, error) {
	return s.store.Load(ctx, pageKey)
}

// Delete removes a page and invalidates its render cache.
func (s *Service) Delete(ctx context.Context, pageKey string) error {
	if err := s.store.Delete(ctx, pageKey); err != nil {
		return err
	}
	s.invalidateCache(ctx, pageKey)
	return nil
}

// List returns summaries of all stored pages.
func (s *Service) List(ctx context.Context) ([]treestore.PageInfo, error) {
	return s.store.List(ctx)
}

// SlotsResult is the inspection view of a page: the flat dictionary of
// text and link slots plus the image-capable slots.
type SlotsResult struct {
	Dictionary []slotdict.Entry      `json:"dictionary"`
	ImageSlots []slotdict.ImageEntry `json:"image_slots"`
}

// Slots builds the slot dictionary for a page.
func (s *Service) Slots(ctx context.Context, pageKey string) (*SlotsResult, error) {
	tree, err := s.load(ctx, pageKey)
	if err != nil {
		return nil, err
	}
	dict := slotdict.Build(tree, s.table, s.allowed, s.maxTextLen)
	if dict == nil {
		dict = []slotdict.Entry{}
	}
	imgs := slotdict.BuildImageSlots(tree, s.table)
	if imgs == nil {
		imgs = []slotdict.ImageEntry{}
	}
	return &SlotsResult{Dictionary: dict, ImageSlots: imgs}, nil
}

// ReplaceResult reports one find/replace session. Revision is set only
// when the tree was mutated and saved.
type ReplaceResult struct {
	findreplace.Result
	Revision string `json:"revision,omitempty"`
}

// Replace runs one find/replace pass and persists the tree when
// exactly one slot matched. Not-found and ambiguous outcomes are
// returned without touching the store.
func (s *Service) Replace(ctx context.Context, pageKey, find, replacement string) (*ReplaceResult, error) {
	if find == "" {
		return nil, fmt.Errorf("%w: find is required", ErrInvalidInput)
	}
	tree, err := s.load(ctx, pageKey)
	if err != nil {
		return nil, err
	}
	res := findreplace.Replace(tree, s.table, s.allowed, find, replacement)
	out := &ReplaceResult{Result: res}
	if res.Status != findreplace.StatusReplaced {
		return out, nil
	}
	rev, err := s.save(ctx, pageKey, tree)
	if err != nil {
		return nil, err
	}
	out.Revision = rev
	return out, nil
}

// EditsResult reports one batch-apply session. RejectedCount counts
// raw items the normalizer dropped before application; Revision is set
// only when at least one edit applied and the tree was saved.
type EditsResult struct {
	edits.Result
	RejectedCount int    `json:"rejected_count"`
	Revision      string `json:"revision,omitempty"`
}

// ApplyEdits normalises and applies a raw edit batch. Partial
// application is the contract: per-edit failures are recorded, the
// rest proceed, and one save happens iff anything applied.
func (s *Service) ApplyEdits(ctx context.Context, pageKey string, raw []any) (*EditsResult, error) {
	tree, err := s.load(ctx, pageKey)
	if err != nil {
		return nil, err
	}
	return s.applyBatch(ctx, pageKey, tree, raw)
}

// Instruct asks the proposal service for edits fulfilling a
// natural-language instruction, then applies whatever came back. A
// proposal-leg failure is ErrProposal; nothing has been mutated at
// that point.
func (s *Service) Instruct(ctx context.Context, pageKey, instruction string) (*EditsResult, error) {
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrInvalidInput)
	}
	if s.proposer == nil {
		return nil, fmt.Errorf("%w: no proposer configured", ErrProposal)
	}
	tree, err := s.load(ctx, pageKey)
	if err != nil {
		return nil, err
	}
	raw, err := s.proposer.Propose(ctx, proposal.Request{
		Dictionary:  slotdict.Build(tree, s.table, s.allowed, s.maxTextLen),
		ImageSlots:  slotdict.BuildImageSlots(tree, s.table),
		Instruction: instruction,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProposal, err)
	}
	return s.applyBatch(ctx, pageKey, tree, raw)
}

func (s *Service) applyBatch(ctx context.Context, pageKey string, tree *element.Tree, raw []any) (*EditsResult, error) {
	list, rejected := edits.Normalize(raw)
	res := edits.Apply(tree, s.table, list)
	out := &EditsResult{Result: res, RejectedCount: rejected}
	if res.AppliedCount == 0 {
		return out, nil
	}
	rev, err := s.save(ctx, pageKey, tree)
	if err != nil {
		return nil, err
	}
	out.Revision = rev
	return out, nil
}

func (s *Service) load(ctx context.Context, pageKey string) (*element.Tree, error) {
	blob, err := s.store.Load(ctx, pageKey)
	if err != nil {
		return nil, err
	}
	tree, err := element.Parse(blob)
	if err != nil {
		return nil, fmt.Errorf("editor: stored tree for %s is corrupt: %w", pageKey, err)
	}
	return tree, nil
}

// save serialises and persists the mutated tree, then fires the
// best-effort cache invalidation. The save error path is the only
// fatal one in a mutation session.
func (s *Service) save(ctx context.Context, pageKey string, tree *element.Tree) (string, error) {
	blob, err := tree.Marshal()
	if err != nil {
		return "", fmt.Errorf("editor: marshal tree: %w", err)
	}
	rev, err := s.store.Save(ctx, pageKey, blob)
	if err != nil {
		return "", fmt.Errorf("editor: save %s: %w", pageKey, err)
	}
	s.invalidateCache(ctx, pageKey)
	return rev, nil
}

// invalidateCache never fails the caller: errors and panics from the
// invalidator are logged at Warn and dropped. The save already
// happened; a stale render cache self-heals, a lost edit does not.
func (s *Service) invalidateCache(ctx context.Context, pageKey string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("cache invalidation panicked", "page_key", pageKey, "panic", r)
		}
	}()
	if err := s.invalidator.Invalidate(ctx, pageKey); err != nil {
		s.logger.Warn("cache invalidation failed", "page_key", pageKey, "error", err)
	}
}
