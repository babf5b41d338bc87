package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/docsync/pkg/types"
)

// Storage persists collect and replace runs for later inspection
type Storage interface {
	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	LatestRun(ctx context.Context, kind RunKind) (*Run, error)

	// Block operations
	InsertBlock(ctx context.Context, block *Block) error
	GetBlock(ctx context.Context, runID uuid.UUID, blockID string) (*Block, error)
	ListBlocks(ctx context.Context, runID uuid.UUID) ([]*Block, error)

	// Failure and outcome operations
	InsertFileError(ctx context.Context, fe *FileError) error
	ListFileErrors(ctx context.Context, runID uuid.UUID) ([]*FileError, error)
	InsertOutcome(ctx context.Context, outcome *Outcome) error
	ListOutcomes(ctx context.Context, runID uuid.UUID) ([]*Outcome, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// RunKind distinguishes collect runs from replace and check runs
type RunKind string

const (
	RunCollect RunKind = "collect"
	RunReplace RunKind = "replace"
	RunCheck   RunKind = "check"
)

// Run is one invocation of the tool against a tree
type Run struct {
	ID           uuid.UUID
	Kind         RunKind
	RootPath     string
	FilesScanned int
	FilesFailed  int
	BlockCount   int
	StartedAt    time.Time
	FinishedAt   time.Time // zero until FinishRun
}

// Block is a registered source block as of one run
type Block struct {
	ID           int64
	RunID        uuid.UUID
	BlockID      string
	Content      string
	ContentHash  [32]byte // BLAKE3-256
	LineCount    int
	FilePath     string
	StartLine    int
	EndLine      int
	ContentStart int
	ContentEnd   int
}

// FileError records a file that failed to parse or rewrite
type FileError struct {
	ID       int64
	RunID    uuid.UUID
	FilePath string
	Message  string
}

// Outcome records the result of comparing one document region
type Outcome struct {
	ID       int64
	RunID    uuid.UUID
	FilePath string
	RegionID string
	Line     int
	Status   string
}

// NewRun creates a run with a fresh id
func NewRun(kind RunKind, root string) *Run {
	return &Run{
		ID:        uuid.New(),
		Kind:      kind,
		RootPath:  root,
		StartedAt: time.Now(),
	}
}

// FromSourceBlock converts types.SourceBlock to storage Block
func FromSourceBlock(b types.SourceBlock, runID uuid.UUID) *Block {
	return &Block{
		RunID:        runID,
		BlockID:      b.ID,
		Content:      b.Content,
		ContentHash:  b.Digest(),
		LineCount:    b.Lines(),
		FilePath:     b.Origin.Path,
		StartLine:    b.Origin.StartLine,
		EndLine:      b.Origin.EndLine,
		ContentStart: b.Origin.ContentStart,
		ContentEnd:   b.Origin.ContentEnd,
	}
}

// ToSourceBlock converts storage Block to types.SourceBlock
func (b *Block) ToSourceBlock() types.SourceBlock {
	return types.SourceBlock{
		ID:      b.BlockID,
		Content: b.Content,
		Origin: types.Origin{
			Path:         b.FilePath,
			StartLine:    b.StartLine,
			EndLine:      b.EndLine,
			ContentStart: b.ContentStart,
			ContentEnd:   b.ContentEnd,
		},
	}
}

// FromRegionOutcome converts types.RegionOutcome to storage Outcome
func FromRegionOutcome(o types.RegionOutcome, runID uuid.UUID) *Outcome {
	return &Outcome{
		RunID:    runID,
		FilePath: o.File,
		RegionID: o.ID,
		Line:     o.Line,
		Status:   string(o.Status),
	}
}
