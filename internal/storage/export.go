package storage

import (
	"context"
	"fmt"

	"github.com/dshills/docsync/pkg/types"
)

// ExportCollect records a collect run, its blocks and its failed files in
// a single transaction
func ExportCollect(ctx context.Context, s Storage, run *Run, blocks []types.SourceBlock, failures []FileError) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run.BlockCount = len(blocks)
	run.FilesFailed = len(failures)
	if err := tx.CreateRun(ctx, run); err != nil {
		return err
	}
	for _, b := range blocks {
		if err := tx.InsertBlock(ctx, FromSourceBlock(b, run.ID)); err != nil {
			return err
		}
	}
	for i := range failures {
		fe := failures[i]
		fe.RunID = run.ID
		if err := tx.InsertFileError(ctx, &fe); err != nil {
			return err
		}
	}
	if err := tx.FinishRun(ctx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExportSync records a replace or check run with every region outcome
func ExportSync(ctx context.Context, s Storage, run *Run, files []*types.FileResult) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.CreateRun(ctx, run); err != nil {
		return err
	}
	for _, f := range files {
		if f.Err != nil {
			run.FilesFailed++
			if err := tx.InsertFileError(ctx, &FileError{RunID: run.ID, FilePath: f.Path, Message: f.Err.Error()}); err != nil {
				return err
			}
		}
		for _, o := range f.Outcomes {
			if err := tx.InsertOutcome(ctx, FromRegionOutcome(o, run.ID)); err != nil {
				return err
			}
		}
	}
	if err := tx.FinishRun(ctx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
