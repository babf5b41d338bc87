// Package storage records docsync runs in a SQLite database.
//
// An export database keeps, per run, every registered block with its
// origin and BLAKE3 digest, the files that failed to parse, and for
// replace and check runs the outcome of every document region. It lets CI
// jobs and other tools query the state of a tree without re-scanning it.
//
// # Database Schema
//
// Tables:
//   - runs: one row per run (uuid, kind, root, counters, timestamps)
//   - blocks: registered blocks of collect runs
//   - file_errors: files that failed during a run
//   - outcomes: region outcomes of replace and check runs (schema 1.1.0)
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("blocks.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	run := storage.NewRun(storage.RunCollect, "src")
//	err = storage.ExportCollect(ctx, db, run, reg.Blocks(), nil)
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with
// -tags cgo_sqlite switches to github.com/mattn/go-sqlite3.
//
// # Migrations
//
// Schema versions are semantic versions; ApplyMigrations runs every
// migration newer than the highest recorded version.
package storage
