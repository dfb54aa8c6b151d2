package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SnapshotRecord is the persistence shape of a snapshot: raw JSON blobs
// plus the content digest computed by the engine. Blobs are compressed
// transparently on write and decompressed on read.
type SnapshotRecord struct {
	CommitID         string
	BuildData        []byte
	PartsData        []byte
	AnalysisData     []byte
	OptimizationData []byte
	Digest           string
}

// insertSnapshotTx writes the snapshot row inside an existing
// transaction. Any failure here means the commit cannot be persisted
// atomically with its snapshot; callers roll back and surface
// ErrSnapshotPersist.
func insertSnapshotTx(ctx context.Context, tx *sql.Tx, rec SnapshotRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(commit_id, build_data, parts_data, analysis_data, optimization_data, digest)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.CommitID,
		compressBlob(rec.BuildData),
		compressBlob(rec.PartsData),
		compressBlob(rec.AnalysisData),
		compressBlob(rec.OptimizationData),
		rec.Digest,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotPersist, err)
	}
	return nil
}

// GetSnapshot retrieves the snapshot stored for a commit.
// Returns ErrNotFound if the commit has no snapshot.
func (s *Store) GetSnapshot(ctx context.Context, commitID string) (SnapshotRecord, error) {
	var rec SnapshotRecord
	var build, parts, analysis, opts []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT commit_id, build_data, parts_data, analysis_data, optimization_data, digest
		FROM snapshots
		WHERE commit_id = ?
	`, commitID).Scan(&rec.CommitID, &build, &parts, &analysis, &opts, &rec.Digest)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot %s: %w", commitID, classify(err))
	}

	if rec.BuildData, err = decompressBlob(build); err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot %s: %w", commitID, err)
	}
	if rec.PartsData, err = decompressBlob(parts); err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot %s: %w", commitID, err)
	}
	if rec.AnalysisData, err = decompressBlob(analysis); err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot %s: %w", commitID, err)
	}
	if rec.OptimizationData, err = decompressBlob(opts); err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot %s: %w", commitID, err)
	}

	return rec, nil
}
