package cli

import (
	"encoding/json"
	"os"

	"github.com/buildforge/buildvc/internal/model"
)

// readSnapshotFile loads a snapshot payload from a JSON file.
// Unreadable or malformed files are command errors, not operation
// failures: the engine never saw the request.
func readSnapshotFile(path string) (*model.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read snapshot "+path, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, WrapExitError(ExitCommandError, "parse snapshot "+path, err)
	}
	return &snap, nil
}
