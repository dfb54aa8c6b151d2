package engine

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/buildforge/buildvc/internal/model"
)

// snapshotSchema is the minimal required sub-shape of a snapshot
// payload. Everything beyond it is owned by the build-domain
// collaborator and stored verbatim.
const snapshotSchema = `
#Part: {
	id: string & !=""
	...
}

#Snapshot: {
	parts: [...#Part]
	optimizations: [string]: string
}
`

var (
	schemaOnce sync.Once
	cueCtx     *cue.Context
	schemaVal  cue.Value
)

func snapshotSchemaValue() (*cue.Context, cue.Value) {
	schemaOnce.Do(func() {
		cueCtx = cuecontext.New()
		schemaVal = cueCtx.CompileString(snapshotSchema).LookupPath(cue.ParsePath("#Snapshot"))
	})
	return cueCtx, schemaVal
}

// validateSnapshotShape checks the structural contract of a snapshot:
// every part carries a non-empty string id, and optimization values are
// strings. Returns a VALIDATION error describing the first violation.
func validateSnapshotShape(snap *model.Snapshot) error {
	if snap == nil {
		return validation("snapshot is required")
	}

	parts := make([]any, len(snap.Parts))
	for i, p := range snap.Parts {
		parts[i] = map[string]any(p)
	}
	opts := make(map[string]any, len(snap.Optimizations))
	for k, v := range snap.Optimizations {
		opts[k] = v
	}
	payload := map[string]any{
		"parts":         parts,
		"optimizations": opts,
	}

	cctx, schema := snapshotSchemaValue()
	unified := schema.Unify(cctx.Encode(payload))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return validation(fmt.Sprintf("snapshot shape invalid: %v", err))
	}
	return nil
}
