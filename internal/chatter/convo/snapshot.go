package convo

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// snapshotVersion is bumped when the document layout changes incompatibly.
const snapshotVersion = 1

// snapshot is the single serialized document held by the storage backend.
type snapshot struct {
	Version int                `json:"version"`
	Records map[string]*Record `json:"records"`
}

//go:embed snapshot.schema.json
var snapshotSchemaJSON string

var snapshotSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchemaJSON)

// decodeSnapshot validates raw bytes against the snapshot schema and decodes
// them. Validation catches corrupt or foreign state files before a partial
// unmarshal can seed the store with garbage records.
func decodeSnapshot(data []byte) (*snapshot, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("convo: snapshot is not valid JSON: %w", err)
	}
	if err := snapshotSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("convo: snapshot failed schema validation: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("convo: decode snapshot: %w", err)
	}
	if snap.Records == nil {
		snap.Records = make(map[string]*Record)
	}
	return &snap, nil
}

// encodeSnapshot serializes the record map into the document form.
func encodeSnapshot(records map[string]*Record) ([]byte, error) {
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Records: records})
	if err != nil {
		return nil, fmt.Errorf("convo: encode snapshot: %w", err)
	}
	return data, nil
}
