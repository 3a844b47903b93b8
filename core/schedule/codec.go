package schedule

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// DocumentVersion tags the exported document format.
const DocumentVersion = 1

// Document is the portable backup format: the whole Config plus the last Result
// in a single JSON object.
type Document struct {
	Version int    `json:"version"`
	Config  Config `json:"config"`
	Result  Result `json:"result"`
}

var ErrMalformedDocument = errors.New("document is not valid JSON")

// Codec serializes and restores the combined Store+View state.
type Codec struct {
	store *Store
	view  *View
}

func NewCodec(store *Store, view *View) *Codec {
	return &Codec{store: store, view: view}
}

// Export produces the portable document for the current in-memory state.
// It is deterministic: identical state yields identical bytes.
func (c *Codec) Export() ([]byte, error) {
	doc := Document{
		Version: DocumentVersion,
		Config:  c.store.Config(),
		Result:  c.view.Result(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshalling document")
	}
	return data, nil
}

// Import parses data as a Document and replaces the Store config and, when a
// result is present, the View result. A payload without a "config" key is
// treated as a bare Config for backward compatibility. The import is atomic:
// malformed input mutates neither the Store nor the View.
func (c *Codec) Import(data []byte) error {
	var probe struct {
		Version int             `json:"version"`
		Config  json.RawMessage `json:"config"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ErrMalformedDocument
	}

	if probe.Config == nil {
		// legacy payload: the whole document is the config
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return ErrMalformedDocument
		}
		c.store.Replace(cfg)
		return nil
	}

	var cfg Config
	if err := json.Unmarshal(probe.Config, &cfg); err != nil {
		return ErrMalformedDocument
	}
	var res *Result
	if probe.Result != nil {
		res = &Result{}
		if err := json.Unmarshal(probe.Result, res); err != nil {
			return ErrMalformedDocument
		}
	}

	// all parsing done; only now touch live state
	c.store.Replace(cfg)
	if res != nil {
		c.view.SetResult(*res)
	}
	return nil
}
