package diagnostic

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a JSON diagnostic data snapshot and indexes it.
func Decode(r io.Reader) (*Data, error) {
	var d Data
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDiagnosticData, err)
	}
	if err := d.Index(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load reads a JSON diagnostic data snapshot from a file.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostic data: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
