/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/suparena/entityfile/errors"
)

// MarshalRecord renders a single record as a JSON object.
func MarshalRecord(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// UnmarshalRecord parses one record stored on its own, as remote stores keep
// them. key identifies the record in error messages.
func UnmarshalRecord(source, key string, data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.NewCorruptDocumentError(source, fmt.Sprintf("record %q", key), err)
	}
	if rec == nil {
		return nil, errors.NewCorruptDocumentError(source, fmt.Sprintf("record %q is null", key), nil)
	}
	return rec, nil
}
