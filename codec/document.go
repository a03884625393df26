/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/suparena/entityfile/errors"
	"github.com/suparena/entityfile/model"
	"github.com/suparena/entityfile/registry"
)

// Record is one serialized entity: its flat attribute map including __class__.
type Record = map[string]any

// Document is the backing snapshot: composite key to serialized entity.
type Document map[string]Record

// Encode serializes every entity in objects into a Document.
func Encode(objects map[string]*model.Entity) Document {
	doc := make(Document, len(objects))
	for key, e := range objects {
		doc[key] = e.ToMap()
	}
	return doc
}

// Marshal renders doc as a single JSON object.
func Marshal(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Unmarshal parses data as a Document. Numbers are kept as json.Number so the
// int/float distinction survives. source names the origin in error messages.
func Unmarshal(source string, data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, errors.NewCorruptDocumentError(source, "invalid JSON", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewCorruptDocumentError(source, "trailing data after document", nil)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, errors.NewCorruptDocumentError(source, fmt.Sprintf("root is %s, not an object", jsonKind(root)), nil)
	}

	doc := make(Document, len(obj))
	for key, raw := range obj {
		rec, ok := raw.(map[string]any)
		if !ok {
			return nil, errors.NewCorruptDocumentError(source, fmt.Sprintf("record %q is %s, not an object", key, jsonKind(raw)), nil)
		}
		doc[key] = rec
	}
	return doc, nil
}

// Decode reconstructs the entities of doc using types. Records whose __class__
// is missing or unregistered are skipped and their keys returned in skipped.
// Any other failure aborts the whole decode with a CorruptDocumentError.
func Decode(source string, doc Document, types *registry.TypeRegistry) (objects map[string]*model.Entity, skipped []string, err error) {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	objects = make(map[string]*model.Entity, len(doc))
	for _, key := range keys {
		rec := doc[key]
		kind, _ := rec[model.FieldClass].(string)
		fn, ok := types.Lookup(kind)
		if !ok {
			skipped = append(skipped, key)
			continue
		}

		e, err := fn(rec)
		if err != nil {
			return nil, nil, errors.NewCorruptDocumentError(source, fmt.Sprintf("record %q", key), err)
		}
		if e.Key() != key {
			return nil, nil, errors.NewCorruptDocumentError(source, fmt.Sprintf("record %q decodes to key %q", key, e.Key()), nil)
		}
		objects[key] = e
	}
	return objects, skipped, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
