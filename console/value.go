/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package console

import (
	"regexp"
	"strconv"

	"github.com/suparena/entityfile/model"
)

var (
	intPattern   = regexp.MustCompile(`^-?[0-9]+$`)
	floatPattern = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
)

// ParseValue coerces a raw update argument: an integer if it looks like one,
// else a float, else the text with one pair of matching surrounding quotes
// removed, else the text unchanged.
func ParseValue(raw string) model.Value {
	if intPattern.MatchString(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return model.Int(i)
		}
	}
	if floatPattern.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return model.Float(f)
		}
	}
	if n := len(raw); n >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[n-1] == raw[0] {
		return model.String(raw[1 : n-1])
	}
	return model.String(raw)
}
