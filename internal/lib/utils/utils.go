// Package utils contains small helper functions used across the project.
//
// These are generic helpers that don't belong to a specific domain.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrintJSON writes v to w as indented JSON followed by a newline.
//
// Values json cannot encode (channels, funcs, cycles) return an error.
func PrintJSON(w io.Writer, v interface{}) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling JSON: %w", err)
	}

	if _, err := fmt.Fprintln(w, string(encoded)); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}
