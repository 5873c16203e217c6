package types

import (
	"bytes"
	"encoding/json"
)

// Page is the normalized pagination envelope. Historical endpoints answer
// either with a DRF-style object ({count,next,previous,results}) or with a
// bare array; both decode into a Page so no caller has to branch on shape.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

func (p *Page[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []T
		if err := json.Unmarshal(b, &results); err != nil {
			return err
		}
		*p = Page[T]{Count: len(results), Results: results}
		return nil
	}

	type page Page[T]
	var v page
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Page[T](v)
	return nil
}

// HasNext reports whether the server advertised a further page.
func (p Page[T]) HasNext() bool {
	return p.Next != ""
}
