package leaflet

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotArray is returned when the model answered with valid JSON that is not a list.
var ErrNotArray = errors.New("response is not a JSON array")

// StripCodeFence removes an optional Markdown fence around a model answer:
// a leading ```json or ``` marker, a trailing ``` marker and the surrounding
// whitespace.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// ParseProducts turns the raw text of a model answer into products.
// Each product's ID is overwritten with its position in the answer.
func ParseProducts(content string) ([]Product, error) {
	body := StripCodeFence(content)

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elements); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if elements == nil {
		return nil, ErrNotArray
	}

	products := make([]Product, len(elements))
	for i, raw := range elements {
		if err := json.Unmarshal(raw, &products[i]); err != nil {
			return nil, fmt.Errorf("failed to decode product %d: %w", i, err)
		}
		products[i].ID = i
	}

	return products, nil
}
