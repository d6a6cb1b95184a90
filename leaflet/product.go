package leaflet

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
)

// Keys the extraction prompt asks the model for.
const (
	FieldProductName    = "product_name"
	FieldPrice          = "price"
	FieldUnit           = "unit"
	FieldCategory       = "category"
	FieldSpecialOffer   = "special_offer"
	FieldAdditionalInfo = "additional_info"
)

var knownFields = []string{
	FieldProductName,
	FieldPrice,
	FieldUnit,
	FieldCategory,
	FieldSpecialOffer,
	FieldAdditionalInfo,
}

var errNotObject = errors.New("product must be a JSON object")

// Product is one listing read off a leaflet, kept as the model returned it.
// ID is the position inside the extraction it belongs to, never a value
// supplied by the model. Keys the model left out stay absent, extra keys and
// non-string values are kept verbatim.
type Product struct {
	ID     int
	fields map[string]json.RawMessage
}

// NewProduct builds a product from string-valued fields.
func NewProduct(id int, fields map[string]string) Product {
	p := Product{ID: id, fields: make(map[string]json.RawMessage, len(fields))}
	for key, value := range fields {
		p.fields[key] = encodeString(value)
	}
	return p
}

// Field returns the text of key. Strings are unquoted, null is empty and any
// other value is returned as compact JSON.
func (p Product) Field(key string) (string, bool) {
	raw, ok := p.fields[key]
	if !ok {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == nil {
			return "", true
		}
		return *s, true
	}
	return string(raw), true
}

// Keys lists the product's keys other than id: the known ones first in prompt
// order, then any extras sorted.
func (p Product) Keys() []string {
	keys := make([]string, 0, len(p.fields))
	for _, key := range knownFields {
		if _, ok := p.fields[key]; ok {
			keys = append(keys, key)
		}
	}
	var extra []string
	for key := range p.fields {
		if !isKnown(key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Equal reports whether p and o have the same id and the same JSON values.
func (p Product) Equal(o Product) bool {
	if p.ID != o.ID || len(p.fields) != len(o.fields) {
		return false
	}
	for key, raw := range p.fields {
		other, ok := o.fields[key]
		if !ok || !bytes.Equal(raw, other) {
			return false
		}
	}
	return true
}

func (p Product) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.Itoa(p.ID))
	for _, key := range p.Keys() {
		buf.WriteByte(',')
		buf.Write(encodeString(key))
		buf.WriteByte(':')
		buf.Write(p.fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any JSON object. An integer id is read into ID, every
// other key is kept with its value re-encoded in canonical form.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return errNotObject
	}

	out := Product{fields: make(map[string]json.RawMessage, len(raw))}
	for key, value := range raw {
		if key == "id" {
			var id int
			if err := json.Unmarshal(value, &id); err == nil {
				out.ID = id
			}
			continue
		}
		canon, err := canonical(value)
		if err != nil {
			return err
		}
		out.fields[key] = canon
	}

	*p = out
	return nil
}

func isKnown(key string) bool {
	for _, k := range knownFields {
		if k == key {
			return true
		}
	}
	return false
}

// canonical re-encodes a JSON value compactly, without HTML escaping and with
// numbers kept as written, so equal values compare equal byte for byte.
func canonical(raw json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return encode(v)
}

// encodeString quotes s as JSON without escaping HTML characters.
func encodeString(s string) json.RawMessage {
	raw, _ := encode(s)
	return raw
}

func encode(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
