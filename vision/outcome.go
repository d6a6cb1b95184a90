package vision

import (
	"errors"

	"leaflet/leaflet"
)

var (
	// ErrUpstream marks failures talking to the vision deployment.
	ErrUpstream = errors.New("vision request failed")
	// ErrParse marks answers that are not a JSON array of products.
	ErrParse = errors.New("vision response could not be parsed")
	// ErrNotConfigured is returned without a network call when credentials are missing.
	ErrNotConfigured = errors.New("azure openai credentials not configured")
)

type Status int

const (
	StatusSuccess Status = iota
	StatusUpstreamError
	StatusParseError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUpstreamError:
		return "upstream_error"
	case StatusParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one extraction attempt.
// Products is set only for StatusSuccess; Err wraps ErrUpstream or ErrParse otherwise.
type Outcome struct {
	Status   Status
	Products []leaflet.Product
	Raw      string
	Err      error
}

func (o Outcome) OK() bool { return o.Status == StatusSuccess }
