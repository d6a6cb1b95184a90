package extraction

import "time"

// Event describes one completed upload and is published to interested consumers.
type Event struct {
	Image         string    `json:"image"`
	Source        Source    `json:"source"`
	TotalProducts int       `json:"total_products"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

func NewEvent(image string, result *Result) Event {
	return Event{
		Image:         image,
		Source:        result.Source,
		TotalProducts: len(result.Products),
		ExtractedAt:   time.Now().UTC(),
	}
}
