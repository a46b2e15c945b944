package models

// Requests for the scanner HTTP API. Defined in domain for consistency and reuse.

type ScanRequest struct {
	Limit  int  `query:"limit" json:"limit" default:"120" validate:"gte=1,lte=500"`
	Notify bool `query:"notify" json:"notify" default:"true"`
}

type ResultsRequest struct {
	Limit         int `query:"limit" json:"limit" default:"25" validate:"gte=1,lte=200"`
	MinConfidence int `query:"min_confidence" json:"min_confidence" default:"50" validate:"gte=0,lte=100"`
}

// ScanAck is returned as soon as a cycle is scheduled.
type ScanAck struct {
	Scheduled bool   `json:"scheduled"`
	Message   string `json:"message"`
}
