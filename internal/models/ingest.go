package models

// IngestResult is the tally returned by a batch ingestion run.
type IngestResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}
