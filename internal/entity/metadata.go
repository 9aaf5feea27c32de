package entity

// UploadMetadata is the JSON sidecar written next to each uploaded document.
// It is read-only input to the pipeline; the upload collaborator owns it.
type UploadMetadata struct {
	UserID     string   `json:"user_id"`
	UploadDate string   `json:"upload_date"` // ISO-8601
	PatientID  string   `json:"patient_id,omitempty"`
	Indicators []string `json:"indicators"` // ordered; one record stored per entry
}

// RequestedIndicators returns the indicator names to extract, in sidecar order.
func (m *UploadMetadata) RequestedIndicators() []string {
	return m.Indicators
}
