package entity

// ClinicalRecord is the persisted unit: one extracted indicator from one
// uploaded lab report. The composite key is the idempotence boundary;
// reprocessing the same document overwrites the same row.
//
// Attribute names follow the clinical_reports table layout.
type ClinicalRecord struct {
	OwnerID           string  `json:"owner_id" dynamodbav:"UserId"`
	CompositeKey      string  `json:"composite_key" dynamodbav:"PatientId#TestDateTime#Indicator"`
	PatientID         string  `json:"patient_id" dynamodbav:"PatientId"`
	PatientName       string  `json:"patient_name" dynamodbav:"PatientName"`
	CollectedDate     string  `json:"collected_date" dynamodbav:"CollectedDate"`
	UploadDate        string  `json:"upload_date" dynamodbav:"UploadDate"`
	LaboratoryName    string  `json:"laboratory_name" dynamodbav:"LaboratoryName"`
	IndicatorName     string  `json:"indicator_name" dynamodbav:"Indicator"`
	Result            float64 `json:"result" dynamodbav:"Result"`
	Units             string  `json:"units" dynamodbav:"Units"`
	LowerRange        float64 `json:"lower_range" dynamodbav:"LowerRange"`
	UpperRange        float64 `json:"upper_range" dynamodbav:"UpperRange"`
	SourceDocumentKey string  `json:"source_document_key" dynamodbav:"S3FileKey"`
}
