package queue

import (
	"errors"
	"testing"

	"github.com/kolade-a/labreports-tracker/constants"
	"github.com/kolade-a/labreports-tracker/internal/common"
)

func TestDecode_S3Event(t *testing.T) {
	body := `{"Records":[{"s3":{"bucket":{"name":"clinical-reports"},"object":{"key":"metadata/uploads/owner-1/id1/report+1.jpg.json"}}}]}`

	got, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Uploads) != 1 || got.Completion != nil {
		t.Fatalf("decoded = %+v", got)
	}
	if got.Uploads[0].Bucket != "clinical-reports" {
		t.Errorf("Bucket = %q", got.Uploads[0].Bucket)
	}
	if got.Uploads[0].Key != "metadata/uploads/owner-1/id1/report 1.jpg.json" {
		t.Errorf("Key = %q, want unescaped key", got.Uploads[0].Key)
	}
}

func TestDecode_CompletionNotification(t *testing.T) {
	body := `{"JobId":"job-1","Status":"SUCCEEDED","MetadataKey":"metadata/uploads/owner-1/id1/report_1.jpg.json"}`

	got, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Completion == nil || len(got.Uploads) != 0 {
		t.Fatalf("decoded = %+v", got)
	}
	if got.Completion.JobID != "job-1" || got.Completion.Status != constants.JobStatusSucceeded {
		t.Errorf("completion = %+v", got.Completion)
	}
}

func TestDecode_SNSEnvelope(t *testing.T) {
	body := `{"Type":"Notification","Message":"{\"JobId\":\"job-2\",\"Status\":\"FAILED\",\"MetadataKey\":\"metadata/uploads/o/u/f.pdf.json\"}"}`

	got, err := Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Completion == nil {
		t.Fatalf("decoded = %+v", got)
	}
	if got.Completion.JobID != "job-2" || got.Completion.Status != constants.JobStatusFailed {
		t.Errorf("completion = %+v", got.Completion)
	}
}

func TestDecode_Unrecognized(t *testing.T) {
	for _, body := range []string{"", "not json", `{"foo":"bar"}`, `{"Records":[]}`} {
		if _, err := Decode(body); !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("Decode(%q): err = %v, want ErrInvalidInput", body, err)
		}
	}
}
