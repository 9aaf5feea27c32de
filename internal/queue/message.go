// Package queue consumes the notification queue feeding the pipeline: object
// created events for metadata sidecars and completion notifications from the
// OCR engine.
package queue

import (
	"encoding/json"
	"net/url"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// Decoded is the typed content of one queue message. Exactly one of the two
// members is populated.
type Decoded struct {
	Uploads    []entity.UploadEvent
	Completion *entity.CompletionNotification
}

type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

type s3Event struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// Decode parses a raw message body into its typed form. Bodies arriving via
// an SNS subscription are unwrapped first. Object keys in S3 events arrive
// URL-encoded and are unescaped here, at the single entry point.
func Decode(body string) (Decoded, error) {
	var env snsEnvelope
	if err := json.Unmarshal([]byte(body), &env); err == nil &&
		env.Type == "Notification" && env.Message != "" {
		body = env.Message
	}

	var ev s3Event
	if err := json.Unmarshal([]byte(body), &ev); err == nil && len(ev.Records) > 0 {
		uploads := make([]entity.UploadEvent, 0, len(ev.Records))
		for _, r := range ev.Records {
			key, err := url.QueryUnescape(r.S3.Object.Key)
			if err != nil {
				return Decoded{}, common.WrapError(common.ErrInvalidInput, "unescape object key "+r.S3.Object.Key)
			}
			if key == "" {
				return Decoded{}, common.WrapError(common.ErrInvalidInput, "empty object key in event record")
			}
			uploads = append(uploads, entity.UploadEvent{Bucket: r.S3.Bucket.Name, Key: key})
		}
		return Decoded{Uploads: uploads}, nil
	}

	var n entity.CompletionNotification
	if err := json.Unmarshal([]byte(body), &n); err == nil && n.JobID != "" && n.Status != "" {
		return Decoded{Completion: &n}, nil
	}

	return Decoded{}, common.WrapError(common.ErrInvalidInput, "unrecognized message body")
}
