package ocrengine

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

// TextractAPI is the subset of the Textract client the engine uses.
type TextractAPI interface {
	StartDocumentAnalysis(ctx context.Context, params *textract.StartDocumentAnalysisInput, optFns ...func(*textract.Options)) (*textract.StartDocumentAnalysisOutput, error)
	GetDocumentAnalysis(ctx context.Context, params *textract.GetDocumentAnalysisInput, optFns ...func(*textract.Options)) (*textract.GetDocumentAnalysisOutput, error)
}

// Textract implements Engine against AWS Textract.
type Textract struct {
	client TextractAPI
}

func NewTextract(client TextractAPI) *Textract {
	return &Textract{client: client}
}

func (t *Textract) StartAnalysis(ctx context.Context, in StartInput) (string, error) {
	input := &textract.StartDocumentAnalysisInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(in.Bucket),
				Name:   aws.String(in.DocumentKey),
			},
		},
		FeatureTypes: []types.FeatureType{types.FeatureTypeForms, types.FeatureTypeTables},
	}
	if in.TopicARN != "" && in.RoleARN != "" {
		input.NotificationChannel = &types.NotificationChannel{
			SNSTopicArn: aws.String(in.TopicARN),
			RoleArn:     aws.String(in.RoleARN),
		}
	}
	if in.OutputBucket != "" {
		input.OutputConfig = &types.OutputConfig{
			S3Bucket: aws.String(in.OutputBucket),
			S3Prefix: aws.String(in.OutputPrefix),
		}
	}

	out, err := t.client.StartDocumentAnalysis(ctx, input)
	if err != nil {
		return "", common.External(err, "start document analysis for "+in.DocumentKey)
	}
	return aws.ToString(out.JobId), nil
}

func (t *Textract) GetBlocks(ctx context.Context, jobID string) ([]entity.OcrBlock, error) {
	var blocks []entity.OcrBlock
	var nextToken *string
	for {
		out, err := t.client.GetDocumentAnalysis(ctx, &textract.GetDocumentAnalysisInput{
			JobId:     aws.String(jobID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, common.External(err, "get document analysis for job "+jobID)
		}
		for _, b := range out.Blocks {
			blocks = append(blocks, entity.OcrBlock{
				BlockType: string(b.BlockType),
				Text:      aws.ToString(b.Text),
			})
		}
		if out.NextToken == nil {
			return blocks, nil
		}
		nextToken = out.NextToken
	}
}
