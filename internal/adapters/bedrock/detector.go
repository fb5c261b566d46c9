package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/utils"
)

// BedrockDetector is an implementation of the Detector capability
// using an Anthropic Claude vision model on Amazon Bedrock.
type BedrockDetector struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

const regionsPrompt = `You are an image safety classifier. Examine the image and report every region you can identify.
Respond with a JSON object containing:
- regions: array of objects, one per region, each with:
  - label: string, one of EXPOSED_ANUS, EXPOSED_BUTTOCKS, EXPOSED_BREAST_F, EXPOSED_GENITALIA_F, EXPOSED_GENITALIA_M, COVERED_BREAST_F, COVERED_GENITALIA_F, COVERED_GENITALIA_M, COVERED_BUTTOCKS, FACE_FEMALE, FACE_MALE
  - confidence: number between 0 and 1

Report every region you detect, not only explicit ones. Respond only with the JSON object and nothing else.`

const agePrompt = `You are an age verification system. Look at the image and estimate the age of the youngest clearly visible person.
Respond with a JSON object containing:
- age: number (estimated age in years), or null if no person or face is clearly visible

Respond only with the JSON object and nothing else.`

// regionsResponse represents the structured region report from the model
type regionsResponse struct {
	Regions []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"regions"`
}

// ageResponse represents the structured age estimate from the model
type ageResponse struct {
	Age *float64 `json:"age"`
}

// NewBedrockDetector creates a new Bedrock-backed detector
func NewBedrockDetector(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockDetector {
	return &BedrockDetector{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// DetectRegions classifies regions of the image.
func (d *BedrockDetector) DetectRegions(ctx context.Context, img *core.SourceImage) ([]core.Detection, error) {
	responseText, err := d.invoke(ctx, regionsPrompt, img)
	if err != nil {
		return nil, err
	}

	var parsed regionsResponse
	if err := decodeModelJSON(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse region response: %w", err)
	}

	detections := make([]core.Detection, 0, len(parsed.Regions))
	for _, region := range parsed.Regions {
		detections = append(detections, core.Detection{
			Label:      d.textProcessor.NormalizeLabel(region.Label),
			Confidence: clamp01(region.Confidence),
		})
	}
	return detections, nil
}

// EstimateAge estimates the age of the youngest clearly visible person.
func (d *BedrockDetector) EstimateAge(ctx context.Context, img *core.SourceImage) (*core.AgeEstimate, error) {
	responseText, err := d.invoke(ctx, agePrompt, img)
	if err != nil {
		return nil, err
	}

	var parsed ageResponse
	if err := decodeModelJSON(responseText, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse age response: %w", err)
	}
	if parsed.Age == nil {
		return nil, nil
	}
	return &core.AgeEstimate{Years: *parsed.Age}, nil
}

// invoke sends one prompt plus the image through the Anthropic
// messages payload and returns the raw text reply.
func (d *BedrockDetector) invoke(ctx context.Context, prompt string, img *core.SourceImage) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        d.maxTokens,
		"temperature":       d.temperature,
		"top_p":             d.topP,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "image",
						"source": map[string]any{
							"type":       "base64",
							"media_type": "image/jpeg",
							"data":       base64.StdEncoding.EncodeToString(img.JPEG),
						},
					},
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := d.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &d.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var messageResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Body, &messageResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal Bedrock response: %w", err)
	}

	for _, block := range messageResp.Content {
		if block.Type == "text" {
			return d.textProcessor.SanitizeUTF8(block.Text), nil
		}
	}
	return "", fmt.Errorf("no text block in Bedrock response")
}

// decodeModelJSON parses the model's JSON reply, salvaging the first
// JSON object if the model wrapped it in prose.
func decodeModelJSON(responseText string, out any) error {
	if err := json.Unmarshal([]byte(responseText), out); err == nil {
		return nil
	}

	jsonStart := -1
	jsonEnd := -1
	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return fmt.Errorf("no JSON object in model response")
	}
	return json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), out)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
