package polarity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/Koshroy/redditsentiment/internal/sentiment"
)

const polarityInstructions = `You rate the sentiment polarity of a piece of text taken from Reddit.
Return a single number between -1 and 1: -1 is strongly negative, 0 is neutral or carries no sentiment, 1 is strongly positive.
Judge the author's tone, not the topic. Respond only with the JSON object described by the schema.`

const maxOutputTokens = 200

// responsesAPI is the part of the openai-go Responses service we use.
type responsesAPI interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

type polarityResponse struct {
	Polarity float64 `json:"polarity" jsonschema:"required,minimum=-1,maximum=1"`
}

var polaritySchema = generateSchema[polarityResponse]()

// OpenAI asks a language model for the polarity through a strict JSON schema.
type OpenAI struct {
	responses responsesAPI
	model     string
}

// NewOpenAI returns a scorer that sends each text to model through api.
func NewOpenAI(api responsesAPI, model string) *OpenAI {
	return &OpenAI{responses: api, model: model}
}

func (o *OpenAI) Score(ctx context.Context, text string) (float64, error) {
	if isBlank(text) {
		return 0, nil
	}
	if o.responses == nil {
		return 0, errors.New("openai scorer: client is nil")
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(maxOutputTokens),
		Instructions:    openai.String(polarityInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "Polarity",
					Schema:      polaritySchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Sentiment polarity JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := o.responses.New(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("openai scorer: %w", err)
	}

	return decodePolarity(resp.OutputText())
}

func decodePolarity(outputText string) (float64, error) {
	s := strings.TrimSpace(outputText)
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}

	var out polarityResponse
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return 0, fmt.Errorf("openai scorer: decode model output %q: %w", outputText, err)
	}
	return sentiment.Clamp(out.Polarity), nil
}

func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	// Strict mode rejects schemas that allow extra keys.
	m["additionalProperties"] = false
	delete(m, "$schema")
	delete(m, "$id")
	return m
}
