package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"stockpilot-api/internal/model"
)

// rawAnalysis mirrors the model's JSON schema but tolerates numeric data
// values and a missing field here and there. Anything beyond that is a parse
// failure and abandons the whole LLM path.
type rawAnalysis struct {
	Answer          string     `json:"answer"`
	Insights        []string   `json:"insights"`
	Recommendations []string   `json:"recommendations"`
	Data            []rawDatum `json:"data"`
	Confidence      float64    `json:"confidence"`
	Sources         []string   `json:"sources"`
}

type rawDatum struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// parseAnalysis extracts a QueryResponse from the model's JSON content.
func parseAnalysis(content string) (*model.QueryResponse, error) {
	// Strip markdown code fences if present
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w (content: %.200s)", err, content)
	}

	resp := &model.QueryResponse{
		Answer:          raw.Answer,
		Insights:        raw.Insights,
		Recommendations: raw.Recommendations,
		Confidence:      raw.Confidence,
		Sources:         raw.Sources,
	}

	for _, d := range raw.Data {
		resp.Data = append(resp.Data, model.DataPoint{
			Label: d.Label,
			Value: stringifyValue(d.Value),
		})
	}

	// Apply defaults for missing fields
	if resp.Answer == "" {
		resp.Answer = "I'll analyze your business data to provide insights."
	}
	if resp.Confidence == 0 {
		resp.Confidence = 75
	}
	if len(resp.Sources) == 0 {
		resp.Sources = []string{"business_data"}
	}

	return resp, nil
}

// stringifyValue normalizes a JSON value into a display string.
func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
