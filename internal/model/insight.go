package model

import (
	"encoding/json"
	"time"
)

// Insight types.
const (
	InsightForecast       = "forecast"
	InsightAnomaly        = "anomaly"
	InsightRecommendation = "recommendation"
	InsightTrend          = "trend"
)

// Anomaly severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Insight is a persisted analytics output shown to the end user.
// Insights are append-only; each generation run creates new rows and the only
// mutation ever applied is the read-flag toggle.
type Insight struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	InsightType     string          `json:"insight_type" db:"insight_type"`
	Title           string          `json:"title" db:"title"`
	Description     string          `json:"description" db:"description"`
	ConfidenceScore float64         `json:"confidence_score" db:"confidence_score"`
	Data            json.RawMessage `json:"data,omitempty" db:"data"`
	IsRead          bool            `json:"is_read" db:"is_read"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// AnalyticsReport is the full output of one forecast/anomaly engine run over
// a snapshot. It is ephemeral (cached at most for the configured TTL).
type AnalyticsReport struct {
	Forecasts          Forecast         `json:"forecasts"`
	Anomalies          []Anomaly        `json:"anomalies"`
	Recommendations    []Recommendation `json:"recommendations"`
	RevenueTrend       []TrendPoint     `json:"revenue_trend"`
	ProductPerformance []ChartPoint     `json:"product_performance"`
	OptimizationScore  int              `json:"optimization_score"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// Recommendation is a ranked, report-level suggestion. Persisted
// counterparts are stored as Insight rows with type "recommendation".
type Recommendation struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Impact      string  `json:"impact"`
	Confidence  float64 `json:"confidence"`
}

// Forecast holds the heuristic revenue/sales projections.
type Forecast struct {
	Revenue    int `json:"revenue"`
	Sales      int `json:"sales"`
	Confidence int `json:"confidence"`
}

// Anomaly is a detected deviation from expected stock or sales patterns.
type Anomaly struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Confidence  float64   `json:"confidence"`
	DetectedAt  time.Time `json:"detected_at"`
}

// TrendPoint is one day of the trailing revenue trend series.
type TrendPoint struct {
	Period    string  `json:"period"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// ChartPoint is a generic label/value pair for chart consumers.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DataPoint is a labelled value supporting an assistant answer.
type DataPoint struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// QueryResponse is the unified answer shape shared by the LLM path and the
// rule-based fallback. Confidence is on a 0-100 scale.
type QueryResponse struct {
	Answer          string      `json:"answer"`
	Insights        []string    `json:"insights,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
	Data            []DataPoint `json:"data,omitempty"`
	Confidence      float64     `json:"confidence"`
	Sources         []string    `json:"sources,omitempty"`
}
