package ai

import "fmt"

// BuildPrompt assembles the analysis prompt from the business digest and the
// user's question. The digest comes from the summary builder, so the model
// sees exactly the same facts as the rule-based fallback.
func BuildPrompt(question, summary string) string {
	return fmt.Sprintf(`
You are an expert business analyst specializing in inventory management and retail analytics. Analyze the following business data and user query.

BUSINESS DATA SUMMARY:
%s

USER QUERY: "%s"

Please provide a comprehensive analysis with:
1. A clear, actionable answer to the user's question
2. 2-3 key insights based on the data
3. 2-3 specific recommendations for improvement
4. Relevant data points that support your analysis
5. A confidence score (0-100) for your analysis

Respond in JSON format:
{
  "answer": "Direct answer to the user's question",
  "insights": ["insight1", "insight2", "insight3"],
  "recommendations": ["recommendation1", "recommendation2"],
  "data": [{"label": "Metric Name", "value": "metric_value"}],
  "confidence": 85,
  "sources": ["data source used for analysis"]
}

Be specific, actionable, and focus on business impact. Use actual numbers from the provided data.
`, summary, question)
}
