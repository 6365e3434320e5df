// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"bytes"
	"text/template"
)

// systemPrompt instructs the model to answer with the report shape only.
const systemPrompt = `You are a financial analyst AI. Analyze the provided financial document and return a JSON response with this exact structure:
{
  "summary": "Brief summary of analysis",
  "insights": [
    {"category": "Expense Categories", "items": ["List of categorized expenses with amounts and percentages"]},
    {"category": "Financial Trends", "items": ["List of identified trends and patterns"]},
    {"category": "Key Metrics", "items": ["Important financial metrics and totals"]},
    {"category": "Recommendations", "items": ["Actionable recommendations for improvement"]}
  ]
}
Do not include any text outside the JSON object.`

var userPromptTmpl = template.Must(template.New("analysis").Parse(`Analyze this financial document ({{.Name}}):

{{.Excerpt}}`))

// renderUserPrompt executes the user prompt template for req.
func renderUserPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	if err := userPromptTmpl.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
