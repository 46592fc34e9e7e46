package tool

import (
	"encoding/json"
	"fmt"

	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/model"
)

// The pipeline is not connected to a real CRM or enrichment provider. These
// tools stand in for Salesforce and Clearbit by asking the reasoning service
// to synthesize plausible structured data from the lead's raw details. The
// model's raw response is returned as the tool result without independent
// validation.

const (
	recordToolName     = "get_salesforce_data"
	enrichmentToolName = "get_enriched_lead_data"
)

// enrichmentSamplePayload is the worked example that seeds the enrichment
// stand-in so the synthesized output matches a Clearbit-like shape.
var enrichmentSamplePayload = map[string]any{
	"person": map[string]any{
		"full_name":      "Jane Doe",
		"job_title":      "Director of Data Engineering",
		"company_name":   "Acme Analytics",
		"company_domain": "acmeanalytics.com",
		"work_email":     "jane.doe@acmeanalytics.com",
		"linkedin_url":   "https://www.linkedin.com/in/janedoe",
		"twitter_handle": "@janedoe",
		"location": map[string]any{
			"city":    "San Francisco",
			"state":   "California",
			"country": "United States",
		},
		"work_phone": "+1 415-555-1234",
		"employment_history": []any{
			map[string]any{"company": "DataCorp", "job_title": "Senior Data Engineer", "years": "2018-2022"},
			map[string]any{"company": "Tech Solutions", "job_title": "Data Analyst", "years": "2015-2018"},
		},
	},
	"company": map[string]any{
		"name":           "Acme Analytics",
		"domain":         "acmeanalytics.com",
		"industry":       "Data & Analytics",
		"sector":         "Software & IT Services",
		"employee_count": 500,
		"annual_revenue": "$50M-$100M",
		"company_type":   "Private",
		"headquarters": map[string]any{
			"city":    "San Francisco",
			"state":   "California",
			"country": "United States",
		},
		"linkedin_url":   "https://www.linkedin.com/company/acme-analytics",
		"twitter_handle": "@acmeanalytics",
		"facebook_url":   "https://www.facebook.com/acmeanalytics",
		"technologies_used": []any{
			"AWS", "Snowflake", "Apache Kafka", "Flink", "Looker", "Salesforce",
		},
		"funding_info": map[string]any{
			"total_funding":   "$75M",
			"last_round":      "Series B",
			"last_round_date": "2023-08-15",
			"investors":       []any{"Sequoia Capital", "Andreessen Horowitz"},
		},
		"key_decision_makers": []any{
			map[string]any{"name": "John Smith", "title": "CEO", "linkedin_url": "https://www.linkedin.com/in/johnsmith"},
			map[string]any{"name": "Emily Johnson", "title": "VP of Engineering", "linkedin_url": "https://www.linkedin.com/in/emilyjohnson"},
		},
		"hiring_trends": map[string]any{
			"open_positions":         12,
			"growth_rate":            "15% YoY",
			"top_hiring_departments": []any{"Engineering", "Data Science", "Sales"},
		},
	},
}

var leadDetailsParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"lead_details": map[string]any{
			"type":        "string",
			"description": "Relevant lead information as free text",
		},
	},
	"required": []string{"lead_details"},
}

// NewSyntheticRecordTool returns the CRM stand-in. It prompts the reasoning
// service to generate realistic Salesforce-like data for the given lead.
func NewSyntheticRecordTool(llm model.Model) Tool {
	return NewFunctionTool(
		recordToolName,
		"Retrieve CRM data about the lead's past interactions, status, and engagement history",
		leadDetailsParams,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			leadDetails, _ := args["lead_details"].(string)

			toolCtx.LogInfo("tool.synthetic_record.generate", "fc_id", toolCtx.FunctionCallID())

			prompt := fmt.Sprintf(`Take the lead details and generate realistic Salesforce data to represent the contact,
company, lead information, and any historical interactions we've had with the lead.

Return only the fake Salesforce data as JSON. Do not wrap the message in any additional text.

Lead details:
%s`, leadDetails)

			return synthesize(toolCtx, llm, recordToolName, prompt)
		},
	)
}

// NewSyntheticEnrichmentTool returns the firmographic stand-in. It prompts
// the reasoning service with a worked example payload plus the lead's raw
// details and returns the synthesized enrichment data.
func NewSyntheticEnrichmentTool(llm model.Model) Tool {
	sample, _ := json.MarshalIndent(enrichmentSamplePayload, "", "    ")

	return NewFunctionTool(
		enrichmentToolName,
		"Provide firmographic and contact-level data, including company size, funding, tech stack, and key decision-makers",
		leadDetailsParams,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			leadDetails, _ := args["lead_details"].(string)

			toolCtx.LogInfo("tool.synthetic_enrichment.generate", "fc_id", toolCtx.FunctionCallID())

			prompt := fmt.Sprintf(`Take the lead details and generate realistic Clearbit data to represent the enriched lead.
Return only the fake Clearbit data as JSON. Do not wrap the message in any additional text.

Lead details:
%s

The fake output should look like this:
%s`, leadDetails, string(sample))

			return synthesize(toolCtx, llm, enrichmentToolName, prompt)
		},
	)
}

// synthesize runs a single-turn generation and returns the raw model text.
func synthesize(toolCtx *core.ToolContext, llm model.Model, toolName, prompt string) (any, error) {
	resp, err := llm.Generate(toolCtx.Context(), model.Request{
		Contents: []core.Content{core.NewTextContent("user", prompt)},
	})
	if err != nil {
		return nil, NewToolError(toolName, fmt.Sprintf("generation failed: %v", err), "GENERATION_ERROR")
	}

	return resp.Content.Text(), nil
}
