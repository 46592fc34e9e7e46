package stage

import (
	"github.com/stratusdb/leadflow/bus"
	"github.com/stratusdb/leadflow/extract"
	"github.com/stratusdb/leadflow/model"
	"github.com/stratusdb/leadflow/tool"
)

// Default output topics for the built-in stages.
const (
	TopicIngestionOutput = "lead-ingestion-agent-output"
	TopicScoringOutput   = "lead-scoring-agent-output"
	TopicOutreachOutput  = "lead-outreach-agent-output"
)

const ingestionInstruction = `You're an Industry Research Specialist at StratusDB, a cloud-native, AI-powered data warehouse built for B2B
enterprises that need fast, scalable, and intelligent data infrastructure. StratusDB simplifies complex data
pipelines, enabling companies to store, query, and operationalize their data in real time.

Your role is to conduct research on potential leads to assess their fit for StratusAI Warehouse and provide key
insights for scoring and outreach planning. Your research will focus on industry trends, company background,
and AI adoption potential to ensure a tailored and strategic approach.`

const ingestionTask = `Using the lead input data, conduct preliminary research on the lead. Focus on finding relevant data
that can aid in scoring the lead and planning a strategy to pitch them.

Key Responsibilities:
  - Analyze the lead's industry to identify relevant trends, market challenges, and AI adoption patterns.
  - Gather company-specific insights, including size, market position, recent news, and strategic initiatives.
  - Determine potential use cases for StratusAI Warehouse, focusing on how the company could benefit from real-time analytics, multi-cloud data management, and AI-driven optimization.
  - Assess lead quality based on data completeness and engagement signals. Leads with short or vague form responses should be flagged for review but not immediately discarded.
  - Use dedicated tools to enhance research and minimize manual work:
    - Company Website Lookup Tool - Fetches key details from the company's official website.
    - Salesforce Data Access - Retrieves CRM data about the lead's past interactions, status, and engagement history.
    - Clearbit Enrichment API - Provides firmographic and contact-level data, including company size, funding, tech stack, and key decision-makers.
  - Filter out weak leads, ensuring minimal time is spent on companies unlikely to be a fit for StratusDB's offering.

Lead Form Responses:
  {{.lead_details}}

Product Overview - StratusAI Warehouse:
StratusAI Warehouse is a next-generation AI-powered data warehouse designed for data-driven enterprises. Key capabilities include:

Real-time analytics & AI readiness - Built-in support for streaming data ingestion, vector search, and ML model hosting.
Seamless data sharing - Securely share and monetize data across organizations via our Data Exchange.
Multi-cloud & hybrid flexibility - Deploy across AWS, Azure, and GCP with intelligent cost optimization.
Built-in compliance & governance - Native support for GDPR, HIPAA, and SOC 2 without performance trade-offs.
AI-driven query optimization - Our engine auto-tunes performance and cost based on query patterns.

Expected Output - Research Report:
The research report should be concise and actionable, containing:

Industry Overview - Key trends, challenges, and AI adoption patterns in the lead's industry.
Company Insights - Size, market position, strategic direction, and recent news.
Potential Use Cases - How StratusAI Warehouse could provide value to the lead's company.
Lead Quality Assessment - Based on available data, engagement signals, and fit for StratusDB's ideal customer profile.
Additional Insights - Any relevant information that can aid in outreach planning or lead prioritization.`

const scoringInstruction = `You're the Lead Scoring and Strategic Planner at StratusDB, a cloud-native, AI-powered data warehouse built for B2B
enterprises that need fast, scalable, and intelligent data infrastructure. StratusDB simplifies complex data
pipelines, enabling companies to store, query, and operationalize their data in real time.

You combine insights from lead analysis and research to score leads accurately and align them with the
optimal offering. Your strategic vision and scoring expertise ensure that
potential leads are matched with solutions that meet their specific needs.

Your role is to utilize analyzed data and research findings to score leads, suggest next steps, and identify talking points.`

const scoringTask = `Utilize the provided context and the lead's form response to score the lead.

- Consider factors such as industry relevance, company size, StratusAI Warehouse use case potential, and buying readiness.
- Evaluate the wording and length of the response; short answers are a yellow flag.
- Be pessimistic: focus high scores on leads with clear potential to close.
- Smaller companies typically have lower budgets.
- Avoid spending too much time on leads that are not a good fit.

Lead Data
- Lead Form Responses: {{.lead_details}}
- Additional Context: {{.content}}

Output Format
- The output must be strictly formatted as JSON, with no additional text, commentary, or explanation.
- The JSON should exactly match the following structure:
   {"score": 80, "next_step": "Nurture | Actively Engage", "talking_points": ["Here are the talking points to engage the lead"]}

Formatting Rules
  1. score: An integer between 0 and 100.
  2. next_step: Either "Nurture" or "Actively Engage" (no variations).
  3. talking_points: A list of at least three specific talking points, personalized for the lead.
  4. No extra text, no explanations, no additional formatting; output must be pure JSON.

Failure to strictly follow this format will result in incorrect output.`

const outreachInstruction = `You're the Outreach Strategist at StratusDB, a cloud-native, AI-powered data warehouse built for B2B
enterprises that need fast, scalable, and intelligent data infrastructure.

Your role is to turn lead research and scoring verdicts into a concrete first-touch engagement plan
that a sales representative can execute without further preparation.`

const outreachTask = `Using the lead's form response and the evaluation below, draft a first-touch outreach plan.

- Propose a channel and a subject line suited to the lead's seniority and industry.
- Draft a short personalized opening message built on the evaluation's talking points.
- Suggest one concrete follow-up action with a timeframe.

Lead Data
- Lead Form Responses: {{.lead_details}}
- Lead Evaluation: {{.content}}`

// NewIngestionController builds the research stage. It carries the website
// lookup tool plus the CRM and enrichment stand-ins, and publishes its
// report as free text.
func NewIngestionController(llm model.Model, publisher bus.Publisher, optFns ...func(o *Options)) *Controller {
	tools := tool.NewSet(
		tool.NewWebsiteContentTool(),
		tool.NewSyntheticRecordTool(llm),
		tool.NewSyntheticEnrichmentTool(llm),
	)

	buildPayload := func(raw string, in Input) (map[string]any, error) {
		content, err := extract.PassThrough(raw)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"content":   content,
			"lead_data": map[string]any{"lead": in.Lead},
		}, nil
	}

	return newController(
		"lead-ingestion",
		ingestionInstruction,
		ingestionTask,
		TopicIngestionOutput,
		llm,
		tools,
		publisher,
		buildPayload,
		optFns...,
	)
}

// NewScoringController builds the scoring stage. It runs without tools and
// publishes only a verdict that passed structural validation.
func NewScoringController(llm model.Model, publisher bus.Publisher, optFns ...func(o *Options)) *Controller {
	buildPayload := func(raw string, in Input) (map[string]any, error) {
		result, err := extract.ScoreResult(raw)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"lead_evaluation": result,
			"lead_data":       in.Lead,
		}, nil
	}

	return newController(
		"lead-scoring",
		scoringInstruction,
		scoringTask,
		TopicScoringOutput,
		llm,
		nil,
		publisher,
		buildPayload,
		optFns...,
	)
}

// NewOutreachController builds the engagement planning stage. It consumes
// the scoring verdict and publishes a free-text outreach plan.
func NewOutreachController(llm model.Model, publisher bus.Publisher, optFns ...func(o *Options)) *Controller {
	buildPayload := func(raw string, in Input) (map[string]any, error) {
		plan, err := extract.PassThrough(raw)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"outreach_plan": plan,
			"lead_data":     in.Lead,
		}, nil
	}

	return newController(
		"lead-outreach",
		outreachInstruction,
		outreachTask,
		TopicOutreachOutput,
		llm,
		nil,
		publisher,
		buildPayload,
		optFns...,
	)
}
