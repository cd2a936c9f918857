package llm

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const questionMarker = "QUESTION:"

// 追问模板的开头，mock 模型据此区分两类请求
const questionPreamble = "You are a market intelligence expert answering specific questions"

const marketTrendsTpl = `You are a market intelligence expert analyzing trends and patterns.

QUERY: {query}
MARKET DOMAIN: {market_domain}

Based on the following search results, identify the key market trends,
opportunities, and potential risks. Provide a comprehensive analysis
with supporting evidence.

SEARCH RESULTS:
{search_results}

Your analysis should include:
1. Key market trends with supporting evidence and confidence scores
2. Market opportunities with potential impact and implementation difficulty
3. Potential risks and mitigation strategies

Format your response as a structured JSON with the following schema:
{{
    "trends": [
        {{
            "trend_name": "Name of the trend",
            "description": "Detailed description",
            "supporting_evidence": ["Evidence 1", "Evidence 2"],
            "estimated_impact": "High/Medium/Low",
            "timeframe": "Short-term/Medium-term/Long-term",
            "confidence_score": 0.XX
        }}
    ],
    "opportunities": [
        {{
            "title": "Opportunity title",
            "description": "Detailed description",
            "potential_impact": "High/Medium/Low",
            "implementation_difficulty": "High/Medium/Low",
            "recommended_actions": ["Action 1", "Action 2"]
        }}
    ],
    "risks": [
        {{
            "title": "Risk title",
            "description": "Detailed description",
            "severity": "High/Medium/Low",
            "likelihood": "High/Medium/Low",
            "mitigation_strategies": ["Strategy 1", "Strategy 2"]
        }}
    ]
}}
`

const specificQuestionTpl = questionPreamble + ` based on previous analysis.

` + questionMarker + ` {question}

Use the following context from previous analysis to answer the question:

CONTEXT:
{context}

Provide a comprehensive answer with supporting evidence. If the context doesn't contain
enough information to answer the question confidently, acknowledge the limitations.

Format your response as a structured JSON with the following schema:
{{
    "answer": "Your detailed answer",
    "sources": ["Source 1", "Source 2"],
    "confidence": 0.XX
}}
`

var (
	// MarketTrendsTemplate 变量: query, market_domain, search_results
	MarketTrendsTemplate = prompt.FromMessages(schema.FString, schema.UserMessage(marketTrendsTpl))
	// SpecificQuestionTemplate 变量: question, context
	SpecificQuestionTemplate = prompt.FromMessages(schema.FString, schema.UserMessage(specificQuestionTpl))
)

// MarketTrendsMessages 渲染市场分析请求，searchResults 以空行拼接
func MarketTrendsMessages(ctx context.Context, query, domain string, searchResults []string) ([]*schema.Message, error) {
	return MarketTrendsTemplate.Format(ctx, map[string]any{
		"query":          query,
		"market_domain":  domain,
		"search_results": strings.Join(searchResults, "\n\n"),
	})
}

// SpecificQuestionMessages 渲染追问请求，context 为上一次分析结果的 JSON
func SpecificQuestionMessages(ctx context.Context, question, analysisContext string) ([]*schema.Message, error) {
	return SpecificQuestionTemplate.Format(ctx, map[string]any{
		"question": question,
		"context":  analysisContext,
	})
}
