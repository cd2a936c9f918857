package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseErrorMarker 模型输出无法解析为 JSON 时写入 error 字段的固定文案
const ParseErrorMarker = "Failed to parse result"

// Trend 市场趋势
type Trend struct {
	TrendName          string   `json:"trend_name"`
	Description        string   `json:"description"`
	SupportingEvidence []string `json:"supporting_evidence"`
	EstimatedImpact    string   `json:"estimated_impact"`
	Timeframe          string   `json:"timeframe"`
	ConfidenceScore    float64  `json:"confidence_score"`
}

// Opportunity 市场机会
type Opportunity struct {
	Title                    string   `json:"title"`
	Description              string   `json:"description"`
	PotentialImpact          string   `json:"potential_impact"`
	ImplementationDifficulty string   `json:"implementation_difficulty"`
	RecommendedActions       []string `json:"recommended_actions"`
}

// Risk 潜在风险
type Risk struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Severity             string   `json:"severity"`
	Likelihood           string   `json:"likelihood"`
	MitigationStrategies []string `json:"mitigation_strategies"`
}

// MarketReport 市场趋势分析结果
type MarketReport struct {
	Trends        []Trend       `json:"trends"`
	Opportunities []Opportunity `json:"opportunities"`
	Risks         []Risk        `json:"risks"`
}

// Answer 追问的回答
type Answer struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// ParseFailure 模型输出解析失败时的替代结构，保留原始文本
type ParseFailure struct {
	Error     string `json:"error"`
	RawResult string `json:"raw_result"`
}

// Parsed 是模型输出的解析结果。Raw 是从模型输出中截取到的 JSON 对象（已去掉空白），
// 序列化时原样输出，字段和类型都不做校验；Value 是按 T 解码的视图，形状不符时为 nil。
// 找不到合法 JSON 时只有 Failure。
type Parsed[T any] struct {
	Raw     json.RawMessage
	Value   *T
	Failure *ParseFailure
}

// Analysis 市场分析结果
type Analysis = Parsed[MarketReport]

// AnswerResult 追问结果
type AnswerResult = Parsed[Answer]

// FromRaw 以 raw 为准构造解析结果，并尽量解码出 T 视图
func FromRaw[T any](raw json.RawMessage) (*Parsed[T], error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	p := &Parsed[T]{Raw: json.RawMessage(buf.Bytes())}
	var v T
	if err := json.Unmarshal(p.Raw, &v); err == nil {
		p.Value = &v
	}
	return p, nil
}

// Succeeded 由结构体构造解析结果，Raw 为其 JSON 编码
func Succeeded[T any](v *T) *Parsed[T] {
	raw, err := json.Marshal(v)
	if err != nil {
		return &Parsed[T]{Value: v}
	}
	return &Parsed[T]{Raw: raw, Value: v}
}

// Failed 构造解析失败的结果
func Failed[T any](raw string) *Parsed[T] {
	return &Parsed[T]{Failure: &ParseFailure{Error: ParseErrorMarker, RawResult: raw}}
}

// IsFailure 是否为解析失败
func (p *Parsed[T]) IsFailure() bool {
	return p == nil || p.Failure != nil
}

// MarshalJSON implements json.Marshaler
func (p Parsed[T]) MarshalJSON() ([]byte, error) {
	switch {
	case p.Failure != nil:
		return json.Marshal(p.Failure)
	case p.Raw != nil:
		return p.Raw, nil
	case p.Value != nil:
		return json.Marshal(p.Value)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler。
// 只有恰好是 {"error": ParseErrorMarker, "raw_result": "..."} 的对象才还原为 Failure，
// 其余内容一律按原文保存。
func (p *Parsed[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Parsed[T]{}
		return nil
	}
	if f, ok := asFailure(data); ok {
		*p = Parsed[T]{Failure: f}
		return nil
	}
	parsed, err := FromRaw[T](data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

func asFailure(data []byte) (*ParseFailure, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || len(obj) != 2 {
		return nil, false
	}
	var f ParseFailure
	if err := json.Unmarshal(obj["error"], &f.Error); err != nil || f.Error != ParseErrorMarker {
		return nil, false
	}
	if _, ok := obj["raw_result"]; !ok {
		return nil, false
	}
	if err := json.Unmarshal(obj["raw_result"], &f.RawResult); err != nil {
		return nil, false
	}
	return &f, true
}

// QueryState 一次查询的完整状态，按 ID 持久化
type QueryState struct {
	ID             string    `json:"state_id"`
	Query          string    `json:"query"`
	MarketDomain   string    `json:"market_domain"`
	SearchResults  []string  `json:"search_results"`
	AnalysisResult *Analysis `json:"analysis_result"`
	Timestamp      string    `json:"timestamp"`
}

// QueryResponse ProcessQuery 的返回值。
// 成功时输出分析结果并附带 state_id，失败时输出 {"error", "state_id"}。
type QueryResponse struct {
	StateID  string
	Analysis *Analysis
	Error    string
}

// MarshalJSON implements json.Marshaler
func (r QueryResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" || r.Analysis == nil {
		return json.Marshal(struct {
			Error   string `json:"error"`
			StateID string `json:"state_id"`
		}{r.Error, r.StateID})
	}
	return mergeField(r.Analysis, "state_id", r.StateID)
}

// AnswerResponse AnswerQuestion 的返回值，失败时只有 error 字段
type AnswerResponse struct {
	Result *AnswerResult
	Error  string
}

// MarshalJSON implements json.Marshaler
func (r AnswerResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" || r.Result == nil {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	return json.Marshal(r.Result)
}

func mergeField(v any, key string, value any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("merge %s: %w", key, err)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	obj[key] = encoded
	return json.Marshal(obj)
}
