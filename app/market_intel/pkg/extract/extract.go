// Package extract 从模型的自由文本输出中截取 JSON 对象。
//
// 规则很简单：取第一个 '{' 到最后一个 '}' 之间（含两端）的子串按 JSON 解析。
// 对象之后如果还有带花括号的说明文字，或者 JSON 被截断，解析都会失败，
// 此时调用方拿到的是保留了原始文本的 ParseFailure。
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

// ErrNoObject 文本中找不到成对的花括号
var ErrNoObject = errors.New("no json object in text")

// Object 返回 text 中第一个 '{' 到最后一个 '}' 的子串，要求是合法 JSON
func Object(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, ErrNoObject
	}

	raw := text[start : end+1]
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("invalid json between braces: %w", json.Unmarshal([]byte(raw), new(any)))
	}
	return json.RawMessage(raw), nil
}

// Parse 截取 text 中的 JSON 对象并原样保留，同时尽量解码成 T；
// 对象形状与 T 不符不算失败。找不到合法 JSON 时返回带原文的 Failure，
// err 仅用于日志说明失败原因。
func Parse[T any](text string) (*model.Parsed[T], error) {
	raw, err := Object(text)
	if err != nil {
		return model.Failed[T](text), err
	}
	parsed, err := model.FromRaw[T](raw)
	if err != nil {
		return model.Failed[T](text), fmt.Errorf("compact json: %w", err)
	}
	return parsed, nil
}
