package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-story-manga/pkg/domain"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// charactersPayload は {"characters": [...]} と {"response": {"characters": [...]}} の両方を受け付けます。
type charactersPayload struct {
	Response   *charactersPayload `json:"response"`
	Characters []domain.Character `json:"characters"`
}

type panelsPayload struct {
	Response *panelsPayload `json:"response"`
	Panels   []domain.Panel `json:"panels"`
}

// extractJSON は AI の応答からJSON部分を取り出します。
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}

	// コードブロックがない場合は最も外側のオブジェクトを探す
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		return raw[first : last+1]
	}
	return raw
}

func parseCharacters(raw string) ([]domain.Character, error) {
	var payload charactersPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("キャラクター抽出の応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	chars := payload.Characters
	if payload.Response != nil {
		chars = payload.Response.Characters
	}
	if chars == nil {
		return nil, fmt.Errorf("キャラクター抽出の応答に characters がありません (応答抜粋: %q)", truncateString(raw, 200))
	}
	return domain.NormalizeCharacters(chars), nil
}

func parsePanels(raw string) ([]domain.Panel, error) {
	var payload panelsPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("パネル抽出の応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	panels := payload.Panels
	if payload.Response != nil {
		panels = payload.Response.Panels
	}
	if panels == nil {
		return nil, fmt.Errorf("パネル抽出の応答に panels がありません (応答抜粋: %q)", truncateString(raw, 200))
	}
	return panels, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
