package prompts

import (
	_ "embed"

	"github.com/shouni/go-story-manga/pkg/domain"
)

// 抽出モード。テンプレート名とキャッシュキーに使います。
const (
	ModeCharacters = "characters"
	ModePanels     = "panels"
)

// TemplateData は抽出プロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	InputText  string
	Characters []domain.Character
}

var (
	//go:embed characters.md
	CharactersPrompt string
	//go:embed panels.md
	PanelsPrompt string
)
