package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-story-manga/pkg/domain"
)

// ScriptPrompt は、物語からの抽出に使う2種類のプロンプトを組み立てます。
type ScriptPrompt interface {
	// BuildCharacters はキャラクター抽出用のプロンプトを返します。
	BuildCharacters(story string) (string, error)
	// BuildPanels はパネル分割用のプロンプトを返します。chars の名前と外見が一覧として入ります。
	BuildPanels(story string, chars []domain.Character) (string, error)
}

// TextPromptBuilder は埋め込みテンプレートから抽出プロンプトを組み立てます。
type TextPromptBuilder struct {
	characters *template.Template
	panels     *template.Template
}

// NewTextPromptBuilder は2つの埋め込みテンプレートを解析して TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	characters, err := parseTemplate(ModeCharacters, CharactersPrompt)
	if err != nil {
		return nil, err
	}
	panels, err := parseTemplate(ModePanels, PanelsPrompt)
	if err != nil {
		return nil, err
	}
	return &TextPromptBuilder{characters: characters, panels: panels}, nil
}

func parseTemplate(mode, content string) (*template.Template, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
	}
	tmpl, err := template.New(mode).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
	}
	return tmpl, nil
}

// BuildCharacters はキャラクター抽出用のプロンプトを返します。
func (b *TextPromptBuilder) BuildCharacters(story string) (string, error) {
	return execute(b.characters, TemplateData{InputText: story})
}

// BuildPanels はパネル分割用のプロンプトを返します。
// 画像データはプロンプトに不要なので、名前と外見だけを渡します。
func (b *TextPromptBuilder) BuildPanels(story string, chars []domain.Character) (string, error) {
	roster := make([]domain.Character, 0, len(chars))
	for _, c := range chars {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		roster = append(roster, domain.Character{Name: c.Name, Appearance: c.Appearance})
	}
	return execute(b.panels, TemplateData{InputText: story, Characters: roster})
}

func execute(tmpl *template.Template, data TemplateData) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレート '%s' の実行に失敗しました: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
