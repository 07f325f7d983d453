package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-story-manga/pkg/domain"
)

const (
	// NegativePanelPrompt 生成直後のパネルからは文字やフキダシを排除します。セリフは後段で合成します。
	NegativePanelPrompt = "speech bubble, dialogue balloon, text, letters, words, signatures, watermark, username, low quality, distorted, bad anatomy"

	// RenderingStyle は共通の画風を定義します。
	RenderingStyle = `### GLOBAL VISUAL STYLE ###
- RENDERING: Black and white manga illustration, clean lines, screentone shading, proper manga-style composition.`

	portraitSystemInstruction = "You are a professional manga character designer."
	panelSystemInstruction    = "You are a professional manga artist drawing one panel of a longer story."
	letteringInstruction      = "You are a professional manga letterer."
)

// ImagePromptBuilder は、画風を考慮して画像生成用のプロンプトを構築します。
type ImagePromptBuilder struct {
	styleSuffix string
}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder(styleSuffix string) *ImagePromptBuilder {
	return &ImagePromptBuilder{styleSuffix: strings.TrimSpace(styleSuffix)}
}

// BuildPortrait は、キャラクターの立ち絵用の UserPrompt と SystemPrompt を生成します。
func (pb *ImagePromptBuilder) BuildPortrait(c domain.Character) (userPrompt string, systemPrompt string) {
	userPrompt = fmt.Sprintf(
		"Generate a manga-style line-art full body of a character with the following appearance: %s.\n"+
			"The character's name is %s. Draw it on a white background in a Japanese black and white manga art style.",
		c.Appearance, c.Name,
	)
	return userPrompt, pb.system(portraitSystemInstruction)
}

// BuildPanel は、シーン説明文と登場キャラクターの説明から単体パネル用のプロンプトを生成します。
// 立ち絵を持たないキャラクターも、テキストとしてはプロンプトに含めます。
func (pb *ImagePromptBuilder) BuildPanel(description string, chars []domain.Character) (userPrompt string, systemPrompt string) {
	var sb strings.Builder
	sb.WriteString("Generate a manga panel illustration for the following scene:\n\n")
	sb.WriteString(description)
	sb.WriteString("\n\nCharacters involved:\n")
	for _, c := range chars {
		sb.WriteString(fmt.Sprintf("%s: %s\n", c.Name, c.Appearance))
	}
	sb.WriteString("\nInclude appropriate backgrounds, character positioning, and any action described in the scene.\n")
	sb.WriteString("Make sure to maintain character appearance consistency with the reference images provided.")

	return sb.String(), pb.system(panelSystemInstruction)
}

// BuildReferenceNotes は添付した参照画像とキャラクターの対応を、添付順に説明する文を返します。
// names が空の場合は空文字です。
func (pb *ImagePromptBuilder) BuildReferenceNotes(names []string) string {
	if len(names) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Reference images are attached in the following order:\n")
	for i, name := range names {
		sb.WriteString(fmt.Sprintf("%d. This is %s. Use this exact character design and style for this character in the panel.\n", i+1, name))
	}
	sb.WriteString("Now generate the manga panel based on the scene description and character references provided.")
	return sb.String()
}

// BuildStripText は、既存の文字やフキダシを消すための指示を返します。
func (pb *ImagePromptBuilder) BuildStripText() string {
	return "Remove every speech bubble, caption, sound effect lettering and any other text from this manga panel. " +
		"Keep the artwork, composition, characters and line style exactly the same and fill the cleared areas naturally."
}

// BuildAddDialogue は、セリフ入りのフキダシを追加するための指示を返します。
func (pb *ImagePromptBuilder) BuildAddDialogue(dialogue string, panel domain.Panel) (userPrompt string, systemPrompt string) {
	var sb strings.Builder
	sb.WriteString("Add manga speech bubbles to this panel containing exactly the following dialogue:\n")
	sb.WriteString(dialogue)
	sb.WriteString("\n")
	if len(panel.Characters) > 0 {
		sb.WriteString(fmt.Sprintf("Characters in the panel: %s\n", strings.Join(panel.Characters, ", ")))
	}
	if panel.Expression != "" {
		sb.WriteString(fmt.Sprintf("Scene: %s\n", panel.Expression))
	}
	sb.WriteString("Point each bubble's tail at its speaker, do not cover faces, and use clean, legible lettering. Do not change the artwork.")
	return sb.String(), pb.system(letteringInstruction)
}

func (pb *ImagePromptBuilder) system(instruction string) string {
	parts := []string{instruction, RenderingStyle}
	if pb.styleSuffix != "" {
		parts = append(parts, fmt.Sprintf("### ARTISTIC STYLE ###\n%s", pb.styleSuffix))
	}
	return strings.Join(parts, "\n\n")
}
