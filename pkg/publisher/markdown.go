package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shouni/go-story-manga/pkg/domain"
)

const (
	placeholder          = "placeholder.png"
	evenPanelTail        = "top"
	evenPanelBottom      = "10%"
	evenPanelLeft        = "10%"
	oddPanelTail         = "bottom"
	oddPanelTop          = "10%"
	oddPanelRight        = "10%"
	defaultNarrationName = "narration"
)

// buildMarkdown はタイトル、パネル画像のパス、パネル情報を統合した Markdown を返します。
// imagePaths は panels と同じ長さで、画像のないパネルは空文字です。
func buildMarkdown(title string, panels []domain.Panel, imagePaths []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	h := sha256.New()

	for i, panel := range panels {
		img := placeholder
		if i < len(imagePaths) && imagePaths[i] != "" {
			img = imagePaths[i]
		}

		sb.WriteString(fmt.Sprintf("## Panel: %s\n", img))
		sb.WriteString("- layout: standard\n")
		if panel.Setting != "" {
			sb.WriteString(fmt.Sprintf("- setting: %s\n", oneLine(panel.Setting)))
		}
		if len(panel.Characters) > 0 {
			sb.WriteString(fmt.Sprintf("- characters: %s\n", strings.Join(panel.Characters, ", ")))
		}

		if panel.HasDialogue() {
			speaker := defaultNarrationName
			if len(panel.Characters) > 0 {
				speaker = panel.Characters[0]
			}

			// 日本語名などのマルチバイト文字を CSS 安全な ID に変換
			h.Reset()
			h.Write([]byte(speaker))
			speakerClass := "speaker-" + hex.EncodeToString(h.Sum(nil))[:10]

			sb.WriteString(fmt.Sprintf("- speaker: %s\n", speakerClass))
			sb.WriteString(fmt.Sprintf("- text: %s\n", oneLine(panel.Dialogue)))
			sb.WriteString(dialogueStyle(i))
		} else {
			sb.WriteString("- type: none\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// dialogueStyle はフキダシの配置を左右交互に返します。
func dialogueStyle(idx int) string {
	if idx%2 == 0 {
		return fmt.Sprintf("- tail: %s\n- bottom: %s\n- left: %s\n", evenPanelTail, evenPanelBottom, evenPanelLeft)
	}
	return fmt.Sprintf("- tail: %s\n- top: %s\n- right: %s\n", oddPanelTail, oddPanelTop, oddPanelRight)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
