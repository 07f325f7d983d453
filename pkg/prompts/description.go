package prompts

import (
	"strings"

	"github.com/shouni/go-story-manga/pkg/domain"
)

const (
	// NoDialogue はセリフが空のときに説明文へ入れる値です。
	NoDialogue = "None"
	// DefaultDrawingNotes は作画指示が空のときに説明文へ入れる値です。
	DefaultDrawingNotes = "Standard manga style"
)

// DescribePanel はパネルの各項目を連結したシーン説明文を返します。
// 副作用はなく、同じパネルからは常に同じ文字列が得られます。
func DescribePanel(p domain.Panel) string {
	dialogue := p.Dialogue
	if dialogue == "" {
		dialogue = NoDialogue
	}
	notes := p.DrawingNotes
	if notes == "" {
		notes = DefaultDrawingNotes
	}

	var sb strings.Builder
	sb.WriteString("Setting: " + p.Setting + "\n")
	sb.WriteString("Characters: " + strings.Join(p.Characters, ", ") + "\n")
	sb.WriteString("Action/Expression: " + p.Expression + "\n")
	sb.WriteString("Dialogue: " + dialogue + "\n")
	sb.WriteString("Style Notes: " + notes)
	return sb.String()
}
