package pipeline

import (
	"context"

	"github.com/shouni/go-story-manga/pkg/domain"
)

// Extractor は物語テキストから構造化データを取り出すサービスです。
type Extractor interface {
	ExtractCharacters(ctx context.Context, story string) ([]domain.Character, error)
	ExtractPanels(ctx context.Context, story string, chars []domain.Character) ([]domain.Panel, error)
}

// ImageSynthesizer は説明文から画像を合成するサービスです。戻り値は base64 エンコードされた画像です。
type ImageSynthesizer interface {
	SynthesizeCharacter(ctx context.Context, c domain.Character) (string, error)
	// SynthesizePanel の refs には参照候補となるキャラクターが渡されます。
	// 画像を持たないキャラクターはテキストとしてのみ扱われます。
	SynthesizePanel(ctx context.Context, description string, refs []domain.Character) (string, error)
}

// DialogueCompositor は生成済みのパネル画像にセリフのフキダシを合成します。
type DialogueCompositor interface {
	CompositeDialogue(ctx context.Context, imageBase64, dialogue string, p domain.Panel) (string, error)
}

// Services は Orchestrator が利用する外部サービスの束です。
type Services struct {
	Extractor Extractor
	Images    ImageSynthesizer
	Dialogue  DialogueCompositor
}
