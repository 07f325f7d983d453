package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-image-kit/ports"

	"github.com/shouni/go-story-manga/pkg/domain"
	"github.com/shouni/go-story-manga/pkg/prompts"
)

const (
	PortraitAspectRatio = "3:4"
	PanelAspectRatio    = "16:9"
)

// ErrNoImage は応答に画像が含まれていなかった場合に返されます。
var ErrNoImage = errors.New("応答に画像データが含まれていません")

// ImageService は画像生成キットを通して立ち絵・パネル画像の生成とセリフ合成を行います。
// 参照画像や入力画像は data URL として渡し、InlineImageSource がデコードします。
type ImageService struct {
	generator ports.ImageGenerator
	model     string
	prompts   *prompts.ImagePromptBuilder
}

// NewImageService は ImageService を生成します。
func NewImageService(generator ports.ImageGenerator, model string, pb *prompts.ImagePromptBuilder) *ImageService {
	return &ImageService{generator: generator, model: model, prompts: pb}
}

// SynthesizeCharacter はキャラクターの立ち絵を生成します。シード値は名前から決まります。
func (s *ImageService) SynthesizeCharacter(ctx context.Context, c domain.Character) (string, error) {
	userPrompt, systemPrompt := s.prompts.BuildPortrait(c)
	seed := int64(domain.GetSeedFromName(c.Name))

	resp, err := s.panel(ctx, ports.ImagePanelRequest{
		GenerationOptions: ports.GenerationOptions{
			Model:        s.model,
			Prompt:       userPrompt,
			SystemPrompt: systemPrompt,
			AspectRatio:  PortraitAspectRatio,
			Seed:         &seed,
		},
	})
	if err != nil {
		return "", fmt.Errorf("character %s generation failed: %w", c.Name, err)
	}
	return base64.StdEncoding.EncodeToString(resp.Data), nil
}

// SynthesizePanel はシーン説明文からパネル画像を生成します。
// 画像を持つキャラクターは参照画像として添付され、添付順の説明がプロンプトに加わります。
func (s *ImageService) SynthesizePanel(ctx context.Context, description string, refs []domain.Character) (string, error) {
	userPrompt, systemPrompt := s.prompts.BuildPanel(description, refs)

	var (
		images []ports.ImageURI
		names  []string
	)
	for _, c := range refs {
		if !c.HasImage() {
			continue
		}
		url, err := ToDataURL(c.ImageBase64)
		if err != nil {
			slog.WarnContext(ctx, "Skipping invalid reference image", "name", c.Name, "error", err)
			continue
		}
		images = append(images, ports.ImageURI{ReferenceURL: url})
		names = append(names, c.Name)
	}
	if notes := s.prompts.BuildReferenceNotes(names); notes != "" {
		userPrompt += "\n\n" + notes
	}

	opts := ports.GenerationOptions{
		Model:          s.model,
		Prompt:         userPrompt,
		SystemPrompt:   systemPrompt,
		NegativePrompt: prompts.NegativePanelPrompt,
		AspectRatio:    PanelAspectRatio,
	}

	startTime := time.Now()
	resp, err := s.generator.GenerateMangaPage(ctx, ports.ImagePageRequest{GenerationOptions: opts, Images: images})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Data) == 0 {
		return "", ErrNoImage
	}
	slog.DebugContext(ctx, "Panel image generated", "model", s.model, "references", len(images), "duration", time.Since(startTime).Round(time.Millisecond))
	return base64.StdEncoding.EncodeToString(resp.Data), nil
}

// CompositeDialogue は既存の文字を消去した上で、セリフのフキダシを描き加えます。
func (s *ImageService) CompositeDialogue(ctx context.Context, imageBase64, dialogue string, p domain.Panel) (string, error) {
	source, err := ToDataURL(imageBase64)
	if err != nil {
		return "", fmt.Errorf("パネル画像のデコードに失敗しました: %w", err)
	}

	// 1. 文字の除去
	cleaned, err := s.panel(ctx, ports.ImagePanelRequest{
		GenerationOptions: ports.GenerationOptions{Model: s.model, Prompt: s.prompts.BuildStripText()},
		Image:             ports.ImageURI{ReferenceURL: source},
	})
	if err != nil {
		return "", fmt.Errorf("文字の除去に失敗しました: %w", err)
	}

	// 2. フキダシの追加
	userPrompt, systemPrompt := s.prompts.BuildAddDialogue(dialogue, p)
	cleanedURL, err := ToDataURL(base64.StdEncoding.EncodeToString(cleaned.Data))
	if err != nil {
		return "", err
	}
	lettered, err := s.panel(ctx, ports.ImagePanelRequest{
		GenerationOptions: ports.GenerationOptions{Model: s.model, Prompt: userPrompt, SystemPrompt: systemPrompt},
		Image:             ports.ImageURI{ReferenceURL: cleanedURL},
	})
	if err != nil {
		return "", fmt.Errorf("フキダシの追加に失敗しました: %w", err)
	}
	return base64.StdEncoding.EncodeToString(lettered.Data), nil
}

// panel は単体画像の生成を行い、画像が空の応答を ErrNoImage にします。
func (s *ImageService) panel(ctx context.Context, req ports.ImagePanelRequest) (*ports.ImageResponse, error) {
	resp, err := s.generator.GenerateMangaPanel(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Data) == 0 {
		return nil, ErrNoImage
	}
	return resp, nil
}
