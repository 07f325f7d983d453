package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-story-manga/pkg/asset"
	"github.com/shouni/go-story-manga/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	JSONPath            string   // manga.json のパス
	MarkdownPath        string   // manga_plot.md のパス
	CharacterImagePaths []string // キャラクターと同じ並び。画像のないキャラクターは空文字
	PanelImagePaths     []string // パネルと同じ並び。画像のないパネルは空文字
}

// MangaPublisher は成果物の永続化とフォーマット変換を担います。
type MangaPublisher struct {
	writer OutputWriter
}

// NewMangaPublisher は MangaPublisher を生成します。writer が nil の場合は LocalWriter を使います。
func NewMangaPublisher(writer OutputWriter) *MangaPublisher {
	if writer == nil {
		writer = LocalWriter{}
	}
	return &MangaPublisher{writer: writer}
}

// Publish は画像の保存、manga.json と manga_plot.md の書き出しを一括して実行します。
func (p *MangaPublisher) Publish(ctx context.Context, manga domain.MangaResponse, opts Options) (PublishResult, error) {
	result := PublishResult{}

	imgDir, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultImageDir)
	if err != nil {
		return result, err
	}
	am := NewAssetManager(p.writer, imgDir)

	// 1. 画像の保存
	result.CharacterImagePaths = make([]string, len(manga.Characters))
	for i, c := range manga.Characters {
		if !c.HasImage() {
			continue
		}
		saved, err := am.SaveBase64Image(ctx, asset.DefaultCharacterFileName, i+1, c.ImageBase64)
		if err != nil {
			return result, fmt.Errorf("キャラクター %s の画像の書き込みに失敗しました: %w", c.Name, err)
		}
		result.CharacterImagePaths[i] = saved
	}

	result.PanelImagePaths = make([]string, len(manga.Panels))
	relativePaths := make([]string, len(manga.Panels))
	for i, panel := range manga.Panels {
		if !panel.HasImage() {
			continue
		}
		saved, err := am.SaveBase64Image(ctx, asset.DefaultPanelFileName, i+1, panel.ImageBase64)
		if err != nil {
			return result, fmt.Errorf("パネル %d の画像の書き込みに失敗しました: %w", i+1, err)
		}
		result.PanelImagePaths[i] = saved
		relativePaths[i] = path.Join(asset.DefaultImageDir, filepath.Base(saved))
	}

	// 2. JSON の書き出し
	jsonPath, err := p.writeJSON(ctx, manga, opts.OutputDir)
	if err != nil {
		return result, err
	}
	result.JSONPath = jsonPath

	// 3. Markdown の書き出し
	markdownPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultMangaPlotName)
	if err != nil {
		return result, err
	}
	content := buildMarkdown(manga.Title, manga.Panels, relativePaths)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = markdownPath

	slog.InfoContext(ctx, "Published manga",
		"output_dir", opts.OutputDir,
		"characters", len(manga.Characters),
		"panels", len(manga.Panels),
		"panel_images", domain.Panels(manga.Panels).ImagedCount(),
	)
	return result, nil
}

// PublishScript は画像を含まない抽出結果だけを manga.json に書き出します。
func (p *MangaPublisher) PublishScript(ctx context.Context, manga domain.MangaResponse, opts Options) (string, error) {
	return p.writeJSON(ctx, manga, opts.OutputDir)
}

// writeJSON は画像データを取り除いた manga.json を書き出します。画像はファイルとして別に保存されます。
func (p *MangaPublisher) writeJSON(ctx context.Context, manga domain.MangaResponse, outputDir string) (string, error) {
	stripped := domain.MangaResponse{
		Title:      manga.Title,
		Characters: domain.Characters(manga.Characters).Clone(),
		Panels:     domain.Panels(manga.Panels).Clone(),
	}
	for i := range stripped.Characters {
		stripped.Characters[i].ImageBase64 = ""
	}
	for i := range stripped.Panels {
		stripped.Panels[i].ImageBase64 = ""
	}

	data, err := json.MarshalIndent(stripped, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSONの生成に失敗しました: %w", err)
	}

	jsonPath, err := asset.ResolveOutputPath(outputDir, asset.DefaultMangaJSONName)
	if err != nil {
		return "", err
	}
	if err := p.writer.Write(ctx, jsonPath, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("JSONファイルの書き込みに失敗しました: %w", err)
	}
	return jsonPath, nil
}
