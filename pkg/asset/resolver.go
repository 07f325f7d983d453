package asset

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir は生成された画像を格納するデフォルトのディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultMangaJSONName は抽出結果を保存する JSON ファイル名です。
	DefaultMangaJSONName = "manga.json"
	// DefaultMangaPlotName は生成された漫画プロットのデフォルト Markdown ファイル名です。
	DefaultMangaPlotName = "manga_plot.md"
	// DefaultPanelFileName はパネル画像の共通のベースファイル名です。
	DefaultPanelFileName = "panel.png"
	// DefaultCharacterFileName はキャラクター立ち絵の共通のベースファイル名です。
	DefaultCharacterFileName = "character.png"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入し、
// 新しいパス文字列を生成します。index は1以上の整数である必要があります。
// 例: "path/to/image.png", 1 -> "path/to/image_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// IndexedImagePath は baseDir 配下に、連番と画像形式に応じた拡張子を持つパスを返します。
// 例: ("out/images", "panel.png", 2, jpegData) -> "out/images/panel_2.jpg"
func IndexedImagePath(baseDir, baseName string, index int, data []byte) (string, error) {
	p, err := ResolveOutputPath(baseDir, baseName)
	if err != nil {
		return "", err
	}
	p, err = GenerateIndexedPath(p, index)
	if err != nil {
		return "", err
	}
	ext := PreferredExtension(http.DetectContentType(data))
	return strings.TrimSuffix(p, path.Ext(p)) + ext, nil
}

// PreferredExtension は MIME タイプに対応する拡張子を返します。判別できない場合は ".png" です。
func PreferredExtension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ".png"
	}
	return exts[0]
}
