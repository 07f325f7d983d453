package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shouni/go-story-manga/pkg/asset"
)

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// LocalWriter はローカルファイルシステムに書き込む OutputWriter です。親ディレクトリは自動で作成されます。
type LocalWriter struct{}

func (LocalWriter) Write(ctx context.Context, path string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// AssetManager は画像の保存パスと永続化を管理します。
type AssetManager struct {
	writer   OutputWriter
	imageDir string // 画像の保存先 (例: "output/images")
}

func NewAssetManager(writer OutputWriter, imageDir string) *AssetManager {
	return &AssetManager{
		writer:   writer,
		imageDir: imageDir,
	}
}

// SaveBase64Image は base64 の画像をデコードして連番付きのファイル名で保存し、保存先のパスを返します。
func (am *AssetManager) SaveBase64Image(ctx context.Context, baseName string, index int, imageBase64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("asset_manager: 画像のデコードに失敗しました: %w", err)
	}

	fullPath, err := asset.IndexedImagePath(am.imageDir, baseName, index, data)
	if err != nil {
		return "", fmt.Errorf("asset_manager: 出力パスの解決に失敗しました: %w", err)
	}
	if err := am.writer.Write(ctx, fullPath, bytes.NewReader(data), http.DetectContentType(data)); err != nil {
		return "", fmt.Errorf("asset_manager: 画像の保存に失敗しました %s: %w", fullPath, err)
	}
	return fullPath, nil
}
