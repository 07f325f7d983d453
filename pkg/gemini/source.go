package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const dataURLPrefix = "data:"

// ErrUnsupportedURI は InlineImageSource が data URL 以外を受け取った場合に返されます。
var ErrUnsupportedURI = errors.New("data URL 以外の参照先には対応していません")

// InlineImageSource は data URL に埋め込まれた画像を返す ContentReader / Downloader です。
// 立ち絵やパネル画像はメモリ上の base64 で受け渡すため、画像生成キットの参照画像は
// すべて data URL で指定し、ここでデコードします。
type InlineImageSource struct{}

// Open は data URL をデコードした内容を返します。
func (InlineImageSource) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := decodeDataURL(uri)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// GetStream は Open と同じです。
func (s InlineImageSource) GetStream(ctx context.Context, url string) (io.ReadCloser, error) {
	return s.Open(ctx, url)
}

// FetchStream はデコードした内容を fn に渡します。
func (s InlineImageSource) FetchStream(ctx context.Context, url string, fn func(io.Reader) error) error {
	rc, err := s.Open(ctx, url)
	if err != nil {
		return err
	}
	defer rc.Close()
	return fn(rc)
}

// ToDataURL は base64 の画像を data URL に変換します。既に data URL の場合はそのまま返します。
func ToDataURL(imageBase64 string) (string, error) {
	if strings.HasPrefix(imageBase64, dataURLPrefix) {
		return imageBase64, nil
	}
	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("画像データが空です")
	}
	return dataURLPrefix + http.DetectContentType(data) + ";base64," + imageBase64, nil
}

func decodeDataURL(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, dataURLPrefix) {
		return nil, fmt.Errorf("%w: %.32s", ErrUnsupportedURI, uri)
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, dataURLPrefix), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: base64 形式ではありません", ErrUnsupportedURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL のデコードに失敗しました: %w", err)
	}
	return data, nil
}
