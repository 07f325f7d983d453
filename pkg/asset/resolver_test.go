package asset

import (
	"path/filepath"
	"testing"
)

func TestPreferredExtension(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"application/octet-stream", ".png"},
		{"", ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := PreferredExtension(tt.mime); got != tt.want {
				t.Errorf("PreferredExtension(%q) = %q, 期待値 %q", tt.mime, got, tt.want)
			}
		})
	}
}

func TestIndexedImagePath(t *testing.T) {
	dir := filepath.Join("out", "images")
	png := []byte("\x89PNG\r\n\x1a\n0000")
	jpeg := []byte("\xff\xd8\xff\xe0" + "0000")

	t.Run("PNG は拡張子を維持", func(t *testing.T) {
		got, err := IndexedImagePath(dir, DefaultPanelFileName, 1, png)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if want := filepath.Join(dir, "panel_1.png"); got != want {
			t.Errorf("期待値 %s, 実際の値 %s", want, got)
		}
	})

	t.Run("JPEG は拡張子を差し替える", func(t *testing.T) {
		got, err := IndexedImagePath(dir, DefaultCharacterFileName, 2, jpeg)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if want := filepath.Join(dir, "character_2.jpg"); got != want {
			t.Errorf("期待値 %s, 実際の値 %s", want, got)
		}
	})
}

func TestResolveOutputPath(t *testing.T) {
	t.Run("ローカルはパスとして結合", func(t *testing.T) {
		got, err := ResolveOutputPath("out", DefaultMangaJSONName)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if want := filepath.Join("out", "manga.json"); got != want {
			t.Errorf("期待値 %s, 実際の値 %s", want, got)
		}
	})

	t.Run("リモートは URL として結合", func(t *testing.T) {
		got, err := ResolveOutputPath("gs://bucket/manga", DefaultMangaPlotName)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got != "gs://bucket/manga/manga_plot.md" {
			t.Errorf("実際の値 %s", got)
		}
	})

	t.Run("連番は1以上", func(t *testing.T) {
		if _, err := IndexedImagePath("out", DefaultPanelFileName, 0, nil); err == nil {
			t.Error("エラーが返るはずです")
		}
	})
}
