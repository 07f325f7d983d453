package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-story-manga/internal/pipeline"
	"github.com/shouni/go-story-manga/pkg/domain"
	"github.com/shouni/go-story-manga/pkg/progress"
	"github.com/shouni/go-story-manga/pkg/publisher"
)

func TestReadStory(t *testing.T) {
	saved := opts
	t.Cleanup(func() { opts = saved })

	dir := t.TempDir()
	path := filepath.Join(dir, "story.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		file    string
		args    []string
		stdin   string
		piped   bool
		want    string
		wantErr bool
	}{
		{name: "ファイル指定", file: path, args: []string{"ignored"}, want: "from file"},
		{name: "ハイフンは標準入力", file: "-", stdin: "from stdin", want: "from stdin"},
		{name: "引数を連結", args: []string{"once", "upon"}, want: "once upon"},
		{name: "パイプされた標準入力", stdin: "piped", piped: true, want: "piped"},
		{name: "入力なし", wantErr: true},
		{name: "存在しないファイル", file: filepath.Join(dir, "missing.txt"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts.StoryFile = tt.file
			got, err := readStory(tt.args, strings.NewReader(tt.stdin), tt.piped)
			if (err != nil) != tt.wantErr {
				t.Fatalf("エラー: %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("readStory() = %q, 期待値 %q", got, tt.want)
			}
		})
	}
}

func TestResolveTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		story string
		want  string
	}{
		{"指定されたタイトル", " My Manga ", "story", "My Manga"},
		{"最初の空でない行", "", "\n\n# The Park\nAlice walks.", "The Park"},
		{"空の物語", "", "  ", "Untitled"},
		{"長い行は切り詰める", "", strings.Repeat("あ", 50), strings.Repeat("あ", maxTitleRunes) + "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveTitle(tt.title, tt.story); got != tt.want {
				t.Errorf("resolveTitle() = %q, 期待値 %q", got, tt.want)
			}
		})
	}
}

func TestProgressRenderer_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressRenderer(&buf)

	s := progress.NewState()
	s.Stage = progress.StageGeneratingPanels
	s.PerStage[progress.StageGeneratingPanels] = 50
	r.Listen(s)
	r.Listen(s)

	s.Stage = progress.StageCompleted
	r.Listen(s)
	r.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("工程が変わったときだけ出力されるはずです: %q", buf.String())
	}
	if !strings.Contains(lines[0], "Generate Panels") || !strings.Contains(lines[1], "100%") {
		t.Errorf("出力が違います: %q", lines)
	}
	if strings.Contains(buf.String(), "\r") {
		t.Error("端末でない出力に制御文字が含まれています")
	}
}

func TestFormatProgress(t *testing.T) {
	s := progress.NewState()
	s.Stage = progress.StageExtractingCharacters
	s.Err = "quota exceeded"

	got := formatProgress(s)
	if !strings.HasPrefix(got, "["+strings.Repeat("-", progressBarWidth)+"]") {
		t.Errorf("進捗 0%% のバーが違います: %q", got)
	}
	if !strings.Contains(got, "quota exceeded") {
		t.Errorf("失敗理由が含まれていません: %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	summary := &pipeline.Summary{
		Manga: domain.MangaResponse{
			Title:      "Alice in the Park",
			Characters: []domain.Character{{Name: "Alice", ImageBase64: "x"}},
			Panels: []domain.Panel{
				{Setting: "park", Characters: []string{"Alice"}, Dialogue: "Hello!", ImageBase64: "x"},
				{Setting: "bench"},
				{Setting: "fountain"},
			},
		},
		Processed: 2,
		Failed:    []int{1},
		Published: publisher.PublishResult{PanelImagePaths: []string{"out/images/panel_1.png", "", ""}},
	}

	// フッターは大文字で描画される
	got := strings.ToLower(renderSummary(summary))
	for _, want := range []string{"alice in the park", "out/images/panel_1.png", "failed", "processed 2/3", "characters 1/1"} {
		if !strings.Contains(got, want) {
			t.Errorf("表に %q が含まれていません:\n%s", want, got)
		}
	}
}
