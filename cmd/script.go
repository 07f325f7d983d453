package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-story-manga/internal/pipeline"

	"github.com/spf13/cobra"
)

// scriptCmd は、台本の生成（JSON出力）のみを実行するのだ。
var scriptCmd = &cobra.Command{
	Use:   "script [story...]",
	Short: "台本（JSON）のみを生成して保存するのだ。",
	Long: `物語のテキストを解析し、キャラクターとパネルの構成を
JSON形式で出力するのだ。画像生成は行わないのだよ。`,
	RunE: scriptCommand,
}

func scriptCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 入力ソースの読み込み
	story, err := readStory(args, cmd.InOrStdin(), isStdin())
	if err != nil {
		return err
	}

	// 2. 設定のロード
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	title := resolveTitle(opts.Title, story)

	slog.Info("台本生成モードを起動するのだ！",
		"title", title,
		"text_model", cfg.GeminiModel,
		"output", cfg.OutputDir)

	// 3. 実行
	jsonPath, err := pipeline.ExecuteScriptOnly(ctx, cfg, story, title)
	if err != nil {
		return fmt.Errorf("台本生成中にエラーが発生したのだ: %w", err)
	}

	slog.Info("台本（JSON）の生成が完了したのだ！", "output_file", jsonPath)
	return nil
}
