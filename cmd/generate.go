package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-story-manga/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	loadBatches int
	loadAll     bool
)

// generateCmd は、物語からキャラクター、パネル、画像までを一括で生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate [story...]",
	Short: "物語から漫画のパネル画像を生成するのだ。",
	Long: `物語のテキストからキャラクターとパネルを抽出し、立ち絵、パネル画像、セリフを生成するのだ。
最初の --batch-size 枚だけを処理し、--batches や --all で続きのパネルも処理できるのだよ。
出力は画像ファイル、manga.json、manga_plot.md になるのだ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().IntVar(&loadBatches, "batches", 0, "初回の後に追加で処理するバッチ数なのだ。")
	generateCmd.Flags().BoolVar(&loadAll, "all", false, "残りのパネルをすべて処理するのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 物語の読み込み
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

	slog.Info("漫画生成パイプラインを起動するのだ！",
		"title", title,
		"text_model", cfg.GeminiModel,
		"image_model", cfg.ImageModel,
		"batch_size", cfg.BatchSize,
		"output", cfg.OutputDir)

	// 3. 実行
	renderer := newProgressRenderer(os.Stderr)
	summary, err := pipeline.Execute(ctx, cfg, story, pipeline.GenerateOptions{
		Title:      title,
		Batches:    loadBatches,
		All:        loadAll,
		OnProgress: renderer.Listen,
	})
	renderer.Finish()
	if err != nil {
		if summary != nil {
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
			slog.Warn("途中までの結果を書き出したのだ", "output_dir", cfg.OutputDir)
		}
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	slog.Info("すべての生成工程が完了したのだ！", "output_dir", cfg.OutputDir)
	return nil
}
