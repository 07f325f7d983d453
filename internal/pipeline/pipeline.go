package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-story-manga/internal/config"
	"github.com/shouni/go-story-manga/pkg/domain"
	core "github.com/shouni/go-story-manga/pkg/pipeline"
	"github.com/shouni/go-story-manga/pkg/progress"
	"github.com/shouni/go-story-manga/pkg/publisher"
	"github.com/shouni/go-story-manga/pkg/workflow"
)

// GenerateOptions は generate コマンドから渡される実行時の設定なのだ。
type GenerateOptions struct {
	Title      string
	Batches    int               // 初回実行の後に追加で処理するバッチ数
	All        bool              // true なら残りのパネルをすべて処理する
	OnProgress progress.Listener // 進捗の通知先 (nil 可)
}

// Summary は generate コマンドの実行結果なのだ。
type Summary struct {
	Manga     domain.MangaResponse
	Processed int   // 画像生成を試みた先頭パネルの数
	Failed    []int // 追加バッチで画像が得られなかったパネル
	Published publisher.PublishResult
}

func newManager(ctx context.Context, cfg *config.Config) (*workflow.Manager, error) {
	return workflow.New(ctx, workflow.ManagerArgs{Config: cfg})
}

// Execute は、全体実行、追加バッチ、公開処理を順に実行するのだ。
// 全体実行が途中で失敗した場合でも、部分的な結果を公開できていれば Summary を返すのだ。
func Execute(ctx context.Context, cfg *config.Config, story string, opts GenerateOptions) (*Summary, error) {
	manager, err := newManager(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tracker := progress.NewTracker(progress.DefaultWeights)
	if opts.OnProgress != nil {
		tracker.Subscribe(opts.OnProgress)
	}
	session, _, err := manager.BuildSession(tracker)
	if err != nil {
		return nil, err
	}

	slog.Info("Phase 1: 全体実行を開始するのだ...", "batch_size", cfg.BatchSize, "output_dir", cfg.OutputDir)
	publish := func(ctx context.Context, manga domain.MangaResponse) (publisher.PublishResult, error) {
		return manager.Publisher().Publish(ctx, manga, publisher.Options{OutputDir: cfg.OutputDir})
	}
	return generate(ctx, session, publish, story, opts)
}

// publishFunc は成果物を書き出す関数なのだ。
type publishFunc func(ctx context.Context, manga domain.MangaResponse) (publisher.PublishResult, error)

// generate は Session を進めて結果を公開するのだ。
// 全体実行が途中で失敗しても、それまでに得られたキャラクターやパネルがあれば公開し、
// Summary とエラーの両方を返すのだ。
func generate(ctx context.Context, session *core.Session, publish publishFunc, story string, opts GenerateOptions) (*Summary, error) {
	// --- Phase 1: 全体実行 ---
	if _, err := session.Run(ctx, story); err != nil {
		runErr := fmt.Errorf("パイプラインの実行に失敗したのだ: %w", err)
		summary := snapshotSummary(session, opts.Title)
		if len(summary.Manga.Characters) == 0 && len(summary.Manga.Panels) == 0 {
			return nil, runErr
		}

		slog.Warn("途中までの結果を公開するのだ", "characters", len(summary.Manga.Characters), "panels", len(summary.Manga.Panels), "error", err)
		published, pubErr := publish(ctx, summary.Manga)
		if pubErr != nil {
			return nil, errors.Join(runErr, fmt.Errorf("公開処理に失敗したのだ: %w", pubErr))
		}
		summary.Published = published
		return summary, runErr
	}

	// --- Phase 2: 追加バッチ ---
	if maxBatches, ok := batchLimit(opts); ok && session.HasMore() {
		slog.Info("Phase 2: 追加バッチを処理するのだ...", "max_batches", maxBatches)
		n, err := session.LoadAll(ctx, maxBatches)
		if err != nil && !errors.Is(err, core.ErrNoMorePanels) {
			return nil, fmt.Errorf("追加バッチの処理に失敗したのだ (%d バッチ完了): %w", n, err)
		}
	}

	summary := snapshotSummary(session, opts.Title)

	// --- Phase 3: 公開処理 ---
	slog.Info("Phase 3: 公開処理を開始するのだ...")
	published, err := publish(ctx, summary.Manga)
	if err != nil {
		return nil, fmt.Errorf("公開処理に失敗したのだ: %w", err)
	}
	summary.Published = published
	return summary, nil
}

func snapshotSummary(session *core.Session, title string) *Summary {
	chars, panels, cursor := session.Snapshot()
	return &Summary{
		Manga: domain.MangaResponse{
			Title:      title,
			Characters: chars,
			Panels:     panels,
		},
		Processed: cursor,
		Failed:    session.Failed(),
	}
}

// ExecuteScriptOnly は、キャラクターとパネルの抽出だけを行い manga.json を書き出すのだ。
func ExecuteScriptOnly(ctx context.Context, cfg *config.Config, story, title string) (string, error) {
	manager, err := newManager(ctx, cfg)
	if err != nil {
		return "", err
	}

	manga, err := extractScript(ctx, manager.Extractor(), story, title)
	if err != nil {
		return "", err
	}

	return manager.Publisher().PublishScript(ctx, manga, publisher.Options{OutputDir: cfg.OutputDir})
}

// extractScript は、画像を生成せずにキャラクターとパネルを抽出するのだ。
func extractScript(ctx context.Context, extractor core.Extractor, story, title string) (domain.MangaResponse, error) {
	if strings.TrimSpace(story) == "" {
		return domain.MangaResponse{}, core.ErrEmptyStory
	}
	manga := domain.MangaResponse{Title: title}

	extracted, err := extractor.ExtractCharacters(ctx, story)
	if err != nil {
		return manga, &core.StageError{Stage: progress.StageExtractingCharacters, Err: err}
	}
	manga.Characters = domain.NormalizeCharacters(extracted)

	panels, err := extractor.ExtractPanels(ctx, story, manga.Characters)
	if err != nil {
		return manga, &core.StageError{Stage: progress.StageExtractingPanels, Err: err}
	}
	manga.Panels = panels

	slog.InfoContext(ctx, "Script extracted", "characters", len(manga.Characters), "panels", len(manga.Panels))
	return manga, nil
}

// batchLimit は LoadAll に渡す上限を返すのだ。追加バッチを行わない場合は false なのだ。
func batchLimit(opts GenerateOptions) (int, bool) {
	if opts.All {
		return 0, true
	}
	if opts.Batches > 0 {
		return opts.Batches, true
	}
	return 0, false
}
