package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/go-story-manga/pkg/domain"
	"github.com/shouni/go-story-manga/pkg/progress"
)

// extractionStartedPercent は抽出工程の呼び出し開始時に報告する進捗率です。
const extractionStartedPercent = 30

// Result は RunFullPipeline の結果です。
// 途中の工程で失敗した場合も、それまでに得られたデータを保持します。
type Result struct {
	Characters          domain.Characters
	Panels              domain.Panels
	ProcessedPanelCount int // 処理済みの先頭ウィンドウの大きさ (Batch Cursor)
	State               progress.State
}

// Orchestrator は物語からマンガパネルを生成する全工程を統括します。
// 進捗状態とバッチカーソルは Orchestrator が所有し、キャラクターとパネルの集合は
// 呼び出し元が所有します (返される集合は常に新しいスライスです)。
type Orchestrator struct {
	services    Services
	tracker     *progress.Tracker
	refPolicy   ReferencePolicy
	concurrency int

	running  atomic.Bool
	batching atomic.Bool

	mu     sync.Mutex
	cursor int
}

// New は Orchestrator を生成します。
func New(services Services, opts ...Option) (*Orchestrator, error) {
	if services.Extractor == nil || services.Images == nil || services.Dialogue == nil {
		return nil, errors.New("pipeline: Extractor, Images, Dialogue はすべて必須です")
	}

	o := &Orchestrator{
		services:  services,
		tracker:   progress.NewTracker(progress.DefaultWeights),
		refPolicy: ReferenceAll,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Tracker は進捗の購読などに使う Tracker を返します。
func (o *Orchestrator) Tracker() *progress.Tracker {
	return o.tracker
}

// State は現在の進捗状態のコピーを返します。
func (o *Orchestrator) State() progress.State {
	return o.tracker.Snapshot()
}

// OverallProgress は重み付き全体進捗率を返します。
func (o *Orchestrator) OverallProgress() int {
	return o.tracker.Overall()
}

// Cursor は処理済みパネル数 (次のバッチの開始位置) を返します。
func (o *Orchestrator) Cursor() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor
}

func (o *Orchestrator) setCursor(c int) {
	o.mu.Lock()
	o.cursor = c
	o.mu.Unlock()
}

// advanceCursor はカーソルを c まで進めます。後ろへは戻しません。
func (o *Orchestrator) advanceCursor(c int) {
	o.mu.Lock()
	o.cursor = max(o.cursor, c)
	o.mu.Unlock()
}

// RunFullPipeline は物語テキストから キャラクター抽出、立ち絵生成、パネル抽出、
// 先頭 batchSize 枚のパネル生成、セリフ合成 までを順に実行します。
// 抽出工程の失敗のみが致命的で、個々の画像生成・セリフ合成の失敗はログに残して処理を続けます。
func (o *Orchestrator) RunFullPipeline(ctx context.Context, story string, batchSize int) (*Result, error) {
	if strings.TrimSpace(story) == "" {
		return nil, ErrEmptyStory
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	logger := slog.With("run_id", uuid.NewString())
	startTime := time.Now()
	logger.InfoContext(ctx, "Pipeline started", "story_length", len(story), "batch_size", batchSize)

	o.tracker.Reset()
	o.setCursor(0)
	result := &Result{}

	// 1. キャラクター抽出
	o.tracker.Enter(progress.StageExtractingCharacters)
	o.tracker.Set(progress.StageExtractingCharacters, extractionStartedPercent)
	extracted, err := o.services.Extractor.ExtractCharacters(ctx, story)
	if err != nil {
		return o.abort(ctx, logger, result, progress.StageExtractingCharacters, err)
	}
	chars := domain.Characters(domain.NormalizeCharacters(extracted))
	result.Characters = chars.Clone()
	o.tracker.Set(progress.StageExtractingCharacters, 100)
	logger.InfoContext(ctx, "Characters extracted", "count", len(chars))

	// 2. 立ち絵生成
	o.tracker.Enter(progress.StageGeneratingCharacters)
	chars = o.generateCharacters(ctx, logger, chars)
	result.Characters = chars.Clone()

	// 3. パネル抽出
	o.tracker.Enter(progress.StageExtractingPanels)
	o.tracker.Set(progress.StageExtractingPanels, extractionStartedPercent)
	extractedPanels, err := o.services.Extractor.ExtractPanels(ctx, story, chars.Clone())
	if err != nil {
		return o.abort(ctx, logger, result, progress.StageExtractingPanels, err)
	}
	panels := domain.Panels(extractedPanels).Clone()
	result.Panels = panels.Clone()
	o.tracker.Set(progress.StageExtractingPanels, 100)
	logger.InfoContext(ctx, "Panels extracted", "count", len(panels))
	if unknown := panels.UnknownCharacterNames(chars); len(unknown) > 0 {
		logger.DebugContext(ctx, "Panels reference characters that were not extracted", "names", unknown)
	}

	// 4. 先頭ウィンドウのパネル生成
	end := min(batchSize, len(panels))
	o.tracker.Enter(progress.StageGeneratingPanels)
	panels, failed := o.synthesizeAndCompositeWindow(ctx, logger, panels, 0, end, chars, modeSynthesize, o.stageCounter(progress.StageGeneratingPanels, end))
	o.setCursor(end)
	result.Panels = panels.Clone()
	result.ProcessedPanelCount = end
	if len(failed) > 0 {
		logger.WarnContext(ctx, "Some panels were left without images", "failed_indexes", failed)
	}

	// 5. セリフ合成
	o.tracker.Enter(progress.StageAddingDialogue)
	panels, _ = o.synthesizeAndCompositeWindow(ctx, logger, panels, 0, end, chars, modeComposite, o.stageCounter(progress.StageAddingDialogue, end))
	result.Panels = panels

	// 6. 完了
	o.tracker.Complete()
	result.State = o.tracker.Snapshot()
	logger.InfoContext(ctx, "Pipeline completed",
		"characters", len(result.Characters),
		"characters_with_image", result.Characters.ImagedCount(),
		"panels", len(result.Panels),
		"processed", result.ProcessedPanelCount,
		"duration", time.Since(startTime).Round(time.Millisecond),
	)

	return result, nil
}

// generateCharacters は全キャラクターの立ち絵を並行して生成します。失敗したキャラクターは画像なしで残ります。
func (o *Orchestrator) generateCharacters(ctx context.Context, logger *slog.Logger, chars domain.Characters) domain.Characters {
	settle := o.stageCounter(progress.StageGeneratingCharacters, len(chars))
	results, errs := fanOut(ctx, o.concurrency, chars, func(ctx context.Context, _ int, c domain.Character) (domain.Character, error) {
		img, err := o.services.Images.SynthesizeCharacter(ctx, c)
		if err != nil {
			return c, err
		}
		return c.WithImage(img), nil
	}, settle)

	for i, err := range errs {
		if err != nil {
			logger.WarnContext(ctx, "Character image generation failed", "index", i, "name", chars[i].Name, "error", err)
		}
	}
	return results
}

// stageCounter は工程内のタスク完了ごとに進捗を進める関数を返します。
// 対象が0件の工程は即座に 100% とします。
func (o *Orchestrator) stageCounter(stage progress.Stage, total int) func() {
	if total == 0 {
		o.tracker.Set(stage, 100)
		return nil
	}
	return o.tracker.NewCounter(stage, total).Settle
}

// abort は致命的な失敗を状態に記録し、その時点までの結果とともに StageError を返します。
func (o *Orchestrator) abort(ctx context.Context, logger *slog.Logger, result *Result, stage progress.Stage, cause error) (*Result, error) {
	stageErr := &StageError{Stage: stage, Err: cause}
	o.tracker.Fail(stageErr)
	result.State = o.tracker.Snapshot()
	result.ProcessedPanelCount = o.Cursor()
	logger.ErrorContext(ctx, "Pipeline aborted", "stage", stage, "error", cause)
	return result, stageErr
}
