package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-story-manga/pkg/domain"
	"github.com/shouni/go-story-manga/pkg/prompts"
)

// windowMode はウィンドウ内の各パネルに対して行う処理です。
type windowMode int

const (
	// modeSynthesize はパネル画像の生成のみを行います。
	modeSynthesize windowMode = iota
	// modeComposite は画像とセリフの両方を持つパネルにセリフを合成します。
	modeComposite
	// modeSynthesizeAndComposite は未生成のパネルを生成し、成功したものにセリフを合成します。
	modeSynthesizeAndComposite
)

func (m windowMode) synthesizes() bool {
	return m == modeSynthesize || m == modeSynthesizeAndComposite
}

// BatchResult は ProcessNextBatch の結果です。
type BatchResult struct {
	Panels domain.Panels
	Cursor int
	Failed []int // 画像生成に失敗したパネルの絶対インデックス
}

// ProcessNextBatch は cursor から batchSize 枚のパネルを生成し、セリフを合成します。
// 既に画像を持つパネルは再生成しません。失敗したパネルがあってもカーソルはウィンドウ末尾まで進みます。
// ウィンドウが空の場合は何も呼び出さず、入力と同じ内容とカーソルを返します。
func (o *Orchestrator) ProcessNextBatch(ctx context.Context, panels []domain.Panel, chars []domain.Character, cursor, batchSize int) (*BatchResult, error) {
	if cursor < 0 || cursor > len(panels) {
		return nil, fmt.Errorf("%w: cursor=%d, panels=%d", ErrCursorOutOfRange, cursor, len(panels))
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}

	end := min(cursor+batchSize, len(panels))
	if end == cursor {
		return &BatchResult{Panels: domain.Panels(panels).Clone(), Cursor: cursor}, nil
	}

	if !o.batching.CompareAndSwap(false, true) {
		return nil, ErrBatchInProgress
	}
	defer o.batching.Store(false)

	logger := slog.With("batch_start", cursor, "batch_end", end)
	startTime := time.Now()
	logger.InfoContext(ctx, "Batch started", "total_panels", len(panels))

	updated, failed := o.synthesizeAndCompositeWindow(ctx, logger, panels, cursor, end, chars, modeSynthesizeAndComposite, nil)
	o.advanceCursor(end)

	logger.InfoContext(ctx, "Batch completed",
		"failed", len(failed),
		"duration", time.Since(startTime).Round(time.Millisecond),
	)
	return &BatchResult{Panels: updated, Cursor: end, Failed: failed}, nil
}

// synthesizeAndCompositeWindow は panels[start:end] を並行処理し、結果を元の位置に差し込んだ新しい集合を返します。
// 2つ目の戻り値は画像生成に失敗したパネルの絶対インデックスです。
func (o *Orchestrator) synthesizeAndCompositeWindow(
	ctx context.Context,
	logger *slog.Logger,
	panels domain.Panels,
	start, end int,
	chars []domain.Character,
	mode windowMode,
	settled func(),
) (domain.Panels, []int) {
	out := panels.Clone()
	refs := o.refPolicy.references(chars)

	window := out[start:end]
	results, errs := fanOut(ctx, o.concurrency, window, func(ctx context.Context, i int, p domain.Panel) (domain.Panel, error) {
		return o.processPanel(ctx, logger.With("panel_index", start+i), p, refs, mode)
	}, settled)

	var failed []int
	for i, err := range errs {
		idx := start + i
		if err != nil {
			logger.WarnContext(ctx, "Panel processing failed", "panel_index", idx, "error", err)
			if mode.synthesizes() {
				failed = append(failed, idx)
			}
		}
		out[idx] = results[i]
	}
	return out, failed
}

// processPanel は1枚のパネルに mode の処理を適用します。
// 生成を伴うモードでは、既に画像を持つパネルには何もしません。
// エラーを返すのは画像生成の失敗と、セリフ合成のみを行うモードでの合成失敗です。
// 生成に続くセリフ合成の失敗は、生成した画像を残したまま成功として扱います。
func (o *Orchestrator) processPanel(ctx context.Context, logger *slog.Logger, p domain.Panel, refs []domain.Character, mode windowMode) (domain.Panel, error) {
	if mode.synthesizes() {
		if p.HasImage() {
			return p, nil
		}
		img, err := o.services.Images.SynthesizePanel(ctx, prompts.DescribePanel(p), refs)
		if err != nil {
			return p, fmt.Errorf("パネル画像の生成に失敗しました: %w", err)
		}
		p = p.WithImage(img)
		logger.DebugContext(ctx, "Panel image generated")
		if mode == modeSynthesize {
			return p, nil
		}
	}

	if !p.HasImage() || !p.HasDialogue() {
		return p, nil
	}

	composited, err := o.services.Dialogue.CompositeDialogue(ctx, p.ImageBase64, p.Dialogue, p)
	if err != nil {
		if mode == modeComposite {
			return p, fmt.Errorf("セリフの合成に失敗しました: %w", err)
		}
		logger.WarnContext(ctx, "Dialogue compositing failed, keeping the generated image", "error", err)
		return p, nil
	}
	return p.WithImage(composited), nil
}
