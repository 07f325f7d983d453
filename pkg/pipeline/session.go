package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/go-story-manga/pkg/domain"
)

// Session は1つの物語についてのキャラクター・パネル集合を保持し、
// 全体実行と追加バッチを互いに直列化して呼び出します。
type Session struct {
	orch      *Orchestrator
	batchSize int

	mu         sync.Mutex
	characters domain.Characters
	panels     domain.Panels
	cursor     int
	failed     []int
}

// NewSession は Session を生成します。
func NewSession(orch *Orchestrator, batchSize int) (*Session, error) {
	if orch == nil {
		return nil, fmt.Errorf("session: Orchestrator が nil です")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}
	return &Session{orch: orch, batchSize: batchSize}, nil
}

// Run は全体実行を行い、得られた集合を Session に保存します。
// 抽出工程で失敗した場合も、それまでに得られたデータは保存されます。
func (s *Session) Run(ctx context.Context, story string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.orch.RunFullPipeline(ctx, story, s.batchSize)
	if result != nil {
		s.characters = result.Characters.Clone()
		s.panels = result.Panels.Clone()
		s.cursor = result.ProcessedPanelCount
		s.failed = nil
	}
	return result, err
}

// LoadMore は次のバッチを処理します。未処理のパネルがない場合は ErrNoMorePanels を返します。
func (s *Session) LoadMore(ctx context.Context) (*BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMoreLocked(ctx)
}

// LoadAll は未処理のパネルがなくなるまでバッチ処理を繰り返し、処理したバッチ数を返します。
// maxBatches が 0 以下の場合は上限なしです。
func (s *Session) LoadAll(ctx context.Context, maxBatches int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for s.cursor < len(s.panels) && (maxBatches <= 0 || count < maxBatches) {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := s.loadMoreLocked(ctx); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Session) loadMoreLocked(ctx context.Context) (*BatchResult, error) {
	if s.cursor >= len(s.panels) {
		return nil, ErrNoMorePanels
	}

	res, err := s.orch.ProcessNextBatch(ctx, s.panels, s.characters, s.cursor, s.batchSize)
	if err != nil {
		return nil, err
	}
	s.panels = res.Panels.Clone()
	s.cursor = res.Cursor
	s.failed = append(s.failed, res.Failed...)
	return res, nil
}

// HasMore は未処理のパネルが残っているかどうかを返します。
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.panels)
}

// Snapshot は現在の集合とカーソルのコピーを返します。
func (s *Session) Snapshot() (domain.Characters, domain.Panels, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.characters.Clone(), s.panels.Clone(), s.cursor
}

// Failed は追加バッチで画像生成に失敗したパネルのインデックスを返します。
func (s *Session) Failed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.failed...)
}
