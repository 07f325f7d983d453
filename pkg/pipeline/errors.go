package pipeline

import (
	"errors"
	"fmt"

	"github.com/shouni/go-story-manga/pkg/progress"
)

var (
	// ErrEmptyStory は物語テキストが空 (空白のみを含む) の場合に返されます。
	ErrEmptyStory = errors.New("物語テキストが空です")
	// ErrInvalidBatchSize はバッチサイズが 1 未満の場合に返されます。
	ErrInvalidBatchSize = errors.New("バッチサイズは 1 以上である必要があります")
	// ErrCursorOutOfRange はカーソルがパネル数の範囲外の場合に返されます。
	ErrCursorOutOfRange = errors.New("カーソルが範囲外です")
	// ErrRunInProgress は全体実行がすでに進行中の場合に返されます。
	ErrRunInProgress = errors.New("パイプラインはすでに実行中です")
	// ErrBatchInProgress は追加バッチの処理がすでに進行中の場合に返されます。
	ErrBatchInProgress = errors.New("追加バッチはすでに処理中です")
	// ErrNoMorePanels は未処理のパネルが残っていない場合に Session が返します。
	ErrNoMorePanels = errors.New("未処理のパネルはありません")
)

// StageError は実行を中断させた工程と原因を保持します。
type StageError struct {
	Stage progress.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s の工程で失敗しました: %v", e.Stage.Label(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
