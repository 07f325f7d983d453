package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/shouni/go-story-manga/pkg/progress"
)

const progressBarWidth = 30

// progressRenderer は、Tracker の通知を1行の進捗表示に変換するのだ。
// 端末でなければ工程が変わったときだけ1行ずつ出力するのだ。
type progressRenderer struct {
	mu        sync.Mutex
	w         io.Writer
	live      bool
	lastStage progress.Stage
	lastLine  string
}

func newProgressRenderer(w io.Writer) *progressRenderer {
	return &progressRenderer{w: w, live: isTerminal(w)}
}

// Listen は progress.Listener として登録するのだ。
func (r *progressRenderer) Listen(s progress.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := formatProgress(s)
	if r.live {
		if line == r.lastLine {
			return
		}
		fmt.Fprintf(r.w, "\r\033[K%s", line)
		r.lastLine = line
		return
	}
	if s.Stage != r.lastStage {
		fmt.Fprintln(r.w, line)
	}
	r.lastStage = s.Stage
}

// Finish は、ライブ表示の行を閉じるのだ。
func (r *progressRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live && r.lastLine != "" {
		fmt.Fprintln(r.w)
		r.lastLine = ""
	}
}

func formatProgress(s progress.State) string {
	overall := progress.CalculateOverallProgress(s)
	filled := overall * progressBarWidth / 100
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressBarWidth-filled)
	line := fmt.Sprintf("[%s] %3d%% %s", bar, overall, s.Stage.Label())
	if s.Failed() {
		line += " (失敗: " + s.Err + ")"
	}
	return line
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
