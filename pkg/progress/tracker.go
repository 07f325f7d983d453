package progress

import (
	"sync"
	"sync/atomic"
)

// Listener は状態が変化するたびに、更新された順に呼び出されます。受け取る State はコピーです。
// Listener の中から Tracker を更新してはいけません。
type Listener func(State)

// Tracker は1つのパイプラインが所有する進捗状態です。
// 並行タスクから同時に更新されても安全です。
type Tracker struct {
	notifyMu  sync.Mutex // 通知を更新順に届けるためのロック
	mu        sync.Mutex
	state     State
	weights   Weights
	listeners []Listener
}

// NewTracker は idle 状態の Tracker を生成します。weights が nil の場合は DefaultWeights を使います。
func NewTracker(weights Weights) *Tracker {
	if weights == nil {
		weights = DefaultWeights
	}
	return &Tracker{
		state:   NewState(),
		weights: weights,
	}
}

// Subscribe は状態変化の通知先を登録します。
func (t *Tracker) Subscribe(l Listener) {
	if l == nil {
		return
	}
	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()
}

// Reset は新しい実行のために idle 状態へ戻します。
func (t *Tracker) Reset() {
	t.update(func(s *State) {
		*s = NewState()
	})
}

// Enter は指定した工程を現在の工程にします。
func (t *Tracker) Enter(stage Stage) {
	t.update(func(s *State) {
		s.Stage = stage
	})
}

// Set は工程の進捗率を更新します。
// 完了順が前後した並行タスクからの通知で値が巻き戻らないよう、現在値より小さい値は無視します。
func (t *Tracker) Set(stage Stage, percent int) {
	percent = clampPercent(percent)
	t.update(func(s *State) {
		if percent > s.PerStage[stage] {
			s.PerStage[stage] = percent
		}
	})
}

// Fail は現在の工程のままエラーを記録します。
func (t *Tracker) Fail(err error) {
	if err == nil {
		return
	}
	t.update(func(s *State) {
		s.Err = err.Error()
	})
}

// Complete は終端状態 completed に遷移させます。
func (t *Tracker) Complete() {
	t.update(func(s *State) {
		s.Stage = StageCompleted
		s.PerStage[StageCompleted] = 100
	})
}

// Snapshot は現在の状態のコピーを返します。
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Overall は現在の全体進捗率を返します。
func (t *Tracker) Overall() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return CalculateWeightedProgress(t.state, t.weights)
}

// NewCounter は工程内のタスク完了数から進捗率を更新するカウンターを返します。
func (t *Tracker) NewCounter(stage Stage, total int) *Counter {
	return &Counter{tracker: t, stage: stage, total: total}
}

func (t *Tracker) update(fn func(*State)) {
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	fn(&t.state)
	snapshot := t.state.Clone()
	listeners := t.listeners
	t.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

// Counter は成功・失敗を問わず「試行が終わった」タスク数を数えます。
type Counter struct {
	tracker *Tracker
	stage   Stage
	total   int
	done    atomic.Int64
}

// Settle はタスク1件の完了を記録し、進捗率を更新します。
func (c *Counter) Settle() {
	done := int(c.done.Add(1))
	c.tracker.Set(c.stage, Percent(done, c.total))
}

// Done はこれまでに完了したタスク数を返します。
func (c *Counter) Done() int {
	return int(c.done.Load())
}
