package progress

import (
	"maps"
	"math"
)

// State は1回の実行の進捗状態です。
// 現在の工程は常にひとつで、Err はどの工程でも設定され得ます (設定後は先へ進みません)。
type State struct {
	Stage    Stage
	PerStage map[Stage]int // 工程ごとの進捗率 [0,100]
	Err      string
}

// NewState は idle の初期状態を返します。
func NewState() State {
	return State{
		Stage:    StageIdle,
		PerStage: make(map[Stage]int, len(Stages)),
	}
}

// Failed はエラーで停止したかどうかを返します。
func (s State) Failed() bool {
	return s.Err != ""
}

// Clone は PerStage を含めたコピーを返します。
func (s State) Clone() State {
	s.PerStage = maps.Clone(s.PerStage)
	if s.PerStage == nil {
		s.PerStage = make(map[Stage]int)
	}
	return s
}

// CalculateOverallProgress は DefaultWeights を用いて全体の進捗率を計算します。
func CalculateOverallProgress(s State) int {
	return CalculateWeightedProgress(s, DefaultWeights)
}

// CalculateWeightedProgress は Σ(工程の進捗 × 重み) / Σ(重み) を四捨五入した値を返します。
// idle では 0、completed では保存されている値に関わらず 100 です。
func CalculateWeightedProgress(s State, weights Weights) int {
	switch s.Stage {
	case StageIdle:
		return 0
	case StageCompleted:
		return 100
	}

	var weighted, total float64
	for _, stage := range Stages {
		if !stage.Weighted() {
			continue
		}
		w := weights[stage]
		if w <= 0 {
			continue
		}
		weighted += float64(clampPercent(s.PerStage[stage])) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(weighted / total))
}

// Percent は done/total を四捨五入した百分率を返します。total が 0 の場合は 100 です。
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return clampPercent(int(math.Round(float64(done) / float64(total) * 100)))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
