package progress

// Stage はパイプラインの工程を表します。工程は Stages の順に一方向へ進みます。
type Stage string

const (
	StageIdle                 Stage = "idle"
	StageExtractingCharacters Stage = "extractingCharacters"
	StageGeneratingCharacters Stage = "generatingCharacters"
	StageExtractingPanels     Stage = "extractingPanels"
	StageGeneratingPanels     Stage = "generatingPanels"
	StageAddingDialogue       Stage = "addingDialogue"
	StageCompleted            Stage = "completed"
)

// Stages は全工程を実行順に並べたものです。
var Stages = []Stage{
	StageIdle,
	StageExtractingCharacters,
	StageGeneratingCharacters,
	StageExtractingPanels,
	StageGeneratingPanels,
	StageAddingDialogue,
	StageCompleted,
}

// Weights は工程ごとの全体進捗に対する重みです。
type Weights map[Stage]float64

// DefaultWeights は画像生成が体感時間の大半を占めることを反映した重みです。合計は 1.0 です。
var DefaultWeights = Weights{
	StageExtractingCharacters: 0.15,
	StageGeneratingCharacters: 0.20,
	StageExtractingPanels:     0.15,
	StageGeneratingPanels:     0.30,
	StageAddingDialogue:       0.20,
}

// Index は Stages 内での位置を返します。未知の工程は -1 です。
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal は completed かどうかを返します。
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// Weighted は重み付けの対象となる工程 (idle と completed 以外) かどうかを返します。
func (s Stage) Weighted() bool {
	return s != StageIdle && s != StageCompleted && s.Index() >= 0
}

// Label は表示用のラベルを返します。
func (s Stage) Label() string {
	switch s {
	case StageExtractingCharacters:
		return "Extract Characters"
	case StageGeneratingCharacters:
		return "Generate Characters"
	case StageExtractingPanels:
		return "Extract Panels"
	case StageGeneratingPanels:
		return "Generate Panels"
	case StageAddingDialogue:
		return "Add Dialogue"
	case StageCompleted:
		return "Completed"
	default:
		return "Idle"
	}
}
