package pipeline

import (
	"fmt"
	"strings"

	"github.com/shouni/go-story-manga/pkg/domain"
	"github.com/shouni/go-story-manga/pkg/progress"
)

// ReferencePolicy はパネル合成時に参照として渡すキャラクターの選び方です。
type ReferencePolicy string

const (
	// ReferenceAll はキャラクター全員を渡します。画像のないキャラクターはテキストのみの参照になります。
	ReferenceAll ReferencePolicy = "all"
	// ReferenceWithImages は画像を持つキャラクターだけを渡します。
	ReferenceWithImages ReferencePolicy = "with-images"
)

// ParseReferencePolicy は設定値の文字列を ReferencePolicy に変換します。空文字は ReferenceAll です。
func ParseReferencePolicy(s string) (ReferencePolicy, error) {
	switch ReferencePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReferenceAll:
		return ReferenceAll, nil
	case ReferenceWithImages:
		return ReferenceWithImages, nil
	default:
		return "", fmt.Errorf("不明な参照ポリシーです: %q (all または with-images を指定してください)", s)
	}
}

func (p ReferencePolicy) references(chars domain.Characters) domain.Characters {
	if p == ReferenceWithImages {
		return chars.WithImages()
	}
	return chars.Clone()
}

// Option は Orchestrator の設定を変更します。
type Option func(*Orchestrator)

// WithReferencePolicy はパネル合成時の参照ポリシーを設定します。
func WithReferencePolicy(p ReferencePolicy) Option {
	return func(o *Orchestrator) {
		o.refPolicy = p
	}
}

// WithConcurrency は工程内で同時に実行するタスク数の上限を設定します。0 以下は無制限です。
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithTracker は進捗の記録先を差し替えます。
func WithTracker(t *progress.Tracker) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracker = t
		}
	}
}
