package domain

import "sort"

// Panels はパネルの順序付きコレクションです。並び順は物語の時系列を表します。
type Panels []Panel

// UniqueCharacterNames はパネル群に登場するキャラクター名を重複なく抽出します。
func (ps Panels) UniqueCharacterNames() []string {
	set := make(map[string]struct{})
	for _, panel := range ps {
		for _, name := range panel.Characters {
			if name != "" {
				set[name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// UnknownCharacterNames はキャラクター一覧に存在しない参照名を返します。
// 未知の名前はエラーではなく、説明文として扱われます。
func (ps Panels) UnknownCharacterNames(chars Characters) []string {
	var unknown []string
	for _, name := range ps.UniqueCharacterNames() {
		if chars.FindCharacter(name) == nil {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ImagedCount は画像が生成済みのパネル数を返します。
func (ps Panels) ImagedCount() int {
	n := 0
	for _, p := range ps {
		if p.HasImage() {
			n++
		}
	}
	return n
}

// Clone はコレクションのディープコピーを返します。
func (ps Panels) Clone() Panels {
	if ps == nil {
		return nil
	}
	out := make(Panels, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
