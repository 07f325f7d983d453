package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Characters はキャラクターの順序付きコレクションです。
type Characters []Character

// FindCharacter は名前が完全一致するキャラクターを返します。見つからない場合は nil です。
func (cs Characters) FindCharacter(name string) *Character {
	for i := range cs {
		if cs[i].Name == name {
			res := cs[i]
			return &res
		}
	}
	return nil
}

// WithImages は立ち絵を持つキャラクターだけを抜き出します。
func (cs Characters) WithImages() Characters {
	out := make(Characters, 0, len(cs))
	for _, c := range cs {
		if c.HasImage() {
			out = append(out, c)
		}
	}
	return out
}

// ImagedCount は立ち絵が生成済みのキャラクター数を返します。
func (cs Characters) ImagedCount() int {
	n := 0
	for _, c := range cs {
		if c.HasImage() {
			n++
		}
	}
	return n
}

// Clone はコレクションのコピーを返します。Character は値型なので浅いコピーで十分です。
func (cs Characters) Clone() Characters {
	if cs == nil {
		return nil
	}
	return slices.Clone(cs)
}

// GetCharacters はJSONバイト列からキャラクター一覧をパースして返します。
// この関数はステートレスであり、キャッシュを行いません。
func GetCharacters(charactersJSON []byte) (Characters, error) {
	var chars Characters
	if err := json.Unmarshal(charactersJSON, &chars); err != nil {
		return nil, fmt.Errorf("キャラクター情報のJSONパースに失敗しました: %w", err)
	}
	return chars, nil
}
