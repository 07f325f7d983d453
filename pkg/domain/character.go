package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// Character は物語に登場するキャラクターの定義を保持します。
// Name がキャラクターの識別子で、パネル抽出でも同じ文字列で参照されます。
type Character struct {
	Name        string `json:"name"`
	Appearance  string `json:"appearance"`            // 生成プロンプトに注入する外見上の特徴
	ImageBase64 string `json:"imageBase64,omitempty"` // 立ち絵 (base64 エンコード済みラスタ画像)
}

// HasImage は立ち絵が生成済みかどうかを返します。
func (c Character) HasImage() bool {
	return c.ImageBase64 != ""
}

// WithImage は立ち絵を差し替えたコピーを返します。
func (c Character) WithImage(imageBase64 string) Character {
	c.ImageBase64 = imageBase64
	return c
}

// String はキャラクターの情報を文字列で返します。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Appearance)
}

// GetSeedFromName は名前から決定論的なシード値を生成します。
func GetSeedFromName(name string) int32 {
	hash := sha256.Sum256([]byte(name))
	seed := int32(binary.BigEndian.Uint32(hash[:4]))
	// Geminiのシード値は正の数が望ましいため、最上位ビットを落とす
	return seed & 0x7FFFFFFF
}

// NormalizeCharacters は抽出結果のキャラクター一覧を整えます。
// 名前の前後の空白を除去し、名前が空のものを除外し、同名のキャラクターは最初の1件だけを残します。
// 順序は入力順を維持します。
func NormalizeCharacters(chars []Character) []Character {
	seen := make(map[string]struct{}, len(chars))
	out := make([]Character, 0, len(chars))
	for _, c := range chars {
		c.Name = strings.TrimSpace(c.Name)
		c.Appearance = strings.TrimSpace(c.Appearance)
		if c.Name == "" {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}
