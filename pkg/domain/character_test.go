package domain

import (
	"testing"
)

func TestGetCharacters(t *testing.T) {
	// 1. 正常系：正しいJSONから一覧が生成されること
	jsonInput := []byte(`[
		{"name": "Alice", "appearance": "long blond hair, blue dress"},
		{"name": "Bob", "appearance": "short black hair", "imageBase64": "aGVsbG8="}
	]`)

	chars, err := GetCharacters(jsonInput)
	if err != nil {
		t.Fatalf("正常なJSONでエラーが発生しました: %v", err)
	}
	if len(chars) != 2 {
		t.Fatalf("期待値 2件, 実際の値 %d件", len(chars))
	}
	if chars[1].ImageBase64 != "aGVsbG8=" {
		t.Errorf("期待値 'aGVsbG8=', 実際の値 '%s'", chars[1].ImageBase64)
	}

	// 2. 異常系：不正なJSONでエラーが返ること
	_, err = GetCharacters([]byte(`{ invalid json }`))
	if err == nil {
		t.Error("不正なJSONでエラーが発生しませんでした")
	}
}

func TestGetSeedFromName(t *testing.T) {
	seed1 := GetSeedFromName("Alice")
	seed2 := GetSeedFromName("Alice")

	if seed1 != seed2 {
		t.Error("同じ名前から異なるSeedが生成されました。決定論的ではありません")
	}
	if seed1 < 0 {
		t.Errorf("Seedが負の値です: %d", seed1)
	}
	if GetSeedFromName("Bob") == seed1 {
		t.Error("異なる名前から同じSeedが生成されました")
	}
}

func TestNormalizeCharacters(t *testing.T) {
	input := []Character{
		{Name: " Alice ", Appearance: " blond "},
		{Name: "", Appearance: "nameless"},
		{Name: "Bob", Appearance: "first"},
		{Name: "Bob", Appearance: "second"},
	}

	got := NormalizeCharacters(input)

	if len(got) != 2 {
		t.Fatalf("期待値 2件, 実際の値 %d件: %+v", len(got), got)
	}
	if got[0].Name != "Alice" || got[0].Appearance != "blond" {
		t.Errorf("空白が除去されていません: %+v", got[0])
	}
	if got[1].Appearance != "first" {
		t.Errorf("重複時は最初の1件が残るはずです: %+v", got[1])
	}
}

func TestCharacters_FindCharacter(t *testing.T) {
	chars := Characters{
		{Name: "Alice"},
		{Name: "Bob", ImageBase64: "x"},
	}

	t.Run("完全一致で見つかること", func(t *testing.T) {
		c := chars.FindCharacter("Bob")
		if c == nil || c.Name != "Bob" {
			t.Fatalf("Bob が見つかりません: %v", c)
		}
	})

	t.Run("大文字小文字が違えば見つからないこと", func(t *testing.T) {
		if c := chars.FindCharacter("bob"); c != nil {
			t.Errorf("一致しないはずの名前で見つかりました: %v", c)
		}
	})

	t.Run("立ち絵を持つキャラクターだけを抽出できること", func(t *testing.T) {
		imaged := chars.WithImages()
		if len(imaged) != 1 || imaged[0].Name != "Bob" {
			t.Errorf("期待値 [Bob], 実際の値 %+v", imaged)
		}
		if chars.ImagedCount() != 1 {
			t.Errorf("期待値 1, 実際の値 %d", chars.ImagedCount())
		}
	})
}

func TestCharacter_String(t *testing.T) {
	c := Character{Name: "Alice", Appearance: "blond"}
	expected := "Alice (blond)"
	if c.String() != expected {
		t.Errorf("期待値 '%s', 実際の値 '%s'", expected, c.String())
	}
}
