package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestMangaResponse_JSON(t *testing.T) {
	t.Run("抽出モデルの応答形式をパースできること", func(t *testing.T) {
		inputJSON := `{
			"panels": [
				{
					"setting": "a sunny park",
					"character": ["Alice", "Bob"],
					"expression": "Alice waves",
					"Dialogue": "Hi Bob!",
					"Drawing_notes": "wide shot"
				}
			]
		}`

		var resp MangaResponse
		if err := json.Unmarshal([]byte(inputJSON), &resp); err != nil {
			t.Fatalf("パース失敗: %v", err)
		}

		if len(resp.Panels) != 1 {
			t.Fatalf("パネル数が違います: %d", len(resp.Panels))
		}
		p := resp.Panels[0]
		if p.Dialogue != "Hi Bob!" || p.DrawingNotes != "wide shot" {
			t.Errorf("パネル内容が正しくパースされていません: %+v", p)
		}
		if !reflect.DeepEqual(p.Characters, []string{"Alice", "Bob"}) {
			t.Errorf("キャラクター名が違います: %v", p.Characters)
		}
	})
}

func TestPanel_Clone(t *testing.T) {
	orig := Panel{Setting: "park", Characters: []string{"Alice"}}

	cloned := orig.WithImage("img")
	cloned.Characters[0] = "Mallory"

	if orig.Characters[0] != "Alice" {
		t.Error("コピー先の変更が元のパネルに波及しています")
	}
	if orig.HasImage() {
		t.Error("元のパネルに画像が設定されています")
	}
	if !cloned.HasImage() {
		t.Error("コピー先に画像が設定されていません")
	}
}

func TestPanels_UniqueCharacterNames(t *testing.T) {
	panels := Panels{
		{Characters: []string{"Bob", "Alice"}},
		{Characters: []string{"Alice", ""}},
		{Characters: []string{"Narrator"}},
	}

	got := panels.UniqueCharacterNames()
	want := []string{"Alice", "Bob", "Narrator"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("期待値 %v, 実際の値 %v", want, got)
	}

	unknown := panels.UnknownCharacterNames(Characters{{Name: "Alice"}, {Name: "Bob"}})
	if !reflect.DeepEqual(unknown, []string{"Narrator"}) {
		t.Errorf("未知の名前の抽出が違います: %v", unknown)
	}
}
