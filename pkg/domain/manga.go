package domain

// MangaResponse は抽出と生成の結果をまとめた台本全体の構造です。
type MangaResponse struct {
	Title      string      `json:"title,omitempty"`
	Characters []Character `json:"characters"`
	Panels     []Panel     `json:"panels"`
}

// Panel は漫画の1コマの構成、セリフ、作画指示を保持します。
// JSON のキー名は抽出モデルの応答スキーマに合わせています。
type Panel struct {
	Setting      string   `json:"setting"`
	Characters   []string `json:"character"` // 登場するキャラクター名 (Character.Name と一致することが期待される)
	Expression   string   `json:"expression"`
	Dialogue     string   `json:"Dialogue"`
	DrawingNotes string   `json:"Drawing_notes"`

	// ImageBase64 は生成されたパネル画像。セリフ合成後は合成済みの画像に置き換わります。
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// HasImage はパネル画像が生成済みかどうかを返します。
func (p Panel) HasImage() bool {
	return p.ImageBase64 != ""
}

// HasDialogue はセリフを持つかどうかを返します。
func (p Panel) HasDialogue() bool {
	return p.Dialogue != ""
}

// WithImage は画像を差し替えたコピーを返します。
func (p Panel) WithImage(imageBase64 string) Panel {
	p = p.Clone()
	p.ImageBase64 = imageBase64
	return p
}

// Clone は Characters スライスも含めたディープコピーを返します。
func (p Panel) Clone() Panel {
	if p.Characters != nil {
		names := make([]string, len(p.Characters))
		copy(names, p.Characters)
		p.Characters = names
	}
	return p
}
