package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/go-story-manga/pkg/pipeline"
)

// clearEnv は設定に関係する環境変数をテスト中だけ未設定にします。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "GEMINI_MODEL", "IMAGE_GEMINI_MODEL", "IMAGE_PROMPT_SUFFIX",
		"BATCH_SIZE", "CONCURRENCY", "REFERENCE_POLICY", "OUTPUT_DIR",
	} {
		t.Setenv(key, "") // 終了時に元の値へ戻す
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manga.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("設定ファイルの作成に失敗しました: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("既定のファイルがなければデフォルト値", func(t *testing.T) {
		clearEnv(t)
		t.Chdir(t.TempDir())

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if cfg.BatchSize != DefaultBatchSize || cfg.GeminiModel != DefaultModel || cfg.ReferencePolicy != "all" {
			t.Errorf("デフォルト値ではありません: %+v", cfg)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("デフォルト値の検証に失敗しました: %v", err)
		}
	})

	t.Run("明示したファイルがなければエラー", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("エラーが返るはずです")
		}
	})

	t.Run("TOML の値が反映される", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, `
gemini_model = "custom-text"
batch_size = 3
reference_policy = "with-images"
cache_ttl = "5m"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if cfg.GeminiModel != "custom-text" || cfg.BatchSize != 3 || cfg.Policy() != pipeline.ReferenceWithImages {
			t.Errorf("TOML の値が反映されていません: %+v", cfg)
		}
		if cfg.ImageModel != DefaultImageModel {
			t.Errorf("未指定の項目はデフォルト値のはずです: %s", cfg.ImageModel)
		}
		if d, _ := cfg.CacheDuration(); d != 5*time.Minute {
			t.Errorf("cache_ttl が違います: %v", d)
		}
	})

	t.Run("環境変数は TOML より優先される", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BATCH_SIZE", "7")
		t.Setenv("GEMINI_API_KEY", "secret")
		path := writeConfig(t, "batch_size = 3\n")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if cfg.BatchSize != 7 || cfg.GeminiAPIKey != "secret" {
			t.Errorf("環境変数が反映されていません: %+v", cfg)
		}
	})

	t.Run("整数でない環境変数はエラー", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONCURRENCY", "many")
		if _, err := Load(writeConfig(t, "")); err == nil {
			t.Error("エラーが返るはずです")
		}
	})

	t.Run("不正な TOML はエラー", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(writeConfig(t, "batch_size = ")); err == nil {
			t.Error("エラーが返るはずです")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "デフォルト値", modify: func(*Config) {}},
		{name: "バッチサイズ0", modify: func(c *Config) { c.BatchSize = 0 }, wantErr: true},
		{name: "負の並列数", modify: func(c *Config) { c.Concurrency = -1 }, wantErr: true},
		{name: "並列数0は無制限", modify: func(c *Config) { c.Concurrency = 0 }},
		{name: "不明な参照ポリシー", modify: func(c *Config) { c.ReferencePolicy = "random" }, wantErr: true},
		{name: "不正な cache_ttl", modify: func(c *Config) { c.CacheTTL = "soon" }, wantErr: true},
		{name: "cache_ttl 0 は無効化", modify: func(c *Config) { c.CacheTTL = "0" }},
		{name: "空のモデル名", modify: func(c *Config) { c.ImageModel = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() エラー = %v, 期待 %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("API キー未設定でエラーが返りませんでした")
	}
	cfg.GeminiAPIKey = "key"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("予期しないエラー: %v", err)
	}
}
