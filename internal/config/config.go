package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/shouni/go-utils/envutil"

	"github.com/shouni/go-story-manga/pkg/pipeline"
)

// デフォルト値の定義
const (
	DefaultConfigFile       = "manga.toml"
	DefaultModel            = "gemini-3-flash-preview"
	DefaultImageModel       = "gemini-3-pro-image-preview"
	DefaultBatchSize        = 10
	DefaultConcurrency      = 4
	DefaultOutputDir        = "output"
	DefaultCacheTTL         = "30m"
	DefaultTextTemperature  = 0.2
	DefaultImageTemperature = 0.7
	DefaultStyleSuffix      = "Japanese black and white manga, clean line art, screentone shading, expressive faces, dynamic composition"
)

// Config はアプリケーション全体の設定を保持する構造体です。
// 優先順位は デフォルト値 < TOML ファイル < 環境変数 < CLI フラグ です。
type Config struct {
	GeminiAPIKey     string  `toml:"gemini_api_key"`
	GeminiModel      string  `toml:"gemini_model"`
	ImageModel       string  `toml:"image_model"`
	StyleSuffix      string  `toml:"style_suffix"`
	TextTemperature  float32 `toml:"text_temperature"`
	ImageTemperature float32 `toml:"image_temperature"`

	BatchSize       int    `toml:"batch_size"`
	Concurrency     int    `toml:"concurrency"` // 0 は無制限
	ReferencePolicy string `toml:"reference_policy"`
	CacheTTL        string `toml:"cache_ttl"` // time.ParseDuration 形式。"0" でキャッシュ無効

	OutputDir string `toml:"output_dir"`
}

// Default は推奨されるデフォルト設定を返します。
func Default() Config {
	return Config{
		GeminiModel:      DefaultModel,
		ImageModel:       DefaultImageModel,
		StyleSuffix:      DefaultStyleSuffix,
		TextTemperature:  DefaultTextTemperature,
		ImageTemperature: DefaultImageTemperature,
		BatchSize:        DefaultBatchSize,
		Concurrency:      DefaultConcurrency,
		ReferencePolicy:  string(pipeline.ReferenceAll),
		CacheTTL:         DefaultCacheTTL,
		OutputDir:        DefaultOutputDir,
	}
}

// Load はデフォルト値に TOML ファイルと環境変数を重ねた設定を返します。
// path が空の場合は DefaultConfigFile を探し、存在しなければデフォルト値のまま続行します。
// 明示的に指定されたファイルが存在しない場合はエラーです。
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の解析に失敗しました: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// 既定の設定ファイルは任意
	default:
		return nil, fmt.Errorf("設定ファイル %s を開けませんでした: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = envutil.GetEnv("GEMINI_MODEL", c.GeminiModel)
	c.ImageModel = envutil.GetEnv("IMAGE_GEMINI_MODEL", c.ImageModel)
	c.StyleSuffix = envutil.GetEnv("IMAGE_PROMPT_SUFFIX", c.StyleSuffix)
	c.ReferencePolicy = envutil.GetEnv("REFERENCE_POLICY", c.ReferencePolicy)
	c.OutputDir = envutil.GetEnv("OUTPUT_DIR", c.OutputDir)

	var err error
	if c.BatchSize, err = envInt("BATCH_SIZE", c.BatchSize); err != nil {
		return err
	}
	if c.Concurrency, err = envInt("CONCURRENCY", c.Concurrency); err != nil {
		return err
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(envutil.GetEnv(key, ""))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("環境変数 %s の値が整数ではありません: %q", key, raw)
	}
	return v, nil
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	var errs []error
	if c.GeminiModel == "" {
		errs = append(errs, errors.New("gemini_model が空です"))
	}
	if c.ImageModel == "" {
		errs = append(errs, errors.New("image_model が空です"))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch_size は 1 以上である必要があります: %d", c.BatchSize))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency は 0 以上である必要があります: %d", c.Concurrency))
	}
	if _, err := pipeline.ParseReferencePolicy(c.ReferencePolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.CacheDuration(); err != nil {
		errs = append(errs, err)
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir が空です"))
	}
	return errors.Join(errs...)
}

// RequireAPIKey は API を呼び出すコマンドのために API キーの有無を検証します。
func (c *Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY が設定されていません (環境変数または設定ファイルで指定してください)")
	}
	return nil
}

// Policy は参照ポリシーを返します。Validate 済みであることが前提です。
func (c *Config) Policy() pipeline.ReferencePolicy {
	p, err := pipeline.ParseReferencePolicy(c.ReferencePolicy)
	if err != nil {
		return pipeline.ReferenceAll
	}
	return p
}

// CacheDuration は抽出結果のキャッシュ保持期間を返します。
func (c *Config) CacheDuration() (time.Duration, error) {
	if strings.TrimSpace(c.CacheTTL) == "" || c.CacheTTL == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("cache_ttl の形式が不正です: %q: %w", c.CacheTTL, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("cache_ttl は 0 以上である必要があります: %q", c.CacheTTL)
	}
	return d, nil
}
