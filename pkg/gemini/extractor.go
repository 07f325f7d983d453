package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	geminiclient "github.com/shouni/go-gemini-client/gemini"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-story-manga/pkg/domain"
	"github.com/shouni/go-story-manga/pkg/prompts"
)

const cacheCleanupInterval = 10 * time.Minute

// generateFunc はプロンプトを送り、応答テキストを返します。
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Extractor は Gemini のテキスト生成を使って物語からキャラクターとパネルを抽出します。
// 同じ入力に対する結果はキャッシュされ、同時に届いた同一リクエストは1回の呼び出しにまとめられます。
type Extractor struct {
	generate generateFunc
	prompts  prompts.ScriptPrompt
	cache    *cache.Cache
	group    singleflight.Group
}

// NewExtractor は Extractor を生成します。cacheTTL が 0 以下の場合はキャッシュしません。
func NewExtractor(client geminiclient.ContentGenerator, model string, pb prompts.ScriptPrompt, cacheTTL time.Duration) *Extractor {
	return newExtractor(func(ctx context.Context, prompt string) (string, error) {
		slog.DebugContext(ctx, "Calling Gemini API", "model", model, "prompt_length", len(prompt))
		resp, err := client.GenerateContent(ctx, model, prompt)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}, pb, cacheTTL)
}

func newExtractor(generate generateFunc, pb prompts.ScriptPrompt, cacheTTL time.Duration) *Extractor {
	e := &Extractor{generate: generate, prompts: pb}
	if cacheTTL > 0 {
		e.cache = cache.New(cacheTTL, cacheCleanupInterval)
	}
	return e
}

// ExtractCharacters は物語に登場するキャラクターと外見の説明を抽出します。
func (e *Extractor) ExtractCharacters(ctx context.Context, story string) ([]domain.Character, error) {
	v, err := e.do(ctx, cacheKey(prompts.ModeCharacters, story, nil), func() (any, error) {
		raw, err := e.call(ctx, prompts.ModeCharacters, func() (string, error) {
			return e.prompts.BuildCharacters(story)
		})
		if err != nil {
			return nil, err
		}
		return parseCharacters(raw)
	})
	if err != nil {
		return nil, err
	}
	return domain.Characters(v.([]domain.Character)).Clone(), nil
}

// ExtractPanels は物語をパネルの列に分解します。キャラクターの説明はプロンプトに含められます。
func (e *Extractor) ExtractPanels(ctx context.Context, story string, chars []domain.Character) ([]domain.Panel, error) {
	v, err := e.do(ctx, cacheKey(prompts.ModePanels, story, chars), func() (any, error) {
		raw, err := e.call(ctx, prompts.ModePanels, func() (string, error) {
			return e.prompts.BuildPanels(story, chars)
		})
		if err != nil {
			return nil, err
		}
		return parsePanels(raw)
	})
	if err != nil {
		return nil, err
	}
	return domain.Panels(v.([]domain.Panel)).Clone(), nil
}

func (e *Extractor) call(ctx context.Context, mode string, build func() (string, error)) (string, error) {
	prompt, err := build()
	if err != nil {
		return "", fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	startTime := time.Now()
	raw, err := e.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("Gemini API の呼び出しに失敗 (mode: %s): %w", mode, err)
	}
	slog.InfoContext(ctx, "Extraction response received", "mode", mode, "duration", time.Since(startTime).Round(time.Millisecond))
	return raw, nil
}

func (e *Extractor) do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			slog.DebugContext(ctx, "Extraction cache hit", "key", key[:12])
			return v, nil
		}
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			e.cache.Set(key, v, cache.DefaultExpiration)
		}
		return v, nil
	})
	return v, err
}

// cacheKey は画像データを除いた入力からキャッシュキーを作ります。
func cacheKey(mode, story string, chars []domain.Character) string {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(story))
	for _, c := range chars {
		h.Write([]byte{0})
		h.Write([]byte(c.Name))
		h.Write([]byte{0})
		h.Write([]byte(c.Appearance))
	}
	return hex.EncodeToString(h.Sum(nil))
}
