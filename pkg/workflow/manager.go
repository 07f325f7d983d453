package workflow

import (
	"context"
	"fmt"

	"github.com/shouni/go-story-manga/internal/config"
	"github.com/shouni/go-story-manga/pkg/gemini"
	"github.com/shouni/go-story-manga/pkg/pipeline"
	"github.com/shouni/go-story-manga/pkg/progress"
	"github.com/shouni/go-story-manga/pkg/prompts"
	"github.com/shouni/go-story-manga/pkg/publisher"

	"github.com/shouni/gemini-image-kit/generator"
	"github.com/shouni/gemini-image-kit/ports"
	geminiclient "github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// ManagerArgs は Manager の生成に必要な依存関係です。
// AIClient, ImageGenerator, ScriptPrompt が nil の場合は Config から新規作成します。
type ManagerArgs struct {
	Config         *config.Config
	Writer         publisher.OutputWriter
	AIClient       geminiclient.ContentGenerator
	ImageGenerator ports.ImageGenerator
	ScriptPrompt   prompts.ScriptPrompt
}

// Manager は、パイプラインの各工程を担うサービス群を構築・管理します。
type Manager struct {
	cfg       *config.Config
	extractor *gemini.Extractor
	images    *gemini.ImageService
	publisher *publisher.MangaPublisher
}

// New は、設定を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if args.Config == nil {
		return nil, fmt.Errorf("Config は必須です")
	}
	cfg := args.Config

	ttl, err := cfg.CacheDuration()
	if err != nil {
		return nil, err
	}

	aiClient := args.AIClient
	if aiClient == nil {
		aiClient, err = initializeAIClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	imageGen := args.ImageGenerator
	if imageGen == nil {
		imageGen, err = initializeImageGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	sPrompt, err := initializeScriptPrompt(args.ScriptPrompt)
	if err != nil {
		return nil, err
	}
	iPrompt := prompts.NewImagePromptBuilder(cfg.StyleSuffix)

	return &Manager{
		cfg:       cfg,
		extractor: gemini.NewExtractor(aiClient, cfg.GeminiModel, sPrompt, ttl),
		images:    gemini.NewImageService(imageGen, cfg.ImageModel, iPrompt),
		publisher: publisher.NewMangaPublisher(args.Writer),
	}, nil
}

// Services はパイプラインに注入するサービスの組を返します。
func (m *Manager) Services() pipeline.Services {
	return pipeline.Services{
		Extractor: m.extractor,
		Images:    m.images,
		Dialogue:  m.images,
	}
}

// Extractor は抽出サービスを返します。台本のみの生成で使います。
func (m *Manager) Extractor() pipeline.Extractor {
	return m.extractor
}

// Publisher は成果物の保存を担う MangaPublisher を返します。
func (m *Manager) Publisher() *publisher.MangaPublisher {
	return m.publisher
}

// BuildSession は設定値を反映した Orchestrator と、それを使う Session を構築します。
// tracker が nil の場合は Orchestrator 内部のものが使われます。
func (m *Manager) BuildSession(tracker *progress.Tracker) (*pipeline.Session, *pipeline.Orchestrator, error) {
	orch, err := pipeline.New(m.Services(),
		pipeline.WithReferencePolicy(m.cfg.Policy()),
		pipeline.WithConcurrency(m.cfg.Concurrency),
		pipeline.WithTracker(tracker),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("パイプラインの初期化に失敗しました: %w", err)
	}

	session, err := pipeline.NewSession(orch, m.cfg.BatchSize)
	if err != nil {
		return nil, nil, err
	}
	return session, orch, nil
}

// initializeAIClient は抽出に使う gemini クライアントを初期化します。
func initializeAIClient(ctx context.Context, cfg *config.Config) (geminiclient.ContentGenerator, error) {
	clientConfig := geminiclient.Config{
		APIKey:      cfg.GeminiAPIKey,
		Temperature: genai.Ptr(cfg.TextTemperature),
	}
	aiClient, err := geminiclient.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// initializeImageGenerator は画像生成キットの ImageGenerator を初期化します。
// 画像用のクライアントは温度だけを変えて別に作り、参照画像は data URL で渡します。
func initializeImageGenerator(ctx context.Context, cfg *config.Config) (ports.ImageGenerator, error) {
	client, err := geminiclient.NewClient(ctx, geminiclient.Config{
		APIKey:      cfg.GeminiAPIKey,
		Temperature: genai.Ptr(cfg.ImageTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("画像生成クライアントの初期化に失敗しました: %w", err)
	}
	return newImageGenerator(client)
}

func newImageGenerator(client geminiclient.GenerativeModel) (ports.ImageGenerator, error) {
	source := gemini.InlineImageSource{}
	core, err := generator.NewGeminiImageCore(client, source, source, nil, 0, false)
	if err != nil {
		return nil, fmt.Errorf("画像生成コアの初期化に失敗しました: %w", err)
	}
	gen, err := generator.NewGeminiGenerator(core)
	if err != nil {
		return nil, fmt.Errorf("画像生成器の初期化に失敗しました: %w", err)
	}
	return gen, nil
}

// initializeScriptPrompt は ScriptPrompt ビルダーを初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializeScriptPrompt(scriptPrompt prompts.ScriptPrompt) (prompts.ScriptPrompt, error) {
	if scriptPrompt != nil {
		return scriptPrompt, nil
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}

	return pb, nil
}
