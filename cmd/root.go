package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shouni/go-story-manga/internal/config"

	"github.com/spf13/cobra"
)

// appOptions は、コマンドラインから渡される実行時の設定なのだ。
type appOptions struct {
	ConfigFile  string
	Verbose     bool
	StoryFile   string
	Title       string
	OutputDir   string
	AIModel     string
	ImageModel  string
	BatchSize   int
	Concurrency int
	RefPolicy   string
}

var opts appOptions

var rootCmd = &cobra.Command{
	Use:           "story-manga",
	Short:         "物語のテキストから漫画のパネルを生成するのだ。",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(os.Stderr, opts.Verbose)
	},
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 設定・ログ ---
	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", config.DefaultConfigFile, "TOML 設定ファイルのパスなのだ。")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")

	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.StoryFile, "file", "f", "", "物語テキストのファイルパス（'-'で標準入力なのだ）。")
	rootCmd.PersistentFlags().StringVarP(&opts.Title, "title", "t", "", "漫画のタイトルなのだ。省略時は物語の1行目を使うのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "成果物を保存するディレクトリなのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", "", "抽出に使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().IntVarP(&opts.BatchSize, "batch-size", "b", 0, "1回のバッチで処理するパネル数なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.Concurrency, "concurrency", 0, "同時に実行する画像生成の上限なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.RefPolicy, "reference-policy", "", "パネル生成時の参照キャラクター (all / with-images) なのだ。")
}

// loadConfig は、設定ファイル、環境変数、フラグの順に設定を重ねて検証するのだ。
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := opts.ConfigFile
	if !cmd.Flags().Changed("config") {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗したのだ: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = opts.OutputDir
	}
	if flags.Changed("model") {
		cfg.GeminiModel = opts.AIModel
	}
	if flags.Changed("image-model") {
		cfg.ImageModel = opts.ImageModel
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.BatchSize
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.Concurrency
	}
	if flags.Changed("reference-policy") {
		cfg.ReferencePolicy = opts.RefPolicy
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正なのだ: %w", err)
	}
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger は、stderr にテキスト形式でログを出すのだ。
func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// readStory は、--file、引数、標準入力の順に物語テキストを読み込むのだ。
func readStory(args []string, stdin io.Reader, stdinIsPipe bool) (string, error) {
	switch {
	case opts.StoryFile == "-":
		return readAll(stdin)
	case opts.StoryFile != "":
		data, err := os.ReadFile(opts.StoryFile)
		if err != nil {
			return "", fmt.Errorf("物語ファイル '%s' の読み込みに失敗したのだ: %w", opts.StoryFile, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case stdinIsPipe:
		return readAll(stdin)
	}
	return "", fmt.Errorf("物語（--file、引数、または標準入力）を指定してほしいのだ")
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("標準入力の読み込みに失敗したのだ: %w", err)
	}
	return string(data), nil
}

// resolveTitle は、タイトルが指定されていなければ物語の最初の空でない行を使うのだ。
func resolveTitle(title, story string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	for _, line := range strings.Split(story, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxTitleRunes {
			return string(r[:maxTitleRunes]) + "…"
		}
		return line
	}
	return "Untitled"
}

const maxTitleRunes = 40

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, scriptCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
