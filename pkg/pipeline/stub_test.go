package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-story-manga/pkg/domain"
)

var errStub = errors.New("stub failure")

type stubExtractor struct {
	chars    []domain.Character
	panels   []domain.Panel
	charErr  error
	panelErr error

	mu         sync.Mutex
	charCalls  int
	panelCalls int
	gotChars   []domain.Character
}

func (s *stubExtractor) ExtractCharacters(_ context.Context, _ string) ([]domain.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charCalls++
	if s.charErr != nil {
		return nil, s.charErr
	}
	return domain.Characters(s.chars).Clone(), nil
}

func (s *stubExtractor) ExtractPanels(_ context.Context, _ string, chars []domain.Character) ([]domain.Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelCalls++
	s.gotChars = chars
	if s.panelErr != nil {
		return nil, s.panelErr
	}
	return domain.Panels(s.panels).Clone(), nil
}

// stubImages は説明文の Setting 行を画像データとして返します。
type stubImages struct {
	failCharacters map[string]bool
	failSettings   map[string]bool
	panicSettings  map[string]bool
	delay          func(setting string) time.Duration
	portraitDelay  func(name string) time.Duration

	mu         sync.Mutex
	charCalls  int
	panelCalls int
	refs       [][]domain.Character
}

func (s *stubImages) SynthesizeCharacter(_ context.Context, c domain.Character) (string, error) {
	s.mu.Lock()
	s.charCalls++
	s.mu.Unlock()
	if s.portraitDelay != nil {
		time.Sleep(s.portraitDelay(c.Name))
	}
	if s.failCharacters[c.Name] {
		return "", errStub
	}
	return "portrait:" + c.Name, nil
}

func (s *stubImages) SynthesizePanel(_ context.Context, description string, refs []domain.Character) (string, error) {
	setting := settingOf(description)

	s.mu.Lock()
	s.panelCalls++
	s.refs = append(s.refs, refs)
	s.mu.Unlock()

	if s.delay != nil {
		time.Sleep(s.delay(setting))
	}
	if s.panicSettings[setting] {
		panic("synthesizer exploded")
	}
	if s.failSettings[setting] {
		return "", errStub
	}
	return "panel:" + setting, nil
}

func (s *stubImages) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charCalls, s.panelCalls
}

type stubDialogue struct {
	fail bool

	mu    sync.Mutex
	calls int
}

func (s *stubDialogue) CompositeDialogue(_ context.Context, imageBase64, dialogue string, _ domain.Panel) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail {
		return "", errStub
	}
	return imageBase64 + "+" + dialogue, nil
}

func (s *stubDialogue) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func settingOf(description string) string {
	first, _, _ := strings.Cut(description, "\n")
	return strings.TrimPrefix(first, "Setting: ")
}

func aliceAndBob() *stubExtractor {
	return &stubExtractor{
		chars: []domain.Character{
			{Name: "Alice", Appearance: "long blond hair, blue dress"},
			{Name: "Bob", Appearance: "tall, glasses"},
		},
		panels: []domain.Panel{
			{Setting: "park entrance", Characters: []string{"Alice"}, Expression: "Alice walks in", Dialogue: "What a nice day."},
			{Setting: "park bench", Characters: []string{"Bob"}, Expression: "Bob reads a book"},
			{Setting: "fountain", Characters: []string{"Alice", "Bob"}, Expression: "They meet", Dialogue: "Hi, Bob!"},
		},
	}
}

func newTestOrchestrator(t interface{ Fatalf(string, ...any) }, ext *stubExtractor, img *stubImages, dlg *stubDialogue, opts ...Option) *Orchestrator {
	o, err := New(Services{Extractor: ext, Images: img, Dialogue: dlg}, opts...)
	if err != nil {
		t.Fatalf("Orchestrator の生成に失敗しました: %v", err)
	}
	return o
}
