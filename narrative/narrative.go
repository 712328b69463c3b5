package narrative

import (
	"context"
	"net/http"
	"time"

	"github.com/mager/tastebud/config"
	"github.com/mager/tastebud/tastebud"
	"go.uber.org/zap"
)

// Kind selects the prompt and the fallback template.
type Kind int

const (
	TasteAnalysis Kind = iota
	MoodPlaylist
)

func (k Kind) String() string {
	switch k {
	case MoodPlaylist:
		return "mood_playlist"
	default:
		return "taste_analysis"
	}
}

// Generator turns listening data into prose. It prefers the text-generation
// service and falls back to a local template when the service is not
// configured or fails.
type Generator struct {
	log    *zap.SugaredLogger
	client *HuggingFace
	now    func() time.Time
}

// New returns a Generator. A nil client always uses the local template.
func New(log *zap.SugaredLogger, client *HuggingFace) *Generator {
	return &Generator{log: log, client: client, now: time.Now}
}

func ProvideGenerator(cfg config.Config, log *zap.SugaredLogger) *Generator {
	if cfg.HuggingFaceAPIKey == "" {
		log.Warn("no Hugging Face API key, narratives will use the local template")
		return New(log, nil)
	}
	client := NewHuggingFace(
		cfg.HuggingFaceURL,
		cfg.HuggingFaceModel,
		cfg.HuggingFaceAPIKey,
		&http.Client{Timeout: 60 * time.Second},
	)
	log.Infow("setting up narrative generator", "model", cfg.HuggingFaceModel)
	return New(log, client)
}

var Options = ProvideGenerator

// Remote reports whether a text-generation service is configured.
func (g *Generator) Remote() bool {
	return g.client != nil
}

// Generate never fails: any problem with the remote service yields the
// local template.
func (g *Generator) Generate(ctx context.Context, kind Kind, data tastebud.ListeningData) string {
	if g.client == nil {
		return g.fallback(kind, data)
	}

	prompt, err := renderPrompt(kind, data)
	if err != nil {
		g.log.Errorw("error rendering prompt", "kind", kind, "error", err)
		return g.fallback(kind, data)
	}

	text, err := g.client.Generate(ctx, prompt)
	if err != nil {
		g.log.Errorw("error generating narrative, using local template", "kind", kind, "error", err)
		return g.fallback(kind, data)
	}
	return text
}

func (g *Generator) fallback(kind Kind, data tastebud.ListeningData) string {
	switch kind {
	case MoodPlaylist:
		return moodPlaylist(data)
	default:
		return tasteAnalysis(data, g.now())
	}
}
