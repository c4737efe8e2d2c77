package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"article-shorts-pipeline/assemble"
	"article-shorts-pipeline/audio"
	"article-shorts-pipeline/config"
	"article-shorts-pipeline/extract"
	"article-shorts-pipeline/logger"
	"article-shorts-pipeline/metadata"
	"article-shorts-pipeline/script"
	"article-shorts-pipeline/types"
	"article-shorts-pipeline/upload"
	"article-shorts-pipeline/visuals"
)

const extractTimeout = 30 * time.Second

// Extractor fetches and normalizes a remote article.
type Extractor interface {
	Fetch(ctx context.Context, url string) (*types.Article, error)
}

// Synthesizer produces the narration track for a script.
type Synthesizer interface {
	Synthesize(ctx context.Context, s *types.Script, outDir string) (*types.AudioTrack, error)
}

// Renderer produces the ordered per-segment video clips.
type Renderer interface {
	RenderAll(ctx context.Context, s *types.Script, durations []float64, outDir string) (*types.VideoTrack, error)
}

// Assembler merges the tracks into the final artifact.
type Assembler interface {
	Assemble(ctx context.Context, v *types.VideoTrack, a *types.AudioTrack, outDir string, force bool) (*types.FinalArtifact, error)
}

// Publisher optionally publishes a merged video.
type Publisher interface {
	Run(ctx context.Context, videoFile string, meta *types.VideoMetadata) (string, string, error)
}

// Source selects the article origin: exactly one of a remote URL or a
// local article JSON path.
type Source struct {
	URL      string
	JSONPath string
}

func (s Source) validate() error {
	if (s.URL == "") == (s.JSONPath == "") {
		return fmt.Errorf("exactly one of url or json path must be given")
	}
	return nil
}

// Generator runs the full pipeline: article → script → narration →
// segment clips → final artifact. Stages run sequentially; any stage
// failure aborts the remaining stages.
type Generator struct {
	cfg       *config.Config
	extractor Extractor
	composer  *script.Composer
	synth     Synthesizer
	renderer  Renderer
	assembler Assembler
	publisher Publisher

	// Force allows overwriting a prior final artifact.
	Force bool
}

// New wires a Generator from the default components.
func New(cfg *config.Config) (*Generator, error) {
	engine, err := audio.NewCommandEngine(cfg.Audio.TTSCommand, cfg.Audio.Voice)
	if err != nil {
		return nil, err
	}
	renderer, err := visuals.NewRenderer(cfg.Visuals)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:       cfg,
		extractor: extract.New(extractTimeout),
		composer:  script.NewComposer(cfg.Script),
		synth:     audio.NewSynthesizer(cfg.Audio, engine),
		renderer:  renderer,
		assembler: assemble.NewAssembler(cfg.Assemble),
	}
	if cfg.Upload.Enabled {
		g.publisher = upload.New(cfg.Upload)
	}
	return g, nil
}

// NewWithComponents wires a Generator from explicit components.
func NewWithComponents(cfg *config.Config, ex Extractor, sy Synthesizer, re Renderer, as Assembler) *Generator {
	return &Generator{
		cfg:       cfg,
		extractor: ex,
		composer:  script.NewComposer(cfg.Script),
		synth:     sy,
		renderer:  re,
		assembler: as,
	}
}

type runDirs struct {
	articles, scripts, videos, audio, final string
}

// Generate is the single entry point the CLI layer calls.
func (g *Generator) Generate(ctx context.Context, src Source, outputDir, language string) (artifact *types.FinalArtifact, err error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if language == "" {
		language = g.cfg.Language
	}

	dirs, err := g.makeDirs(outputDir)
	if err != nil {
		return nil, err
	}

	state := &types.RunState{
		RunID:     uuid.NewString()[:8],
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Source:    src.URL + src.JSONPath,
		Language:  language,
	}
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		state.Artifact = artifact
		if err != nil {
			state.Error = err.Error()
		}
		if saveErr := types.SaveJSON(filepath.Join(outputDir, "run_state.json"), state); saveErr != nil {
			logger.L().Warnf("[pipeline] could not save run state: %v", saveErr)
		}
	}()

	logger.L().Infof("[pipeline] run %s starting", state.RunID)

	var article *types.Article
	if src.URL != "" {
		article, err = g.extractor.Fetch(ctx, src.URL)
	} else {
		article, err = types.LoadArticle(src.JSONPath)
	}
	if err != nil {
		return nil, err
	}

	slug := Slugify(article.Title)
	state.ArticleFile = filepath.Join(dirs.articles, slug+".json")
	if err = types.SaveJSON(state.ArticleFile, article); err != nil {
		return nil, err
	}

	scr, err := g.composer.Compose(article, language)
	if err != nil {
		return nil, err
	}
	state.ScriptFile = filepath.Join(dirs.scripts, slug+"-script.json")
	if err = types.SaveJSON(state.ScriptFile, scr); err != nil {
		return nil, err
	}

	artifact, err = g.produce(ctx, scr, dirs, state)
	if err != nil {
		return nil, err
	}

	g.maybePublish(ctx, article, artifact)
	logger.L().Infof("[pipeline] run %s complete: %s artifact", state.RunID, artifact.Kind)
	return artifact, nil
}

// GenerateFromScript re-runs the media stages from a persisted script,
// skipping extraction and composition.
func (g *Generator) GenerateFromScript(ctx context.Context, scriptPath, outputDir string) (artifact *types.FinalArtifact, err error) {
	scr, err := types.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}

	dirs, err := g.makeDirs(outputDir)
	if err != nil {
		return nil, err
	}

	state := &types.RunState{
		RunID:      uuid.NewString()[:8],
		StartedAt:  time.Now().UTC().Format(time.RFC3339),
		Source:     scriptPath,
		Language:   scr.Language,
		ScriptFile: scriptPath,
	}
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		state.Artifact = artifact
		if err != nil {
			state.Error = err.Error()
		}
		if saveErr := types.SaveJSON(filepath.Join(outputDir, "run_state.json"), state); saveErr != nil {
			logger.L().Warnf("[pipeline] could not save run state: %v", saveErr)
		}
	}()

	return g.produce(ctx, scr, dirs, state)
}

// produce runs synthesize → render → assemble. Rendering happens after
// synthesis so every clip is cut to its real narration span; the
// renderer itself also accepts the estimate-first ordering.
func (g *Generator) produce(ctx context.Context, scr *types.Script, dirs runDirs, state *types.RunState) (*types.FinalArtifact, error) {
	track, err := g.synth.Synthesize(ctx, scr, dirs.audio)
	if err != nil {
		return nil, err
	}
	state.AudioFile = track.File

	durations := make([]float64, len(track.Offsets))
	for i, off := range track.Offsets {
		durations[i] = off.Span()
	}

	video, err := g.renderer.RenderAll(ctx, scr, durations, dirs.videos)
	if err != nil {
		return nil, err
	}

	artifact, err := g.assembler.Assemble(ctx, video, track, dirs.final, g.Force)
	if err != nil {
		return nil, err
	}
	state.VideoFile = video.File
	return artifact, nil
}

func (g *Generator) maybePublish(ctx context.Context, article *types.Article, artifact *types.FinalArtifact) {
	if g.publisher == nil || artifact.Kind != types.ArtifactMerged {
		return
	}
	meta := metadata.Build(article, g.cfg.Upload)
	if _, _, err := g.publisher.Run(ctx, artifact.VideoFile, meta); err != nil {
		logger.L().Warnf("[pipeline] upload failed: %v (artifact kept locally)", err)
	}
}

func (g *Generator) makeDirs(outputDir string) (runDirs, error) {
	dirs := runDirs{
		articles: filepath.Join(outputDir, g.cfg.Paths.Articles),
		scripts:  filepath.Join(outputDir, g.cfg.Paths.Scripts),
		videos:   filepath.Join(outputDir, g.cfg.Paths.Videos),
		audio:    filepath.Join(outputDir, g.cfg.Paths.Audio),
		final:    filepath.Join(outputDir, g.cfg.Paths.Final),
	}
	for _, d := range []string{dirs.articles, dirs.scripts, dirs.videos, dirs.audio, dirs.final} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return runDirs{}, fmt.Errorf("create dir %s: %w", d, err)
		}
	}
	return dirs, nil
}

// Slugify turns a title into a safe lowercase filename stem.
func Slugify(title string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "article"
	}
	return slug
}
