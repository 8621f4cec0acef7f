// Voxtale — a story player for generated voices.
//
// Usage:
//
//	voxtale [-verbose] [-quiet] <command> [args]
//
// Commands:
//
//	voices                      list voice profiles
//	voice-create                record (or load) reference audio and create a voice
//	voice-delete <id>           delete a voice profile
//	generate                    submit a TTS generation and wait for it
//	stories                     list stories
//	compose                     assemble a story from existing clips and upload it
//	play <story-id>             play a story in the interactive player
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"voxtale/internal/api"
	"voxtale/internal/audio"
	"voxtale/internal/clips"
	"voxtale/internal/config"
	"voxtale/internal/display"
	"voxtale/internal/domain"
	"voxtale/internal/logger"
	"voxtale/internal/playback"
	"voxtale/internal/record"
	"voxtale/internal/storage"
	"voxtale/internal/timeline"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (use \"stderr\" to log to console; overrides VOXTALE_LOG_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	if *quiet {
		level = "panic"
	}

	// Direct logs to a file by default so the terminal stays clean for
	// the player UI.
	target := cfg.LogFile
	if *logFile != "" {
		target = *logFile
	}
	var logOut io.Writer = os.Stderr
	if target != "" && target != "stderr" {
		dir := filepath.Dir(target)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", target, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by some audio backends)
	// to the same output so it doesn't spam the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(level, logOut)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := api.NewClient(cfg.APIURL, cfg.APIKey, log)

	app := &cliApp{cfg: cfg, client: client, log: log}

	cmd := flag.Arg(0)
	if cmd == "" {
		fmt.Println(display.RenderBanner())
		flag.Usage()
		os.Exit(2)
	}

	if err := app.dispatch(ctx, cmd, flag.Args()[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type cliApp struct {
	cfg    config.Config
	client *api.Client
	log    *logrus.Logger
}

func (a *cliApp) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "voices":
		return a.listVoices(ctx)
	case "voice-create":
		return a.createVoice(ctx, args)
	case "voice-delete":
		if len(args) != 1 {
			return errors.New("usage: voxtale voice-delete <id>")
		}
		return a.client.DeleteVoice(ctx, args[0])
	case "generate":
		return a.generate(ctx, args)
	case "stories":
		return a.listStories(ctx)
	case "compose":
		return a.compose(ctx, args)
	case "play":
		return a.play(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// ── voices ───────────────────────────────────────────────────────

func (a *cliApp) listVoices(ctx context.Context) error {
	voices, err := a.client.ListVoices(ctx)
	if err != nil {
		return err
	}
	if len(voices) == 0 {
		fmt.Println("No voice profiles yet. Create one with 'voxtale voice-create'.")
		return nil
	}
	for _, v := range voices {
		line := fmt.Sprintf("%s  %s", v.ID, v.Name)
		if v.Language != "" {
			line += "  (" + v.Language + ")"
		}
		fmt.Println(line)
		if v.Description != "" {
			fmt.Println("    " + v.Description)
		}
	}
	return nil
}

func (a *cliApp) createVoice(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("voice-create", flag.ExitOnError)
	name := fs.String("name", "", "voice profile name (required)")
	description := fs.String("description", "", "voice profile description")
	language := fs.String("language", "", "language hint, e.g. \"en\"")
	file := fs.String("file", "", "use an existing WAV file instead of recording")
	secs := fs.Int("secs", 10, "seconds of reference audio to record")
	fs.Parse(args)

	if *name == "" {
		return errors.New("voice-create: -name is required")
	}

	var wavBytes []byte
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", *file, err)
		}
		wavBytes = data
	} else {
		rec := record.New(a.log)
		fmt.Printf("Recording %ds of reference audio — speak naturally...\n", *secs)

		recCtx, cancel := context.WithTimeout(ctx, time.Duration(*secs)*time.Second)
		dur, err := rec.Record(recCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("recording: %w", err)
		}
		fmt.Printf("Captured %.1fs.\n", dur.Seconds())

		if err := record.ValidateReference(rec.Samples(), record.SampleRate); err != nil {
			return fmt.Errorf("reference audio rejected: %w", err)
		}

		out := filepath.Join(os.TempDir(), "voxtale-reference.wav")
		wavBytes, err = rec.WriteWAV(out)
		if err != nil {
			return err
		}
		a.log.Debugf("reference take written to %s", out)
	}

	voice, err := a.client.CreateVoice(ctx, *name, *description, *language, wavBytes)
	if err != nil {
		return err
	}
	fmt.Printf("Created voice %s (%s)\n", voice.ID, voice.Name)
	return nil
}

// ── generations ──────────────────────────────────────────────────

func (a *cliApp) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	text := fs.String("text", "", "text to speak (required)")
	voiceID := fs.String("voice", "", "voice profile id (required)")
	pitch := fs.Float64("pitch", 0, "pitch shift in semitones (-12..12)")
	formant := fs.Float64("formant", 0, "formant shift factor (0.7..1.4, 0 = backend default)")
	blendVoice := fs.String("blend-voice", "", "second voice id to blend with")
	blendWeight := fs.Float64("blend-weight", 0, "blend weight toward the second voice (0..1)")
	fs.Parse(args)

	gen, err := a.client.CreateGeneration(ctx, domain.GenerationParams{
		Text:           *text,
		VoiceID:        *voiceID,
		PitchSemitones: *pitch,
		FormantShift:   *formant,
		BlendVoiceID:   *blendVoice,
		BlendWeight:    *blendWeight,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Generation %s submitted, waiting...\n", gen.ID)
	gen, err = a.client.WaitForGeneration(ctx, gen.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Done: clip %s (%.1fs)\n", gen.ID, gen.DurationSeconds)
	return nil
}

// ── stories ──────────────────────────────────────────────────────

func (a *cliApp) listStories(ctx context.Context) error {
	stories, err := a.client.ListStories(ctx)
	if err != nil {
		return err
	}
	if len(stories) == 0 {
		fmt.Println("No stories yet. Build one with 'voxtale compose'.")
		return nil
	}
	for _, s := range stories {
		total := time.Duration(s.TotalDurationMs()) * time.Millisecond
		fmt.Printf("%s  %-30s  %d clips, %s\n", s.ID, s.Title, len(s.Items), total.Round(time.Second))
	}
	return nil
}

// compose assembles a story from clip placements given as
// "clipID@startMs:durationSecs" arguments, keeps the draft locally,
// then uploads it.
func (a *cliApp) compose(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compose", flag.ExitOnError)
	title := fs.String("title", "", "story title (required)")
	fs.Parse(args)

	if *title == "" {
		return errors.New("compose: -title is required")
	}
	if fs.NArg() == 0 {
		return errors.New("compose: at least one clipID@startMs:durationSecs placement is required")
	}

	draft := &domain.Story{
		ID:        uuid.NewString(),
		Title:     *title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, arg := range fs.Args() {
		item, err := parsePlacement(arg)
		if err != nil {
			return fmt.Errorf("compose: %w", err)
		}
		draft.Items = append(draft.Items, item)
	}

	// Keep the draft locally so a failed upload doesn't lose the layout.
	drafts := storage.NewMemoryStore(a.log)
	if err := drafts.Save(ctx, draft); err != nil {
		return err
	}

	story, err := a.client.CreateStory(ctx, draft)
	if err != nil {
		return fmt.Errorf("uploading story (draft %s kept): %w", draft.ID, err)
	}
	_ = drafts.Delete(ctx, draft.ID)

	fmt.Printf("Created story %s (%q, %d clips)\n", story.ID, story.Title, len(story.Items))
	return nil
}

// parsePlacement parses "clipID@startMs:durationSecs".
func parsePlacement(s string) (domain.TimelineItem, error) {
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return domain.TimelineItem{}, fmt.Errorf("bad placement %q, want clipID@startMs:durationSecs", s)
	}
	clipID := s[:at]

	rest := s[at+1:]
	colon := strings.Index(rest, ":")
	if colon <= 0 {
		return domain.TimelineItem{}, fmt.Errorf("bad placement %q, want clipID@startMs:durationSecs", s)
	}

	startMs, err := strconv.ParseFloat(rest[:colon], 64)
	if err != nil || startMs < 0 {
		return domain.TimelineItem{}, fmt.Errorf("bad start time in %q", s)
	}
	durSecs, err := strconv.ParseFloat(rest[colon+1:], 64)
	if err != nil || durSecs <= 0 {
		return domain.TimelineItem{}, fmt.Errorf("bad duration in %q", s)
	}

	return domain.TimelineItem{
		ID:              clipID,
		StartTimeMs:     startMs,
		DurationSeconds: durSecs,
	}, nil
}

// ── playback ─────────────────────────────────────────────────────

func (a *cliApp) play(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	noAudio := fs.Bool("no-audio", false, "run the player without a sound device (clock only)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: voxtale play [-no-audio] <story-id>")
	}
	storyID := fs.Arg(0)

	story, err := a.client.GetStory(ctx, storyID)
	if err != nil {
		return err
	}
	if len(story.Items) == 0 {
		return fmt.Errorf("story %s has no clips", storyID)
	}

	// Wire the playback chain: backend -> clip cache -> audio device,
	// driven by the scheduler off the timeline state.
	cache := clips.NewCache(a.cfg.CacheDir, a.cfg.DiskCache, a.log)
	library := clips.NewLibrary(a.client, cache, a.log)

	var device domain.Output = audio.NewDevice(library, a.log)
	if *noAudio {
		device = audio.NewNoop(a.log)
	}
	defer device.Close()

	state := timeline.New(a.log)
	scheduler := playback.New(state, device, a.log)

	// Warm the cache for the first clips while the UI comes up.
	ids := make([]string, 0, len(story.Items))
	for _, it := range story.Items {
		ids = append(ids, it.ID)
	}
	library.Prefetch(ctx, ids...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go scheduler.Run(runCtx)

	state.Play(story.ID, story.Items)

	player := display.NewPlayer(state, story)
	go func() {
		<-runCtx.Done()
		player.Quit()
	}()

	if err := player.Run(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	cancel()

	hits, misses := cache.Stats()
	a.log.Infof("playback finished (cache hits=%d misses=%d)", hits, misses)
	return nil
}
