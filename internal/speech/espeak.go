package speech

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"pinyinmatch/internal/domain"

	"go.uber.org/zap"
)

const (
	espeakBaseWPM       = 175
	espeakBasePitch     = 50
	espeakBaseAmplitude = 100
)

// espeak language codes that are Chinese but do not start with "zh"
var espeakLangAliases = map[string]string{
	"cmn": "zh-CN",
	"yue": "zh-HK",
	"hak": "zh-hak",
}

// ESpeak is a LocalSynthesizer backed by the espeak-ng binary. Rendered WAV
// audio is handed to a Player.
type ESpeak struct {
	bin    string
	player Player
	logger *zap.Logger

	catalogMu sync.Mutex
	catalog   []domain.Voice
	ids       map[string]string // voice name -> espeak voice id
	loaded    bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing Playback
}

// NewESpeak creates an espeak-ng synthesizer. bin defaults to "espeak-ng".
func NewESpeak(bin string, player Player, logger *zap.Logger) *ESpeak {
	if bin == "" {
		bin = "espeak-ng"
	}
	return &ESpeak{bin: bin, player: player, logger: logger}
}

// Voices lists the installed voices. The catalog is read once; a failed read
// is retried on the next call.
func (e *ESpeak) Voices(ctx context.Context) ([]domain.Voice, error) {
	e.catalogMu.Lock()
	defer e.catalogMu.Unlock()

	if e.loaded {
		return e.catalog, nil
	}

	out, err := exec.CommandContext(ctx, e.bin, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list espeak voices: %w", err)
	}

	voices, ids := parseVoiceList(string(out))
	e.catalog = voices
	e.ids = ids
	e.loaded = true

	e.logger.Info("Local voice catalog loaded", zap.Int("voices", len(voices)))
	return voices, nil
}

// parseVoiceList parses `espeak-ng --voices` output:
//
//	Pty Language Age/Gender VoiceName File Other Languages
//	 5  cmn      --/M       Chinese_(Mandarin) sit/cmn (zh-cmn 5)(zh 5)
func parseVoiceList(out string) ([]domain.Voice, map[string]string) {
	var voices []domain.Voice
	ids := make(map[string]string)

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}

		id := fields[1]
		lang := id
		if alias, ok := espeakLangAliases[strings.ToLower(id)]; ok {
			lang = alias
		}
		name := fields[3]
		if strings.HasSuffix(fields[2], "/F") {
			name += " (female)"
		}

		voices = append(voices, domain.Voice{Name: name, Lang: lang})
		ids[name] = id
	}
	return voices, ids
}

// Enqueue renders u with espeak-ng and plays it, replacing whatever this
// synthesizer was playing.
func (e *ESpeak) Enqueue(ctx context.Context, u Utterance) error {
	e.Cancel()

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	args := e.args(u)
	out, err := exec.CommandContext(ctx, e.bin, args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("espeak-ng failed: %w", err)
	}
	if len(out) == 0 {
		return ErrEmptyClip
	}

	playback, err := e.player.Play(ctx, Clip{
		Data:     out,
		MIME:     "audio/wav",
		FileName: "speech.wav",
		Title:    u.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to play local speech: %w", err)
	}

	e.mu.Lock()
	if ctx.Err() != nil {
		e.mu.Unlock()
		playback.Stop()
		return ctx.Err()
	}
	e.playing = playback
	e.mu.Unlock()

	return nil
}

func (e *ESpeak) args(u Utterance) []string {
	voiceID := strings.ToLower(u.Lang)
	if u.Voice != nil {
		e.catalogMu.Lock()
		if id, ok := e.ids[u.Voice.Name]; ok {
			voiceID = id
		}
		e.catalogMu.Unlock()
	}
	if voiceID == "" {
		voiceID = "en-us"
	}

	return []string{
		"-v", voiceID,
		"-s", strconv.Itoa(scale(espeakBaseWPM, u.Rate)),
		"-p", strconv.Itoa(min(scale(espeakBasePitch, u.Pitch), 99)),
		"-a", strconv.Itoa(min(scale(espeakBaseAmplitude, u.Volume), 200)),
		"--stdout",
		u.Text,
	}
}

func scale(base int, factor float64) int {
	if factor <= 0 {
		return base
	}
	return int(math.Round(float64(base) * factor))
}

// Cancel stops the utterance in flight, whether it is still rendering or playing.
func (e *ESpeak) Cancel() {
	e.mu.Lock()
	cancel, playing := e.cancel, e.playing
	e.cancel, e.playing = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if playing != nil {
		playing.Stop()
	}
}
