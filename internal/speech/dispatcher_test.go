package speech_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/speech"
	"pinyinmatch/internal/testutil"
	"pinyinmatch/internal/voice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) add(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

func (w *warnings) all() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.msgs...)
}

func newDispatcher(remote speech.RemoteSynthesizer, player speech.Player, local speech.LocalSynthesizer, pref domain.VoicePreference, w *warnings) *speech.Dispatcher {
	return speech.NewDispatcher(speech.Config{
		Remote:      remote,
		Player:      player,
		Local:       local,
		Preferences: testutil.StaticPreferences(pref),
		Warn:        w.add,
		SettleDelay: time.Millisecond,
		Logger:      testutil.NewTestLogger(),
	})
}

func TestDispatcher_Speak_Disabled(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	local := new(testutil.MockLocalSynthesizer)
	player := &testutil.FakePlayer{}

	d := newDispatcher(remote, player, local, domain.VoicePreference{Enabled: false}, &warnings{})

	err := d.Speak(context.Background(), "nǐ hǎo")

	assert.NoError(t, err)
	remote.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
	local.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	assert.Empty(t, player.Played())
}

func TestDispatcher_Speak_Blank(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	d := newDispatcher(remote, &testutil.FakePlayer{}, nil, domain.DefaultVoicePreference(), &warnings{})

	assert.NoError(t, d.Speak(context.Background(), "   "))
	remote.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

func TestDispatcher_Speak_RemoteReplacesPrevious(t *testing.T) {
	first, second := testutil.SilentMP3(1), testutil.SilentMP3(2)
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "nǐ hǎo").Return(first, nil)
	remote.On("Synthesize", mock.Anything, "xièxie").Return(second, nil)

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()

	player := &testutil.FakePlayer{}
	d := newDispatcher(remote, player, local, domain.DefaultVoicePreference(), &warnings{})

	require.NoError(t, d.Speak(context.Background(), "nǐ hǎo"))
	require.NoError(t, d.Speak(context.Background(), "xièxie"))

	played := player.Played()
	require.Len(t, played, 2)
	assert.Equal(t, first, played[0].Clip.Data)
	assert.Equal(t, "audio/mpeg", played[0].Clip.MIME)
	assert.True(t, played[0].Stopped())
	assert.False(t, played[1].Stopped())

	local.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	remote.AssertExpectations(t)

	d.Stop()
	assert.True(t, played[1].Stopped())
}

func TestDispatcher_Speak_Remote500FallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"GOOGLE_TTS_API_KEY not set"}`))
	}))
	defer srv.Close()

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return(testutil.NewTestVoices(), nil)
	local.On("Enqueue", mock.Anything, mock.MatchedBy(func(u speech.Utterance) bool {
		return u.Voice != nil && u.Voice.Name == "Tingting" &&
			u.Text == "nǐ hǎo" && u.Rate == speech.LocalRate
	})).Return(nil).Once()

	player := &testutil.FakePlayer{}
	w := &warnings{}
	d := newDispatcher(speech.NewRemoteClient(srv.URL, srv.Client()), player, local, domain.DefaultVoicePreference(), w)

	err := d.Speak(context.Background(), "nǐ hǎo")

	assert.NoError(t, err)
	local.AssertNumberOfCalls(t, "Enqueue", 1)
	local.AssertExpectations(t)
	assert.Empty(t, player.Played())
	assert.Empty(t, w.all())
}

func TestDispatcher_Speak_EmptyPayloadFallsBack(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "chá").Return([]byte{}, nil)

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return(testutil.NewTestVoices(), nil)
	local.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()

	player := &testutil.FakePlayer{}
	d := newDispatcher(remote, player, local, domain.DefaultVoicePreference(), &warnings{})

	require.NoError(t, d.Speak(context.Background(), "chá"))

	local.AssertNumberOfCalls(t, "Enqueue", 1)
	assert.Empty(t, player.Played())
}

func TestDispatcher_Speak_UndecodablePayloadFallsBack(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "chá").Return([]byte("<html>not mp3</html>"), nil)

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return(testutil.NewTestVoices(), nil)
	local.On("Enqueue", mock.Anything, mock.MatchedBy(func(u speech.Utterance) bool {
		return u.Voice != nil && u.Voice.Name == "Tingting" && u.Text == "chá"
	})).Return(nil).Once()

	player := &testutil.FakePlayer{}
	d := newDispatcher(remote, player, local, domain.DefaultVoicePreference(), &warnings{})

	require.NoError(t, d.Speak(context.Background(), "chá"))

	local.AssertExpectations(t)
	assert.Empty(t, player.Played())
}

// gatedPlayer blocks the first Play until release is closed
type gatedPlayer struct {
	testutil.FakePlayer
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedPlayer) Play(ctx context.Context, clip speech.Clip) (speech.Playback, error) {
	pb, err := p.FakePlayer.Play(ctx, clip)
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.started)
		<-p.release
	}
	return pb, err
}

func TestDispatcher_Speak_SupersededWhilePlaying(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "nǐ hǎo").Return(testutil.SilentMP3(1), nil)
	remote.On("Synthesize", mock.Anything, "chá").Return(nil, errors.New("offline"))

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return(testutil.NewTestVoices(), nil)
	local.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()

	player := &gatedPlayer{started: make(chan struct{}), release: make(chan struct{})}
	d := newDispatcher(remote, player, local, domain.DefaultVoicePreference(), &warnings{})

	done := make(chan error, 1)
	go func() { done <- d.Speak(context.Background(), "nǐ hǎo") }()
	<-player.started

	require.NoError(t, d.Speak(context.Background(), "chá"))
	close(player.release)
	require.NoError(t, <-done)

	played := player.Played()
	require.Len(t, played, 1)
	assert.True(t, played[0].Stopped())
	local.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestDispatcher_Speak_NoChineseVoice(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "lǜ chá").Return(nil, errors.New("connection refused"))

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return([]domain.Voice{{Name: "Daniel", Lang: "en-GB"}}, nil)
	local.On("Enqueue", mock.Anything, mock.MatchedBy(func(u speech.Utterance) bool {
		return u.Voice != nil && u.Voice.Name == "Daniel" && u.Text == "lu cha"
	})).Return(nil).Once()

	w := &warnings{}
	d := newDispatcher(remote, &testutil.FakePlayer{}, local, domain.DefaultVoicePreference(), w)

	require.NoError(t, d.Speak(context.Background(), "lǜ chá"))

	local.AssertExpectations(t)
	assert.Equal(t, []string{voice.NoChineseVoiceWarning}, w.all())
}

func TestDispatcher_Speak_PinnedVoice(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "nǐ hǎo").Return(nil, errors.New("timeout"))

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return(testutil.NewTestVoices(), nil)
	local.On("Enqueue", mock.Anything, mock.MatchedBy(func(u speech.Utterance) bool {
		return u.Voice != nil && u.Voice.Name == "Samantha" && u.Text == "ni hao" && u.Lang == "en-US"
	})).Return(nil).Once()

	w := &warnings{}
	pref := domain.VoicePreference{VoiceName: "Samantha", Enabled: true}
	d := newDispatcher(remote, &testutil.FakePlayer{}, local, pref, w)

	require.NoError(t, d.Speak(context.Background(), "nǐ hǎo"))

	local.AssertExpectations(t)
	assert.Empty(t, w.all())
}

func TestDispatcher_Speak_CatalogUnavailable(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "hǎo").Return(nil, errors.New("offline"))

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return(nil, errors.New("espeak-ng not found"))
	local.On("Enqueue", mock.Anything, mock.MatchedBy(func(u speech.Utterance) bool {
		return u.Voice == nil && u.Lang == voice.DefaultLang && u.Text == "hao"
	})).Return(nil).Once()

	w := &warnings{}
	d := newDispatcher(remote, &testutil.FakePlayer{}, local, domain.DefaultVoicePreference(), w)

	require.NoError(t, d.Speak(context.Background(), "hǎo"))

	local.AssertExpectations(t)
	assert.Equal(t, []string{voice.NoChineseVoiceWarning}, w.all())
}

func TestDispatcher_Speak_LocalFailure(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "hǎo").Return(nil, errors.New("offline"))

	local := new(testutil.MockLocalSynthesizer)
	local.On("Cancel").Return()
	local.On("Voices", mock.Anything).Return(testutil.NewTestVoices(), nil)
	local.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("espeak-ng failed"))

	d := newDispatcher(remote, &testutil.FakePlayer{}, local, domain.DefaultVoicePreference(), &warnings{})

	err := d.Speak(context.Background(), "hǎo")

	assert.Error(t, err)
}

func TestDispatcher_Speak_NoLocalSynthesizer(t *testing.T) {
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, "hǎo").Return(nil, errors.New("offline"))

	w := &warnings{}
	d := newDispatcher(remote, &testutil.FakePlayer{}, nil, domain.DefaultVoicePreference(), w)

	err := d.Speak(context.Background(), "hǎo")

	assert.ErrorIs(t, err, domain.ErrNoVoice)
	assert.Equal(t, []string{voice.NoChineseVoiceWarning}, w.all())
}
