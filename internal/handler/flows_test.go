package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"pinyinmatch/internal/domain"
	"pinyinmatch/internal/repository"
	"pinyinmatch/internal/repository/memory"
	"pinyinmatch/internal/service"
	"pinyinmatch/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

const testUserID int64 = 42

// fakeContext records what a handler sends, edits and answers
type fakeContext struct {
	tele.Context

	mu        sync.Mutex
	sender    *tele.User
	text      string
	callback  *tele.Callback
	sent      []string
	edited    []string
	markups   []*tele.ReplyMarkup
	responses []string
}

func newMessage(text string) *fakeContext {
	return &fakeContext{sender: &tele.User{ID: testUserID}, text: text}
}

func newCallback(data string) *fakeContext {
	return &fakeContext{
		sender:   &tele.User{ID: testUserID},
		callback: &tele.Callback{ID: "cb", Data: data},
	}
}

func (c *fakeContext) Sender() *tele.User       { return c.sender }
func (c *fakeContext) Text() string             { return c.text }
func (c *fakeContext) Callback() *tele.Callback { return c.callback }

func (c *fakeContext) record(list *[]string, what interface{}, opts []interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, _ := what.(string)
	*list = append(*list, text)
	var markup *tele.ReplyMarkup
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			markup = m
		}
	}
	c.markups = append(c.markups, markup)
}

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.record(&c.sent, what, opts)
	return nil
}

func (c *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	c.record(&c.edited, what, opts)
	return nil
}

func (c *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := ""
	if len(resp) > 0 && resp[0] != nil {
		text = resp[0].Text
	}
	c.responses = append(c.responses, text)
	return nil
}

// last returns the most recent sent or edited text
func (c *fakeContext) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.edited) > 0 {
		return c.edited[len(c.edited)-1]
	}
	if len(c.sent) > 0 {
		return c.sent[len(c.sent)-1]
	}
	return ""
}

func (c *fakeContext) lastMarkup() *tele.ReplyMarkup {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.markups) == 0 {
		return nil
	}
	return c.markups[len(c.markups)-1]
}

func (c *fakeContext) lastResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.responses) == 0 {
		return ""
	}
	return c.responses[len(c.responses)-1]
}

type chatFixture struct {
	h        *Handler
	store    repository.KVStore
	sessions *service.Sessions
	player   *testutil.FakePlayer
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	store := memory.NewKVStore()
	remote := new(testutil.MockRemoteSynthesizer)
	remote.On("Synthesize", mock.Anything, mock.Anything).Return(testutil.SilentMP3(1), nil)
	player := &testutil.FakePlayer{}

	sessions := service.NewSessions(func(ctx context.Context, userID int64) (*service.Session, error) {
		return service.OpenSession(ctx, service.SessionConfig{
			UserID: userID,
			Store:  repository.Namespace(store, "user:"+itoa(int(userID))),
			Remote: remote,
			Player: player,
			Logger: testutil.NewTestLogger(),
		})
	})
	t.Cleanup(sessions.CloseAll)

	auth := service.NewAuthService(store, "secret")
	require.NoError(t, auth.AuthorizeUser(context.Background(), testUserID))

	return &chatFixture{
		h:        NewHandler(nil, auth, sessions, testutil.NewTestLogger()),
		store:    store,
		sessions: sessions,
		player:   player,
	}
}

func (f *chatFixture) session(t *testing.T) *service.Session {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), testUserID)
	require.NoError(t, err)
	return sess
}

func (f *chatFixture) addWords(t *testing.T, n int) {
	t.Helper()
	sess := f.session(t)
	for _, p := range testutil.NewTestWords(n) {
		require.NoError(t, sess.Words.Add(context.Background(), p))
	}
}

func TestHandleText_AddPairFlow(t *testing.T) {
	f := newChatFixture(t)

	c := newCallback("add_pair")
	require.NoError(t, f.h.handleAddPair(c))
	assert.Equal(t, domain.StateWaitingPinyin, f.h.GetState(testUserID).State)
	assert.Contains(t, c.last(), "Send the pinyin")

	c = newMessage("  chá ")
	require.NoError(t, f.h.handleText(c))
	state := f.h.GetState(testUserID)
	assert.Equal(t, domain.StateWaitingEnglish, state.State)
	assert.Equal(t, "chá", state.PendingPinyin)
	assert.Equal(t, "Now send the English for “chá”", c.last())

	c = newMessage("tea")
	require.NoError(t, f.h.handleText(c))
	assert.Equal(t, domain.StateWaitingPinyin, f.h.GetState(testUserID).State)
	assert.Contains(t, c.last(), "Saved: chá ↔ tea")

	assert.Equal(t, []domain.WordPair{{Pinyin: "chá", English: "tea"}}, f.session(t).Words.Pairs())

	// persisted under the user's namespace
	raw, ok, err := f.store.Get(context.Background(), "user:42:pinyin-english-pairs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "chá")
}

func TestHandleText_IgnoresCommands(t *testing.T) {
	f := newChatFixture(t)

	c := newMessage("/start")
	require.NoError(t, f.h.handleText(c))

	assert.Empty(t, c.sent)
	assert.Equal(t, domain.StateIdle, f.h.GetState(testUserID).State)
}

func TestHandleText_BulkAdd(t *testing.T) {
	f := newChatFixture(t)

	require.NoError(t, f.h.handleBulkAdd(newCallback("bulk_add")))
	assert.Equal(t, domain.StateWaitingBulk, f.h.GetState(testUserID).State)

	// nothing parseable keeps waiting for pairs
	c := newMessage("just some words")
	require.NoError(t, f.h.handleText(c))
	assert.Contains(t, c.last(), "No pairs added.")
	assert.Equal(t, domain.StateWaitingBulk, f.h.GetState(testUserID).State)
	assert.Equal(t, 0, f.session(t).Words.Len())

	c = newMessage("nǐ hǎo - hello\nnot a pair\nxièxie, thank you")
	require.NoError(t, f.h.handleText(c))

	assert.Contains(t, c.last(), "Added 2 pair(s). 1 skipped.")
	assert.Equal(t, domain.StateIdle, f.h.GetState(testUserID).State)
	assert.Equal(t, []domain.WordPair{
		{Pinyin: "nǐ hǎo", English: "hello"},
		{Pinyin: "xièxie", English: "thank you"},
	}, f.session(t).Words.Pairs())
}

func TestHandleText_PasswordGate(t *testing.T) {
	f := newChatFixture(t)
	require.NoError(t, f.h.authService.RevokeUser(context.Background(), testUserID))

	c := newMessage("guess")
	require.NoError(t, f.h.handleText(c))
	assert.Equal(t, "Wrong password.", c.last())

	c = newMessage("secret")
	require.NoError(t, f.h.handleText(c))
	assert.Contains(t, c.last(), "Access granted")

	authorized, err := f.h.authService.IsAuthorized(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, authorized)
}

func TestClearWords_RequiresConfirmation(t *testing.T) {
	f := newChatFixture(t)
	f.addWords(t, 3)

	c := newCallback("clear_words")
	require.NoError(t, f.h.handleClearWords(c))
	assert.Equal(t, "Delete all word pairs?", c.last())
	kb := c.lastMarkup().InlineKeyboard
	require.Len(t, kb, 2)
	assert.Equal(t, btnClearConfirm.Unique, kb[0][0].Unique)
	assert.Equal(t, btnCancel.Unique, kb[1][0].Unique)
	assert.Equal(t, 3, f.session(t).Words.Len())

	c = newCallback("clear_confirm")
	require.NoError(t, f.h.handleClearConfirm(c))
	assert.Contains(t, c.last(), "All pairs deleted")
	assert.Equal(t, 0, f.session(t).Words.Len())
}

func TestRemove_FromLaterPage(t *testing.T) {
	f := newChatFixture(t)
	sess := f.session(t)
	for i := 0; i < wordsPerPage+2; i++ {
		require.NoError(t, sess.Words.Add(context.Background(), domain.WordPair{Pinyin: "p" + itoa(i), English: "e" + itoa(i)}))
	}

	c := newCallback("page_1")
	require.NoError(t, f.h.handleCallback(c))
	assert.Contains(t, c.last(), "page 2/2")

	c = newCallback("remove_" + itoa(wordsPerPage+1))
	require.NoError(t, f.h.handleCallback(c))

	assert.Equal(t, wordsPerPage+1, sess.Words.Len())
	assert.Contains(t, c.last(), "page 2/2")
	assert.NotContains(t, c.last(), "p"+itoa(wordsPerPage+1)+" ↔")
}

func TestPickAndDrop_CompletesRound(t *testing.T) {
	f := newChatFixture(t)
	f.addWords(t, 2)

	c := newCallback("start_round")
	require.NoError(t, f.h.handleStartRound(c))
	assert.Contains(t, c.last(), "Matched: 0 / 2")

	engine := f.session(t).Board.Engine()
	pinyin := engine.PinyinCards()

	// english card tapped before any pick
	c = newCallback("drop_0")
	require.NoError(t, f.h.handleDrop(c, "drop_"+itoa(pinyin[0].PairID)))
	assert.Equal(t, "Pick a pinyin card first", c.lastResponse())

	c = newCallback("pick")
	require.NoError(t, f.h.handlePick(c, "pick_"+itoa(pinyin[0].PairID)))
	assert.Contains(t, c.last(), "Selected: "+pinyin[0].Text)
	assert.Eventually(t, func() bool {
		return len(f.player.Played()) == 1
	}, time.Second, 5*time.Millisecond)

	c = newCallback("drop")
	require.NoError(t, f.h.handleDrop(c, "drop_"+itoa(pinyin[1].PairID)))
	assert.Equal(t, "Not a match", c.lastResponse())
	matched, _ := engine.Score()
	assert.Equal(t, 0, matched)

	c = newCallback("drop")
	require.NoError(t, f.h.handleDrop(c, "drop_"+itoa(pinyin[0].PairID)))
	assert.Contains(t, c.last(), "Matched: 1 / 2")
	assert.Contains(t, c.lastMarkup().InlineKeyboard[0][0].Text, "✅")

	require.NoError(t, f.h.handlePick(newCallback("pick"), "pick_"+itoa(pinyin[1].PairID)))
	c = newCallback("drop")
	require.NoError(t, f.h.handleDrop(c, "drop_"+itoa(pinyin[1].PairID)))

	assert.Contains(t, c.last(), "Matched: 2 / 2")
	assert.Contains(t, c.last(), "All matched! Well done.")
	kb := c.lastMarkup().InlineKeyboard
	require.Len(t, kb, 2)
	assert.Equal(t, btnStartRound.Unique, kb[0][0].Unique)
}

func TestStartRound_NeedsTwoPairs(t *testing.T) {
	f := newChatFixture(t)
	f.addWords(t, 1)

	c := newCallback("start_round")
	require.NoError(t, f.h.handleStartRound(c))

	assert.Equal(t, "Add at least 2 word pairs to start", c.last())
}

func TestVoiceToggle_MutingStopsPlayback(t *testing.T) {
	f := newChatFixture(t)
	sess := f.session(t)

	require.NoError(t, sess.Speech.Speak(context.Background(), "chá"))
	played := f.player.Played()
	require.Len(t, played, 1)
	require.False(t, played[0].Stopped())

	c := newCallback("voice_toggle")
	require.NoError(t, f.h.handleVoiceToggle(c))

	assert.True(t, played[0].Stopped())
	assert.False(t, sess.Prefs.Current().Enabled)
	assert.Contains(t, c.last(), "Pronunciation: muted")

	// muted sessions stay silent
	require.NoError(t, sess.Speech.Speak(context.Background(), "shuǐ"))
	assert.Len(t, f.player.Played(), 1)

	c = newCallback("voice_toggle")
	require.NoError(t, f.h.handleVoiceToggle(c))
	assert.True(t, sess.Prefs.Current().Enabled)
	assert.Contains(t, c.last(), "Pronunciation: on")
}
