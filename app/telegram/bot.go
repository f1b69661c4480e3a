// Package telegram delivers audio files to telegram users with a bot
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"
	tb "gopkg.in/tucnak/telebot.v2"

	"github.com/umputun/tube-relay/app/delivery"
)

// ErrNoBot returned by Send when the bot has no token
var ErrNoBot = errors.New("telegram bot is not configured")

// Opts defines bot parameters
type Opts struct {
	Token       string        // obtained from https://core.telegram.org/bots#3-how-do-i-create-a-bot
	Server      string        // bot api server, https://api.telegram.org by default
	Timeout     time.Duration // http client timeout, uploads included
	PollTimeout time.Duration // long polling timeout for incoming commands
	Performer   string        // used when job has no performer
	Footer      string        // line under the title in the caption
}

// Bot sends audio files to users and answers /start with the user's chat id
type Bot struct {
	opts Opts
	bot  *tb.Bot
	api  botAPI // same as bot, replaced in tests
}

// botAPI is a subset of telebot functions used by this package, allows to mock it in tests
type botAPI interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// NewBot makes a bot. Empty token makes a disabled bot, Send on it returns ErrNoBot.
func NewBot(opts Opts) (*Bot, error) {
	res := &Bot{opts: opts}
	if opts.Token == "" {
		log.Printf("[WARN] telegram token is not set, delivery disabled")
		return res, nil
	}

	if res.opts.Server == "" {
		res.opts.Server = "https://api.telegram.org"
	}
	if res.opts.PollTimeout <= 0 {
		res.opts.PollTimeout = 10 * time.Second
	}

	bot, err := tb.NewBot(tb.Settings{
		URL:    res.opts.Server,
		Token:  opts.Token,
		Poller: &tb.LongPoller{Timeout: res.opts.PollTimeout},
		Client: &http.Client{Timeout: opts.Timeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "can't initialize telegram bot")
	}
	res.bot, res.api = bot, bot
	bot.Handle("/start", res.onStart)
	bot.Handle("/id", res.onStart)
	log.Printf("[INFO] telegram bot %q initialized", bot.Me.Username)
	return res, nil
}

// Run polls for incoming commands until ctx is done. Returns right away for disabled bot.
func (b *Bot) Run(ctx context.Context) {
	if b.bot == nil {
		return
	}
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	log.Printf("[INFO] telegram bot started")
	b.bot.Start()
	log.Printf("[INFO] telegram bot stopped")
}

// Enabled is true for bot with a token
func (b *Bot) Enabled() bool {
	return b.api != nil
}

// Send uploads job's file as audio to job's chat
func (b *Bot) Send(ctx context.Context, job delivery.Job) error {
	if b.api == nil {
		return ErrNoBot
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	performer := job.Performer
	if performer == "" {
		performer = b.opts.Performer
	}
	audio := &tb.Audio{
		File:      tb.FromDisk(job.File),
		Duration:  job.Duration,
		Caption:   caption(job.Title, job.RequestedBy, b.opts.Footer),
		Title:     cleanText(job.Title, maxTitleLen),
		Performer: performer,
		FileName:  filepath.Base(job.File),
	}
	if strings.EqualFold(filepath.Ext(job.File), ".mp3") {
		audio.MIME = "audio/mpeg"
	}

	log.Printf("[DEBUG] sending %s (%s) to %d", job.File, job.Title, job.ChatID)
	if _, err := b.api.Send(&tb.Chat{ID: job.ChatID}, audio, tb.ModeHTML); err != nil {
		return errors.Wrapf(err, "can't send %s to %d", job.File, job.ChatID)
	}
	return nil
}

// onStart answers with ids the caller has to pass as user_id/chat_id
func (b *Bot) onStart(m *tb.Message) {
	if m == nil || m.Sender == nil || m.Chat == nil {
		return
	}
	msg := fmt.Sprintf("user_id: <code>%d</code>", m.Sender.ID)
	if m.Chat.ID != int64(m.Sender.ID) {
		msg += fmt.Sprintf("\nchat_id: <code>%d</code>", m.Chat.ID)
	}
	if _, err := b.api.Send(m.Chat, msg, tb.ModeHTML); err != nil {
		log.Printf("[WARN] can't reply to %d: %v", m.Chat.ID, err)
	}
}
