package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/places-collector/internal/catalog"
	"github.com/raine/places-collector/internal/collector"
	"github.com/raine/places-collector/internal/places"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Runner executes a collection run. *collector.Collector implements it.
type Runner interface {
	Run(ctx context.Context, req collector.Request, progress collector.ProgressFunc) (*collector.ResultSet, error)
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg            BotAPI
	state         BotState
	catalog       *catalog.Catalog
	defaultAPIKey string

	searchHandler *SearchHandler
}

// NewBot creates a new Bot instance. defaultAPIKey is used by chats that have
// not set their own key with /chave; it may be empty.
func NewBot(tg BotAPI, runner Runner, cat *catalog.Catalog, defaultAPIKey string) *Bot {
	bot := &Bot{
		tg:            tg,
		catalog:       cat,
		defaultAPIKey: defaultAPIKey,
	}

	bot.state = bot.NewBotState()
	bot.searchHandler = NewSearchHandler(tg, runner, cat)

	return bot
}

// Shutdown stops every session worker and cancels running searches.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like handleUpdate but waits for message processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	// Determine user ID from the update
	if update.CallbackQuery != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil && update.Message.From != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	session := b.state.getUserSession(userId)

	// Helper to send sync or async based on flag
	send := func(msg SessionMessage) {
		if sync {
			session.SendSync(msg)
		} else {
			session.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{
			Type:          "callback",
			Ctx:           ctx,
			CallbackQuery: update.CallbackQuery,
		})
		return
	}

	log.Info().Int64("userId", userId).Bool("command", update.Message.IsCommand()).Msg("got message")
	send(SessionMessage{
		Type:    "text",
		Ctx:     ctx,
		Message: update.Message,
	})
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
// No mutex locking is needed here since only one goroutine accesses session state.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case "text":
		b.handleTextMessage(ctx, session, msg.Message)
	case "search_complete":
		b.searchHandler.HandleSearchComplete(ctx, session, msg.SearchResult)
	}
}

// handleTextMessage processes text messages.
// Called from session worker - no locking needed.
func (b *Bot) handleTextMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if message.Text != "" && !strings.HasPrefix(message.Text, "/") {
		if b.searchHandler.HandleInput(ctx, session, message.Text) {
			return
		}
	}

	b.handleCommand(ctx, session, message)
}

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	command, args := parseCommand(message.Text)
	switch command {
	case "/start":
		session.reply(MsgStart)
	case "/ajuda":
		session.reply(MsgHelp)
	case "/chave":
		b.handleKeyCommand(session, message, args)
	case "/buscar":
		b.searchHandler.HandleSearchCommand(session, b.apiKeyFor(session))
	case "/cancelar":
		b.searchHandler.HandleCancelCommand(session)
	case "/categorias":
		b.handleCategoriesCommand(session)
	case "/versao":
		session.reply(MsgVersionInfo, Version, BuildTime)
	default:
		session.reply(MsgUnknownInput)
	}
}

// handleCallbackQuery handles inline keyboard button presses.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	b.tg.Request(callback)

	if strings.HasPrefix(query.Data, "cat:") {
		b.searchHandler.HandleCategoryCallback(ctx, session, query, b.apiKeyFor(session))
	}
}

// apiKeyFor returns the credential a chat searches with.
func (b *Bot) apiKeyFor(session *UserSession) string {
	if session.apiKey != "" {
		return session.apiKey
	}
	return b.defaultAPIKey
}

// handleKeyCommand handles /chave <key>. The message carrying the key is
// deleted from the chat.
func (b *Bot) handleKeyCommand(session *UserSession, message *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		session.reply(MsgKeyUsage)
		return
	}

	key := strings.TrimSpace(strings.Join(args, ""))
	session.apiKey = key

	if message.MessageID != 0 {
		if _, err := b.tg.Request(tgbotapi.NewDeleteMessage(session.userId, message.MessageID)); err != nil {
			log.Warn().Err(err).Int64("userId", session.userId).Msg("failed to delete api key message")
		}
	}

	fingerprint := places.Fingerprint(key)
	log.Info().Int64("userId", session.userId).Str("credential", fingerprint).Msg("api key set")
	session.reply(MsgKeySaved, fingerprint)
}

// handleCategoriesCommand lists the catalog.
func (b *Bot) handleCategoriesCommand(session *UserSession) {
	var sb strings.Builder
	sb.WriteString(MsgCategoryList)
	for _, c := range b.catalog.Categories() {
		sb.WriteString(fmt.Sprintf("• %s `%s`\n", escapeMarkdown(c.Label), c.ID))
	}
	session.reply(sb.String())
}
