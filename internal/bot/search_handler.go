package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/places-collector/internal/catalog"
	"github.com/raine/places-collector/internal/collector"
	"github.com/raine/places-collector/internal/export"
	"github.com/rs/zerolog/log"
)

// SearchStep is the position of a chat in the /buscar conversation.
type SearchStep int

const (
	SearchStepNone SearchStep = iota
	SearchStepAwaitingMunicipalities
	SearchStepAwaitingRequester
	SearchStepSelectingCategories
)

func (s SearchStep) String() string {
	switch s {
	case SearchStepNone:
		return "None"
	case SearchStepAwaitingMunicipalities:
		return "AwaitingMunicipalities"
	case SearchStepAwaitingRequester:
		return "AwaitingRequester"
	case SearchStepSelectingCategories:
		return "SelectingCategories"
	}
	return "Unknown"
}

// SearchState holds the /buscar conversation of a chat.
type SearchState struct {
	Step           SearchStep
	Municipalities []string
	Requester      string
	Selected       map[string]bool
	Page           int
	KeyboardMsgID  int // Message carrying the category keyboard

	cancelRun context.CancelFunc // Set while a run is in progress, guarded by UserSession.mu
}

// SearchResult is delivered to the session worker when a background run ends.
type SearchResult struct {
	Requester string
	ResultSet *collector.ResultSet
	Err       error
}

const categoriesPerPage = 20

// SearchHandler drives the /buscar conversation and runs collections in the
// background.
type SearchHandler struct {
	tg      BotAPI
	runner  Runner
	catalog *catalog.Catalog

	// goFunc starts the background run; tests replace it to run inline.
	goFunc func(func())
}

func NewSearchHandler(tg BotAPI, runner Runner, cat *catalog.Catalog) *SearchHandler {
	return &SearchHandler{
		tg:      tg,
		runner:  runner,
		catalog: cat,
		goFunc:  func(f func()) { go f() },
	}
}

// HandleSearchCommand starts the conversation with /buscar.
// Called from session worker - no locking needed.
func (h *SearchHandler) HandleSearchCommand(session *UserSession, apiKey string) {
	if session.IsSearchRunning() {
		session.reply(MsgSearchInProgress)
		return
	}
	if apiKey == "" {
		session.reply(MsgKeyMissing)
		return
	}

	h.removeStaleKeyboard(session)
	session.reset()
	StartSearchLog(session.userId)
	session.search.Step = SearchStepAwaitingMunicipalities
	session.reply(MsgAskMunicipalities)
}

// HandleCancelCommand handles /cancelar: it stops a running search or drops
// the conversation in progress.
// Called from session worker - no locking needed.
func (h *SearchHandler) HandleCancelCommand(session *UserSession) {
	if session.cancelSearchRun() {
		log.Info().Int64("userId", session.userId).Msg("search run cancelled by user")
		session.reply(MsgSearchCancelled)
		return
	}

	if session.search.Step == SearchStepNone {
		session.reply(MsgNothingToCancel)
		return
	}

	h.removeStaleKeyboard(session)
	session.reset()
	session.replyAndRemoveCustomKeyboard(MsgSearchCancelled)
}

// HandleInput consumes free text while the conversation expects it. Returns
// true if the text was handled.
// Called from session worker - no locking needed.
func (h *SearchHandler) HandleInput(ctx context.Context, session *UserSession, text string) bool {
	switch session.search.Step {
	case SearchStepAwaitingMunicipalities:
		municipalities := collector.ParseMunicipalities(text)
		if len(municipalities) == 0 {
			session.reply(MsgNoMunicipalities)
			return true
		}
		LogUser(session.userId, "municipalities: %s", strings.Join(municipalities, ", "))
		session.search.Municipalities = municipalities
		session.search.Step = SearchStepAwaitingRequester
		session.reply(MsgAskRequester)
		return true

	case SearchStepAwaitingRequester:
		requester := strings.TrimSpace(text)
		if requester == "" {
			session.reply(MsgEmptyRequester)
			return true
		}
		LogUser(session.userId, "requester: %s", requester)
		session.search.Requester = requester
		session.search.Step = SearchStepSelectingCategories
		session.search.Selected = make(map[string]bool)
		session.search.Page = 0

		msg := tgbotapi.NewMessage(session.userId, h.selectionText(session))
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = makeCategoryKeyboard(h.catalog, session.search.Selected, 0)
		sent := session.replyWithMessage(msg)
		session.search.KeyboardMsgID = sent.MessageID
		return true
	}

	return false
}

// HandleCategoryCallback handles presses on the category keyboard.
// Called from session worker - no locking needed.
func (h *SearchHandler) HandleCategoryCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery, apiKey string) {
	// Guard against stale keyboards from earlier conversations
	if session.search.Step != SearchStepSelectingCategories || query.Message == nil || query.Message.MessageID != session.search.KeyboardMsgID {
		if query.Message != nil {
			h.removeKeyboard(query.Message.Chat.ID, query.Message.MessageID)
		}
		return
	}

	action, err := parseCategoryCallback(query.Data)
	if err != nil {
		log.Warn().Err(err).Str("data", query.Data).Msg("invalid category callback")
		return
	}

	selected := session.search.Selected
	switch action.kind {
	case "t":
		if !h.catalog.Has(action.arg) {
			return
		}
		if selected[action.arg] {
			delete(selected, action.arg)
		} else {
			selected[action.arg] = true
		}
	case "p":
		session.search.Page = clampPage(action.page, h.catalog.Len())
	case "all":
		for _, id := range h.catalog.IDs() {
			selected[id] = true
		}
	case "none":
		for id := range selected {
			delete(selected, id)
		}
	case "noop":
		return
	case "cancel":
		h.HandleCancelCommand(session)
		return
	case "done":
		if len(selected) == 0 {
			session.reply(MsgNoCategories)
			return
		}
		h.removeKeyboard(query.Message.Chat.ID, query.Message.MessageID)
		h.startRun(ctx, session, apiKey)
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		query.Message.Chat.ID,
		query.Message.MessageID,
		h.selectionText(session),
		makeCategoryKeyboard(h.catalog, selected, session.search.Page),
	)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.tg.Request(edit); err != nil {
		log.Debug().Err(err).Msg("failed to update category keyboard")
	}
}

// selectedIDs returns the selected categories in catalog order.
func (h *SearchHandler) selectedIDs(selected map[string]bool) []string {
	var ids []string
	for _, id := range h.catalog.IDs() {
		if selected[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (h *SearchHandler) selectionText(session *UserSession) string {
	return fmt.Sprintf(MsgSelectCategories, len(session.search.Selected), BtnDone)
}

// startRun validates the request and runs it in the background. The run
// reports progress straight to Telegram and hands the result back to the
// session worker through a search_complete message.
func (h *SearchHandler) startRun(ctx context.Context, session *UserSession, apiKey string) {
	req := collector.Request{
		Municipalities: session.search.Municipalities,
		Categories:     h.selectedIDs(session.search.Selected),
		APIKey:         apiKey,
	}
	requester := session.search.Requester
	session.reset()

	if err := req.Validate(h.catalog); err != nil {
		LogError(session.userId, "request rejected: %v", err)
		h.replyValidationError(session, err)
		return
	}
	LogState(session.userId, "run started: categories=%s", strings.Join(req.Categories, ","))

	progressMsg := session.reply(MsgSearchStarting,
		pluralize("município", "municípios", len(req.Municipalities)),
		pluralize("categoria", "categorias", len(req.Categories)),
		pluralize("busca", "buscas", req.Pairs()),
	)

	runCtx, cancel := context.WithCancel(ctx)
	session.setRunCancel(cancel)

	userId := session.userId
	progress := h.progressReporter(userId, progressMsg.MessageID)

	h.goFunc(func() {
		defer cancel()
		rs, err := h.runner.Run(runCtx, req, progress)
		session.Send(SessionMessage{
			Type: "search_complete",
			Ctx:  ctx,
			SearchResult: &SearchResult{
				Requester: requester,
				ResultSet: rs,
				Err:       err,
			},
		})
	})
}

// progressReporter edits the progress message as pairs advance and posts
// failed pairs as separate messages. It runs on the search goroutine and only
// talks to Telegram.
func (h *SearchHandler) progressReporter(chatID int64, messageID int) collector.ProgressFunc {
	return func(ev collector.Event) {
		switch ev.Kind {
		case collector.PairStarted:
			h.editProgress(chatID, messageID, fmt.Sprintf(MsgPairProgress, ev.Index, ev.Total, ev.CategoryLabel, ev.Municipality))
		case collector.PairFinished:
			h.editProgress(chatID, messageID, fmt.Sprintf(MsgPairDone, ev.Index, ev.Total, ev.CategoryLabel, ev.Municipality,
				pluralize("resultado", "resultados", ev.Rows)))
		case collector.PairFailed:
			LogError(chatID, "%s in %s: %v", ev.Category, ev.Municipality, ev.Err)
			msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(MsgPairFailed, ev.CategoryLabel, ev.Municipality, ev.Err))
			if _, err := h.tg.Send(msg); err != nil {
				log.Error().Err(err).Int64("userId", chatID).Msg("failed to send pair failure")
			}
		}
	}
}

func (h *SearchHandler) editProgress(chatID int64, messageID int, text string) {
	if messageID == 0 {
		return
	}
	if _, err := h.tg.Request(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		log.Debug().Err(err).Msg("failed to edit progress message")
	}
}

// HandleSearchComplete exports the result set and sends it as a document.
// Called from session worker - no locking needed.
func (h *SearchHandler) HandleSearchComplete(ctx context.Context, session *UserSession, result *SearchResult) {
	session.setRunCancel(nil)
	if result == nil {
		return
	}

	rs := result.ResultSet
	if result.Err != nil {
		LogState(session.userId, "run ended with error: %v", result.Err)
	}
	if rs == nil {
		if result.Err != nil {
			h.replyValidationError(session, result.Err)
		}
		return
	}

	if result.Err != nil {
		session.reply(MsgSearchInterrupted, pluralize("resultado", "resultados", len(rs.Rows)))
	} else {
		session.reply(MsgSearchFinished,
			pluralize("resultado", "resultados", len(rs.Rows)),
			pluralize("município", "municípios", len(rs.Summary().ByMunicipality)),
		)
	}

	if len(rs.Rows) == 0 {
		session.reply(MsgSearchEmpty)
		return
	}

	data, err := export.XLSX(rs.Rows)
	if err != nil {
		log.Error().Err(err).Str("runID", rs.RunID).Msg("failed to export results")
		session.reply(MsgExportFailed, escapeMarkdown(err.Error()))
		return
	}

	session.sendChatAction(tgbotapi.ChatUploadDocument)

	fileName := export.FileName(result.Requester, export.FormatXLSX)
	doc := tgbotapi.NewDocument(session.userId, tgbotapi.FileBytes{
		Name:  fileName,
		Bytes: data,
	})
	doc.Caption = summaryCaption(rs)
	if _, err := h.tg.Send(doc); err != nil {
		log.Error().Err(err).Str("runID", rs.RunID).Msg("failed to send results document")
		session.replyWithError(err)
		return
	}

	LogBot(session.userId, "sent %s with %d rows", fileName, len(rs.Rows))
	log.Info().
		Int64("userId", session.userId).
		Str("runID", rs.RunID).
		Int("rows", len(rs.Rows)).
		Msg("sent results document")
}

func summaryCaption(rs *collector.ResultSet) string {
	s := rs.Summary()
	return formatReplyText(MsgSummaryCaption,
		pluralize("resultado", "resultados", s.Rows),
		pluralize("município", "municípios", len(s.ByMunicipality)),
		s.WithPhone,
		s.WithWebsite,
		s.Failures,
	)
}

func (h *SearchHandler) replyValidationError(session *UserSession, err error) {
	var unknown *collector.UnknownCategoryError
	switch {
	case errors.Is(err, collector.ErrMissingAPIKey):
		session.reply(MsgKeyMissing)
	case errors.Is(err, collector.ErrNoMunicipalities), errors.Is(err, collector.ErrBlankMunicipality):
		session.reply(MsgNoMunicipalities)
	case errors.Is(err, collector.ErrNoCategories):
		session.reply(MsgNoCategories)
	case errors.As(err, &unknown):
		session.replyWithError(unknown)
	default:
		session.replyWithError(err)
	}
}

func (h *SearchHandler) removeStaleKeyboard(session *UserSession) {
	if session.search.KeyboardMsgID != 0 {
		h.removeKeyboard(session.userId, session.search.KeyboardMsgID)
	}
}

func (h *SearchHandler) removeKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(
		chatID,
		messageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	h.tg.Request(edit)
}
