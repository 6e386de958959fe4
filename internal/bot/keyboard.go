package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/places-collector/internal/catalog"
)

// Category keyboard callback data:
//
//	cat:t:<id>   toggle a category
//	cat:p:<n>    show page n
//	cat:all      select every category
//	cat:none     clear the selection
//	cat:done     start the search
//	cat:cancel   drop the conversation
//	cat:noop     page indicator
type categoryAction struct {
	kind string
	arg  string
	page int
}

func parseCategoryCallback(data string) (categoryAction, error) {
	rest, ok := strings.CutPrefix(data, "cat:")
	if !ok {
		return categoryAction{}, fmt.Errorf("not a category callback: %q", data)
	}

	kind, arg, _ := strings.Cut(rest, ":")
	switch kind {
	case "t":
		if arg == "" {
			return categoryAction{}, fmt.Errorf("missing category id: %q", data)
		}
		return categoryAction{kind: kind, arg: arg}, nil
	case "p":
		page, err := strconv.Atoi(arg)
		if err != nil {
			return categoryAction{}, fmt.Errorf("invalid page: %q", data)
		}
		return categoryAction{kind: kind, page: page}, nil
	case "all", "none", "done", "cancel", "noop":
		return categoryAction{kind: kind}, nil
	}
	return categoryAction{}, fmt.Errorf("unknown category action: %q", data)
}

func pageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + categoriesPerPage - 1) / categoriesPerPage
}

func clampPage(page, total int) int {
	if page < 0 {
		return 0
	}
	if last := pageCount(total) - 1; page > last {
		return last
	}
	return page
}

// makeCategoryKeyboard renders one page of category labels, two per row,
// followed by navigation and selection controls.
func makeCategoryKeyboard(cat *catalog.Catalog, selected map[string]bool, page int) tgbotapi.InlineKeyboardMarkup {
	categories := cat.Categories()
	page = clampPage(page, len(categories))

	start := page * categoriesPerPage
	end := min(start+categoriesPerPage, len(categories))

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range categories[start:end] {
		label := c.Label
		if selected[c.ID] {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, "cat:t:"+c.ID))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if pages := pageCount(len(categories)); pages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(BtnPrev, fmt.Sprintf("cat:p:%d", page-1)))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, pages), "cat:noop"))
		if page < pages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(BtnNext, fmt.Sprintf("cat:p:%d", page+1)))
		}
		rows = append(rows, nav)
	}

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnAll, "cat:all"),
			tgbotapi.NewInlineKeyboardButtonData(BtnNone, "cat:none"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s (%d)", BtnDone, len(selected)), "cat:done"),
			tgbotapi.NewInlineKeyboardButtonData(BtnCancel, "cat:cancel"),
		),
	)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
