package ui

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/reminder"
)

// reminderRow is the display form of one reminder.
type reminderRow struct {
	ID       string
	Title    string
	Due      string
	Category string
	DueAt    time.Time
	IsSynced bool
}

// reminderRows converts the board content into table rows, in due order.
func (app *BloomApp) reminderRows(now time.Time) []reminderRow {
	all := app.Board.All()
	rows := make([]reminderRow, 0, len(all))
	for _, r := range all {
		title := r.Title
		if icon := r.DisplayIcon(); !strings.HasPrefix(title, icon) {
			title = icon + " " + title
		}
		if r.Completed {
			title = config.CompletedMark + title
		}
		rows = append(rows, reminderRow{
			ID:       r.ID,
			Title:    title,
			Due:      app.formatDue(r, now),
			Category: string(r.Category),
			DueAt:    r.DueAt,
			IsSynced: r.IsSynced,
		})
	}
	return rows
}

// formatDue renders "Due now" for open reminders whose time has come, the localized date otherwise.
func (app *BloomApp) formatDue(r reminder.Reminder, now time.Time) string {
	if !r.Completed && r.IsDue(now) {
		label := app.GetMsg(config.TKeyDueNow)
		if label == config.TKeyDueNow {
			label = config.FallbackDueNow
		}
		return label
	}
	format := app.GetMsg(config.TKeyFormatDateTime)
	if format == config.TKeyFormatDateTime {
		format = config.DateTimeFormatDisplay
	}
	return r.DueAt.In(now.Location()).Format(format)
}

// sortRows orders rows by the given column. Due ties fall back to the title.
func sortRows(rows []reminderRow, col int, asc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var less bool
		switch col {
		case config.ColIDTitle:
			less = strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case config.ColIDCategory:
			if a.Category == b.Category {
				less = a.DueAt.Before(b.DueAt)
			} else {
				less = a.Category < b.Category
			}
		default: // config.ColIDDue
			if a.DueAt.Equal(b.DueAt) {
				less = a.Title < b.Title
			} else {
				less = a.DueAt.Before(b.DueAt)
			}
		}
		if !asc {
			return !less
		}
		return less
	})
}

// ShowRemindersWindow displays the reminders page as a sortable table.
// Selecting a manual reminder toggles its completion; synced rows are read-only.
// If the window is already open, it requests focus.
func (app *BloomApp) ShowRemindersWindow() {
	if app.remindersWindow != nil {
		app.remindersWindow.RequestFocus()
		return
	}

	w := app.App.NewWindow(app.GetMsg(config.TKeyWinReminders))
	app.remindersWindow = w
	w.Resize(fyne.NewSize(config.RemindersWinWidth, config.RemindersWinHeight))

	currentSortCol := config.ColIDDue
	sortAsc := true
	rows := app.reminderRows(app.Clock.Now())
	sortRows(rows, currentSortCol, sortAsc)

	slog.Info(config.LogMsgOpenWin,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyCount, len(rows))

	table := widget.NewTable(
		func() (int, int) {
			return len(rows), config.ColCount
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row >= len(rows) {
				return
			}
			r := rows[id.Row]
			switch id.Col {
			case config.ColIDTitle:
				label.SetText(r.Title)
			case config.ColIDDue:
				label.SetText(r.Due)
			case config.ColIDCategory:
				label.SetText(r.Category)
			}
		},
	)

	refreshTable := func() {
		rows = app.reminderRows(app.Clock.Now())
		sortRows(rows, currentSortCol, sortAsc)
		table.Refresh()
	}
	app.refreshReminders = refreshTable

	table.ShowHeaderRow = true
	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}
	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)

		var titleKey string
		switch id.Col {
		case config.ColIDTitle:
			titleKey = config.TKeyColTitle
		case config.ColIDDue:
			titleKey = config.TKeyColDue
		case config.ColIDCategory:
			titleKey = config.TKeyColCategory
		}

		text := app.GetMsg(titleKey)
		if id.Col == currentSortCol {
			if sortAsc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}
		btn.SetText(text)

		btn.OnTapped = func() {
			if currentSortCol == id.Col {
				sortAsc = !sortAsc
			} else {
				currentSortCol = id.Col
				sortAsc = true
			}
			slog.Debug(config.LogMsgSorted,
				config.LogKeyComponent, config.CompUI,
				config.LogKeySortCol, currentSortCol,
				config.LogKeySortAsc, sortAsc)
			refreshTable()
		}
	}

	table.OnSelected = func(id widget.TableCellID) {
		defer table.UnselectAll()
		if id.Row < 0 || id.Row >= len(rows) || rows[id.Row].IsSynced {
			return
		}
		if _, err := app.Board.ToggleComplete(rows[id.Row].ID); err != nil {
			slog.Warn(config.ErrStorageWrite,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyID, rows[id.Row].ID,
				config.LogKeyError, err)
		}
		app.refreshStatus()
	}

	table.SetColumnWidth(config.ColIDTitle, config.ColWidthTitle)
	table.SetColumnWidth(config.ColIDDue, config.ColWidthDue)
	table.SetColumnWidth(config.ColIDCategory, config.ColWidthCategory)

	w.SetContent(container.NewBorder(nil, nil, nil, nil, table))
	w.SetOnClosed(func() {
		app.remindersWindow = nil
		app.refreshReminders = nil
	})
	w.Show()
}
