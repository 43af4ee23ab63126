package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/state"
	"github.com/tgienger/taskboard/internal/ui/styles"
	"github.com/tgienger/taskboard/internal/ui/views"
)

// noticeBuffer bounds how many notices can queue before the UI drains them
const noticeBuffer = 16

type noticeMsg state.Notice

// App is the root model. It owns the task view and the status bar.
type App struct {
	notices  chan state.Notice
	taskList *views.TaskListView
	styles   *styles.Styles
	notice   *state.Notice
	width    int
	height   int
}

// NewApp creates the application over store. Pass Notify to state.WithNotifier
// when building the store so notices reach the status bar.
func NewApp(store *state.Store, notices chan state.Notice) *App {
	return &App{
		notices:  notices,
		taskList: views.NewTaskListView(store),
		styles:   styles.NewStyles(),
	}
}

// NewNotices creates the channel shared by the store's notifier and the App
func NewNotices() chan state.Notice {
	return make(chan state.Notice, noticeBuffer)
}

// Notify returns a notifier that never blocks the store
func Notify(ch chan state.Notice) func(state.Notice) {
	return func(n state.Notice) {
		select {
		case ch <- n:
		default:
		}
	}
}

func (a *App) waitForNotice() tea.Msg {
	return noticeMsg(<-a.notices)
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.taskList.Init(), a.waitForNotice)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Leave the last line for the status bar
		_, cmd := a.taskList.Update(tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-1, 0)})
		return a, cmd

	case noticeMsg:
		n := state.Notice(msg)
		a.notice = &n
		return a, a.waitForNotice

	case tea.KeyMsg:
		a.notice = nil
	}

	_, cmd := a.taskList.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, a.taskList.View(), a.statusBar())
}

func (a *App) statusBar() string {
	if a.notice == nil {
		return a.styles.StatusBar.Render("")
	}
	if a.notice.Level == state.NoticeError {
		return a.styles.NoticeError.Render("✗ " + a.notice.Message)
	}
	return a.styles.NoticeSuccess.Render("✓ " + a.notice.Message)
}
