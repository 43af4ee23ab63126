package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/state"
)

func TestNotify_DropsWhenFull(t *testing.T) {
	ch := make(chan state.Notice, 1)
	notify := Notify(ch)

	notify(state.Notice{Message: "first"})
	notify(state.Notice{Message: "second"})

	require.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Message)
}

func TestApp_ShowsNotice(t *testing.T) {
	notices := NewNotices()
	app := NewApp(state.New(nil), notices)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	Notify(notices)(state.Notice{Level: state.NoticeSuccess, Message: "Task created successfully"})
	msg := app.waitForNotice()
	_, cmd := app.Update(msg)

	assert.NotNil(t, cmd)
	assert.Contains(t, app.View(), "✓ Task created successfully")
}

func TestApp_ErrorNoticeClearedByKey(t *testing.T) {
	notices := NewNotices()
	app := NewApp(state.New(nil), notices)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	app.Update(noticeMsg(state.Notice{Level: state.NoticeError, Message: "Task not found"}))
	assert.Contains(t, app.View(), "✗ Task not found")

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.NotContains(t, app.View(), "Task not found")
}
