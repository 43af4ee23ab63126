package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/state"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// requestTimeout bounds every API call made from the UI
const requestTimeout = 10 * time.Second

const dateDisplay = "Jan 2, 2006 15:04"

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// Mode is the screen the task view is showing
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeForm
	ModeConfirmDelete
)

// TaskListView lists, shows and edits tasks held by a state.Store
type TaskListView struct {
	store  *state.Store
	styles *styles.Styles
	keys   keys.KeyMap
	now    func() time.Time

	width  int
	height int

	mode     Mode
	prevMode Mode // where to return after a delete confirmation
	tasks    []models.Task
	cursor   int
	scrollY  int
	form     *taskForm

	deleteTargetID   string
	deleteTargetName string

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewTaskListView creates the task view over store
func NewTaskListView(store *state.Store) *TaskListView {
	return &TaskListView{
		store:  store,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		now:    time.Now,
		mode:   ModeList,
		tasks:  []models.Task{},
	}
}

// Mode reports the current screen
func (v *TaskListView) Mode() Mode { return v.mode }

// Init fetches the task list
func (v *TaskListView) Init() tea.Cmd {
	return v.fetchTasks
}

// tasksChangedMsg is sent after any store call completes
type tasksChangedMsg struct {
	err error
}

// taskSavedMsg is sent after the form was submitted
type taskSavedMsg struct {
	err error
}

// taskDeletedMsg is sent after a delete completes
type taskDeletedMsg struct {
	err error
}

func (v *TaskListView) fetchTasks() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return tasksChangedMsg{err: v.store.FetchTasks(ctx)}
}

func (v *TaskListView) fetchTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := v.store.FetchTask(ctx, id)
		return tasksChangedMsg{err: err}
	}
}

func (v *TaskListView) advanceStatus(t models.Task) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := v.store.UpdateTaskStatus(ctx, t.ID, t.Status.Next())
		return tasksChangedMsg{err: err}
	}
}

func (v *TaskListView) deleteTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return taskDeletedMsg{err: v.store.DeleteTask(ctx, id)}
	}
}

func (v *TaskListView) saveTask(id string, f state.Form) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var err error
		if id == "" {
			_, err = v.store.CreateTask(ctx, f)
		} else {
			_, err = v.store.UpdateTask(ctx, id, f)
		}
		return taskSavedMsg{err: err}
	}
}

// refresh re-reads the filtered list from the store
func (v *TaskListView) refresh() {
	v.tasks = v.store.FilteredTasks()
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
	v.ensureVisible()
}

func (v *TaskListView) selected() (models.Task, bool) {
	if len(v.tasks) == 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		if v.form != nil {
			v.form.setWidth(clamp(styles.ContentWidth(v.width)-10, 20, 50))
		}
		return v, nil

	case tasksChangedMsg:
		v.refresh()
		return v, nil

	case taskDeletedMsg:
		v.refresh()
		if msg.err == nil && v.prevMode == ModeDetail {
			v.mode = ModeList
		}
		return v, nil

	case taskSavedMsg:
		if msg.err != nil {
			if v.form != nil {
				v.form.applyServerError(msg.err)
			}
			return v, nil
		}
		v.form = nil
		v.mode = ModeList
		v.refresh()
		return v, nil

	case tea.KeyMsg:
		// Any key closes the help popup
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		switch v.mode {
		case ModeConfirmDelete:
			return v.updateConfirmDelete(msg)
		case ModeForm:
			return v.updateForm(msg)
		case ModeDetail:
			return v.updateDetail(msg)
		}
		return v.updateList(msg)
	}

	return v, nil
}

func (v *TaskListView) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Enter):
		if t, ok := v.selected(); ok {
			v.mode = ModeDetail
			return v, v.fetchTask(t.ID)
		}

	case key.Matches(msg, v.keys.New):
		return v, v.openForm(newTaskForm(v.styles, v.keys))

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selected(); ok {
			return v, v.openForm(editTaskForm(v.styles, v.keys, t))
		}

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selected(); ok {
			v.confirmDelete(t)
		}

	case key.Matches(msg, v.keys.Status):
		if t, ok := v.selected(); ok {
			return v, v.advanceStatus(t)
		}

	case key.Matches(msg, v.keys.Filter):
		f := v.store.Filters()
		v.store.SetFilters(state.Filters{Status: state.NextStatusFilter(f.Status)})
		v.cursor, v.scrollY = 0, 0
		v.refresh()

	case key.Matches(msg, v.keys.Sort):
		f := v.store.Filters()
		v.store.SetFilters(state.Filters{SortBy: state.NextSortKey(f.SortBy)})
		v.refresh()

	case key.Matches(msg, v.keys.Order):
		f := v.store.Filters()
		v.store.SetFilters(state.Filters{SortOrder: state.ToggleOrder(f.SortOrder)})
		v.refresh()

	case key.Matches(msg, v.keys.Refresh):
		return v, v.fetchTasks

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true

	case key.Matches(msg, v.keys.Back):
		v.store.ClearError()
	}

	return v, nil
}

func (v *TaskListView) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := v.detailTask()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		v.mode = ModeList
		v.store.ClearCurrentTask()
	case !ok:
	case key.Matches(msg, v.keys.Edit):
		return v, v.openForm(editTaskForm(v.styles, v.keys, t))
	case key.Matches(msg, v.keys.Delete):
		v.confirmDelete(t)
	case key.Matches(msg, v.keys.Status):
		return v, v.advanceStatus(t)
	}
	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = v.prevMode
		return v, v.deleteTask(v.deleteTargetID)
	case "n", "N", "esc":
		v.mode = v.prevMode
	}
	return v, nil
}

func (v *TaskListView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, v.keys.Back) {
		v.form = nil
		v.mode = ModeList
		return v, nil
	}

	cmd, submit := v.form.update(msg)
	if !submit {
		return v, cmd
	}
	if !v.form.validate() {
		return v, nil
	}
	return v, v.saveTask(v.form.taskID, v.form.values())
}

func (v *TaskListView) openForm(f *taskForm) tea.Cmd {
	f.setWidth(clamp(styles.ContentWidth(v.width)-10, 20, 50))
	v.form = f
	v.mode = ModeForm
	return textinput.Blink
}

func (v *TaskListView) confirmDelete(t models.Task) {
	v.prevMode = v.mode
	v.mode = ModeConfirmDelete
	v.deleteTargetID = t.ID
	v.deleteTargetName = t.Title
}

// detailTask prefers the freshly fetched task over the cached list entry
func (v *TaskListView) detailTask() (models.Task, bool) {
	if cur := v.store.Snapshot().CurrentTask; cur != nil {
		return *cur, true
	}
	return v.selected()
}

func (v *TaskListView) visibleItems() int {
	// Each task item is 2 lines + 1 margin
	return max((v.height-12)/3, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	switch v.mode {
	case ModeConfirmDelete:
		return v.renderDeleteConfirm()
	case ModeForm:
		return v.renderForm()
	case ModeDetail:
		return v.renderDetail()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	snap := v.store.Snapshot()
	stats := v.store.Stats()

	title := s.Title.Render("Tasks")
	if snap.Loading {
		title += s.TitleMuted.Render("  loading…")
	}

	statsLine := fmt.Sprintf("%s %d  %s %d  %s %d  %s %d  %s %d",
		s.TitleMuted.Render("Total"), stats.Total,
		s.StatusPending.Render("Pending"), stats.Pending,
		s.StatusInProgress.Render("In Progress"), stats.InProgress,
		s.StatusCompleted.Render("Completed"), stats.Completed,
		s.Overdue.Render("Overdue"), stats.Overdue,
	)

	order := "↑"
	if snap.Filters.SortOrder == state.OrderDesc {
		order = "↓"
	}
	filterLine := lipgloss.JoinHorizontal(lipgloss.Center,
		s.FilterButton.Render("Status: "+filterLabel(snap.Filters.Status)),
		s.FilterButton.Render("Sort: "+sortLabel(snap.Filters.SortBy)+" "+order),
	)

	lines := []string{title, statsLine, filterLine}
	if snap.Error != "" {
		lines = append(lines, s.FieldError.Render(snap.Error))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func filterLabel(status string) string {
	if status == state.StatusAll || status == "" {
		return "All"
	}
	return models.Status(status).Label()
}

func sortLabel(sortBy string) string {
	switch sortBy {
	case state.SortCreatedAt:
		return "Created"
	case state.SortTitle:
		return "Title"
	case state.SortStatus:
		return "Status"
	default:
		return "Due date"
	}
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if len(v.store.Snapshot().Tasks) > 0 {
			return s.TitleMuted.Render("No tasks match this filter. Press 'f' to change it.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var items []string
	end := min(v.scrollY+v.visibleItems(), len(v.tasks))
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(t models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}

	badge := s.Status(t.Status).Render("[" + t.Status.Label() + "]")
	due := "Due " + t.DueDate.Local().Format(dateDisplay)
	if t.Overdue(v.now()) {
		due += " " + s.Overdue.Render("overdue")
	}

	first := itemStyle.Width(width).Render(badge + " " + t.Title)
	second := itemStyle.Width(width).Render(s.TitleMuted.Render(due))
	return lipgloss.JoinVertical(lipgloss.Left, first, second) + "\n"
}

func (v *TaskListView) renderDetail() string {
	s := v.styles
	t, ok := v.detailTask()
	if !ok {
		return styles.CenterView(s.TitleMuted.Render("Task not available. Press esc to go back."), v.width, v.height)
	}

	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	desc := t.Description
	if desc == "" {
		desc = s.TitleMuted.Render("No description")
	}

	due := t.DueDate.Local().Format(dateDisplay)
	if t.Overdue(v.now()) {
		due += "  " + s.Overdue.Render("overdue")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(t.Title),
		s.TitleMuted.Render("Status"),
		s.Status(t.Status).Render(t.Status.Label()),
		"",
		s.TitleMuted.Render("Due"),
		due,
		"",
		s.TitleMuted.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(desc),
		"",
		s.TitleMuted.Render(fmt.Sprintf("Created %s • Updated %s",
			t.CreatedAt.Local().Format(dateDisplay),
			t.UpdatedAt.Local().Format(dateDisplay),
		)),
		"",
		s.Help.Render(fmt.Sprintf("%s edit • %s next status • %s delete • %s back",
			s.HelpKey.Render("e"),
			s.HelpKey.Render("space"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		)),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}

func (v *TaskListView) renderForm() string {
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		v.form.view(inputWidth),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 60 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}

	return s.Help.Render(
		fmt.Sprintf("%s view • %s new • %s edit • %s status • %s del • %s filter • %s sort • %s order • %s quit",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("space"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("f"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("o"),
			s.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	var items []string
	for _, b := range []key.Binding{
		v.keys.Enter, v.keys.New, v.keys.Edit, v.keys.Status, v.keys.Delete,
		v.keys.Filter, v.keys.Sort, v.keys.Order, v.keys.Refresh, v.keys.Back, v.keys.Quit,
	} {
		h := b.Help()
		items = append(items, s.HelpKey.Width(8).Render(h.Key)+s.HelpDesc.Render(h.Desc))
	}
	items = append(items, "", s.TitleMuted.Render("Press any key to close"))

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, items...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q will be removed permanently.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
