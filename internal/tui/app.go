// Package tui renders one owner's feed a single item per viewport,
// driving the session from key and mouse scrolling.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/config"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/feed"
	"github.com/mmcdole/reel/internal/media"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// statusTimeout is how long a transient status line stays visible
const statusTimeout = 4 * time.Second

// Model is the main Bubble Tea model for the feed browser
type Model struct {
	Session    *feed.Session
	Media      *media.Manager
	SearchSvc  *search.Service
	Visibility *Visibility

	Spinner     spinner.Model
	SearchInput textinput.Model

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// Feed position: one item per viewport
	Index int

	// Search modal state
	Searching    bool
	Results      []search.Result
	ResultCursor int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	ShowThumbs  bool

	observed map[string]bool // nodes already registered with the session
}

// NewModel creates the feed browser model
func NewModel(session *feed.Session, mediaMgr *media.Manager, searchSvc *search.Service, visibility *Visibility, ui config.UIConfig) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	input := textinput.New()
	input.Placeholder = "search captions"
	input.CharLimit = 80

	return Model{
		Session:     session,
		Media:       mediaMgr,
		SearchSvc:   searchSvc,
		Visibility:  visibility,
		Spinner:     sp,
		SearchInput: input,
		ShowThumbs:  ui.ShowThumbs,
		observed:    make(map[string]bool),
	}
}

// Init starts the initial page load and the spinner
func (m Model) Init() tea.Cmd {
	if err := m.Session.Start(); err != nil {
		return tea.Batch(m.Spinner.Tick, errCmd(err, "start feed"))
	}
	return m.Spinner.Tick
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Session.SetViewport(1)
		m.syncWindow()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			return m.moveTo(m.Index + 1), nil
		case tea.MouseButtonWheelUp:
			return m.moveTo(m.Index - 1), nil
		}
		return m, nil

	case FeedUpdatedMsg:
		m.syncWindow()
		return m, nil

	case MediaFailedMsg:
		m.StatusMsg = fmt.Sprintf("media failed for item %d: %v", msg.ItemID, msg.Err)
		m.StatusIsErr = true
		return m, clearStatusAfter(statusTimeout)

	case ErrMsg:
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		return m, clearStatusAfter(statusTimeout)

	case SearchResultsMsg:
		m.Results = msg.Results
		m.ResultCursor = 0
		return m, nil

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if m.Searching {
		var cmd tea.Cmd
		m.SearchInput, cmd = m.SearchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey routes key presses by mode
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down", " ":
		return m.moveTo(m.Index + 1), nil
	case "k", "up":
		return m.moveTo(m.Index - 1), nil
	case "g", "home":
		return m.moveTo(0), nil
	case "G", "end":
		return m.moveTo(m.Session.Snapshot().TotalKnownItems - 1), nil
	case "r":
		// Retry after a load error
		if err := m.Session.LoadMore(); err != nil {
			return m, errCmd(err, "load more")
		}
		return m, nil
	case "/":
		m.Searching = true
		m.Results = nil
		m.SearchInput.SetValue("")
		return m, m.SearchInput.Focus()
	}
	return m, nil
}

// handleSearchKey drives the search modal
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Searching = false
		m.SearchInput.Blur()
		return m, nil
	case "enter":
		if len(m.Results) > 0 {
			target := m.Results[m.ResultCursor].Item.ID
			m.Searching = false
			m.SearchInput.Blur()
			return m.jumpToItem(target), nil
		}
		return m, nil
	case "down", "ctrl+n":
		if m.ResultCursor < len(m.Results)-1 {
			m.ResultCursor++
		}
		return m, nil
	case "up", "ctrl+p":
		if m.ResultCursor > 0 {
			m.ResultCursor--
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	return m, tea.Batch(cmd, m.searchCmd(m.SearchInput.Value()))
}

// moveTo scrolls the feed to an item index, clamped to the sequence
func (m Model) moveTo(index int) Model {
	total := m.Session.Snapshot().TotalKnownItems
	if index < 0 {
		index = 0
	}
	if total > 0 && index > total-1 {
		index = total - 1
	}
	m.Index = index
	m.Session.HandleScroll(index)
	m.syncWindow()
	return m
}

// jumpToItem scrolls to the item with the given id, if known
func (m Model) jumpToItem(id int64) Model {
	for i, item := range m.Session.Sequence() {
		if item.ID == id {
			return m.moveTo(i)
		}
	}
	return m
}

// syncWindow registers the windowed items with the media manager and
// reconciles visibility.
func (m *Model) syncWindow() {
	r := m.Session.VisibleRange()
	seq := m.Session.Sequence()

	inWindow := make(map[string]bool)
	for i := r.Start; i < r.End && i < len(seq); i++ {
		item := seq[i]
		node := nodeID(item)
		inWindow[node] = true
		if !m.observed[node] {
			m.observed[node] = true
			// ErrNoMedia means nothing to observe for this item
			m.Session.Observe(node, item)
		}
	}
	m.Visibility.Apply(inWindow)

	// The item under the cursor counts as accessed even when the user
	// just parks on it.
	if m.Index >= 0 && m.Index < len(seq) {
		m.Media.Touch(nodeID(seq[m.Index]))
	}
}

// searchCmd runs a caption search off the update loop
func (m Model) searchCmd(query string) tea.Cmd {
	seq := m.Session.Sequence()
	svc := m.SearchSvc
	return func() tea.Msg {
		return SearchResultsMsg{
			Results: svc.Filter(query, seq),
			Query:   query,
		}
	}
}

// errCmd surfaces an operation error on the status line
func errCmd(err error, context string) tea.Cmd {
	return func() tea.Msg {
		return ErrMsg{Err: err, Context: context}
	}
}

// clearStatusAfter schedules the status line reset
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// nodeID names the visibility node for an item
func nodeID(item domain.ContentItem) string {
	return fmt.Sprintf("item-%d", item.ID)
}
