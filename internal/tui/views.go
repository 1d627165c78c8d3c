package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/media"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// maxResultRows bounds the search modal height
const maxResultRows = 8

// View renders the feed browser
func (m Model) View() string {
	if !m.Ready {
		return "starting..."
	}
	if m.Searching {
		return m.searchView()
	}
	return m.feedView()
}

// feedView renders the current item card plus the footer
func (m Model) feedView() string {
	snap := m.Session.Snapshot()

	var body string
	switch {
	case snap.TotalKnownItems == 0 && snap.IsLoading:
		body = fmt.Sprintf("%s loading feed...", m.Spinner.View())
	case snap.TotalKnownItems == 0 && m.Session.Err() != nil:
		body = styles.ErrorStyle.Render(fmt.Sprintf("load failed: %v", m.Session.Err())) +
			"\n" + styles.DimStyle.Render("press r to retry")
	case snap.TotalKnownItems == 0:
		body = styles.DimStyle.Render("feed is empty")
	default:
		body = m.cardView()
	}

	content := lipgloss.Place(m.Width, m.Height-1, lipgloss.Center, lipgloss.Center, body)
	return content + "\n" + m.footerView(snap)
}

// cardView renders the item under the cursor
func (m Model) cardView() string {
	seq := m.Session.Sequence()
	if m.Index >= len(seq) {
		return styles.DimStyle.Render("...")
	}
	item := seq[m.Index]

	width := m.Width - 8
	if width < 24 {
		width = 24
	}

	var lines []string
	caption := item.Caption
	if caption == "" {
		caption = fmt.Sprintf("item %d", item.ID)
	}
	lines = append(lines, styles.CaptionStyle.Width(width).Render(caption))
	if m.ShowThumbs {
		if thumb := m.thumbView(item, width); thumb != "" {
			lines = append(lines, "", thumb)
		}
	}
	lines = append(lines, "")
	lines = append(lines, styles.MetaStyle.Render(metaLine(item)))
	lines = append(lines, m.mediaLine(item))

	return styles.CardBorder.Width(width + 4).Render(strings.Join(lines, "\n"))
}

// thumbView renders the loaded payload of the item under the cursor:
// decoded pixels for images, a preload summary for videos.
func (m Model) thumbView(item domain.ContentItem, width int) string {
	node := nodeID(item)
	elem := m.Media.ElementFor(node)
	if elem == nil {
		return ""
	}
	m.Media.Touch(node)

	switch e := elem.(type) {
	case *media.ImageElement:
		return renderImage(e.Image(), width)
	case *media.VideoElement:
		if probe := e.Probe(); probe != nil {
			return styles.DimStyle.Render(fmt.Sprintf("▞ video · %s preloaded", humanBytes(len(probe))))
		}
	}
	return ""
}

// metaLine summarizes an item's media metadata
func metaLine(item domain.ContentItem) string {
	parts := []string{item.MediaType.String()}
	if res := item.Resolution(); res != "" {
		parts = append(parts, res)
	}
	if dur := item.FormattedDuration(); dur != "" {
		parts = append(parts, dur)
	}
	if !item.CreatedAt.IsZero() {
		parts = append(parts, item.CreatedAt.Format("2006-01-02"))
	}
	return strings.Join(parts, " · ")
}

// mediaLine shows the lifecycle state of the item's media handle
func (m Model) mediaLine(item domain.ContentItem) string {
	if !item.HasMedia() {
		return styles.DimStyle.Render("no media")
	}

	state, ok := m.Media.State(nodeID(item))
	if !ok {
		return styles.DimStyle.Render(styles.UnloadedChar + " media not loaded")
	}
	switch state {
	case media.StateLoading:
		return m.Spinner.View() + styles.DimStyle.Render(" loading media")
	case media.StateLoaded:
		return styles.LoadedStyle.Render(styles.LoadedChar + " media ready")
	case media.StateError:
		return styles.ErrorStyle.Render(styles.ErrorChar + " media failed")
	default:
		return styles.DimStyle.Render(styles.UnloadedChar + " media not loaded")
	}
}

// footerView renders the position and status line
func (m Model) footerView(snap domain.FeedSnapshot) string {
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.StatusErrStyle.Render(m.StatusMsg)
		}
		return styles.FooterStyle.Render(m.StatusMsg)
	}

	var parts []string
	if snap.TotalKnownItems > 0 {
		parts = append(parts, fmt.Sprintf("item %d/%d", m.Index+1, snap.TotalKnownItems))
	}
	switch {
	case snap.IsLoading:
		parts = append(parts, m.Spinner.View()+" loading")
	case !snap.HasMore:
		parts = append(parts, "end of feed")
	}
	parts = append(parts, "j/k scroll · / search · q quit")

	return styles.FooterStyle.Render(strings.Join(parts, "  ·  "))
}

// searchView renders the caption search modal
func (m Model) searchView() string {
	width := m.Width / 2
	if width < 40 {
		width = 40
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Search"))
	b.WriteString("\n")
	b.WriteString(m.SearchInput.View())
	b.WriteString("\n\n")

	if len(m.Results) == 0 && m.SearchInput.Value() != "" {
		b.WriteString(styles.DimStyle.Render("no matches"))
	}
	for i, result := range m.Results {
		if i >= maxResultRows {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("… %d more", len(m.Results)-maxResultRows)))
			break
		}
		base := styles.ResultStyle
		prefix := "  "
		if i == m.ResultCursor {
			base = styles.SelectedResultStyle
			prefix = "> "
		}
		b.WriteString(base.Render(prefix))
		b.WriteString(highlightCaption(result.Item.Caption, result.MatchedIndexes, base))
		b.WriteString("\n")
	}

	modal := styles.ModalStyle.Width(width).Render(b.String())
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, modal)
}

// highlightCaption emphasizes the matched positions on top of a base
// style
func highlightCaption(caption string, matched []int, base lipgloss.Style) string {
	if len(matched) == 0 {
		return base.Render(caption)
	}

	flags := matchedRunes(caption, matched)
	var b strings.Builder
	for i, r := range []rune(caption) {
		ch := string(r)
		if flags[i] {
			b.WriteString(styles.HighlightStyle.Render(ch))
		} else {
			b.WriteString(base.Render(ch))
		}
	}
	return b.String()
}

// matchedRunes converts the matcher's byte offsets (rune starts) into a
// per-rune flag slice, so multi-byte captions highlight the right glyphs
func matchedRunes(caption string, matched []int) []bool {
	set := make(map[int]bool, len(matched))
	for _, idx := range matched {
		set[idx] = true
	}

	var flags []bool
	for i := range caption {
		flags = append(flags, set[i])
	}
	return flags
}
