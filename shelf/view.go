package shelf

import (
	"strconv"

	"github.com/Seednode/gameshelf/catalog"
)

const defaultImageAlt = "Game image"

// View is an immutable snapshot of a Session, ready to be rendered.
type View struct {
	Lists        []ListEntry
	SelectedList catalog.ListID
	Games        []GameEntry
	Detail       Detail
}

type ListEntry struct {
	ID       catalog.ListID
	Name     string
	Selected bool
}

type GameEntry struct {
	Index int
	Title string
}

// Detail is the detail panel. While Visible is false the placeholder is shown
// and the other fields are empty.
type Detail struct {
	Visible     bool
	ImageURL    string
	ImageAlt    string
	Title       string
	Year        string
	Description string
}

// ShowPlaceholder reports whether the placeholder text is displayed.
func (d Detail) ShowPlaceholder() bool {
	return !d.Visible
}

func newDetail(g *catalog.Game) Detail {
	if g == nil {
		return Detail{}
	}

	d := Detail{
		Visible:     true,
		ImageURL:    g.ImgURL,
		ImageAlt:    g.Title,
		Title:       g.Title,
		Description: g.ShortDescription,
	}
	if d.ImageAlt == "" {
		d.ImageAlt = defaultImageAlt
	}
	if g.Year != 0 {
		d.Year = strconv.Itoa(g.Year)
	}

	return d
}

// View snapshots the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Lists:        make([]ListEntry, len(s.lists)),
		SelectedList: s.listID,
		Games:        make([]GameEntry, len(s.games)),
		Detail:       newDetail(s.detail),
	}

	for i, l := range s.lists {
		v.Lists[i] = ListEntry{
			ID:       l.ID,
			Name:     l.Name,
			Selected: l.ID == s.listID,
		}
	}

	for i, g := range s.games {
		v.Games[i] = GameEntry{
			Index: i,
			Title: g.Title,
		}
	}

	return v
}
