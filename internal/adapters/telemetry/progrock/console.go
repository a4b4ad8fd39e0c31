package progrock

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/vito/progrock"
	"go.trai.ch/sift/internal/ui/style"
)

var _ progrock.Writer = (*Console)(nil)

// Console is a progrock.Writer that prints one line per completed vertex.
type Console struct {
	w io.Writer

	mu   sync.Mutex
	done map[string]bool
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, done: make(map[string]bool)}
}

// WriteStatus prints the vertices of update that completed for the first time.
func (c *Console) WriteStatus(update *progrock.StatusUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range update.Vertexes {
		if v.Completed == nil || c.done[v.Id] {
			continue
		}
		c.done[v.Id] = true
		if _, err := fmt.Fprintln(c.w, line(v)); err != nil {
			return err
		}
	}
	return nil
}

// Close does nothing.
func (c *Console) Close() error {
	return nil
}

func line(v *progrock.Vertex) string {
	var icon string
	var st lipgloss.Style
	switch {
	case v.Error != nil:
		icon, st = style.Cross, style.Failure
	case v.Cached:
		icon, st = style.Tilde, style.Muted
	default:
		icon, st = style.Check, style.Success
	}

	out := st.Render(icon) + " " + v.Name
	if v.Started != nil && !v.Cached {
		d := v.Completed.AsTime().Sub(v.Started.AsTime())
		out += " " + style.Muted.Render(fmt.Sprintf("(%s)", d.Round(1e6)))
	}
	if v.Error != nil {
		out += ": " + *v.Error
	}
	return out
}
