package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/omidkh/netwatch/internal/domain"
)

var (
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

// Console prints alerts to a writer, colored by direction.
type Console struct {
	Out io.Writer
}

func NewConsole() *Console {
	return &Console{Out: os.Stdout}
}

func (c *Console) Notify(_ context.Context, ev domain.AlertEvent) error {
	label := upStyle.Render("RECOVERED")
	if ev.Transition == domain.WentDown {
		label = downStyle.Render("DOWN")
	}
	_, err := fmt.Fprintf(c.Out, "[%s] %s %s\n",
		ev.At.Format(time.DateTime), label, ev.Message)
	return err
}
