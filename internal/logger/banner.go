package logger

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var bannerStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("10")).
	Padding(0, 2)

// Banner prints a boxed success message. The log file receives the lines unboxed.
func (l *Logger) Banner(title string, lines ...string) {
	body := append([]string{lipgloss.NewStyle().Bold(true).Render(title)}, lines...)
	box := bannerStyle.Render(strings.Join(body, "\n"))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearPending(l.out)
	fmt.Fprintln(l.out, box)
	l.writeFile("[INFO] ", strings.Join(append([]string{title}, lines...), "\n"))
}
