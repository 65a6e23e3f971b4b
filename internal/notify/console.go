package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Emphasis selects the prominence of a message.
type Emphasis int

// Emphasis levels.
const (
	EmphasisNormal Emphasis = iota
	EmphasisMajor
	EmphasisMinor
)

const (
	majorPrefixConstant    = ">>> "
	normalPrefixConstant   = "> "
	minorPrefixConstant    = "-> "
	lineTerminatorConstant = "\n"
	yellowColorConstant    = lipgloss.Color("3")
	greenColorConstant     = lipgloss.Color("2")
	cyanColorConstant      = lipgloss.Color("6")
	magentaColorConstant   = lipgloss.Color("5")
)

// Prefix returns the marker that leads a message of this emphasis.
func (emphasis Emphasis) Prefix() string {
	switch emphasis {
	case EmphasisMajor:
		return majorPrefixConstant
	case EmphasisMinor:
		return minorPrefixConstant
	default:
		return normalPrefixConstant
	}
}

type consoleStyles struct {
	informMajor  lipgloss.Style
	informNormal lipgloss.Style
	informMinor  lipgloss.Style
	suggest      lipgloss.Style
	complain     lipgloss.Style
}

// ConsoleNotifier writes colored messages to a terminal. Colors degrade to
// plain text when the writer is not a terminal. It is safe for concurrent use.
type ConsoleNotifier struct {
	mutex  sync.Mutex
	writer io.Writer
	styles consoleStyles
}

// NewConsoleNotifier constructs a ConsoleNotifier writing to writer.
func NewConsoleNotifier(writer io.Writer) *ConsoleNotifier {
	renderer := lipgloss.NewRenderer(writer)
	return &ConsoleNotifier{
		writer: writer,
		styles: consoleStyles{
			informMajor:  renderer.NewStyle().Foreground(yellowColorConstant).Bold(true),
			informNormal: renderer.NewStyle().Foreground(greenColorConstant),
			informMinor:  renderer.NewStyle().Foreground(cyanColorConstant),
			suggest:      renderer.NewStyle().Foreground(magentaColorConstant),
			complain:     renderer.NewStyle().Foreground(yellowColorConstant),
		},
	}
}

// Inform reports progress.
func (notifier *ConsoleNotifier) Inform(message string, emphasis Emphasis) {
	style := notifier.styles.informNormal
	switch emphasis {
	case EmphasisMajor:
		style = notifier.styles.informMajor
	case EmphasisMinor:
		style = notifier.styles.informMinor
	}
	notifier.writeLine(style, emphasis.Prefix()+message)
}

// Suggest reports an action the user may want to take.
func (notifier *ConsoleNotifier) Suggest(message string, emphasis Emphasis) {
	notifier.writeLine(notifier.styles.suggest, emphasis.Prefix()+message)
}

// Complain reports a problem that did not stop the run.
func (notifier *ConsoleNotifier) Complain(message string, emphasis Emphasis) {
	notifier.writeLine(notifier.styles.complain, emphasis.Prefix()+message)
}

// Output writes text verbatim. Empty text is ignored.
func (notifier *ConsoleNotifier) Output(text string) {
	trimmedText := strings.TrimRight(text, lineTerminatorConstant)
	if len(trimmedText) == 0 {
		return
	}
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	fmt.Fprint(notifier.writer, trimmedText+lineTerminatorConstant)
}

func (notifier *ConsoleNotifier) writeLine(style lipgloss.Style, line string) {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	fmt.Fprint(notifier.writer, style.Render(line)+lineTerminatorConstant)
}
