package notify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	promptTemplateConstant    = "%s%s [yN] "
	affirmativeShortAnswer    = "y"
	affirmativeLongAnswer     = "yes"
	responseDelimiterConstant = '\n'
)

// ConfirmationPolicy specifies whether confirmations are asked or assumed.
type ConfirmationPolicy int

const (
	// ConfirmationPrompt asks the user.
	ConfirmationPrompt ConfirmationPolicy = iota
	// ConfirmationAssumeYes answers yes without asking.
	ConfirmationAssumeYes
)

// ConfirmationPolicyFromBool converts an assume-yes flag into a policy.
func ConfirmationPolicyFromBool(assumeYes bool) ConfirmationPolicy {
	if assumeYes {
		return ConfirmationAssumeYes
	}
	return ConfirmationPrompt
}

// ShouldAssumeYes reports whether prompting can be skipped.
func (policy ConfirmationPolicy) ShouldAssumeYes() bool {
	return policy == ConfirmationAssumeYes
}

// IOConfirmationPrompter writes prompts to a writer and reads y/yes answers
// from a reader. Prompts are serialized so concurrent callers never interleave.
type IOConfirmationPrompter struct {
	mutex    sync.Mutex
	reader   *bufio.Reader
	writer   io.Writer
	emphasis Emphasis
}

// NewIOConfirmationPrompter constructs a prompter over input and output.
func NewIOConfirmationPrompter(input io.Reader, output io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{reader: bufio.NewReader(input), writer: output, emphasis: EmphasisMinor}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
// End of input counts as a decline.
func (prompter *IOConfirmationPrompter) Confirm(prompt string) (bool, error) {
	prompter.mutex.Lock()
	defer prompter.mutex.Unlock()

	if prompter.writer != nil {
		if _, writeError := fmt.Fprintf(prompter.writer, promptTemplateConstant, prompter.emphasis.Prefix(), prompt); writeError != nil {
			return false, writeError
		}
	}

	response, readError := prompter.reader.ReadString(responseDelimiterConstant)
	if readError != nil && readError != io.EOF {
		return false, readError
	}

	switch strings.TrimSpace(strings.ToLower(response)) {
	case affirmativeShortAnswer, affirmativeLongAnswer:
		return true, nil
	default:
		return false, nil
	}
}

// AssumeYesPrompter confirms every prompt without interaction.
type AssumeYesPrompter struct{}

// Confirm always returns true.
func (AssumeYesPrompter) Confirm(string) (bool, error) {
	return true, nil
}

// DecliningPrompter refuses every prompt without interaction.
type DecliningPrompter struct{}

// Confirm always returns false.
func (DecliningPrompter) Confirm(string) (bool, error) {
	return false, nil
}

// Confirmer answers yes/no prompts.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// SelectPrompter picks the prompter for policy. Without assume-yes, prompts are
// asked only when input is an interactive terminal; otherwise they are declined.
func SelectPrompter(policy ConfirmationPolicy, input *os.File, output io.Writer) Confirmer {
	if policy.ShouldAssumeYes() {
		return AssumeYesPrompter{}
	}
	if input == nil || !term.IsTerminal(int(input.Fd())) {
		return DecliningPrompter{}
	}
	return NewIOConfirmationPrompter(input, output)
}
