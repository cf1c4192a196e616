// Package tutorial is the step-through walk of a board's parts. Each step
// names the part to highlight and the instruction text shown for it.
package tutorial

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoSteps is returned for an empty step list.
var ErrNoSteps = errors.New("tutorial: no steps")

// Step pairs a part name with its instruction.
type Step struct {
	Part string `json:"part"`
	Text string `json:"text"`
}

// Tutorial holds a fixed, ordered list of steps and the current index.
type Tutorial struct {
	steps []Step
	index int
}

// New returns a tutorial positioned at step 0.
func New(steps []Step) (*Tutorial, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	s := make([]Step, len(steps))
	copy(s, steps)
	return &Tutorial{steps: s}, nil
}

// Next advances one step, wrapping from the last step to the first.
func (t *Tutorial) Next() Step {
	t.index = (t.index + 1) % len(t.steps)
	return t.Current()
}

// Prev retreats one step, wrapping from the first step to the last.
func (t *Tutorial) Prev() Step {
	t.index = (t.index - 1 + len(t.steps)) % len(t.steps)
	return t.Current()
}

func (t *Tutorial) Current() Step { return t.steps[t.index] }
func (t *Tutorial) Index() int    { return t.index }
func (t *Tutorial) Len() int      { return len(t.steps) }

// Steps returns a copy of the step list.
func (t *Tutorial) Steps() []Step {
	s := make([]Step, len(t.steps))
	copy(s, t.steps)
	return s
}

// Load reads a JSON array of steps.
func Load(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tutorial: read %s: %w", path, err)
	}
	var steps []Step
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("tutorial: parse %s: %w", path, err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("tutorial: %s: %w", path, ErrNoSteps)
	}
	return steps, nil
}

// Default is the built-in walk through the demo board.
func Default() []Step {
	return []Step{
		{Part: "Microcontroller", Text: "This is the microcontroller. It runs the firmware and drives every other component on the board."},
		{Part: "USB_Connector", Text: "The USB connector supplies power and carries data to and from the host computer."},
		{Part: "Voltage_Regulator", Text: "The voltage regulator steps the 5V USB supply down to the 3.3V the logic needs."},
		{Part: "Crystal", Text: "The crystal oscillator provides the clock signal the microcontroller keeps time with."},
		{Part: "Capacitor", Text: "Decoupling capacitors smooth out noise on the power rails."},
		{Part: "LED", Text: "The status LED lights up when the board is powered."},
	}
}

// Label formats a part name for display: underscores and dashes become
// spaces and words are title-cased. Empty names stay empty.
func Label(part string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(part)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	// Casers carry state; one per call keeps Label safe across goroutines.
	return cases.Title(language.English).String(s)
}
