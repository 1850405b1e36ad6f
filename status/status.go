// Package status implements the status message convention: a message and a
// severity relayed under two reserved keys and rendered as an alert.
package status

import (
	"strconv"
	"strings"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/relay"
)

// Reserved relay keys.
const (
	MessageKey  = "StatusMessage"
	SeverityKey = "StatusSeverity"
)

// Severity classifies a status message. Its integer ordinals are the relay
// representation.
type Severity int

const (
	Normal Severity = iota
	Info
	Success
	Warning
	Error
)

var severityNames = [...]string{"Normal", "Info", "Success", "Warning", "Error"}

var alertClasses = [...]string{"alert-secondary", "alert-info", "alert-success", "alert-warning", "alert-danger"}

// Defined reports whether s is a declared severity.
func (s Severity) Defined() bool { return s >= Normal && s <= Error }

func (s Severity) String() string {
	if !s.Defined() {
		return "Severity(" + strconv.Itoa(int(s)) + ")"
	}
	return severityNames[s]
}

// AlertClass returns the CSS class for s. Undefined values render as Normal.
func (s Severity) AlertClass() string {
	if !s.Defined() {
		return alertClasses[Normal]
	}
	return alertClasses[s]
}

// Infer guesses a severity from the message text.
func Infer(msg string) Severity {
	if strings.Contains(strings.ToLower(msg), "error") {
		return Error
	}
	return Normal
}

// Envelope returns the relay entries for a status message.
func Envelope(msg string, sev Severity) map[string]any {
	return map[string]any{
		MessageKey:  msg,
		SeverityKey: sev,
	}
}

// Message is a status message ready for rendering.
type Message struct {
	Text     string
	Severity Severity
	// HasSeverity is false when Severity was inferred from Text.
	HasSeverity bool
}

// Empty reports whether there is nothing to display.
func (m Message) Empty() bool { return m.Text == "" }

// AlertClass returns the CSS class for the message severity.
func (m Message) AlertClass() string { return m.Severity.AlertClass() }

// Read takes the status message out of the batch behind a. Severity falls
// back to inference only when no severity was relayed.
func Read(a *relay.Accessor) Message {
	var m Message
	a.TryGet(MessageKey, &m.Text, nil).
		TryGet(SeverityKey, &m.Severity, &m.HasSeverity)
	if !m.HasSeverity {
		m.Severity = Infer(m.Text)
	}
	return m
}

// Resolve prefers explicitly supplied values and reads the store only for
// what is missing. A nil sev means no explicit severity. The store is
// flushed when it was read.
func Resolve(msg string, sev *Severity, s relay.Store) (Message, error) {
	m := Message{Text: msg}
	if sev != nil {
		m.Severity, m.HasSeverity = *sev, true
	}
	explicit := strings.TrimSpace(msg) != ""
	if explicit && sev != nil {
		return m, nil
	}

	a := relay.Read(s)
	if !explicit {
		var text string
		a.TryGet(MessageKey, &text, nil)
		m.Text = text
	}
	if !m.HasSeverity {
		var (
			stored Severity
			found  bool
		)
		a.TryGet(SeverityKey, &stored, &found)
		if found {
			m.Severity, m.HasSeverity = stored, true
		} else {
			m.Severity = Infer(m.Text)
		}
	}
	return m, a.Flush()
}
