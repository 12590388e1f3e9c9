// Package notify provides the sinks user notifications are sent to
package notify

import (
	"log"

	"github.com/anujitha615/WayFindersHub/internal/session"
	"github.com/anujitha615/WayFindersHub/internal/stream"
)

// Log writes notifications to the process log
type Log struct {
	Prefix string
}

func (l Log) Notify(message string, severity session.Severity) {
	log.Printf("%s[%s] %s", l.Prefix, severity, message)
}

// Stream sends notifications to the websocket clients of one page
type Stream struct {
	out    stream.Broadcaster
	pageID string
}

func NewStream(out stream.Broadcaster, pageID string) *Stream {
	return &Stream{out: out, pageID: pageID}
}

func (s *Stream) Notify(message string, severity session.Severity) {
	stream.Publish(s.out, s.pageID, stream.EventNotification, stream.NotificationData{
		Message:  message,
		Severity: severity,
	})
}

// Multi sends every notification to all of its sinks
type Multi []session.Notifier

func (m Multi) Notify(message string, severity session.Severity) {
	for _, n := range m {
		if n != nil {
			n.Notify(message, severity)
		}
	}
}
