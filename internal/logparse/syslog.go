package logparse

import (
	"bytes"
	"regexp"
	"unicode/utf8"

	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

// RFC5424Regex matches "<PRI>VERSION TIMESTAMP HOSTNAME " at the start of a message.
var RFC5424Regex = regexp.MustCompile(`^<(\d{1,3})>(\d)\s+(\S+)\s+(\S+)\s+`)

// RFC3164Regex matches "<PRI>Mmm DD HH:MM:SS HOSTNAME " at the start of a message.
var RFC3164Regex = regexp.MustCompile(`^<(\d{1,3})>([A-Z][a-z]{2}\s+\d{1,2}\s+\d{1,2}:\d{1,2}:\d{1,2})\s+(\S+)\s+`)

type headerMatcher struct {
	grammar   model.HeaderGrammar
	re        *regexp.Regexp
	hostGroup int
}

// headerGrammars are tried in order; the first match wins.
var headerGrammars = []headerMatcher{
	{grammar: model.GrammarRFC5424, re: RFC5424Regex, hostGroup: 4},
	{grammar: model.GrammarRFC3164, re: RFC3164Regex, hostGroup: 3},
}

// Extract decodes a syslog payload and pulls out the sender hostname.
// It reports false for empty input and for input that is not valid UTF-8.
// A message whose header matches neither grammar is still returned, with
// HasHostname unset and the whole decoded text.
func Extract(buf []byte) (model.ParsedMessage, bool) {
	if len(buf) == 0 || !utf8.Valid(buf) {
		return model.ParsedMessage{}, false
	}

	text := string(buf)
	msg := model.ParsedMessage{Text: text}
	for _, h := range headerGrammars {
		m := h.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		msg.Hostname = m[h.hostGroup]
		msg.HasHostname = true
		msg.Grammar = h.grammar
		break
	}
	return msg, true
}

// PayloadStart returns the frame from its first '<' byte onward, or the
// whole frame when it contains none. Capture frames may carry link, IP and
// UDP headers of unknown length ahead of the syslog PRI marker.
func PayloadStart(frame []byte) []byte {
	if i := bytes.IndexByte(frame, '<'); i >= 0 {
		return frame[i:]
	}
	return frame
}

// ExtractFrame locates the syslog payload in a captured frame and extracts it.
func ExtractFrame(frame []byte) (model.ParsedMessage, bool) {
	return Extract(PayloadStart(frame))
}
