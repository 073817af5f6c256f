package logparse

import (
	"testing"

	"github.com/tinytelemetry/syslog-sniffer/internal/model"
)

func TestExtract_Empty(t *testing.T) {
	t.Parallel()
	if _, ok := Extract(nil); ok {
		t.Error("Extract(nil) should report no message")
	}
	if _, ok := Extract([]byte{}); ok {
		t.Error("Extract(empty) should report no message")
	}
}

func TestExtract_InvalidUTF8(t *testing.T) {
	t.Parallel()
	if _, ok := Extract([]byte{0xff, 0xff, 0xff}); ok {
		t.Error("Extract should drop invalid UTF-8")
	}
}

func TestExtract_Grammars(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		host    string
		hasHost bool
		grammar model.HeaderGrammar
	}{
		{
			name:    "rfc3164",
			input:   "<13>Oct 11 22:14:15 mymachine su: su root",
			host:    "mymachine",
			hasHost: true,
			grammar: model.GrammarRFC3164,
		},
		{
			name:    "rfc3164 single digit day",
			input:   "<34>Oct  1 02:04:05 gateway sshd[42]: accepted",
			host:    "gateway",
			hasHost: true,
			grammar: model.GrammarRFC3164,
		},
		{
			name:    "rfc5424",
			input:   "<165>1 2003-10-11T22:14:15.003Z mymachine.example.com app 1234 ID47 - msg",
			host:    "mymachine.example.com",
			hasHost: true,
			grammar: model.GrammarRFC5424,
		},
		{
			name:    "rfc5424 nil timestamp",
			input:   "<14>1 - web01 nginx - - - started",
			host:    "web01",
			hasHost: true,
			grammar: model.GrammarRFC5424,
		},
		{
			name:    "no header",
			input:   "Simple message without hostname",
			grammar: model.GrammarNone,
		},
		{
			name:    "pri without header",
			input:   "<13>Hello world",
			grammar: model.GrammarNone,
		},
		{
			name:    "lowercase month",
			input:   "<13>oct 11 22:14:15 mymachine su: su root",
			grammar: model.GrammarNone,
		},
		{
			name:    "four digit pri",
			input:   "<1234>1 2003-10-11T22:14:15Z host app - - - msg",
			grammar: model.GrammarNone,
		},
		{
			name:    "hostname must be followed by whitespace",
			input:   "<13>Oct 11 22:14:15 mymachine",
			grammar: model.GrammarNone,
		},
		{
			name:    "not anchored",
			input:   "junk <13>Oct 11 22:14:15 mymachine su: su root",
			grammar: model.GrammarNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Extract([]byte(tt.input))
			if !ok {
				t.Fatalf("Extract(%q) reported no message", tt.input)
			}
			if msg.Text != tt.input {
				t.Errorf("Text = %q, want %q", msg.Text, tt.input)
			}
			if msg.HasHostname != tt.hasHost {
				t.Errorf("HasHostname = %v, want %v", msg.HasHostname, tt.hasHost)
			}
			if msg.Hostname != tt.host {
				t.Errorf("Hostname = %q, want %q", msg.Hostname, tt.host)
			}
			if msg.Grammar != tt.grammar {
				t.Errorf("Grammar = %v, want %v", msg.Grammar, tt.grammar)
			}
		})
	}
}

func TestParsedMessageHost(t *testing.T) {
	t.Parallel()
	msg, _ := Extract([]byte("Simple message without hostname"))
	if got := msg.Host(); got != model.UnknownHost {
		t.Errorf("Host() = %q, want %q", got, model.UnknownHost)
	}
}

func TestPayloadStart(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		frame []byte
		want  string
	}{
		{"no marker", []byte("plain text"), "plain text"},
		{"leading marker", []byte("<13>x"), "<13>x"},
		{"header bytes", append([]byte{0x45, 0x00, 0x1c, 0x11}, []byte("<13>x")...), "<13>x"},
		{"first marker wins", []byte("ab<c<13>x"), "<c<13>x"},
		{"empty", []byte{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(PayloadStart(tt.frame)); got != tt.want {
				t.Errorf("PayloadStart = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFrame_LeadingJunk(t *testing.T) {
	t.Parallel()
	payload := "<13>Oct 11 22:14:15 mymachine su: su root"
	frame := append([]byte{0x02, 0x00, 0x00, 0x00, 0x45, 0x00, 0x00, 0x40, 0xff, 0xfe}, []byte(payload)...)

	withJunk, ok := ExtractFrame(frame)
	if !ok {
		t.Fatal("ExtractFrame reported no message for framed payload")
	}
	clean, _ := Extract([]byte(payload))
	if withJunk != clean {
		t.Errorf("ExtractFrame = %+v, want %+v", withJunk, clean)
	}
}

func TestExtractFrame_BinaryWithoutMarker(t *testing.T) {
	t.Parallel()
	if _, ok := ExtractFrame([]byte{0, 1, 2, 0xff}); ok {
		t.Error("binary frame without '<' should be dropped")
	}
}
