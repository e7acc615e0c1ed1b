package profile

import (
	"regexp"
	"strconv"
	"time"

	"github.com/solwick/cascade/internal/event"
	"github.com/solwick/cascade/internal/parseerr"
)

var syslogRFC3164Re = regexp.MustCompile(`^<(\d+)>(\w{3} \d{1,2} \d{2}:\d{2}:\d{2}) (\S+) ([^:]+): (.*)$`)

var syslogPidRe = regexp.MustCompile(`\[(\d+)\]`)

var syslogFacilityNames = map[int]string{
	0: "kernel", 1: "user", 2: "mail", 3: "daemon", 4: "auth",
	5: "syslog", 6: "lpr", 7: "news", 8: "uucp", 9: "cron",
	10: "authpriv", 11: "ftp",
	16: "local0", 17: "local1", 18: "local2", 19: "local3",
	20: "local4", 21: "local5", 22: "local6", 23: "local7",
}

// Syslog is the built-in parser for RFC3164 syslog lines:
// `<priority>timestamp hostname tag: message`.
type Syslog struct{}

// NewSyslog constructs the built-in syslog profile.
func NewSyslog() *Syslog { return &Syslog{} }

// Kind reports this is the syslog built-in profile.
func (p *Syslog) Kind() event.ProfileKind { return event.ProfileSyslog }

// Validate always succeeds; the syslog profile has no configuration.
func (p *Syslog) Validate() error { return nil }

// CanParse reports whether line matches the RFC3164 priority+timestamp shape.
func (p *Syslog) CanParse(line string) bool { return syslogRFC3164Re.MatchString(line) }

// Parse extracts facility/severity from the priority byte, the syslog
// timestamp (assuming the current year), hostname, tag, and message.
func (p *Syslog) Parse(line string) event.ParseResult {
	start := time.Now()
	m := syslogRFC3164Re.FindStringSubmatch(line)
	if m == nil {
		err := &parseerr.PatternMatchError{Input: line, AttemptedPatterns: []string{syslogRFC3164Re.String()}}
		return failure(line, err, start)
	}

	evt := event.New(m[5], line, event.FormatProfile(event.ProfileSyslog))

	if priority, err := strconv.Atoi(m[1]); err == nil {
		facility := priority >> 3
		severity := priority & 7
		if name, ok := syslogFacilityNames[facility]; ok {
			evt.AddField("facility", name)
		} else {
			evt.AddField("facility", "unknown")
		}
		evt.SetLevel(severityToLevel(severity))
	}

	if ts, ok := parseSyslogTimestamp(m[2]); ok {
		evt.SetTimestamp(ts)
	}

	evt.AddField("hostname", m[3])
	evt.AddField("tag", m[4])

	micro := time.Since(start).Microseconds()
	return event.ParseResult{Success: true, Event: evt, Confidence: 0.9, ProcessingMicro: &micro}
}

func severityToLevel(severity int) event.Level {
	switch severity {
	case 0, 1, 2:
		return event.LevelFatal
	case 3:
		return event.LevelError
	case 4:
		return event.LevelWarn
	case 5, 6:
		return event.LevelInfo
	case 7:
		return event.LevelDebug
	default:
		return event.LevelInfo
	}
}

func parseSyslogTimestamp(s string) (time.Time, bool) {
	year := strconv.Itoa(time.Now().UTC().Year())
	if t, err := time.Parse("2006 Jan 2 15:04:05", year+" "+s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
