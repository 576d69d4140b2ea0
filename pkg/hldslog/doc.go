// Package hldslog classifies Half-Life dedicated server (HLDS) log lines.
//
// An HLDS instance started with "logaddress_add" streams every log line it
// writes over UDP. This package turns one such line into a typed Event:
//
//	ev := hldslog.ParseLine(`log L 01/01/2024 - 12:00:00: "Alice<1><STEAM_0:0:1><>" entered the game`)
//	if ev.Kind == hldslog.EnteredGame {
//	    fmt.Printf("%s joined\n", ev.Payload["name"])
//	}
//
// Classification never fails. A line that looks like a known event but
// cannot be parsed becomes a ParseError event carrying the original kind,
// the reason and the raw line. A line that matches nothing becomes Unknown.
//
// # Disabled kinds
//
// Some kinds are noisy (per-cvar lines, raw connects). A Classifier maps the
// kinds it is configured to disable to the Disabled sentinel before doing any
// field extraction:
//
//	c := hldslog.NewClassifier(hldslog.WithDisabledKinds(hldslog.Connected))
//	ev := c.Classify(line)
//	if ev.Kind == hldslog.Disabled {
//	    return // suppressed
//	}
//
// ParseLine uses DefaultDisabledKinds.
package hldslog
