package session

import (
	"fmt"

	"devsyslog/internal/emit"
	"devsyslog/internal/legacy"
	"devsyslog/internal/ostrace"
	"devsyslog/internal/trigger"
)

var legacyLevelColors = map[legacy.Level]emit.Color{
	legacy.LevelNotice:  emit.Green,
	legacy.LevelError:   emit.Red,
	legacy.LevelWarning: emit.Yellow,
	legacy.LevelDebug:   emit.Magenta,
}

var traceLevelColors = map[ostrace.Level]emit.Color{
	ostrace.LevelNotice: emit.Green,
	ostrace.LevelInfo:   emit.White,
	ostrace.LevelDebug:  emit.Magenta,
	ostrace.LevelError:  emit.Red,
	ostrace.LevelFault:  emit.Red,
}

func (s *Session) handleLegacy(rec []byte) error {
	if len(rec) == 0 {
		return nil
	}
	f := legacy.Parse(rec)
	unfiltered := !s.filters.Active() && !s.trig.Configured()

	switch f.Kind {
	case legacy.KindRaw:
		return s.writeRaw(rec)
	case legacy.KindNoDevice:
		if unfiltered {
			return s.writeRaw(rec)
		}
		return nil
	}

	body := f.BodyText()
	switch s.trig.Evaluate(body) {
	case trigger.Suppress:
		s.trig.Discard()
		return nil
	case trigger.Quit:
		s.Quit()
		return nil
	}
	if !s.filters.MessagePasses(body) {
		s.trig.Discard()
		return nil
	}
	if f.Kind == legacy.KindNoProcess {
		return s.commit(s.writeRaw(rec))
	}
	if !s.filters.ProcessPasses(f.PID, f.ProcessName()) {
		s.trig.Discard()
		return nil
	}
	return s.commit(s.writeLegacy(f))
}

func (s *Session) handleTrace(p *ostrace.Packet) error {
	switch s.trig.Evaluate(p.Message) {
	case trigger.Suppress:
		s.trig.Discard()
		return nil
	case trigger.Quit:
		s.Quit()
		return nil
	}
	short := p.ProcessShortName()
	if !s.filters.MessagePasses(p.Message) || !s.filters.ProcessPasses(p.PID(), short) {
		s.trig.Discard()
		return nil
	}
	return s.commit(s.writeTrace(p, short))
}

// commit applies a pending disarm once the record reached the sink.
func (s *Session) commit(err error) error {
	if err != nil {
		s.trig.Discard()
		return err
	}
	s.trig.Commit()
	return nil
}

func (s *Session) writeRaw(rec []byte) error {
	return s.out.WriteRecord(emit.Segment{Color: emit.White, Text: withNewline(rec)})
}

func (s *Session) writeLegacy(f legacy.Fields) error {
	segs := make([]emit.Segment, 0, 8)
	segs = append(segs, emit.Segment{Color: emit.LightGray, Text: string(f.Timestamp())})
	if s.showDevice {
		dev := legacy.Span{Off: f.Device.Off, Len: f.Device.Len + 1}
		segs = append(segs,
			emit.Segment{Color: emit.DarkYellow, Text: string(f.Bytes(dev))},
			emit.Segment{Color: emit.Reset},
		)
	}
	segs = append(segs,
		emit.Segment{Color: emit.BrightCyan, Text: f.ProcessName()},
		emit.Segment{Color: emit.Cyan, Text: string(f.Bytes(f.Decoration))},
	)
	if f.Level != legacy.LevelNone {
		segs = append(segs, emit.Segment{Color: legacyLevelColors[f.Level], Text: string(f.Bytes(f.LevelToken))})
	}
	segs = append(segs, emit.Segment{Color: emit.White, Text: withNewline(f.Rest())})
	return s.out.WriteRecord(segs...)
}

func (s *Session) writeTrace(p *ostrace.Packet, short string) error {
	ident := fmt.Sprintf("[%d]", p.PID())
	if image := p.ImageShortName(); image != "" {
		ident = "(" + image + ")" + ident
	}
	level := p.Level()
	color, ok := traceLevelColors[level]
	if !ok {
		color = emit.Yellow
	}
	return s.out.WriteRecord(
		emit.Segment{Color: emit.LightGray, Text: ostrace.FormatTimestamp(p.Time(), s.loc) + " "},
		emit.Segment{Color: emit.BrightCyan, Text: short},
		emit.Segment{Color: emit.Cyan, Text: ident},
		emit.Segment{Color: emit.Reset, Text: " "},
		emit.Segment{Color: color, Text: "<" + level.String() + ">:"},
		emit.Segment{Color: emit.Reset, Text: " "},
		emit.Segment{Color: emit.White, Text: p.Message},
		emit.Segment{Color: emit.Reset, Text: "\n"},
	)
}

func withNewline(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == '\n' {
		return string(b)
	}
	return string(b) + "\n"
}
