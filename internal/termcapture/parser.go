package termcapture

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Event is a decoded Socket.IO event relevant to the terminal: either a
// "data" event carrying raw terminal bytes, or a "resize" event.
type Event struct {
	Name string
	Data string
	Cols int
	Rows int
}

// ParseMessage splits a raw transport message into individual Engine.IO
// packets, trying each framing variant in turn: v4 (\x1e-delimited), v0.x
// (�-delimited), v3 length-prefixed, and finally treating the whole
// message as a single packet.
func ParseMessage(msg string) []string {
	switch {
	case strings.Contains(msg, "\x1e"):
		return splitNonEmpty(msg, "\x1e")
	case strings.Contains(msg, "\ufffd"):
		return parseSocketIOv0(msg)
	case msg != "" && isDigit(msg[0]) && strings.Contains(msg, ":"):
		if packets := parseEngineIOv3(msg); packets != nil {
			return packets
		}
		return []string{msg}
	default:
		return []string{msg}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSocketIOv0 splits on a �<digits>� length marker sequence.
var socketIOv0MarkerRe = regexp.MustCompile("\ufffd\\d*\ufffd")

func parseSocketIOv0(msg string) []string {
	parts := socketIOv0MarkerRe.Split(msg, -1)
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseEngineIOv3 repeatedly consumes "<len>:<payload>" prefixes from an
// Engine.IO v3 HTTP-polling response body. A payload claiming to run past
// the end of body is truncated to whatever remains, matching the lenient
// original parser, and ends the scan. Returns nil (not an empty slice) on
// a body that never looked like this framing at all, so the caller can
// fall back to single-packet handling.
func parseEngineIOv3(body string) []string {
	var packets []string
	i := 0
	for i < len(body) {
		for i < len(body) && isSpace(body[i]) {
			i++
		}
		if i >= len(body) {
			break
		}
		colon := strings.IndexByte(body[i:], ':')
		if colon < 0 {
			if len(packets) == 0 {
				return nil
			}
			break
		}
		colon += i
		lengthStr := body[i:colon]
		if lengthStr == "" || !allDigits(lengthStr) {
			return nil
		}
		n, err := strconv.Atoi(lengthStr)
		if err != nil {
			return nil
		}
		start := colon + 1
		end := start + n
		if end > len(body) {
			packets = append(packets, body[start:])
			break
		}
		packets = append(packets, body[start:end])
		i = end
	}
	return packets
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// DecodePacket decodes one Engine.IO packet into an Event, if it carries
// one the emulator cares about. ok is false for packets that decode to
// nothing actionable (handshake, ping/pong, ack, ...).
func DecodePacket(packet string) (Event, bool) {
	switch {
	case strings.HasPrefix(packet, "42"):
		return decodeArrayPacket(packet[2:])
	case strings.HasPrefix(packet, "5"):
		return decodeAckPacket(packet)
	case strings.HasPrefix(packet, "{") || strings.HasPrefix(packet, "["):
		return decodeBarePacket(packet)
	default:
		return Event{}, false
	}
}

func decodeArrayPacket(body string) (Event, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(body), &arr); err != nil || len(arr) < 1 {
		return Event{}, false
	}
	var name string
	if err := json.Unmarshal(arr[0], &name); err != nil {
		return Event{}, false
	}
	var data json.RawMessage
	if len(arr) > 1 {
		data = arr[1]
	}
	return eventFrom(name, data)
}

func decodeAckPacket(packet string) (Event, bool) {
	parts := strings.SplitN(packet, ":", 4)
	if len(parts) < 4 {
		return Event{}, false
	}
	var payload struct {
		Name string            `json:"name"`
		Args []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal([]byte(parts[3]), &payload); err != nil {
		return Event{}, false
	}
	var data json.RawMessage
	if len(payload.Args) > 0 {
		data = payload.Args[0]
	}
	return eventFrom(payload.Name, data)
}

func decodeBarePacket(packet string) (Event, bool) {
	var payload struct {
		Name string            `json:"name"`
		Args []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal([]byte(packet), &payload); err != nil || payload.Name == "" {
		return Event{}, false
	}
	var data json.RawMessage
	if len(payload.Args) > 0 {
		data = payload.Args[0]
	}
	return eventFrom(payload.Name, data)
}

func eventFrom(name string, data json.RawMessage) (Event, bool) {
	switch name {
	case "data":
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Event{}, false
		}
		return Event{Name: "data", Data: s}, true
	case "resize":
		var dims struct {
			Cols int `json:"cols"`
			Rows int `json:"rows"`
		}
		if err := json.Unmarshal(data, &dims); err != nil {
			return Event{}, false
		}
		return Event{Name: "resize", Cols: dims.Cols, Rows: dims.Rows}, true
	default:
		return Event{}, false
	}
}
