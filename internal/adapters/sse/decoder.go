package sse

import (
	"bufio"
	"io"
	"strings"
)

const maxLineBytes = 1 << 20

// Frame is one dispatched server-sent event. Event is empty for the default
// "message" type.
type Frame struct {
	Event string
	Data  string
}

// Decoder splits a text/event-stream body into frames.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return &Decoder{scanner: scanner}
}

// Next returns the next complete frame. A frame cut off by the end of the
// body is discarded and io.EOF is returned.
func (d *Decoder) Next() (Frame, error) {
	var (
		event   string
		data    []string
		pending bool
	)

	for d.scanner.Scan() {
		line := d.scanner.Text()

		if line == "" {
			if !pending {
				continue
			}
			return Frame{Event: event, Data: strings.Join(data, "\n")}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event = value
			pending = true
		case "data":
			data = append(data, value)
			pending = true
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Frame{}, err
	}

	return Frame{}, io.EOF
}
