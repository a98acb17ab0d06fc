package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"driftline/server/logging"
)

// JSONSink appends events to a file as JSON lines.
type JSONSink struct {
	file   *os.File
	writer *bufio.Writer
}

func NewJSONSink(path string) (*JSONSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open json log: %w", err)
	}
	return &JSONSink{file: file, writer: bufio.NewWriter(file)}, nil
}

func (s *JSONSink) Write(event logging.Event) error {
	if s == nil || s.writer == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (s *JSONSink) Close(context.Context) error {
	if s == nil || s.file == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush json log: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close json log: %w", err)
	}
	return nil
}
