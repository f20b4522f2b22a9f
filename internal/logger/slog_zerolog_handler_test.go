package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandler_LevelMapping(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	sl := NewSlog(&zl)

	cases := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelInfo + 2, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelWarn + 2, "warn"}, // between warn and error must not downgrade
		{slog.LevelError, "error"},
		{slog.LevelError + 4, "error"},
	}
	for _, tc := range cases {
		buf.Reset()
		sl.Log(context.Background(), tc.level, "msg")

		var line struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("level %v: decode %q: %v", tc.level, buf.String(), err)
		}
		if line.Level != tc.want {
			t.Fatalf("level %v logged as %q want %q", tc.level, line.Level, tc.want)
		}
	}
}

func TestSlogHandler_Attrs(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	sl := NewSlog(&zl).With("component", "search")

	sl.Info("query done", "rows", 3, "cached", true)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["component"] != "search" || line["rows"] != float64(3) || line["cached"] != true {
		t.Fatalf("line=%v", line)
	}
}
