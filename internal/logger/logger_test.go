package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":    logrus.DebugLevel,
		" DEBUG ":  logrus.DebugLevel,
		"warn":     logrus.WarnLevel,
		"warning":  logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"":         logrus.InfoLevel,
		"verbose?": logrus.InfoLevel,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestForSession(t *testing.T) {
	entry := ForSession("abc")
	if entry.Data["session_id"] != "abc" {
		t.Errorf("expected session_id field, got %v", entry.Data)
	}
}
