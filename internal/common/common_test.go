package common

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dtnitsch/estate-harvester/models"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://suumo.jp/jj/?ar=030", want: "https://suumo.jp/jj/?ar=030"},
		{in: `  "https://suumo.jp/jj/?ar=030"  `, want: "https://suumo.jp/jj/?ar=030"},
		{in: "<https://suumo.jp/>", want: "https://suumo.jp/"},
		{in: "'https://suumo.jp';", want: "https://suumo.jp"},
		{in: `("https://suumo.jp/jj/") ;`, want: "https://suumo.jp/jj/"},
	}
	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{raw: "https://suumo.jp/jj/bukken/ichiran/?ar=030", wantErr: false},
		{raw: "http://localhost:8080", wantErr: false},
		{raw: "", wantErr: true},
		{raw: "ftp://suumo.jp", wantErr: true},
		{raw: "/jj/bukken/", wantErr: true},
		{raw: "https://suumo .jp", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := ValidateHTTPURL("START_PATH", tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", false, false).Info("hello", "page", 3)
	if !strings.Contains(buf.String(), `"page":3`) {
		t.Errorf("json log = %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, "text", true, false).Warn("hidden")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, "text", false, true).Debug("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("verbose text log = %q", buf.String())
	}
}

type memoryRuns struct {
	started, finished []models.RunRecord
	failStart         bool
}

func (m *memoryRuns) StartRun(_ context.Context, run *models.RunRecord) error {
	if m.failStart {
		return errors.New("runs table locked")
	}
	m.started = append(m.started, *run)
	return nil
}

func (m *memoryRuns) FinishRun(_ context.Context, run *models.RunRecord) error {
	m.finished = append(m.finished, *run)
	return nil
}

func TestRunTracker(t *testing.T) {
	var logs bytes.Buffer
	store := &memoryRuns{}

	tracker, logger := BeginRun(context.Background(), store, models.RunModeDetail, newLogger(&logs, "json", false, false))
	logger.Info("tagged")
	if !strings.Contains(logs.String(), tracker.Record.ID) {
		t.Errorf("logger should carry the run id: %s", logs.String())
	}
	if len(store.started) != 1 || store.started[0].Status != models.RunStatusRunning {
		t.Fatalf("started = %+v", store.started)
	}

	tracker.Finish(models.RunResult{Status: models.RunStatusCompleted, Items: 3, Successes: 2, Errors: 1})
	if len(store.finished) != 1 {
		t.Fatalf("finished = %+v", store.finished)
	}
	got := store.finished[0]
	if got.Status != models.RunStatusCompleted || got.Items != 3 || got.Errors != 1 || got.FinishedAt == nil {
		t.Errorf("finished run = %+v", got)
	}
}

func TestRunTracker_StartFailureIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	store := &memoryRuns{failStart: true}

	tracker, _ := BeginRun(context.Background(), store, models.RunModeListing, newLogger(&logs, "json", false, false))
	if tracker == nil || !strings.Contains(logs.String(), "failed to record run start") {
		t.Errorf("expected a warning, got %s", logs.String())
	}
	tracker.Finish(models.RunResult{Status: models.RunStatusAborted})
	if len(store.finished) != 1 {
		t.Error("Finish should still be attempted")
	}
}
