package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
)

// LogEngineEvent phải flatten fields vào entry và map level audit sang level logrus
func TestLogEngineEventMirrorsToAuditLogger(t *testing.T) {
	hook := logrustest.NewLocal(GetAuditLogger())
	defer hook.Reset()

	LogEngineEvent("sync", "run_finished", "WARN", map[string]interface{}{
		"runId": "abc123",
		"state": "partial",
	})

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("không có entry nào được ghi vào audit logger")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("level WARN phải map sang logrus.WarnLevel, nhận %v", entry.Level)
	}
	if entry.Message != "run_finished" {
		t.Errorf("message phải là action, nhận %q", entry.Message)
	}
	if entry.Data["module"] != "sync" || entry.Data["runId"] != "abc123" || entry.Data["state"] != "partial" {
		t.Errorf("fields không được flatten đúng: %+v", entry.Data)
	}
}

func TestLogEngineEventLevelMapping(t *testing.T) {
	hook := logrustest.NewLocal(GetAuditLogger())
	defer hook.Reset()

	cases := map[string]logrus.Level{
		"INFO":     logrus.InfoLevel,
		"WARN":     logrus.WarnLevel,
		"ERROR":    logrus.ErrorLevel,
		"CRITICAL": logrus.ErrorLevel,
		"khác":     logrus.InfoLevel, // level lạ rơi về INFO
	}
	for level, want := range cases {
		LogEngineEvent("tagrule", "rule_evaluated", level, nil)
		entry := hook.LastEntry()
		if entry == nil || entry.Level != want {
			t.Errorf("level %s: muốn %v, nhận %+v", level, want, entry)
		}
	}
}
