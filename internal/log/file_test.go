package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shiftline.log")
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	if err := InitWithFile(false, FileOptions{Path: path}); err != nil {
		t.Fatal(err)
	}
	Infow("report built", "subject", "JOAO")
	Debug("not written at info level")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"report built"`) || !strings.Contains(out, `"subject":"JOAO"`) {
		t.Errorf("unexpected log file contents: %s", out)
	}
	if strings.Contains(out, "not written") {
		t.Error("debug entry leaked into an info-level log")
	}
}

func TestFileOptionsDefaults(t *testing.T) {
	r := FileOptions{Path: "x.log"}.rotator()
	if r.MaxSize != 100 || r.MaxBackups != 5 || r.MaxAge != 28 || r.Compress {
		t.Errorf("unexpected defaults %+v", r)
	}
}
