package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tbourn/homework-bot/internal/domain"
)

type telegramStub struct {
	mu    sync.Mutex
	texts []string
}

func (s *telegramStub) handler(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	s.mu.Lock()
	s.texts = append(s.texts, r.FormValue("text"))
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
}

func (s *telegramStub) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// botEnv points the bot at fake upstreams and returns the args that keep a
// stray .env in the working directory out of the test.
func botEnv(t *testing.T, practicum http.HandlerFunc, tg *telegramStub) []string {
	t.Helper()
	up := httptest.NewServer(practicum)
	t.Cleanup(up.Close)
	tgSrv := httptest.NewServer(http.HandlerFunc(tg.handler))
	t.Cleanup(tgSrv.Close)

	dir := t.TempDir()
	t.Setenv("PRACTICUM_TOKEN", "ptoken")
	t.Setenv("TELEGRAM_TOKEN", "ttoken")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("PRACTICUM_ENDPOINT", up.URL+"/api/user_api/homework_statuses/")
	t.Setenv("TELEGRAM_API_ENDPOINT", tgSrv.URL+"/bot%s/%s")
	t.Setenv("LOG_FILE", filepath.Join(dir, "main.log"))
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JOURNAL_ENABLED", "true")
	t.Setenv("DB_PATH", filepath.Join(dir, "journal.db"))
	t.Setenv("OTEL_ENABLED", "false")
	return []string{"--env-file", filepath.Join(dir, "absent.env")}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVerdictsCommand_Table(t *testing.T) {
	out, err := execute(t, "verdicts")
	if err != nil {
		t.Fatalf("verdicts: %v", err)
	}
	for _, want := range []string{"STATUS", "approved", "rejected", "reviewing", "Работа взята на проверку ревьюером."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVerdictsCommand_JSON(t *testing.T) {
	out, err := execute(t, "verdicts", "--json")
	if err != nil {
		t.Fatalf("verdicts: %v", err)
	}
	var rows []verdictRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if len(rows) != 3 || rows[0].Status != "approved" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil || !strings.Contains(out, version) {
		t.Fatalf("--version: %q %v", out, err)
	}
}

func TestCheckCommand_NotifiesAndJournals(t *testing.T) {
	tg := &telegramStub{}
	args := botEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth ptoken" || r.URL.Query().Get("from_date") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"homeworks":[{"homework_name":"hw1","status":"reviewing"}],"current_date":1}`))
	}, tg)

	out, err := execute(t, append(args, "check", "--json")...)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	var c domain.Cycle
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if c.Outcome != domain.OutcomeNotified || !c.Delivered || c.HomeworkName != "hw1" {
		t.Fatalf("cycle = %+v", c)
	}
	want := `Изменился статус проверки работы "hw1". Работа взята на проверку ревьюером.`
	if got := tg.sent(); len(got) != 1 || got[0] != want {
		t.Fatalf("telegram got %#v", got)
	}

	logData, err := os.ReadFile(os.Getenv("LOG_FILE"))
	if err != nil || !bytes.Contains(logData, []byte(`"homework bot configured"`)) {
		t.Fatalf("log file: %v\n%s", err, logData)
	}
	if fi, err := os.Stat(os.Getenv("DB_PATH")); err != nil || fi.Size() == 0 {
		t.Fatalf("journal not written: %v", err)
	}
}

func TestCheckCommand_FailedCycleExitsNonZero(t *testing.T) {
	tg := &telegramStub{}
	args := botEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, tg)
	t.Setenv("JOURNAL_ENABLED", "false")

	out, err := execute(t, append(args, "check")...)
	if err == nil {
		t.Fatalf("failed cycle must return an error:\n%s", out)
	}
	if !strings.Contains(out, domain.OutcomeFailed) {
		t.Fatalf("table should show the failed outcome:\n%s", out)
	}
	if got := tg.sent(); len(got) != 1 || !strings.HasPrefix(got[0], "Сбой в работе программы: ") {
		t.Fatalf("failure report = %#v", got)
	}
}

func TestCheckCommand_MissingCredentials(t *testing.T) {
	tg := &telegramStub{}
	args := botEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("status API must not be called without credentials")
	}, tg)
	t.Setenv("TELEGRAM_TOKEN", "")

	_, err := execute(t, append(args, "check")...)
	if err == nil || !strings.Contains(err.Error(), "TELEGRAM_TOKEN") {
		t.Fatalf("want missing TELEGRAM_TOKEN error, got %v", err)
	}
	if domain.KindOf(err) != domain.KindConfig {
		t.Fatalf("kind = %v", domain.KindOf(err))
	}
	if len(tg.sent()) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestCheckCommand_InvalidChatID(t *testing.T) {
	tg := &telegramStub{}
	args := botEnv(t, func(w http.ResponseWriter, r *http.Request) {}, tg)
	t.Setenv("TELEGRAM_CHAT_ID", "not a chat")

	if _, err := execute(t, append(args, "check")...); err == nil {
		t.Fatalf("expected invalid chat id error")
	}
}

func TestRunCommand_StopsOnCancel(t *testing.T) {
	tg := &telegramStub{}
	args := botEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"homeworks":[],"current_date":1}`))
	}, tg)
	t.Setenv("HTTP_ADDR", "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCmd()
	cmd.SetArgs(append(args, "run"))
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("run with cancelled context should exit cleanly: %v", err)
	}
	if len(tg.sent()) != 0 {
		t.Fatalf("no cycle should run after cancellation, got %#v", tg.sent())
	}
}
