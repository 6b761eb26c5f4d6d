package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobalert/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
location: "Manchester, UK"
results_wanted: 200
hours_old: 6
concurrency: 2
quiet_first_run: true
schedule: "0 */2 * * *"
source:
  type: linkedin
  min_delay: 10s
notification:
  type: pushover
  priority: -1
  retries: 2
  retry_delay: 1s
  pushover:
    api_token: app-token
    user_key: user-key
filters:
  title_exclude_keywords: [intern]
terms:
  Product Manager:
    device: iphone
    title_keywords: [product]
  data_analyst:
    device: [iphone, ipad]
  golang: {}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Location != "Manchester, UK" || cfg.ResultsWanted != 200 || cfg.HoursOld != 6 {
		t.Errorf("query settings = %q/%d/%d", cfg.Location, cfg.ResultsWanted, cfg.HoursOld)
	}
	if cfg.Concurrency != 2 || !cfg.QuietFirstRun || cfg.Schedule != "0 */2 * * *" {
		t.Errorf("run settings = %d/%v/%q", cfg.Concurrency, cfg.QuietFirstRun, cfg.Schedule)
	}
	if cfg.Source.MinDelay != 10*time.Second {
		t.Errorf("Source.MinDelay = %v, want 10s", cfg.Source.MinDelay)
	}
	n := cfg.Notification
	if n.Priority != -1 || n.Retries != 2 || n.RetryDelay != time.Second {
		t.Errorf("notification = %+v", n)
	}
	if n.Pushover.APIToken != "app-token" || n.Pushover.UserKey != "user-key" {
		t.Errorf("pushover = %+v", n.Pushover)
	}

	want := []model.SearchTerm{"data_analyst", "golang", "product_manager"}
	got := cfg.TermNames()
	if len(got) != len(want) {
		t.Fatalf("TermNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TermNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if d := cfg.DevicesFor("product_manager"); len(d) != 1 || d[0] != "iphone" {
		t.Errorf("DevicesFor(product_manager) = %v", d)
	}
	if d := cfg.DevicesFor("data_analyst"); len(d) != 2 || d[1] != "ipad" {
		t.Errorf("DevicesFor(data_analyst) = %v", d)
	}
	if d := cfg.DevicesFor("golang"); len(d) != 0 {
		t.Errorf("DevicesFor(golang) = %v, want none", d)
	}
	if d := cfg.DevicesFor("unknown"); len(d) != 0 {
		t.Errorf("DevicesFor(unknown) = %v, want none", d)
	}

	f := cfg.FiltersFor("product_manager")
	if len(f.TitleKeywords) != 1 || f.TitleKeywords[0] != "product" {
		t.Errorf("FiltersFor().TitleKeywords = %v", f.TitleKeywords)
	}
	if len(f.TitleExcludeKeywords) != 1 || f.TitleExcludeKeywords[0] != "intern" {
		t.Errorf("FiltersFor().TitleExcludeKeywords = %v", f.TitleExcludeKeywords)
	}

	q := cfg.Query()
	if q != (model.Query{Location: "Manchester, UK", MaxResults: 200, MaxAgeHours: 6}) {
		t.Errorf("Query() = %+v", q)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Location != "London, UK" || cfg.ResultsWanted != 1000 || cfg.HoursOld != 3 {
		t.Errorf("query defaults = %q/%d/%d", cfg.Location, cfg.ResultsWanted, cfg.HoursOld)
	}
	if cfg.Concurrency != 1 || cfg.Schedule != "@every 3h" {
		t.Errorf("run defaults = %d/%q", cfg.Concurrency, cfg.Schedule)
	}
	if cfg.Source.Type != "linkedin" || cfg.Source.Retries != 3 || cfg.Source.Timeout != 30*time.Second {
		t.Errorf("source defaults = %+v", cfg.Source)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != "jobalert.db" {
		t.Errorf("store defaults = %+v", cfg.Store)
	}
	n := cfg.Notification
	if n.Type != "pushover" || n.Priority != 0 || n.Retries != 3 || n.RetryDelay != 5*time.Second {
		t.Errorf("notification defaults = %+v", n)
	}
	if len(cfg.Terms) != 0 {
		t.Errorf("Terms = %v, want none", cfg.Terms)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ResultsWanted != 1000 {
		t.Errorf("ResultsWanted = %d, want 1000", cfg.ResultsWanted)
	}
}

func TestLoad_ExplicitZeroesKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "hours_old: 0\nnotification:\n  retries: 0\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HoursOld != 0 {
		t.Errorf("HoursOld = %d, want 0", cfg.HoursOld)
	}
	if cfg.Notification.Retries != 0 {
		t.Errorf("Retries = %d, want 0", cfg.Notification.Retries)
	}
}

func TestLoad_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("PUSHOVER_API_TOKEN", "env-token")
	t.Setenv("PUSHOVER_USER_KEY", "env-user")

	cfg, err := Load(writeConfig(t, "notification:\n  type: pushover\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.Pushover.APIToken != "env-token" || cfg.Notification.Pushover.UserKey != "env-user" {
		t.Errorf("pushover = %+v", cfg.Notification.Pushover)
	}
}

func TestLoad_FileOverridesEnvironment(t *testing.T) {
	t.Setenv("PUSHOVER_API_TOKEN", "env-token")

	cfg, err := Load(writeConfig(t, "notification:\n  pushover:\n    api_token: file-token\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.Pushover.APIToken != "file-token" {
		t.Errorf("APIToken = %q, want file-token", cfg.Notification.Pushover.APIToken)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("JOBALERT_TEST_WEBHOOK", "https://hooks.slack.com/services/T/B/X")

	cfg, err := Load(writeConfig(t, `
notification:
  type: slack
  slack:
    webhook_url: ${JOBALERT_TEST_WEBHOOK}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.Slack.WebhookURL != "https://hooks.slack.com/services/T/B/X" {
		t.Errorf("WebhookURL = %q", cfg.Notification.Slack.WebhookURL)
	}
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { os.Unsetenv("JOBALERT_TEST_DOTENV_KEY") })
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("JOBALERT_TEST_DOTENV_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	content := "notification:\n  pushover:\n    user_key: ${JOBALERT_TEST_DOTENV_KEY}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.Pushover.UserKey != "from-dotenv" {
		t.Errorf("UserKey = %q, want from-dotenv", cfg.Notification.Pushover.UserKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "results_wanted: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"emergency priority", "notification:\n  priority: 2\n", "notification.priority"},
		{"zero results", "results_wanted: 0\n", "results_wanted"},
		{"negative hours", "hours_old: -1\n", "hours_old"},
		{"negative concurrency", "concurrency: -3\n", "concurrency"},
		{"bad schedule", "schedule: sometimes\n", "schedule"},
		{"unknown source", "source:\n  type: indeed\n", "source.type"},
		{"adzuna without keys", "source:\n  type: adzuna\n  adzuna:\n    app_id: \"\"\n    app_key: \"\"\n", "source.adzuna"},
		{"greenhouse without boards", "source:\n  type: greenhouse\n", "source.greenhouse"},
		{"greenhouse board without company", "source:\n  type: greenhouse\n  greenhouse:\n    - token: acme\n", "source.greenhouse[0]"},
		{"bad duration", "source:\n  min_delay: soon\n", "source.min_delay"},
		{"unknown store", "store:\n  type: firestore\n", "store.type"},
		{"redis without url", "store:\n  type: redis\n  url: \"\"\n", "store.url"},
		{"unknown gateway", "notification:\n  type: email\n", "notification.type"},
		{"slack without webhook", "notification:\n  type: slack\n  slack:\n    webhook_url: \"\"\n", "webhook_url is required"},
		{"slack bad webhook", "notification:\n  type: slack\n  slack:\n    webhook_url: https://example.com/hook\n", "must start with"},
		{"telegram without chat", "notification:\n  type: telegram\n  telegram:\n    bot_token: abc\n", "telegram"},
		{"device map", "terms:\n  golang:\n    device: {name: iphone}\n", "device must be"},
		{"duplicate term", "terms:\n  Product Manager: {}\n  product_manager: {}\n", "configured twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ADZUNA_APP_ID", "")
			t.Setenv("ADZUNA_APP_KEY", "")
			t.Setenv("REDIS_URL", "")
			t.Setenv("SLACK_WEBHOOK_URL", "")
			t.Setenv("TELEGRAM_CHAT_ID", "")

			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load: expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigPath, "")

	if got := Resolve(""); got != "" {
		t.Errorf("Resolve with nothing = %q, want empty", got)
	}

	if err := os.WriteFile("config.yaml", []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "config.yaml" {
		t.Errorf("Resolve with local file = %q, want config.yaml", got)
	}

	t.Setenv(EnvConfigPath, "/etc/jobalert.yaml")
	if got := Resolve(""); got != "/etc/jobalert.yaml" {
		t.Errorf("Resolve with env = %q", got)
	}
	if got := Resolve("flag.yaml"); got != "flag.yaml" {
		t.Errorf("Resolve with flag = %q, want flag.yaml", got)
	}
}
