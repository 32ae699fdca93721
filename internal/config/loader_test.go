package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/okian/leadgate/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, env := range os.Environ() {
		if len(env) > 9 && env[:9] == "LEADGATE_" {
			for i := 0; i < len(env); i++ {
				if env[i] == '=' {
					_ = os.Unsetenv(env[:i])
					break
				}
			}
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "leadgate-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	_ = f.Close()
	return f.Name()
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.Sheet.TotalColumns, convey.ShouldEqual, 15)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars()
			_ = os.Setenv("LEADGATE_ADDR", ":9090")
			_ = os.Setenv("LEADGATE_QUEUE_SIZE", "500")
			_ = os.Setenv("LEADGATE_WORKER_COUNT", "2")
			_ = os.Setenv("LEADGATE_SHEET__SPREADSHEET_ID", "sheet-123")
			_ = os.Setenv("LEADGATE_SHEET__SHEET_NAME", "Conversions")
			_ = os.Setenv("LEADGATE_REDIS__ADDR", "redis:6379")
			_ = os.Setenv("LEADGATE_MESSENGER__TELEGRAM_BOT_USERNAME", "lead_bot")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.Sheet.SpreadsheetID, convey.ShouldEqual, "sheet-123")
				convey.So(cfg.Sheet.SheetName, convey.ShouldEqual, "Conversions")
				convey.So(cfg.Redis.Addr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.Messenger.TelegramBotUsername, convey.ShouldEqual, "lead_bot")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars()
			yamlContent := `
addr: ":7070"
queue_size: 2500
worker_count: 3
sheet:
  spreadsheet_id: yaml-sheet
  sheet_name: Leads
  total_columns: 15
crm:
  webhook_url: https://crm.example/hook
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LEADGATE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 2500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Sheet.SpreadsheetID, convey.ShouldEqual, "yaml-sheet")
				convey.So(cfg.CRM.WebhookURL, convey.ShouldEqual, "https://crm.example/hook")
			})
		})

		convey.Convey("When env overrides a YAML value", func() {
			clearConfigEnvVars()
			tmpFile := createTempConfigFile(t, "addr: \":7070\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LEADGATE_CONFIG", tmpFile)
			_ = os.Setenv("LEADGATE_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When validation fails", func() {
			clearConfigEnvVars()

			convey.Convey("Because addr is empty", func() {
				_ = os.Setenv("LEADGATE_ADDR", "")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Because worker_count is not positive", func() {
				_ = os.Setenv("LEADGATE_WORKER_COUNT", "0")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Because the timezone is unknown", func() {
				_ = os.Setenv("LEADGATE_SHEET__TIMEZONE", "Mars/Olympus")
				defer clearConfigEnvVars()

				_, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
