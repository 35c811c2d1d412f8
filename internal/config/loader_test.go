package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/techmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.RequiredWeight, convey.ShouldEqual, 0.8)
				convey.So(cfg.DispatcherCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TECHMATCH_ADDR", ":8080")
			_ = os.Setenv("TECHMATCH_RANKING_TIMEOUT_MS", "750")
			_ = os.Setenv("TECHMATCH_NOTIFICATION_THRESHOLD", "0.9")
			_ = os.Setenv("TECHMATCH_DATABASE_PATH", "/tmp/techmatch.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RankingTimeoutMS, convey.ShouldEqual, 750)
				convey.So(cfg.NotificationThreshold, convey.ShouldEqual, 0.9)
				convey.So(cfg.DatabasePath, convey.ShouldEqual, "/tmp/techmatch.db")
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			yamlContent := `
addr: ":9090"
required_weight: 0.6
optional_weight: 0.4
dispatcher_count: 8
seed_file: seed.yaml
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("TECHMATCH_CONFIG", tmpFile)
			_ = os.Setenv("TECHMATCH_DISPATCHER_COUNT", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file and file wins over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.RequiredWeight, convey.ShouldEqual, 0.6)
				convey.So(cfg.OptionalWeight, convey.ShouldEqual, 0.4)
				convey.So(cfg.DispatcherCount, convey.ShouldEqual, 2)
				convey.So(cfg.SeedFile, convey.ShouldEqual, "seed.yaml")
				convey.So(cfg.NotificationThreshold, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When the weights in the file do not sum to one", func() {
			tmpFile := createTempConfigFile(t, "required_weight: 0.9\noptional_weight: 0.2\n")
			_ = os.Setenv("TECHMATCH_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("TECHMATCH_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TECHMATCH_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TECHMATCH_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"TECHMATCH_CONFIG",
		"TECHMATCH_ADDR",
		"TECHMATCH_RANKING_TIMEOUT_MS",
		"TECHMATCH_NOTIFICATION_THRESHOLD",
		"TECHMATCH_DATABASE_PATH",
		"TECHMATCH_DISPATCHER_COUNT",
	} {
		_ = os.Unsetenv(key)
	}
}
