package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/pacer/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"PACER_CONFIG",
	"PACER_ADDR",
	"PACER_LOG_LEVEL",
	"PACER_MAX_PART_BYTES",
	"PACER_OPENAI_API_KEY",
	"PACER_OPENAI_MODEL",
	"PACER_AUGMENT_WORKERS",
	"PACER_AUGMENT_TEMPERATURE",
	"PACER_AUGMENT_TIMEOUT_MS",
	"OPENAI_API_KEY",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "pacer-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

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
				convey.So(cfg.AugmentWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.AugmentationEnabled(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PACER_ADDR", ":8080")
			_ = os.Setenv("PACER_MAX_PART_BYTES", "1048576")
			_ = os.Setenv("PACER_AUGMENT_WORKERS", "8")
			_ = os.Setenv("PACER_AUGMENT_TEMPERATURE", "0.2")
			_ = os.Setenv("PACER_OPENAI_MODEL", "gpt-4o")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxPartBytes, convey.ShouldEqual, 1048576)
				convey.So(cfg.AugmentWorkers, convey.ShouldEqual, 8)
				convey.So(cfg.AugmentTemperature, convey.ShouldEqual, 0.2)
				convey.So(cfg.OpenAIModel, convey.ShouldEqual, "gpt-4o")
			})
		})

		convey.Convey("When only the plain credential variable is set", func() {
			_ = os.Setenv("OPENAI_API_KEY", "sk-test")

			cfg, err := config.Load(ctx)

			convey.Convey("Then augmentation should be enabled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "sk-test")
				convey.So(cfg.AugmentationEnabled(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When both credential variables are set", func() {
			_ = os.Setenv("OPENAI_API_KEY", "sk-plain")
			_ = os.Setenv("PACER_OPENAI_API_KEY", "sk-prefixed")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the prefixed one should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "sk-prefixed")
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
log_level: debug
augment_workers: 2
augment_queue_size: 16
leads_file: /etc/pacer/leads.yaml
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PACER_CONFIG", tmpFile)
			_ = os.Setenv("PACER_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.AugmentWorkers, convey.ShouldEqual, 2)
				convey.So(cfg.AugmentQueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.LeadsFile, convey.ShouldEqual, "/etc/pacer/leads.yaml")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("PACER_CONFIG", "/nonexistent/pacer.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the environment breaks an invariant", func() {
			_ = os.Setenv("PACER_AUGMENT_TIMEOUT_MS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then validation should reject it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
