package arbor

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CacheMaxScenes != 32 {
		t.Errorf("CacheMaxScenes = %d, want 32", cfg.CacheMaxScenes)
	}
	if cfg.TransitionDuration != 300*time.Millisecond {
		t.Errorf("TransitionDuration = %v, want 300ms", cfg.TransitionDuration)
	}
	if cfg.ViewportWidth != 1280 || cfg.ViewportHeight != 720 {
		t.Errorf("viewport = %vx%v, want 1280x720", cfg.ViewportWidth, cfg.ViewportHeight)
	}
}

func TestConfigFillDefaults(t *testing.T) {
	cfg := Config{CacheMaxScenes: 4}
	cfg.fillDefaults()
	if cfg.CacheMaxScenes != 4 {
		t.Error("explicit values must survive fillDefaults")
	}
	if cfg.CacheMaxBytes != 64<<20 || cfg.LogLevel != "info" {
		t.Error("zero values should pick up defaults")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ARBOR_CACHE_MAX_SCENES", "7")
	t.Setenv("ARBOR_TRANSITION_DURATION", "150ms")
	t.Setenv("ARBOR_LOG_LEVEL", "warn")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.CacheMaxScenes != 7 {
		t.Errorf("CacheMaxScenes = %d, want 7", cfg.CacheMaxScenes)
	}
	if cfg.TransitionDuration != 150*time.Millisecond {
		t.Errorf("TransitionDuration = %v, want 150ms", cfg.TransitionDuration)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.ViewportWidth != 1280 {
		t.Error("unset variables should keep defaults")
	}
}

func TestContextLifecycle(t *testing.T) {
	ctx := NewContext(Config{LogLevel: "disabled"})
	if ctx.ready() {
		t.Error("context should not be ready before Init")
	}
	if err := ctx.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !ctx.ready() {
		t.Error("context should be ready after Init")
	}
	ctx.Shutdown()
	if ctx.ready() {
		t.Error("context should not be ready after Shutdown")
	}
	var lerr *LifecycleError
	if err := ctx.Init(); !errors.As(err, &lerr) {
		t.Errorf("Init after Shutdown = %v, want LifecycleError", err)
	}
}

func TestContextLogOutput(t *testing.T) {
	ctx := NewContext(Config{LogLevel: "info"})
	var buf bytes.Buffer
	ctx.SetLogOutput(&buf)
	ctx.Logger().Info().Str("scene", "menu").Msg("scene changed")
	out := buf.String()
	if !strings.Contains(out, "scene changed") || !strings.Contains(out, "menu") {
		t.Errorf("log output missing fields: %q", out)
	}
}

func TestErrorMessages(t *testing.T) {
	serr := &StructuralError{Op: "AddChild", Node: "hud", Msg: "child is nil"}
	if !strings.Contains(serr.Error(), "AddChild") || !strings.Contains(serr.Error(), "hud") {
		t.Errorf("StructuralError = %q", serr.Error())
	}
	cause := errors.New("boom")
	load := &SceneLoadError{Path: "a.json", Err: cause}
	if !errors.Is(load, cause) {
		t.Error("SceneLoadError should unwrap its cause")
	}
	if !strings.Contains(load.Error(), "a.json") {
		t.Errorf("SceneLoadError = %q", load.Error())
	}
}
