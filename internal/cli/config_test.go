package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tuaneric255-blip/Imaxai/internal/config"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
)

// Notes:
// - The store is in memory; config file parsing is tested in internal/config
// - Secret values must never reach stdout or stderr unmasked

// ---------------------------------------------------------------------------
// runConfigSet
// ---------------------------------------------------------------------------

func TestRunConfigSet(t *testing.T) {
	t.Parallel()

	t.Run("api key is sanitized and masked", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t)
		if err := RunConfigSet(env, config.KeyAPIKey, " AIzaSyNewKey9876\u200b\n"); err != nil {
			t.Fatalf("RunConfigSet: %v", err)
		}
		if got, _ := m.store.Get(config.KeyAPIKey); got != "AIzaSyNewKey9876" {
			t.Errorf("stored = %q", got)
		}
		out := m.stderr.String()
		if strings.Contains(out, "SyNewKey") {
			t.Errorf("output leaks key: %q", out)
		}
		if !strings.Contains(out, "AIza") || !strings.Contains(out, "9876") {
			t.Errorf("output = %q, want masked key", out)
		}
	})

	t.Run("short key rejected", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t)
		err := RunConfigSet(env, config.KeyOpenAIAPIKey, "sk-short")
		if !errors.Is(err, credential.ErrKeyTooShort) {
			t.Errorf("error = %v, want ErrKeyTooShort", err)
		}
		if got, _ := m.store.Get(config.KeyOpenAIAPIKey); got != "" {
			t.Errorf("stored = %q, want nothing", got)
		}
	})

	t.Run("provider validated", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t)
		if err := RunConfigSet(env, config.KeyProvider, "openai"); err != nil {
			t.Fatalf("RunConfigSet: %v", err)
		}
		if got, _ := m.store.Get(config.KeyProvider); got != "openai" {
			t.Errorf("stored = %q", got)
		}
		if err := RunConfigSet(env, config.KeyProvider, "dall-e"); !errors.Is(err, ErrInvalidProvider) {
			t.Errorf("error = %v, want ErrInvalidProvider", err)
		}
	})

	t.Run("output dir created", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t)
		dir := filepath.Join(t.TempDir(), "a", "b")
		if err := RunConfigSet(env, config.KeyOutputDir, dir); err != nil {
			t.Fatalf("RunConfigSet: %v", err)
		}
		if got, _ := m.store.Get(config.KeyOutputDir); got != dir {
			t.Errorf("stored = %q, want %q", got, dir)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		env, _ := newTestEnv(t)
		if err := RunConfigSet(env, "output_dir", "x"); !errors.Is(err, ErrUnknownConfigKey) {
			t.Errorf("error = %v, want ErrUnknownConfigKey", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t)
		m.store.SetErr = errors.New("read-only")
		if err := RunConfigSet(env, config.KeyProvider, "gemini"); err == nil {
			t.Error("expected store error")
		}
	})
}

// ---------------------------------------------------------------------------
// runConfigGet / runConfigList / runConfigUnset
// ---------------------------------------------------------------------------

func TestRunConfigGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		key    string
		stored map[string]string
		envVar map[string]string
		want   string
	}{
		{"stored value", config.KeyProvider, map[string]string{config.KeyProvider: "openai"}, nil, "openai\n"},
		{"env fallback", config.KeyOutputDir, nil, map[string]string{config.EnvOutputDir: "/tmp/out"}, "/tmp/out\n"},
		{"secret masked", config.KeyAPIKey, map[string]string{config.KeyAPIKey: "AIzaSyExample1234"}, nil, "AIza…1234\n"},
		{"unset prints nothing", config.KeyProvider, nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, m := newTestEnv(t, WithGetenv(func(k string) string { return tt.envVar[k] }))
			m.store.data = map[string]string{}
			for k, v := range tt.stored {
				m.store.data[k] = v
			}

			if err := RunConfigGet(env, tt.key); err != nil {
				t.Fatalf("RunConfigGet: %v", err)
			}
			if got := m.stdout.String(); got != tt.want {
				t.Errorf("stdout = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunConfigList(t *testing.T) {
	t.Parallel()

	t.Run("sorted and masked", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t, WithGetenv(func(k string) string {
			if k == config.EnvProvider {
				return "openai"
			}
			return ""
		}))
		m.store.data = map[string]string{
			config.KeyOutputDir: "/pics",
			config.KeyAPIKey:    "AIzaSyExample1234",
		}

		if err := RunConfigList(env); err != nil {
			t.Fatalf("RunConfigList: %v", err)
		}
		want := "api-key=AIza…1234\noutput-dir=/pics\nprovider=openai (from env)\n"
		if got := m.stdout.String(); got != want {
			t.Errorf("stdout = %q, want %q", got, want)
		}
	})

	t.Run("empty lists available keys", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t)
		m.store.data = map[string]string{}
		if err := RunConfigList(env); err != nil {
			t.Fatalf("RunConfigList: %v", err)
		}
		out := m.stdout.String()
		if !strings.Contains(out, "No configuration set.") || !strings.Contains(out, config.KeyOpenAIAPIKey) {
			t.Errorf("stdout = %q", out)
		}
	})
}

func TestRunConfigUnset(t *testing.T) {
	t.Parallel()

	env, m := newTestEnv(t)
	if err := RunConfigUnset(env, config.KeyAPIKey); err != nil {
		t.Fatalf("RunConfigUnset: %v", err)
	}
	if got, _ := m.store.Get(config.KeyAPIKey); got != "" {
		t.Errorf("key still stored: %q", got)
	}
	if err := RunConfigUnset(env, "nope"); !errors.Is(err, ErrUnknownConfigKey) {
		t.Errorf("error = %v, want ErrUnknownConfigKey", err)
	}
}

func TestConfigCmd_Subcommands(t *testing.T) {
	t.Parallel()

	env, _ := newTestEnv(t)
	cmd := ConfigCmd(env)
	for _, name := range []string{"set", "get", "list", "unset"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not found", name)
		}
	}
}
