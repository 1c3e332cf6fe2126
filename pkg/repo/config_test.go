package repo

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/twig/pkg/fsys"
	"github.com/odvcencio/twig/pkg/object"
)

func TestConfigRoundTrip(t *testing.T) {
	m := fsys.NewMemory()
	if err := m.MkdirAll("/r/.twig", 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	want := &Config{
		User: UserConfig{Name: "Grace", Email: "grace@example.com"},
		Core: CoreConfig{Compression: false},
	}
	if err := WriteConfig(m, "/r/.twig", want); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	got, err := ReadConfig(m, "/r/.twig")
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestConfigMissingIsDefault(t *testing.T) {
	m := fsys.NewMemory()
	got, err := ReadConfig(m, "/nowhere/.twig")
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestConfigPartialKeepsDefaults(t *testing.T) {
	m := fsys.NewMemory()
	if err := m.MkdirAll("/r/.twig", 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	data := "[user]\nname = \"Lin\"\nemail = \"lin@example.com\"\n"
	if err := m.WriteFile("/r/.twig/config.toml", []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadConfig(m, "/r/.twig")
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if !got.Core.Compression {
		t.Error("compression default lost")
	}
	if got.User.Name != "Lin" {
		t.Errorf("User.Name = %q", got.User.Name)
	}
}

func TestConfigRejectsBadInput(t *testing.T) {
	m := fsys.NewMemory()
	if err := m.MkdirAll("/r/.twig", 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, tc := range []struct {
		name, data, want string
	}{
		{"unknown key", "[core]\ncompresion = false\n", "unknown keys: core.compresion"},
		{"syntax", "[user\n", "read config"},
		{"wrong type", "[core]\ncompression = \"yes\"\n", "read config"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if err := m.WriteFile("/r/.twig/config.toml", []byte(tc.data), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := ReadConfig(m, "/r/.twig")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("ReadConfig: got %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestOpenHonorsCompressionSetting(t *testing.T) {
	r, m := memRepo(t)
	r.Config.Core.Compression = false
	if err := WriteConfig(m, r.Dir, r.Config); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	r2, err := Open(m, "/repo")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h, err := r2.Store.WriteRaw(object.TypeBlob, []byte("plain"))
	if err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	hex := h.String()
	raw, err := m.ReadFile("/repo/.twig/objects/" + hex[:2] + "/" + hex[2:])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(raw), "blob 5\x00") {
		t.Errorf("stored bytes = %q, want uncompressed envelope", raw)
	}
}
