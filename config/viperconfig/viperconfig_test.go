package viperconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/unkn0wn-root/blobcontainer"
	"github.com/unkn0wn-root/blobcontainer/httpclient"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "blobcontainer.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFileValues(t *testing.T) {
	p := writeConfig(t, `
azure:
  storage:
    blob:
      connectionstring: "UseDevelopmentStorage=true"
transport:
  max_conns_per_host: 8
  timeout: 5s
container:
  access: blob
`)
	c, err := Load(Options{Path: p})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, err := c.GetRequiredString(blobcontainer.DefaultConnectionStringKey)
	if err != nil || s != "UseDevelopmentStorage=true" {
		t.Fatalf("conn = %q, %v", s, err)
	}
	tr := c.Transport()
	if tr.MaxConnsPerHost != 8 || tr.Timeout != 5*time.Second || tr.ConnLifetime != httpclient.DefaultConnLifetime {
		t.Fatalf("transport=%+v", tr)
	}
	if a, err := c.Access(); err != nil || a != blobcontainer.BlobPublic {
		t.Fatalf("access = %v, %v", a, err)
	}
}

func TestEnvOverridesAndPrefix(t *testing.T) {
	t.Setenv("APP_AZURE_STORAGE_BLOB_CONNECTIONSTRING", "from-env")
	t.Setenv("APP_TRANSPORT_MAX_CONNS_PER_HOST", "3")

	c, err := Load(Options{Path: writeConfig(t, "transport:\n  max_conns_per_host: 8\n"), EnvPrefix: "APP"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s, _ := c.GetRequiredString(blobcontainer.DefaultConnectionStringKey); s != "from-env" {
		t.Fatalf("conn=%q", s)
	}
	if n := c.Transport().MaxConnsPerHost; n != 3 {
		t.Fatalf("max conns=%d", n)
	}
}

func TestMissingKey(t *testing.T) {
	c := FromViper(viper.New())
	_, err := c.GetRequiredString(blobcontainer.DefaultConnectionStringKey)
	if !errors.Is(err, blobcontainer.ErrConfigurationMissing) {
		t.Fatalf("err=%v want ErrConfigurationMissing", err)
	}
}

func TestMissingFileIsFineWhenSearching(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Transport() != (httpclient.Settings{}).WithDefaults() {
		t.Fatalf("defaults not applied: %+v", c.Transport())
	}
}

func TestUnreadableFileFails(t *testing.T) {
	if _, err := Load(Options{Path: writeConfig(t, "transport: [unclosed")}); err == nil {
		t.Fatalf("expected parse error")
	}
}
