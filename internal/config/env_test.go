package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvLoader_FindsFilesUpTree(t *testing.T) {
	root := t.TempDir()
	writeEnvFile(t, root, ".env", "CODEGRAPH_ENVTEST_MARKER=from-dotenv\n")

	deep := filepath.Join(root, "services", "orders")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(deep)
	t.Setenv("CODEGRAPH_ENVTEST_MARKER", "")
	os.Unsetenv("CODEGRAPH_ENVTEST_MARKER")

	loader := NewEnvLoader()
	if err := loader.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := os.Getenv("CODEGRAPH_ENVTEST_MARKER"); got != "from-dotenv" {
		t.Errorf("marker = %q, want from-dotenv", got)
	}
	if len(loader.Files()) == 0 {
		t.Error("expected at least one env file to be reported")
	}
}

func TestEnvLoader_LocalFileWins(t *testing.T) {
	root := t.TempDir()
	writeEnvFile(t, root, ".env", "CODEGRAPH_ENVTEST_PRIORITY=plain\n")
	writeEnvFile(t, root, ".env.local", "CODEGRAPH_ENVTEST_PRIORITY=local\n")

	t.Chdir(root)
	t.Setenv("CODEGRAPH_ENVTEST_PRIORITY", "")
	os.Unsetenv("CODEGRAPH_ENVTEST_PRIORITY")

	if err := NewEnvLoader().Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := os.Getenv("CODEGRAPH_ENVTEST_PRIORITY"); got != "local" {
		t.Errorf("priority = %q, want local (.env.local loads first and is never overwritten)", got)
	}
}

func TestTypedEnvLookups(t *testing.T) {
	t.Setenv("CODEGRAPH_ENVTEST_STR", "hello")
	t.Setenv("CODEGRAPH_ENVTEST_INT", "42")
	t.Setenv("CODEGRAPH_ENVTEST_BADINT", "many")
	t.Setenv("CODEGRAPH_ENVTEST_BOOL", "true")
	t.Setenv("CODEGRAPH_ENVTEST_LIST", "com.shop, org.internal ,,")

	if got := GetString("CODEGRAPH_ENVTEST_STR", "fallback"); got != "hello" {
		t.Errorf("GetString = %q", got)
	}
	if got := GetString("CODEGRAPH_ENVTEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetString fallback = %q", got)
	}
	if got := GetInt("CODEGRAPH_ENVTEST_INT", 0); got != 42 {
		t.Errorf("GetInt = %d", got)
	}
	if got := GetInt("CODEGRAPH_ENVTEST_BADINT", 7); got != 7 {
		t.Errorf("GetInt on unparseable value = %d, want fallback 7", got)
	}
	if got := GetBool("CODEGRAPH_ENVTEST_BOOL", false); !got {
		t.Error("GetBool = false, want true")
	}
	list := GetStringSlice("CODEGRAPH_ENVTEST_LIST", nil)
	if len(list) != 2 || list[0] != "com.shop" || list[1] != "org.internal" {
		t.Errorf("GetStringSlice = %v", list)
	}
}

func writeEnvFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
