package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/docstore/internal/cli"
)

// runDS invokes the CLI the way main does, against an isolated working
// directory, and returns exit code, stdout, and stderr.
func runDS(t *testing.T, workDir, stdin string, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut bytes.Buffer

	argv := append([]string{"ds", "-C", workDir}, args...)
	env := map[string]string{"XDG_CONFIG_HOME": filepath.Join(workDir, ".xdg")}

	code := cli.Run(strings.NewReader(stdin), &out, &errOut, argv, env)

	return code, out.String(), errOut.String()
}

func Test_Run_Without_Arguments_Prints_Usage(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	code := cli.Run(strings.NewReader(""), &out, &errOut, []string{"ds"}, map[string]string{})

	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}

	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("usage not printed:\n%s", out.String())
	}
}

func Test_Run_Unknown_Command_Fails(t *testing.T) {
	t.Parallel()

	code, _, errText := runDS(t, t.TempDir(), "", "frobnicate")

	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}

	if !strings.Contains(errText, "unknown command") {
		t.Fatalf("stderr = %q", errText)
	}
}

func Test_Run_Put_Then_Get_Round_Trips(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	code, out, errText := runDS(t, workDir, "", "put", "notes", "--id", "f1", `{"name":"flexi","age":30}`)
	if code != 0 {
		t.Fatalf("put exit = %d, stderr: %s", code, errText)
	}

	if strings.TrimSpace(out) != "f1" {
		t.Fatalf("put stdout = %q, want f1", out)
	}

	code, out, errText = runDS(t, workDir, "", "get", "notes", "f1")
	if code != 0 {
		t.Fatalf("get exit = %d, stderr: %s", code, errText)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("get output is not JSON: %v\n%s", err, out)
	}

	if fields["name"] != "flexi" || fields["age"] != float64(30) || fields["id"] != "f1" {
		t.Fatalf("fields = %v", fields)
	}
}

func Test_Run_Put_Reads_Document_From_Stdin(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	code, out, errText := runDS(t, workDir, `{"src":"stdin"}`, "put", "notes", "--id", "s1", "-")
	if code != 0 {
		t.Fatalf("put exit = %d, stderr: %s", code, errText)
	}

	if strings.TrimSpace(out) != "s1" {
		t.Fatalf("stdout = %q, want s1", out)
	}

	code, out, _ = runDS(t, workDir, "", "get", "notes", "s1")
	if code != 0 || !strings.Contains(out, "stdin") {
		t.Fatalf("get exit = %d, stdout = %q", code, out)
	}
}

func Test_Run_Put_Without_ID_Prints_Generated_ID(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	code, out, errText := runDS(t, workDir, "", "put", "notes", `{"v":1}`)
	if code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, errText)
	}

	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatalf("no id printed")
	}

	code, _, _ = runDS(t, workDir, "", "get", "notes", id)
	if code != 0 {
		t.Fatalf("get of generated id failed")
	}
}

func Test_Run_Put_Rejects_Invalid_JSON(t *testing.T) {
	t.Parallel()

	code, _, errText := runDS(t, t.TempDir(), "", "put", "notes", "{nope")

	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}

	if !strings.Contains(errText, "invalid JSON") {
		t.Fatalf("stderr = %q", errText)
	}
}

func Test_Run_Set_Replaces_Content(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	runDS(t, workDir, "", "put", "notes", "--id", "f1", `{"a":1,"b":2}`)

	code, _, errText := runDS(t, workDir, "", "set", "notes", "f1", `{"c":3}`)
	if code != 0 {
		t.Fatalf("set exit = %d, stderr: %s", code, errText)
	}

	_, out, _ := runDS(t, workDir, "", "get", "notes", "f1")

	var fields map[string]any
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if _, hasA := fields["a"]; hasA {
		t.Fatalf("set did not replace content: %v", fields)
	}

	if fields["c"] != float64(3) {
		t.Fatalf("fields = %v", fields)
	}
}

func Test_Run_Rm_Then_Get_Fails(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	runDS(t, workDir, "", "put", "notes", "--id", "f1", "{}")

	code, out, _ := runDS(t, workDir, "", "rm", "notes", "f1")
	if code != 0 {
		t.Fatalf("rm exit = %d", code)
	}

	if !strings.Contains(out, "deleted f1") {
		t.Fatalf("rm stdout = %q", out)
	}

	code, _, errText := runDS(t, workDir, "", "get", "notes", "f1")
	if code != 1 {
		t.Fatalf("get exit = %d, want 1; stderr: %s", code, errText)
	}
}

func Test_Run_Ls_Lists_Newest_First(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	runDS(t, workDir, "", "put", "notes", "--id", "old", "{}")
	runDS(t, workDir, "", "put", "notes", "--id", "new", "{}")

	code, out, errText := runDS(t, workDir, "", "ls", "notes")
	if code != 0 {
		t.Fatalf("ls exit = %d, stderr: %s", code, errText)
	}

	lines := strings.Fields(out)
	if len(lines) != 2 {
		t.Fatalf("ls lines = %v, want 2 ids", lines)
	}
}

func Test_Run_Find_Filters_And_Counts(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	runDS(t, workDir, "", "put", "people", "--id", "p1", `{"age":30}`)
	runDS(t, workDir, "", "put", "people", "--id", "p2", `{"age":60}`)
	runDS(t, workDir, "", "put", "people", "--id", "p3", `{"age":70}`)

	code, out, errText := runDS(t, workDir, "",
		"find", "people", `{"where":{"age":{"$gte":50}},"sort":{"field":"age","order":"desc"}}`)
	if code != 0 {
		t.Fatalf("find exit = %d, stderr: %s", code, errText)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("find returned %d lines, want 2:\n%s", len(lines), out)
	}

	if !strings.Contains(lines[0], "70") {
		t.Fatalf("first line = %q, want the age-70 document first", lines[0])
	}

	code, out, _ = runDS(t, workDir, "", "find", "people", `{"where":{"age":{"$gte":50}}}`, "--count")
	if code != 0 || strings.TrimSpace(out) != "2" {
		t.Fatalf("count exit = %d, stdout = %q, want 2", code, out)
	}
}

func Test_Run_Find_Rejects_Unknown_Query_Keys(t *testing.T) {
	t.Parallel()

	code, _, errText := runDS(t, t.TempDir(), "", "find", "people", `{"filter":{}}`)

	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}

	if !strings.Contains(errText, "invalid query") {
		t.Fatalf("stderr = %q", errText)
	}
}

func Test_Run_Stats_Reports_Count_And_Cap(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	config := `{"collections": {"ring": {"max_documents": 2}}}`
	if err := os.WriteFile(filepath.Join(workDir, cli.ConfigFileName), []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	runDS(t, workDir, "", "put", "ring", "--id", "a", "{}")

	code, out, errText := runDS(t, workDir, "", "stats", "ring")
	if code != 0 {
		t.Fatalf("stats exit = %d, stderr: %s", code, errText)
	}

	if !strings.Contains(out, "documents:  1") || !strings.Contains(out, "cap:        2") {
		t.Fatalf("stats output:\n%s", out)
	}
}

func Test_Run_Configured_Cap_Evicts_On_Put(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	config := `{"collections": {"ring": {"max_documents": 1}}}`
	if err := os.WriteFile(filepath.Join(workDir, cli.ConfigFileName), []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	runDS(t, workDir, "", "put", "ring", "--id", "a", "{}")

	code, out, errText := runDS(t, workDir, "", "put", "ring", "--id", "b", "{}")
	if code != 0 {
		t.Fatalf("second put exit = %d, stderr: %s", code, errText)
	}

	if strings.TrimSpace(out) != "b" {
		t.Fatalf("stdout = %q", out)
	}

	if !strings.Contains(errText, "evicted: a") {
		t.Fatalf("stderr = %q, want eviction notice for a", errText)
	}

	code, _, _ = runDS(t, workDir, "", "get", "ring", "a")
	if code != 1 {
		t.Fatalf("evicted document still readable")
	}
}

func Test_Run_Dir_Flag_Overrides_Config_Data_Dir(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	altDir := filepath.Join(workDir, "elsewhere")

	code, _, errText := runDS(t, workDir, "", "--dir", altDir, "put", "notes", "--id", "f1", "{}")
	if code != 0 {
		t.Fatalf("put exit = %d, stderr: %s", code, errText)
	}

	if _, err := os.Stat(filepath.Join(altDir, "notes", "f1.json")); err != nil {
		t.Fatalf("document not stored under --dir location: %v", err)
	}

	if _, err := os.Stat(filepath.Join(workDir, ".docstore")); !os.IsNotExist(err) {
		t.Fatalf("default data dir was created despite --dir")
	}
}

func Test_Run_Accepts_Equals_Form_For_Global_Flags(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	altDir := filepath.Join(workDir, "elsewhere")

	code, out, errText := runDS(t, workDir, "", "--dir="+altDir, "put", "notes", "--id", "f1", "{}")
	if code != 0 {
		t.Fatalf("put exit = %d, stderr: %s", code, errText)
	}

	if strings.TrimSpace(out) != "f1" {
		t.Fatalf("stdout = %q, want f1", out)
	}

	if _, err := os.Stat(filepath.Join(altDir, "notes", "f1.json")); err != nil {
		t.Fatalf("document not stored under --dir= location: %v", err)
	}
}

func Test_Run_Export_Writes_One_File_Per_Collection(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	runDS(t, workDir, "", "put", "notes", "--id", "f1", `{"v":1}`)
	runDS(t, workDir, "", "put", "notes", "--id", "f2", `{"v":2}`)

	exportPath := filepath.Join(workDir, "dump.json")

	code, _, errText := runDS(t, workDir, "", "export", "notes", "--out", exportPath)
	if code != 0 {
		t.Fatalf("export exit = %d, stderr: %s", code, errText)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var dump map[string]map[string]any
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}

	if len(dump) != 2 || dump["f1"]["v"] != float64(1) {
		t.Fatalf("dump = %v", dump)
	}
}

func Test_Run_PrintConfig_Shows_Resolved_Settings(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	config := `{"data_dir": "custom-store"}`
	if err := os.WriteFile(filepath.Join(workDir, cli.ConfigFileName), []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	code, out, errText := runDS(t, workDir, "", "print-config")
	if code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, errText)
	}

	if !strings.Contains(out, "custom-store") {
		t.Fatalf("output:\n%s", out)
	}

	if !strings.Contains(out, "project config:") {
		t.Fatalf("project config source missing:\n%s", out)
	}
}
