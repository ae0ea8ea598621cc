package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// stubScript prints each argument in brackets, appends a line to ran.log and
// exits with the requested code.
func stubScript(code string) string {
	return "#!/bin/sh\n" +
		`echo run >> "$(dirname "$0")/ran.log"` + "\n" +
		`for a in "$@"; do printf '[%s]\n' "$a"; done` + "\n" +
		"exit " + code + "\n"
}

// writeStub installs body at base/rel with execute permission.
func writeStub(t *testing.T, base, rel, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs require a unix shell")
	}
	p := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func runCount(t *testing.T, stub string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(stub), "ran.log"))
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "run\n")
}

func testStreams() (Streams, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return Streams{In: strings.NewReader(""), Out: &out, Err: &errOut}, &out, &errOut
}
