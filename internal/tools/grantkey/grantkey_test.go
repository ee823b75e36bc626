package grantkey

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/caldermtz/tidechest/internal/treasure/domain"
)

func TestRunRequiresOutput(t *testing.T) {
	if err := Run(nil, bytes.NewReader([]byte{1})); err == nil {
		t.Fatal("expected error when output is nil")
	}
}

func TestRunWritesKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	reader := bytes.NewReader(bytes.Repeat([]byte{1}, 64))
	if err := Run(buf, reader); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	private := strings.TrimPrefix(lines[0], "export TIDECHEST_GRANT_PRIVATE_KEY=")
	identity := strings.TrimPrefix(lines[1], "export TIDECHEST_PLAYER_IDENTITY=")
	if private == lines[0] || identity == lines[1] {
		t.Fatalf("unexpected output format: %q", buf.String())
	}

	privateBytes, err := base64.RawStdEncoding.DecodeString(private)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privateBytes) != 64 {
		t.Fatalf("expected private key length 64, got %d", len(privateBytes))
	}
	if _, err := domain.ParseIdentity(identity); err != nil {
		t.Fatalf("emitted identity must parse: %v", err)
	}
}
