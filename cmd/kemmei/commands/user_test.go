// ABOUTME: Tests for the user commands and password helpers
// ABOUTME: Uses --password-stdin and a stubbed terminal reader

package commands

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
)

func TestUserAdd_ListAndUse(t *testing.T) {
	useTempStore(t)

	out, err := runRoot(t, "s3cret\n", "user", "add", "ana", "--password-stdin", "--use")
	if err != nil {
		t.Fatalf("user add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created user ana") {
		t.Errorf("add output = %q", out)
	}

	if _, err := runRoot(t, "", "user", "add", "bo", "--no-password"); err != nil {
		t.Fatalf("user add bo: %v", err)
	}

	out = mustRun(t, "user", "list")
	var anaLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ana") {
			anaLine = line
		}
	}
	if !strings.HasPrefix(anaLine, "*") {
		t.Errorf("ana should be marked current, got:\n%s", out)
	}

	mustRun(t, "user", "use", "bo")
	out = mustRun(t, "user", "list")
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "bo") && !strings.HasPrefix(line, "*") {
			t.Errorf("bo should be marked current after use, got:\n%s", out)
		}
	}
}

func TestUserAdd_DuplicateUsername(t *testing.T) {
	useTempStore(t)

	mustRun(t, "user", "add", "ana", "--no-password")
	_, err := runRoot(t, "", "user", "add", "ana", "--no-password")
	if err == nil || !strings.Contains(err.Error(), "already taken") {
		t.Errorf("duplicate add error = %v, want already taken", err)
	}
}

func TestUserList_JSONHidesHash(t *testing.T) {
	useTempStore(t)

	if _, err := runRoot(t, "pw\n", "user", "add", "ana", "--password-stdin"); err != nil {
		t.Fatalf("user add: %v", err)
	}

	out := mustRun(t, "--format", "json", "user", "list")
	if strings.Contains(out, "passwordHash") || strings.Contains(out, "$2a$") {
		t.Errorf("user list leaked the hash:\n%s", out)
	}
	var users []models.User
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		t.Fatalf("list output is not JSON: %v", err)
	}
	if len(users) != 1 || users[0].Username != "ana" {
		t.Errorf("users = %+v", users)
	}
}

func TestUserVerify(t *testing.T) {
	useTempStore(t)

	if _, err := runRoot(t, "correct horse\n", "user", "add", "ana", "--password-stdin"); err != nil {
		t.Fatalf("user add: %v", err)
	}

	out, err := runRoot(t, "correct horse\n", "user", "verify", "ana", "--password-stdin")
	if err != nil || !strings.Contains(out, "Password OK") {
		t.Errorf("verify with right password: err=%v out=%q", err, out)
	}

	_, err = runRoot(t, "battery staple\n", "user", "verify", "ana", "--password-stdin")
	if !errors.Is(err, errWrongPassword) {
		t.Errorf("verify with wrong password error = %v, want errWrongPassword", err)
	}

	_, err = runRoot(t, "x\n", "user", "verify", "nobody", "--password-stdin")
	if err == nil {
		t.Error("verify of an unknown user should fail")
	}
}

func TestUserUse_Unknown(t *testing.T) {
	useTempStore(t)

	if _, err := runRoot(t, "", "user", "use", "ghost"); err == nil {
		t.Error("use of an unknown user should fail")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := hashPassword("pw")
	if err != nil {
		t.Fatalf("hashPassword() error = %v", err)
	}
	if err := checkPassword(hash, "pw"); err != nil {
		t.Errorf("checkPassword(right) = %v", err)
	}
	if err := checkPassword(hash, "nope"); !errors.Is(err, errWrongPassword) {
		t.Errorf("checkPassword(wrong) = %v, want errWrongPassword", err)
	}
	if err := checkPassword("", "pw"); !errors.Is(err, errWrongPassword) {
		t.Errorf("checkPassword(no hash) = %v, want errWrongPassword", err)
	}
}

func TestGetPassword_Prompt(t *testing.T) {
	original := readPassword
	t.Cleanup(func() { readPassword = original })

	cmd := &cobra.Command{}
	var stderr strings.Builder
	cmd.SetErr(&stderr)

	readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }
	got, err := getPassword(cmd, false)
	if err != nil || got != "typed" {
		t.Errorf("getPassword() = %q, %v", got, err)
	}
	if !strings.Contains(stderr.String(), "Password:") {
		t.Errorf("prompt not written, got %q", stderr.String())
	}

	readPassword = func(int) ([]byte, error) { return nil, nil }
	if _, err := getPassword(cmd, false); err == nil {
		t.Error("empty password should be rejected")
	}
}

func TestGetPassword_Stdin(t *testing.T) {
	cmd := &cobra.Command{}

	cmd.SetIn(strings.NewReader("line one\r\nline two\n"))
	got, err := getPassword(cmd, true)
	if err != nil || got != "line one" {
		t.Errorf("getPassword(stdin) = %q, %v", got, err)
	}

	cmd.SetIn(strings.NewReader("no newline"))
	got, err = getPassword(cmd, true)
	if err != nil || got != "no newline" {
		t.Errorf("getPassword(stdin, EOF) = %q, %v", got, err)
	}

	cmd.SetIn(strings.NewReader(""))
	if _, err := getPassword(cmd, true); err == nil {
		t.Error("empty stdin should be rejected")
	}
}
