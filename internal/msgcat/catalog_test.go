package msgcat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedCatalogRenders(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("error.no_active_game", map[string]any{"Prefix": "!"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "`!체커 @상대`") {
		t.Fatalf("prefix not substituted: %q", out)
	}
	if !c.Has("help.body") || c.Has("help") || c.Has("nope.key") {
		t.Fatalf("Has reported unexpected keys")
	}
}

func TestEveryEmbeddedTemplateParses(t *testing.T) {
	c := MustDefault()
	for _, key := range c.Keys() {
		if _, err := c.template(key); err != nil {
			t.Fatalf("template %s: %v", key, err)
		}
	}
}

func TestRenderMissingKeyAndField(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("does.not.exist", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing template err = %v", err)
	}
	if _, err := c.Render("game.resigned", map[string]any{"Loser": "a"}); err == nil {
		t.Fatalf("expected error for missing field")
	}
	if got := c.RenderOr("game.resigned", map[string]any{}, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
	var nilCat *Catalog
	if got := nilCat.RenderOr("x", nil, "fb"); got != "fb" {
		t.Fatalf("nil catalog RenderOr = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("10-errors.yaml", "error:\n  wrong_turn: \"상대 차례! ({{.Prefix}})\"\n")
	write("20-extra.yml", "custom:\n  greeting: \"hi {{.Name}}\"\n")
	write("README.txt", "ignored: true\n")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("error.wrong_turn", map[string]any{"Prefix": "/"})
	if err != nil || got != "상대 차례! (/)" {
		t.Fatalf("override = %q, %v", got, err)
	}
	got, err = c.Render("custom.greeting", map[string]any{"Name": "Bob"})
	if err != nil || got != "hi Bob" {
		t.Fatalf("extra = %q, %v", got, err)
	}
	if !c.Has("error.empty_source") {
		t.Fatalf("embedded keys lost after override")
	}
}

func TestOverrideDuplicateKeyRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("error:\n  game_over: x\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_, err := New(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("err = %v", err)
	}
}

func TestOverrideRejectsNonStringLeaf(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("error:\n  limit: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for integer leaf")
	}
	if _, err := New(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
