package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/vellum/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	ctx := contextWithEnv(context.Background())
	return newApp().Run(ctx, append([]string{"vellum"}, args...))
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestInsertImage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{
			name:  "caret",
			input: `<p>a<!--|-->b</p>`,
			args:  []string{"--src", "a.png", "--alt", "A"},
			want:  `<p>a<img src="a.png" alt="A"/>b</p>`,
		},
		{
			name:  "replaces extent",
			input: `<p>a<!--[-->bc<!--]-->d</p>`,
			args:  []string{"--src", "a.png", "--alt", "A"},
			want:  `<p>a<img src="a.png" alt="A"/>d</p>`,
		},
		{
			name:  "updates selected image",
			input: `<p><!--[--><img src="old.png" alt="O" class="x"/><!--]--></p>`,
			args:  []string{"--src", "a.png", "--alt", "A"},
			want:  `<p><img src="a.png" alt="A" class="x"/></p>`,
		},
		{
			name:  "repeat",
			input: `<p>a<!--|-->b</p>`,
			args:  []string{"--src", "a.png", "--alt", "A", "--repeat", "2"},
			want:  `<p>a<img src="a.png" alt="A"/><img src="a.png" alt="A"/>b</p>`,
		},
		{
			name:  "selection markers",
			input: `<p>a<!--|-->b</p>`,
			args:  []string{"--src", "a.png", "--alt", "A", "--selection"},
			want:  `<p>a<img src="a.png" alt="A"/><!--|-->b</p>`,
		},
		{
			name:  "placeholder leaves the fragment alone",
			input: `<p>a<!--|-->b</p>`,
			args:  []string{"--src", "http://"},
			want:  `<p>ab</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeFile(t, dir, "in.html", []byte(tt.input))
			dst := filepath.Join(dir, "out.html")

			args := append([]string{"insert-image", "--no-resolve"}, tt.args...)
			if err := runApp(t, append(args, src, dst)...); err != nil {
				t.Fatalf("insert-image error = %v", err)
			}
			if got := readFile(t, dst); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertImageResolvesRelativeToSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pic.png", pngHeader)
	src := writeFile(t, dir, "in.html", []byte(`<p><!--|--></p>`))
	dst := filepath.Join(dir, "out.html")

	if err := runApp(t, "insert-image", "--src", "./pic.png", "--alt", "P", src, dst); err != nil {
		t.Fatalf("insert-image error = %v", err)
	}
	if got, want := readFile(t, dst), `<p><img src="./pic.png" alt="P"/></p>`; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestInsertImageScript(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "answer.lua", []byte(`function present(req)
	return { targetReference = "s.png", accessibleLabel = req.title }
end`))
	src := writeFile(t, dir, "in.html", []byte(`<p><!--|--></p>`))
	dst := filepath.Join(dir, "out.html")

	if err := runApp(t, "insert-image", "--no-resolve", "--script", script, src, dst); err != nil {
		t.Fatalf("insert-image error = %v", err)
	}
	if got, want := readFile(t, dst), `<p><img src="s.png" alt="Insert image"/></p>`; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestInsertImageConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "vellum.yaml", []byte("localization:\n  insert_image: Bild einfügen\n"))
	script := writeFile(t, dir, "answer.lua", []byte(`function present(req)
	return { targetReference = "s.png", accessibleLabel = req.title }
end`))
	src := writeFile(t, dir, "in.html", []byte(`<p><!--|--></p>`))
	dst := filepath.Join(dir, "out.html")

	if err := runApp(t, "--config", cfg, "insert-image", "--no-resolve", "--script", script, src, dst); err != nil {
		t.Fatalf("insert-image error = %v", err)
	}
	if got, want := readFile(t, dst), `<p><img src="s.png" alt="Bild einfügen"/></p>`; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestInsertImageErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "in.html", []byte(`<p><!--|--></p>`))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"insert-image"}, "no SOURCE specified"},
		{"missing source", []string{"insert-image", "--src", "a.png", filepath.Join(dir, "missing.html")}, "unable to read source"},
		{"missing script", []string{"insert-image", "--script", filepath.Join(dir, "missing.lua"), src}, "unable to load script"},
		{"bad config", []string{"--config", filepath.Join(dir, "missing.yaml"), "insert-image", src}, "unable to prepare configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runApp(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestDumpConfig(t *testing.T) {
	dir := t.TempDir()

	dst := filepath.Join(dir, "default.yaml")
	if err := runApp(t, "dumpconfig", "--default", dst); err != nil {
		t.Fatalf("dumpconfig --default error = %v", err)
	}
	if got := readFile(t, dst); !bytes.Equal([]byte(got), config.Defaults()) {
		t.Error("dumpconfig --default should write the embedded defaults")
	}

	cfg := writeFile(t, dir, "vellum.toml", []byte("[history]\nmax_entries = 7\n"))
	dst = filepath.Join(dir, "actual.yaml")
	if err := runApp(t, "--config", cfg, "dumpconfig", dst); err != nil {
		t.Fatalf("dumpconfig error = %v", err)
	}
	loaded, err := config.Load(dst)
	if err != nil {
		t.Fatalf("Load() dumped config error = %v", err)
	}
	if loaded.History.MaxEntries != 7 {
		t.Errorf("max_entries = %d, want 7", loaded.History.MaxEntries)
	}
}
