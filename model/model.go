// Package model ensures a Vosk model directory exists locally,
// downloading and extracting one from the public catalog when absent.
package model

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// ErrNoModel is returned when no catalog entry matches the requested language.
var ErrNoModel = errors.New("no model for language")

// Info describes one downloadable model.
type Info struct {
	Name string // Archive top-level directory name
	URL  string
	Size int64 // Approximate download size in bytes, for progress
	Lang language.Tag
}

// catalog lists the small streaming models from alphacephei.com. The
// en-US entry is the lgraph build, which supports partial results with
// a reasonable footprint.
var catalog = []Info{
	{"vosk-model-en-us-0.22-lgraph", "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22-lgraph.zip", 128 * 1024 * 1024, language.AmericanEnglish},
	{"vosk-model-small-pt-0.3", "https://alphacephei.com/vosk/models/vosk-model-small-pt-0.3.zip", 31 * 1024 * 1024, language.BrazilianPortuguese},
	{"vosk-model-small-es-0.42", "https://alphacephei.com/vosk/models/vosk-model-small-es-0.42.zip", 39 * 1024 * 1024, language.Spanish},
	{"vosk-model-small-fr-0.22", "https://alphacephei.com/vosk/models/vosk-model-small-fr-0.22.zip", 41 * 1024 * 1024, language.French},
	{"vosk-model-small-de-0.15", "https://alphacephei.com/vosk/models/vosk-model-small-de-0.15.zip", 45 * 1024 * 1024, language.German},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(catalog))
	for i, info := range catalog {
		tags[i] = info.Lang
	}
	return language.NewMatcher(tags)
}()

// Resolve returns the catalog entry best matching a BCP 47 language tag.
func Resolve(tag string) (Info, error) {
	parsed, err := language.Parse(tag)
	if err != nil {
		return Info{}, fmt.Errorf("parse language %q: %w", tag, err)
	}

	_, index, confidence := matcher.Match(parsed)
	if confidence == language.No {
		return Info{}, fmt.Errorf("%w: %s", ErrNoModel, tag)
	}
	return catalog[index], nil
}

// Languages returns the catalog languages, for display.
func Languages() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// IsPresent reports whether dir exists and holds any files.
func IsPresent(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// Ensure makes sure dir holds a populated model, downloading and
// extracting info's archive when it doesn't. The progress callback
// (may be nil) receives download percentage 0-100.
func Ensure(dir string, info Info, progress func(percent int)) error {
	if IsPresent(dir) {
		return nil
	}

	slog.Info("model not found, downloading", "name", info.Name, "url", info.URL)

	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return fmt.Errorf("create model parent dir: %w", err)
	}

	zipPath := dir + ".zip.tmp"
	if err := download(info.URL, zipPath, info.Size, progress); err != nil {
		return fmt.Errorf("download model: %w", err)
	}
	defer os.Remove(zipPath)

	if err := extract(zipPath, dir); err != nil {
		return fmt.Errorf("extract model: %w", err)
	}

	if !IsPresent(dir) {
		return fmt.Errorf("model dir %q empty after extraction", dir)
	}

	slog.Info("model ready", "dir", dir)
	return nil
}

func download(url, dest string, expectedSize int64, progress func(percent int)) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status: %d", resp.StatusCode)
	}
	if resp.ContentLength > 0 {
		expectedSize = resp.ContentLength
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	var downloaded int64
	buf := make([]byte, 32*1024)
	lastProgress := 0

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write file: %w", werr)
			}
			downloaded += int64(n)

			if expectedSize > 0 && progress != nil {
				pct := int(downloaded * 100 / expectedSize)
				if pct > 100 {
					pct = 100
				}
				if pct > lastProgress {
					lastProgress = pct
					progress(pct)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
	}

	return f.Close()
}

// extract unpacks the archive into a staging dir next to dest, then
// renames the archive's top-level directory into place so a failed
// extraction never leaves a half-populated model dir.
func extract(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	staging := dest + ".extract"
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	topLevel := ""
	for _, f := range r.File {
		name := filepath.Clean(f.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("unsafe archive path: %q", f.Name)
		}

		first := strings.SplitN(filepath.ToSlash(name), "/", 2)[0]
		if topLevel == "" {
			topLevel = first
		} else if first != topLevel {
			return fmt.Errorf("archive has multiple top-level entries: %q and %q", topLevel, first)
		}

		target := filepath.Join(staging, name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create dir: %w", err)
			}
			continue
		}

		if err := writeEntry(f, target); err != nil {
			return err
		}
	}

	if topLevel == "" {
		return errors.New("empty archive")
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clear model dir: %w", err)
	}
	if err := os.Rename(filepath.Join(staging, topLevel), dest); err != nil {
		return fmt.Errorf("move model into place: %w", err)
	}
	return nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive entry: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write %q: %w", target, err)
	}
	return dst.Close()
}
