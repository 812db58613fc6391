// Package godog_test exercises the end-to-end scenarios of the
// translate_package contract through cucumber feature files, the way
// the teacher drove epubcheck's compliance suite off Gherkin features
// rather than hand-rolled table tests.
package godog_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/spf13/afero"

	"github.com/scormtr/scormtr/pkg/pipeline"
	"github.com/scormtr/scormtr/pkg/scormerr"
	"github.com/scormtr/scormtr/pkg/translate"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status from godog, scenario failures above")
	}
}

// mappingProvider translates exact-match strings and passes everything
// else through unchanged, standing in for a real backend in scenarios
// that assert a specific translation landed at a specific anchor.
type mappingProvider struct {
	table map[string]string
}

func (m mappingProvider) TranslateOne(_ context.Context, text, _, _ string) (string, error) {
	if t, ok := m.table[text]; ok {
		return t, nil
	}
	return text, nil
}

func (m mappingProvider) TranslateMany(ctx context.Context, items []translate.BatchItem, src, tgt string) ([]string, error) {
	out := make([]string, len(items))
	for i, item := range items {
		out[i], _ = m.TranslateOne(ctx, item.Text, src, tgt)
	}
	return out, nil
}

func (m mappingProvider) SupportedLanguages() []string {
	return []string{"es", "en", "fr", "de"}
}

// scenarioState holds per-scenario fixtures and the translation result.
type scenarioState struct {
	dir         string
	fs          afero.Fs
	archivePath string
	zipEntries  map[string][]byte
	mapping     map[string]string

	outputPath string
	runErr     error
}

func newScenarioState() *scenarioState {
	dir, err := os.MkdirTemp("", "scormtr-godog-*")
	if err != nil {
		panic(err)
	}
	return &scenarioState{
		dir:        dir,
		fs:         afero.NewOsFs(),
		zipEntries: map[string][]byte{},
	}
}

func (s *scenarioState) writeArchive() error {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, data := range s.zipEntries {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("creating entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zip: %w", err)
	}
	s.archivePath = filepath.Join(s.dir, "course.zip")
	return os.WriteFile(s.archivePath, buf.Bytes(), 0o644)
}

func manifestFor(orgTitle, itemTitle string, extra string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<manifest identifier="MANIFEST-1" version="1.0" xmlns="http://www.imsproject.org/xsd/imscp_rootv1p1p2">
  <organizations default="ORG-1">
    <organization identifier="ORG-1">
      <title>%s</title>
      <item identifier="ITEM-1" identifierref="RES-1">
        <title>%s</title>
        %s
      </item>
    </organization>
  </organizations>
  <resources>
    <resource identifier="RES-1" type="webcontent" href="index.html">
      <file href="index.html"/>
    </resource>
  </resources>
</manifest>`, orgTitle, itemTitle, extra)
}

func (s *scenarioState) run(lang string, provider translate.Provider) error {
	if err := s.writeArchive(); err != nil {
		return err
	}
	stats, err := pipeline.Translate(context.Background(), s.archivePath, pipeline.Config{
		Provider:        provider,
		SourceLanguage:  "es",
		TargetLanguages: []string{lang},
		OutputDir:       s.dir,
		Fs:              s.fs,
	}, nil)
	s.runErr = err
	if err == nil {
		s.outputPath = stats.OutputPaths[lang]
	}
	return nil
}

func (s *scenarioState) outputEntry(name string) ([]byte, error) {
	if s.runErr != nil {
		return nil, fmt.Errorf("translate failed: %w", s.runErr)
	}
	zr, err := zip.OpenReader(s.outputPath)
	if err != nil {
		return nil, fmt.Errorf("opening output zip: %w", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			buf := &bytes.Buffer{}
			if _, err := buf.ReadFrom(rc); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("no entry %q in output zip", name)
}

var deserializeCallRe = regexp.MustCompile(`deserialize\("([A-Za-z0-9+/=]+)"\)`)

func extractDeserializeArg(html string) string {
	m := deserializeCallRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return m[1]
}

func initializeScenario(ctx *godog.ScenarioContext) {
	var s *scenarioState

	ctx.Before(func(gctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s = newScenarioState()
		return gctx, nil
	})

	ctx.After(func(gctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		os.RemoveAll(s.dir)
		return gctx, nil
	})

	ctx.Step(`^a SCORM 1\.2 package with organization "([^"]*)" and item "([^"]*)" pointing at "([^"]*)" containing "([^"]*)"$`,
		func(org, item, file, body string) error {
			s.zipEntries["imsmanifest.xml"] = []byte(manifestFor(org, item, ""))
			s.zipEntries[file] = []byte(fmt.Sprintf("<html><body>%s</body></html>", body))
			return nil
		})

	ctx.Step(`^a SCORM 2004 package with control-mode choice "([^"]*)" and flow "([^"]*)" on item "([^"]*)"$`,
		func(choice, flow, item string) error {
			controlMode := fmt.Sprintf(`<imsss:sequencing xmlns:imsss="http://www.imsglobal.org/xsd/imsss"><imsss:controlMode choice="%s" flow="%s"/></imsss:sequencing>`, choice, flow)
			s.zipEntries["imsmanifest.xml"] = []byte(strings.Replace(
				manifestFor("Curso", item, controlMode),
				`version="1.0"`, `schemaversion="2004 3rd Edition" version="1.0"`, 1))
			s.zipEntries["index.html"] = []byte("<html><body><p>contenido</p></body></html>")
			return nil
		})

	ctx.Step(`^an archive containing an entry named "([^"]*)"$`, func(name string) error {
		s.zipEntries["imsmanifest.xml"] = []byte(manifestFor("Curso", "Item", ""))
		s.zipEntries[name] = []byte("#!/bin/sh\necho pwned\n")
		return nil
	})

	ctx.Step(`^an archive containing (\d+) empty entries$`, func(n int) error {
		for i := 0; i < n; i++ {
			s.zipEntries[fmt.Sprintf("file-%d.txt", i)] = []byte{}
		}
		return nil
	})

	ctx.Step(`^a Rise bootstrap with heading "([^"]*)", paragraph "([^"]*)" and label "([^"]*)" set to "([^"]*)"$`,
		func(heading, paragraph, labelKey, labelVal string) error {
			course := map[string]interface{}{
				"blocks": []interface{}{
					map[string]interface{}{
						"heading": heading,
						"items": []interface{}{
							map[string]interface{}{"paragraph": paragraph},
						},
					},
				},
				"labelSet": map[string]interface{}{
					"labels": map[string]interface{}{labelKey: labelVal},
				},
			}
			raw, err := json.Marshal(course)
			if err != nil {
				return err
			}
			b64 := base64.StdEncoding.EncodeToString(raw)
			html := fmt.Sprintf(`<html><body><script>window.__fetchCourse = function(){ return deserialize("%s"); }</script></body></html>`, b64)
			s.zipEntries["imsmanifest.xml"] = []byte(manifestFor("Curso Rise", "Item Rise", ""))
			s.zipEntries["index.html"] = []byte(html)
			return nil
		})

	ctx.Step(`^a provider mapping "([^"]*)" to "([^"]*)", "([^"]*)" to "([^"]*)"(?:, "([^"]*)" to "([^"]*)")?$`,
		func(k1, v1, k2, v2, k3, v3 string) error {
			table := map[string]string{k1: v1, k2: v2}
			if k3 != "" {
				table[k3] = v3
			}
			s.mapping = table
			return nil
		})

	ctx.Step(`^it is translated to "([^"]*)" with the identity provider$`, func(lang string) error {
		return s.run(lang, translate.IdentityProvider{})
	})

	ctx.Step(`^it is translated to "([^"]*)" with the mapping provider$`, func(lang string) error {
		return s.run(lang, mappingProvider{table: s.mapping})
	})

	ctx.Step(`^the output manifest title is "([^"]*)"$`, func(want string) error {
		data, err := s.outputEntry("imsmanifest.xml")
		if err != nil {
			return err
		}
		if !strings.Contains(string(data), "<title>"+want+"</title>") {
			return fmt.Errorf("manifest does not contain org title %q:\n%s", want, data)
		}
		return nil
	})

	ctx.Step(`^the output manifest item title is "([^"]*)"$`, func(want string) error {
		data, err := s.outputEntry("imsmanifest.xml")
		if err != nil {
			return err
		}
		if !strings.Contains(string(data), "<title>"+want+"</title>") {
			return fmt.Errorf("manifest does not contain item title %q:\n%s", want, data)
		}
		return nil
	})

	ctx.Step(`^"([^"]*)" in the output contains "([^"]*)"$`, func(file, want string) error {
		data, err := s.outputEntry(file)
		if err != nil {
			return err
		}
		if !strings.Contains(string(data), want) {
			return fmt.Errorf("%s does not contain %q:\n%s", file, want, data)
		}
		return nil
	})

	ctx.Step(`^the output manifest still has a controlMode element with choice "([^"]*)" and flow "([^"]*)"$`,
		func(choice, flow string) error {
			data, err := s.outputEntry("imsmanifest.xml")
			if err != nil {
				return err
			}
			want := fmt.Sprintf(`choice="%s" flow="%s"`, choice, flow)
			if !strings.Contains(string(data), want) {
				return fmt.Errorf("controlMode attributes not preserved:\n%s", data)
			}
			return nil
		})

	ctx.Step(`^the translation fails with an unsafe archive error$`, func() error {
		if s.runErr == nil {
			return errors.New("expected an error, got none")
		}
		var serr *scormerr.Error
		if !errors.As(s.runErr, &serr) {
			return fmt.Errorf("expected a *scormerr.Error, got %T: %v", s.runErr, s.runErr)
		}
		if serr.Kind != scormerr.UnsafeArchive {
			return fmt.Errorf("expected UnsafeArchive, got %s", serr.Kind)
		}
		return nil
	})

	ctx.Step(`^no file named "([^"]*)" exists outside the scratch directory$`, func(name string) error {
		var found []string
		_ = filepath.Walk(filepath.Dir(s.dir), func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() && filepath.Base(path) == name {
				found = append(found, path)
			}
			return nil
		})
		if len(found) > 0 {
			return fmt.Errorf("found %s outside scratch: %v", name, found)
		}
		return nil
	})

	ctx.Step(`^the decoded Rise course model has heading "([^"]*)", paragraph "([^"]*)" and label "next" set to "([^"]*)"$`,
		func(heading, paragraph, next string) error {
			data, err := s.outputEntry("index.html")
			if err != nil {
				return err
			}
			b64 := extractDeserializeArg(string(data))
			if b64 == "" {
				return errors.New("no deserialize(...) call found in output")
			}
			raw, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return fmt.Errorf("base64 decode: %w", err)
			}
			var course map[string]interface{}
			if err := json.Unmarshal(raw, &course); err != nil {
				return fmt.Errorf("json decode: %w", err)
			}
			blocks, _ := course["blocks"].([]interface{})
			if len(blocks) == 0 {
				return errors.New("no blocks in decoded course")
			}
			block := blocks[0].(map[string]interface{})
			if block["heading"] != heading {
				return fmt.Errorf("heading = %v, want %v", block["heading"], heading)
			}
			items, _ := block["items"].([]interface{})
			item := items[0].(map[string]interface{})
			if item["paragraph"] != paragraph {
				return fmt.Errorf("paragraph = %v, want %v", item["paragraph"], paragraph)
			}
			labelSet, _ := course["labelSet"].(map[string]interface{})
			labels, _ := labelSet["labels"].(map[string]interface{})
			if labels["next"] != next {
				return fmt.Errorf("labels.next = %v, want %v", labels["next"], next)
			}
			return nil
		})
}
