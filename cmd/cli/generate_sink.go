package main

// Command: generate-sink
//
// Scaffolds a new capture destination under internal/sinks/<name>.go together with a
// test stub. The generated sink reports itself as skipped until implemented,
// so registering it never changes submission results.
//
// Usage:
//   go run ./cmd/cli generate-sink
//   # Then follow the prompt to enter the sink name, e.g. crm_export.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const sinksDir = "internal/sinks"

var sinkNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type sinkTemplateData struct {
	Name      string // snake_case sink name reported in outcomes
	TypeName  string // exported Go type
	ConstName string
}

var sinkTemplate = template.Must(template.New("sink").Parse(`package sinks

import (
	"context"
	"fmt"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/models"
)

const {{.ConstName}} = "{{.Name}}"

type {{.TypeName}} struct{}

func New{{.TypeName}}() *{{.TypeName}} {
	return &{{.TypeName}}{}
}

func (s *{{.TypeName}}) Name() string {
	return {{.ConstName}}
}

func (s *{{.TypeName}}) Write(ctx context.Context, entry *models.WaitlistEntry) error {
	return fmt.Errorf("%w: {{.Name}} is not implemented", capture.ErrSinkSkipped)
}
`))

var sinkTestTemplate = template.Must(template.New("sink_test").Parse(`package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/stretchr/testify/assert"
)

func Test{{.TypeName}}_Write(t *testing.T) {
	sink := New{{.TypeName}}()
	entry := models.NewWaitlistEntry("ada@example.com", nil, time.Now())

	err := sink.Write(context.Background(), entry)
	assert.ErrorIs(t, err, capture.ErrSinkSkipped)
	assert.Equal(t, {{.ConstName}}, sink.Name())
}
`))

func newSinkTemplateData(name string) (sinkTemplateData, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !sinkNamePattern.MatchString(name) {
		return sinkTemplateData{}, fmt.Errorf("invalid sink name %q: use lower snake_case", name)
	}

	title := cases.Title(language.English)
	var typeName strings.Builder
	for _, part := range strings.Split(name, "_") {
		typeName.WriteString(title.String(part))
	}

	return sinkTemplateData{
		Name:      name,
		TypeName:  typeName.String(),
		ConstName: typeName.String() + "Name",
	}, nil
}

func renderSink(data sinkTemplateData) (source, test []byte, err error) {
	var src, tst bytes.Buffer
	if err := sinkTemplate.Execute(&src, data); err != nil {
		return nil, nil, err
	}
	if err := sinkTestTemplate.Execute(&tst, data); err != nil {
		return nil, nil, err
	}
	return src.Bytes(), tst.Bytes(), nil
}

// writeSink renders the sink into dir. Existing files are never overwritten.
func writeSink(dir string, data sinkTemplateData) ([]string, error) {
	src, tst, err := renderSink(data)
	if err != nil {
		return nil, err
	}

	files := []struct {
		path    string
		content []byte
	}{
		{filepath.Join(dir, data.Name+".go"), src},
		{filepath.Join(dir, data.Name+"_test.go"), tst},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			return nil, fmt.Errorf("%s already exists", f.path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.WriteFile(f.path, f.content, 0o644); err != nil {
			return written, err
		}
		written = append(written, f.path)
	}
	return written, nil
}

func GenerateSink(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Enter the sink name (lower snake_case): ")
	scanner := bufio.NewScanner(in)
	scanner.Scan()

	data, err := newSinkTemplateData(scanner.Text())
	if err != nil {
		return err
	}

	written, err := writeSink(sinksDir, data)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Sink %s created:\n", data.Name)
	for _, path := range written {
		fmt.Fprintf(out, "  %s\n", path)
	}
	fmt.Fprintln(out, "  ===> Next steps:")
	fmt.Fprintln(out, "   1) Implement Write in the generated file")
	fmt.Fprintln(out, "   2) Register it in config/app_capture.go BuildCapture:")
	fmt.Fprintf(out, "      orchestrator.Register(sinks.New%s(), capture.BestEffort)\n", data.TypeName)
	return nil
}
