package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	domaincheck "github.com/FranksOps/domaincheck"
)

func TestRenderTable(t *testing.T) {
	output = "table"
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	results := []domaincheck.DomainResult{
		{FQDN: "acme.com", Availability: domaincheck.Available, MethodUsed: domaincheck.ProtocolStructured},
	}
	if err := render(cmd, results); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "acme.com") || !strings.Contains(buf.String(), "available") {
		t.Errorf("expected table row for acme.com, got %q", buf.String())
	}
}

func TestRenderJSON(t *testing.T) {
	output = "json"
	t.Cleanup(func() { output = "table" })

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	results := []domaincheck.DomainResult{
		{FQDN: "acme.com", Availability: domaincheck.Taken, MethodUsed: domaincheck.ProtocolTextual, Registrar: "Registry X"},
	}
	if err := render(cmd, results); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `"registrar":"Registry X"`) {
		t.Errorf("expected registrar field in json output, got %q", buf.String())
	}
}

func TestReadLabels_SkipsBlankAndCommentLines(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/labels.txt"
	content := "acme.com\n\n# a comment\nexample.io\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	labels, err := readLabels(path)
	if err != nil {
		t.Fatalf("readLabels: %v", err)
	}
	want := []string{"acme.com", "example.io"}
	if len(labels) != len(want) {
		t.Fatalf("expected %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("expected %v, got %v", want, labels)
		}
	}
}
