package printer

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestItemLineKeepsTotalInsideWidth(t *testing.T) {
	doc := NewDocument(Width80mm)
	doc.ItemLine("2", strings.Repeat("Very long product name ", 4), "1234.50")

	out := doc.Bytes()
	// skip the ESC @ init prefix
	line := strings.TrimSuffix(string(out[2:]), "\n")
	if len(line) != Width80mm {
		t.Fatalf("expected line of %d chars, got %d: %q", Width80mm, len(line), line)
	}
	if !strings.HasSuffix(line, "1234.50") {
		t.Fatalf("expected total at the right edge, got %q", line)
	}
}

func TestKeyValuePadsToWidth(t *testing.T) {
	if got := Columns(20, "Total:", "9.99"); len(got) != 20 {
		t.Fatalf("expected 20 chars, got %d", len(got))
	}
	if got := Columns(5, "Subtotal:", "100.00"); got != "Subtotal: 100.00" {
		t.Fatalf("expected single space fallback, got %q", got)
	}
}

func TestNullPrinterAndConfig(t *testing.T) {
	p, err := NewPrinterFromConfig("none", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind() != "none" || p.IsConnected() {
		t.Fatalf("expected disconnected null printer")
	}
	if err := p.Print(context.Background(), []byte("x")); err != nil {
		t.Fatalf("null printer should accept jobs: %v", err)
	}
	if _, err := NewPrinterFromConfig("network", "", ""); err == nil {
		t.Fatalf("expected error for network printer without address")
	}
	if _, err := NewPrinterFromConfig("serial", "", ""); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestDocumentStartsWithInit(t *testing.T) {
	doc := NewDocument(0)
	if doc.Width() != Width80mm {
		t.Fatalf("expected default width %d, got %d", Width80mm, doc.Width())
	}
	if !bytes.HasPrefix(doc.Cut().Bytes(), []byte{ESC, '@'}) {
		t.Fatalf("expected ESC @ prefix")
	}
}
