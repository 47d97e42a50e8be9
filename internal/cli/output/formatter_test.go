package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type sample struct {
	Name     string        `json:"name" yaml:"name"`
	Requests int64         `json:"requests" yaml:"requests"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%q, %v), want (%q, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("json: expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("yaml: expected YAMLFormatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Error("table: expected wide TableFormatter")
	}
	if _, ok := NewFormatter("unknown", false).(*TableFormatter); !ok {
		t.Error("unknown format should default to table")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	in := sample{Name: "run", Requests: 10, Elapsed: time.Second}

	if err := (&JSONFormatter{}).Format(&buf, in); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  \"name\"") {
		t.Errorf("output should be indented: %q", buf.String())
	}

	var out sample
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	in := sample{Name: "run", Requests: 10, Elapsed: 1500 * time.Millisecond}

	if err := (&YAMLFormatter{}).Format(&buf, in); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: run") {
		t.Errorf("output = %q", buf.String())
	}

	var out sample
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}
