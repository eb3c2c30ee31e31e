package pdftext

import "testing"

func TestPDF_RejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello, this is plain text")},
		{"truncated header", []byte("%PDF-1.4\n1 0 obj\n<<")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := PDF{}.Extract(tt.data)
			if err == nil {
				t.Fatalf("expected error, got text %q", text)
			}
			if text != "" {
				t.Errorf("expected no text on error, got %q", text)
			}
		})
	}
}

func TestExtractorFunc(t *testing.T) {
	var e Extractor = ExtractorFunc(func(data []byte) (string, error) {
		return string(data), nil
	})
	got, err := e.Extract([]byte("40 horas"))
	if err != nil || got != "40 horas" {
		t.Errorf("Extract = %q, %v", got, err)
	}
}
