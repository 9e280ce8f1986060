package models

import (
	"testing"
)

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *QueryRequest
		wantErr bool
		wantK   int
	}{
		{"empty text", &QueryRequest{Text: ""}, true, 0},
		{"whitespace text", &QueryRequest{Text: "   "}, true, 0},
		{"valid text", &QueryRequest{Text: "what is fever"}, false, DefaultTopK},
		{"zero top_k becomes default", &QueryRequest{Text: "x", TopK: 0}, false, DefaultTopK},
		{"negative top_k becomes default", &QueryRequest{Text: "x", TopK: -3}, false, DefaultTopK},
		{"top_k capped", &QueryRequest{Text: "x", TopK: 500}, false, MaxTopK},
		{"top_k kept", &QueryRequest{Text: "x", TopK: 5}, false, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.TopK != tt.wantK {
				t.Errorf("TopK = %d, want %d", tt.query.TopK, tt.wantK)
			}
		})
	}
}

func TestImportRequest_Validate(t *testing.T) {
	if err := (&ImportRequest{}).Validate(); err == nil {
		t.Error("expected error for missing file_path")
	}
	if err := (&ImportRequest{FilePath: "  "}).Validate(); err == nil {
		t.Error("expected error for blank file_path")
	}
	if err := (&ImportRequest{FilePath: "faqs.csv"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFaqEntry_IndexText(t *testing.T) {
	e := &FaqEntry{Question: "What is fever?", Answer: "A fever is a rise in body temperature."}
	want := "What is fever? A fever is a rise in body temperature."
	if got := e.IndexText(); got != want {
		t.Errorf("IndexText() = %q, want %q", got, want)
	}
}
