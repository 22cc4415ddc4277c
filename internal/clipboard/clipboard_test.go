package clipboard

import (
	"errors"
	"testing"
)

func TestCopy(t *testing.T) {
	var got string
	orig := writeAll
	writeAll = func(text string) error {
		got = text
		return nil
	}
	defer func() { writeAll = orig }()

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{name: "plain", text: "hello", want: "hello"},
		{name: "trims", text: "\n  hello world \n", want: "hello world"},
		{name: "empty", text: "", wantErr: ErrNothingToCopy},
		{name: "blank", text: " \t\n", wantErr: ErrNothingToCopy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = ""
			err := Copy(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Copy() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("clipboard = %q, want %q", got, tt.want)
			}
		})
	}
}
