package services

import "testing"

func TestPreCleanTextDropsPageNoise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"page label", "Cells divide.\nPage 3 of 10\nDNA replicates.", "Cells divide.\n\nDNA replicates."},
		{"dashed page number", "Cells divide.\n- 12 -\nDNA replicates.", "Cells divide.\n\nDNA replicates."},
		{"page fraction", "Cells divide.\n12 / 40\nDNA replicates.", "Cells divide.\n\nDNA replicates."},
		{"decoration", "Cells divide.\n* * *\n-----\nDNA replicates.", "Cells divide.\n\nDNA replicates."},
		{"table of contents", "Table of Contents\nChapter one.", "Chapter one."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreCleanText(tt.in); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestPreCleanTextKeepsNumericContent(t *testing.T) {
	for _, line := range []string{"1945", "3.14", "-40", "12.5%", "2024-01-15"} {
		in := "The value is listed below.\n" + line + "\nEnd of table."
		want := "The value is listed below.\n" + line + "\nEnd of table."
		if got := PreCleanText(in); got != want {
			t.Errorf("%q: got %q", line, got)
		}
	}
}
