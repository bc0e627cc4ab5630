package types

import "testing"

func TestSentReportExternalID(t *testing.T) {
	tests := []struct {
		name string
		rec  SentReport
		want string
	}{
		{
			name: "Single",
			rec:  SentReport{Seq: 3, Kind: SentSingle, ReportID: "rec-1"},
			want: "report-00003-1",
		},
		{
			name: "Matched",
			rec:  SentReport{Seq: 157, Kind: SentMatched, MatchReportIDs: []string{"m-1", "m-2"}},
			want: "report-00157-0",
		},
		{
			name: "Wide Sequence",
			rec:  SentReport{Seq: 123456, Kind: SentSingle},
			want: "report-123456-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.ExternalID("report"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
