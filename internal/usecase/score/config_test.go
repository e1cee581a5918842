package score

import "testing"

func TestParseScoreTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want map[string]float64
	}{
		{
			name: "empty string yields empty table",
			raw:  "",
			want: map[string]float64{},
		},
		{
			name: "single entry",
			raw:  "ANALYSIS:3",
			want: map[string]float64{"ANALYSIS": 3},
		},
		{
			name: "multiple entries with spacing",
			raw:  "ANALYSIS:3, NEWS:2.5 ,SHILL:-1",
			want: map[string]float64{"ANALYSIS": 3, "NEWS": 2.5, "SHILL": -1},
		},
		{
			name: "malformed entries are skipped, not fatal",
			raw:  "ANALYSIS:3,garbage,NEWS:notanumber,SECURITY:2",
			want: map[string]float64{"ANALYSIS": 3, "SECURITY": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseScoreTable(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseScoreTable(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseScoreTable(%q)[%q] = %v, want %v", tt.raw, k, got[k], v)
				}
			}
		})
	}
}
