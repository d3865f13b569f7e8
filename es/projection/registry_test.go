package projection

import "testing"

func TestDecodeStreamPositions(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    map[string]int64
		wantErr bool
	}{
		{
			name: "empty input yields empty map",
			data: "",
			want: map[string]int64{},
		},
		{
			name: "empty document yields empty map",
			data: "{}",
			want: map[string]int64{},
		},
		{
			name: "positions decode as int64",
			data: `{"user-1": 42, "user-2": 9223372036854775807}`,
			want: map[string]int64{"user-1": 42, "user-2": 9223372036854775807},
		},
		{
			name:    "non-numeric position fails",
			data:    `{"user-1": "42"}`,
			wantErr: true,
		},
		{
			name:    "fractional position fails",
			data:    `{"user-1": 4.5}`,
			wantErr: true,
		},
		{
			name:    "malformed json fails",
			data:    `{"user-1": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStreamPositions([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeStreamPositions(%q) error = nil, want error", tt.data)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeStreamPositions(%q) error = %v, want nil", tt.data, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("DecodeStreamPositions(%q) = %v, want %v", tt.data, got, tt.want)
			}
			for stream, position := range tt.want {
				if got[stream] != position {
					t.Errorf("position[%s] = %d, want %d", stream, got[stream], position)
				}
			}
		})
	}
}
