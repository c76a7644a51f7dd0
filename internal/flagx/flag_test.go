package flagx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		bools   []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "forms.db", "-x", "1"},
			allowed: []string{"-d"},
			want:    []string{"-d", "forms.db"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=formdoc.yaml", "-m", "auto"},
			allowed: ConfigFlags,
			want:    []string{"--config=formdoc.yaml"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: ConfigFlags,
			want:    []string{},
		},
		{
			name:    "dangling flag kept",
			args:    []string{"-c"},
			allowed: ConfigFlags,
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not a value",
			args:    []string{"-c", "--config=alt.json"},
			allowed: ConfigFlags,
			want:    []string{"-c", "--config=alt.json"},
		},
		{
			name:    "bool flag does not take a value",
			args:    []string{"-v", "records", "-m", "database"},
			allowed: []string{"-v", "-m"},
			bools:   []string{"-v"},
			want:    []string{"-v", "-m", "database"},
		},
		{
			name:    "stops at terminator",
			args:    []string{"-m", "auto", "--", "-m", "database"},
			allowed: []string{"-m"},
			want:    []string{"-m", "auto"},
		},
		{
			name:    "repeats preserved",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed, tt.bools...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("FilterArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/formdoc.json", ConfigPath([]string{"-c", "/etc/formdoc.json"}))
	assert.Equal(t, "long.yaml", ConfigPath([]string{"-config", "long.yaml", "-m", "auto"}))
	assert.Equal(t, "eq.json", ConfigPath([]string{"--config=eq.json"}))
	assert.Equal(t, "2.json", ConfigPath([]string{"-c", "1.json", "-config", "2.json"}), "last wins")
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
	assert.Empty(t, ConfigPath(nil))
}
