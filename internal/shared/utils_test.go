package shared

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// ---------- GenerateID ----------

func TestGenerateID_UniqueAndParsable(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestGenerateID_TimePrefixOrdersByCreation(t *testing.T) {
	a := GenerateID()
	time.Sleep(2 * time.Millisecond)
	b := GenerateID()
	require.Less(t, a[:13], b[:13])
}

// ---------- Timestamp ----------

func TestTimestamp_FixedWidthUTC(t *testing.T) {
	orig := now
	t.Cleanup(func() { now = orig })

	loc := time.FixedZone("X", 3*3600)
	now = func() time.Time { return time.Date(2024, 5, 10, 15, 0, 0, 0, loc) }

	require.Equal(t, "2024-05-10T12:00:00.000Z", Timestamp())
}

func TestTimestamp_SortsLexically(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []string{
		FormatTime(base.Add(1500 * time.Millisecond)),
		FormatTime(base.Add(10 * time.Second)),
		FormatTime(base),
		FormatTime(base.Add(2 * time.Millisecond)),
	}
	sorted := append([]string(nil), in...)
	sort.Strings(sorted)
	require.Equal(t, []string{in[2], in[3], in[0], in[1]}, sorted)
}

func TestParseTime_AcceptsBothLayouts(t *testing.T) {
	got, err := ParseTime("2024-05-10T12:00:00.000Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), got.UTC())

	got, err = ParseTime("2024-05-10T12:00:00Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), got.UTC())

	_, err = ParseTime("yesterday")
	require.Error(t, err)
}
