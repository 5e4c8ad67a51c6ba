package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runClient(t *testing.T, stdin *os.File, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestDecodeArgs(t *testing.T) {
	out := runClient(t, nil, "decode", "--kind", "electric", "7F000000000000 6400 3200")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	require.Equal(t, true, rec["battery12vNotCharging"])
	require.Equal(t, false, rec["ignition"])
	require.Equal(t, float64(100), rec["speed"])
	require.Equal(t, float64(50), rec["batteryLevelPercentage"])
}

func TestDecodeCaptureFromStdin(t *testing.T) {
	f, err := os.Open("../../testdata/fuel.hex")
	require.NoError(t, err)
	defer f.Close()

	out := runClient(t, f, "decode", "--kind", "fuel")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	require.Equal(t, true, last["oilPressureLow"])
	require.Equal(t, false, last["sparkPlugOn"])
	require.Equal(t, float64(3000), last["rpm"])
	require.Equal(t, float64(78), last["fuelLevel"])
	require.Equal(t, float64(105), last["engineTemperature"])
}

func TestDecodeShortFrameFails(t *testing.T) {
	rootCmd.SetArgs([]string{"decode", "--kind", "fuel", "7F7F7F"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	require.Error(t, rootCmd.Execute())
}
