package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8647", cfg.ListenAddress)
	require.Equal(t, "treasury", cfg.TreasuryAccount)
	require.Equal(t, 120, cfg.RateLimitPerMin)
	require.Empty(t, cfg.DataDir)
	require.False(t, cfg.SeedsPlatform())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = "127.0.0.1:9000"
DataDir = "/var/lib/microlend"
Environment = "staging"
TreasuryAccount = "fees"
RateLimitPerMin = 60

[platform]
FeeBps = 250
MinLoanAmount = "1000"
MaxLoanAmount = "1000000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
	require.Equal(t, "/var/lib/microlend", cfg.DataDir)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, "fees", cfg.TreasuryAccount)
	require.Equal(t, 60, cfg.RateLimitPerMin)
	require.True(t, cfg.SeedsPlatform())
	require.Equal(t, uint64(250), cfg.Platform.FeeBps)
	require.Zero(t, cfg.Platform.MinLoanAmount.Cmp(big.NewInt(1_000)))
	require.Zero(t, cfg.Platform.MaxLoanAmount.Cmp(big.NewInt(1_000_000)))
}

func TestLoadNormalizesBlankFields(t *testing.T) {
	path := writeConfig(t, `
ListenAddress = "  "
TreasuryAccount = ""
RateLimitPerMin = 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8647", cfg.ListenAddress)
	require.Equal(t, "treasury", cfg.TreasuryAccount)
	require.Equal(t, 120, cfg.RateLimitPerMin)
}

func TestLoadRejectsInvalidPlatform(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "fee above cap",
			body: "[platform]\nFeeBps = 1001\nMinLoanAmount = \"100\"\nMaxLoanAmount = \"200\"\n",
		},
		{
			name: "bounds set separately",
			body: "[platform]\nMinLoanAmount = \"100\"\n",
		},
		{
			name: "zero minimum",
			body: "[platform]\nMinLoanAmount = \"0\"\nMaxLoanAmount = \"200\"\n",
		},
		{
			name: "inverted bounds",
			body: "[platform]\nMinLoanAmount = \"200\"\nMaxLoanAmount = \"200\"\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
