package common_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/cmd/common"
	"fjacquet/ledger-import/internal/config"
	"fjacquet/ledger-import/internal/container"
	"fjacquet/ledger-import/internal/ledger"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/report"
)

const exportFile = "date;account;category;total;currency;description;transfer\n" +
	"19.02.2026;Card;Food\\Cafe;-350,00;₽;lunch;\n" +
	"20.02.2026;Card;;-1000,00;₽;;Savings\n" +
	"20.02.2026;Savings;;1000,00;руб;;Card\n" +
	"21.02.2026;Card;Salary;90000,00;RUB;;\n" +
	"22.02.2026;Card;;;RUB;;\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Import.MaxFileSizeMB = 1
	cfg.Import.PageSize = 50
	cfg.API.TimeoutSeconds = 5
	cfg.Server.Database = filepath.Join(t.TempDir(), "ledger.db")
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// snapshotContainer reads the ledger from a snapshot file holding RUB and
// the Card account.
func snapshotContainer(t *testing.T) *container.Container {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, ledger.SaveSnapshotFile(path, &ledger.Snapshot{
		Currencies: models.CurrencyRegistry{{Code: "RUB", Name: "Russian Ruble", Symbol: "₽"}},
		Accounts:   []models.Account{{ID: "1", Name: "Card", Type: "bank", Currency: "RUB"}},
	}))

	cfg := testConfig(t)
	cfg.API.BaseURL = "http://127.0.0.1:1/api/v1"
	cfg.Ledger.SnapshotFile = path
	c, err := container.NewContainerWithLogger(cfg, logging.NewMockLogger())
	require.NoError(t, err)
	return c
}

// backendContainer runs the reference backend and returns a client
// container pointed at it.
func backendContainer(t *testing.T) *container.Container {
	t.Helper()
	serverCfg := testConfig(t)
	serverCfg.API.AccessToken = "access"
	serverCfg.API.RefreshToken = "refresh"
	serverSide, err := container.NewContainerWithLogger(serverCfg, logging.NewMockLogger())
	require.NoError(t, err)
	backend, err := serverSide.NewBackend(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	srv := httptest.NewServer(backend.Router)
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.API.BaseURL = srv.URL + "/api/v1"
	cfg.API.AccessToken = "access"
	cfg.API.RefreshToken = "refresh"
	c, err := container.NewContainerWithLogger(cfg, logging.NewMockLogger())
	require.NoError(t, err)
	return c
}

func TestParseMappings(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", values: nil, want: map[string]string{}},
		{name: "pairs", values: []string{"руб=RUB", " $ = usd "}, want: map[string]string{"руб": "RUB", "$": "usd"}},
		{name: "missing separator", values: []string{"руб"}, wantErr: true},
		{name: "missing code", values: []string{"руб="}, wantErr: true},
		{name: "missing token", values: []string{"=RUB"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := common.ParseMappings(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNewCurrencies(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    map[string]models.NewCurrency
		wantErr bool
	}{
		{
			name:   "proposal",
			values: []string{"֏=AMD:Armenian Dram"},
			want:   map[string]models.NewCurrency{"֏": {Code: "AMD", Name: "Armenian Dram", Symbol: "֏"}},
		},
		{name: "missing name", values: []string{"֏=AMD"}, wantErr: true},
		{name: "empty name", values: []string{"֏=AMD:"}, wantErr: true},
		{name: "missing code", values: []string{"֏=:Dram"}, wantErr: true},
		{name: "no token", values: []string{"AMD:Dram"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := common.ParseNewCurrencies(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes ", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := common.Confirm(strings.NewReader(tt.input), &out, "Continue? ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Continue? ", out.String())
		})
	}
}

func TestAnalyze(t *testing.T) {
	c := snapshotContainer(t)
	input := writeFile(t, "export.csv", exportFile)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, common.Analyze(context.Background(), c, common.AnalyzeOptions{Input: input, Format: report.FormatText}, &out))
		assert.Contains(t, out.String(), "File:              export.csv")
		assert.Contains(t, out.String(), "Unresolved:        руб")
		assert.Contains(t, out.String(), "Rows:              5 (1 errors)")
		assert.Contains(t, out.String(), "New accounts:      Savings")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, common.Analyze(context.Background(), c, common.AnalyzeOptions{Input: input, Format: report.FormatJSON}, &out))

		var a report.Analysis
		require.NoError(t, json.Unmarshal(out.Bytes(), &a))
		assert.Equal(t, []string{"руб"}, a.UnresolvedCurrencies)
		assert.Equal(t, 5, a.Stats.Total)
		assert.Equal(t, 1, a.Stats.Transfers)
		assert.Equal(t, []string{"Savings"}, a.Stats.NewAccounts)
	})

	t.Run("markdown", func(t *testing.T) {
		prev := common.MarkdownStyle
		common.MarkdownStyle = "notty"
		defer func() { common.MarkdownStyle = prev }()

		var out bytes.Buffer
		require.NoError(t, common.Analyze(context.Background(), c, common.AnalyzeOptions{Input: input, Format: report.FormatMarkdown}, &out))
		assert.Contains(t, out.String(), "Import preview")
	})

	t.Run("saves ledger snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "saved", "ledger.yaml")
		require.NoError(t, common.Analyze(context.Background(), c, common.AnalyzeOptions{
			Input:       input,
			Format:      report.FormatText,
			SnapshotOut: path,
		}, &bytes.Buffer{}))

		snap, err := ledger.LoadSnapshotFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Card"}, snap.AccountNames())
	})

	t.Run("missing input", func(t *testing.T) {
		err := common.Analyze(context.Background(), c, common.AnalyzeOptions{Format: report.FormatText}, &bytes.Buffer{})
		assert.Error(t, err)
		err = common.Analyze(context.Background(), c, common.AnalyzeOptions{
			Input:  filepath.Join(t.TempDir(), "nope.csv"),
			Format: report.FormatText,
		}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestImport_UnresolvedTokensAreRefused(t *testing.T) {
	c := snapshotContainer(t)
	input := writeFile(t, "export.csv", exportFile)

	_, err := common.Import(context.Background(), c, common.ImportOptions{
		Input:  input,
		Format: report.FormatText,
		Yes:    true,
	}, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "руб")
}

func TestImport_InvalidFlags(t *testing.T) {
	c := snapshotContainer(t)
	_, err := common.Import(context.Background(), c, common.ImportOptions{
		Input:    "export.csv",
		Format:   report.FormatText,
		Mappings: []string{"broken"},
	}, strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestImport_Declined(t *testing.T) {
	c := snapshotContainer(t)
	input := writeFile(t, "export.csv", exportFile)

	var out bytes.Buffer
	_, err := common.Import(context.Background(), c, common.ImportOptions{
		Input:    input,
		Format:   report.FormatText,
		Mappings: []string{"руб=RUB"},
	}, strings.NewReader("n\n"), &out)
	assert.ErrorIs(t, err, common.ErrCancelled)
	assert.Contains(t, out.String(), "Import 5 rows? [y/N] ")
}

func TestImport_SubmitsAndWritesFailedRows(t *testing.T) {
	c := backendContainer(t)
	input := writeFile(t, "export.csv", exportFile)
	failed := filepath.Join(t.TempDir(), "failed.csv")

	var out bytes.Buffer
	resp, err := common.Import(context.Background(), c, common.ImportOptions{
		Input:        input,
		Format:       report.FormatText,
		Mappings:     []string{"руб=RUB"},
		FailedOutput: failed,
	}, strings.NewReader("y\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, 4, resp.Imported)
	assert.Equal(t, []string{"Card", "Savings"}, resp.AccountsCreated)
	require.Len(t, resp.FailedRows, 1)
	assert.Equal(t, 5, resp.FailedRows[0].RowNumber)
	assert.Contains(t, out.String(), "Imported:           4")

	data, err := os.ReadFile(failed)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "date;account;category;total;currency;description;transfer\n"))
	assert.Contains(t, string(data), "22.02.2026;Card")
}

func TestImport_ProposedCurrencyIsCreated(t *testing.T) {
	c := backendContainer(t)
	input := writeFile(t, "export.csv", "date;account;category;total;currency;description;transfer\n"+
		"01.03.2026;Wallet;Travel;-5000,00;֏;;\n")

	resp, err := common.Import(context.Background(), c, common.ImportOptions{
		Input:         input,
		Format:        report.FormatJSON,
		NewCurrencies: []string{"֏=AMD:Armenian Dram"},
		Yes:           true,
	}, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, []string{"AMD"}, resp.CurrenciesCreated)
}
