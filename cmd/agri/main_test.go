package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kisanmitra/agri-advisor/internal/auth"
	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/core"
	"github.com/kisanmitra/agri-advisor/internal/nlp"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

// useTestConfig points every command at a private database with no LLM or network dependencies.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "agri.db")
	cfg.NLP.UseLanguageModel = false
	cfg.LLM.APIKey = ""
	cfg.LLM.EmbeddingDim = 8

	prev := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = prev })
	return cfg
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAnalyze_JSON(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "", "analyze", "--json", "--text", "price of rice")
	require.NoError(t, err)

	var res nlp.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "price of rice", res.Query)
	assert.Equal(t, intent.PriceQuery, res.PrimaryIntent)
	assert.Equal(t, nlp.English, res.PrimaryLanguage)
}

func TestAnalyze_Interactive(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "price of rice\nquit\n", "analyze", "--details")
	require.NoError(t, err)
	assert.Contains(t, out, "Intent:     price_query")
	assert.Contains(t, out, "Intent scores:")
	assert.Contains(t, out, "Scorers:    rule, ml")
}

func TestChat_StatsAndClear(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "stats\nprice of rice\nstats\nclear\nquit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "No queries analyzed yet.")
	assert.Contains(t, out, "Queries:            1 (")
	assert.Contains(t, out, "Intents:            price_query=1")
	assert.Contains(t, out, "Session history cleared.")
	assert.Contains(t, out, "Analyzed 0 queries. Goodbye!")
}

func TestAdvise_CityCommands(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "city\ncity Navi Mumbai\ncity\nquit\n", "advise")
	require.NoError(t, err)
	assert.Contains(t, out, "No city set. Use: city <name>")
	assert.Contains(t, out, "City set to Navi Mumbai.")
	assert.Contains(t, out, "Current city: Navi Mumbai")
	assert.Contains(t, out, "Goodbye")
}

func TestAdvise_SingleQueryWithoutLLM(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "", "advise", "--query", "How to grow wheat")
	require.NoError(t, err)
	assert.Contains(t, out, "[general |")
	assert.Contains(t, out, "(degraded: ")
	assert.Contains(t, out, "llm")
}

func TestBatch_CSVToFile(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "queries.txt")
	output := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(input, []byte("price of rice\n\nHow to grow wheat\n"), 0o644))

	_, errOut, err := run(t, "", "batch", "--input", input, "--output", output, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Wrote 2 results to "+output)
	assert.Contains(t, errOut, "Queries:            2")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,query,primary_language"))
	assert.Contains(t, lines[1], "price of rice")
}

func TestBatch_JSONArrayFromStdin(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "price of rice\n", "batch", "--stats=false")
	require.NoError(t, err)
	var results []nlp.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, intent.PriceQuery, results[0].PrimaryIntent)
}

func TestBatch_Errors(t *testing.T) {
	useTestConfig(t)

	_, _, err := run(t, "x\n", "batch", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")

	_, _, err = run(t, "\n\n", "batch")
	assert.ErrorContains(t, err, "no queries found in stdin")
}

func TestCompare_ReportsAgreement(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "", "compare", "price of rice")
	require.NoError(t, err)
	assert.Contains(t, out, "Ensemble scorers: rule, ml")
	assert.Contains(t, out, "Agreement: ")
	assert.Contains(t, out, "/1")
	assert.NotContains(t, out, "Accuracy:")
	assert.NotContains(t, out, "expected:")
}

func TestCompare_LabelledSamplesReportAccuracy(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "", "compare")
	require.NoError(t, err)
	total := fmt.Sprintf("/%d", len(compareSamples))
	assert.Contains(t, out, "Agreement: ")
	assert.Contains(t, out, "Accuracy:  rule ")
	assert.Contains(t, out, ", ensemble ")
	assert.Contains(t, out, total+" (")
	assert.Contains(t, out, "  expected: price_query")
	assert.Equal(t, 2*len(compareSamples), strings.Count(out, " ✓")+strings.Count(out, " ✗"))
}

func TestWeather_RequiresLocation(t *testing.T) {
	useTestConfig(t)

	_, _, err := run(t, "", "weather")
	assert.ErrorContains(t, err, "a location is required")
}

func TestIngestAndQueryPrices(t *testing.T) {
	useTestConfig(t)
	csvPath := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"State,District,Market,Commodity,Variety,Grade,Arrival_Date,Min_x0020_Price,Max_x0020_Price,Modal_x0020_Price\n"+
			"Punjab,Ludhiana,Khanna,Wheat,Dara,FAQ,01/03/2024,2200,2300,2275\n"), 0o644))

	out, _, err := run(t, "", "ingest", "prices", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 1 price rows")

	out, _, err = run(t, "", "db", "--query", "SELECT commodity, modal_price FROM mandi_prices")
	require.NoError(t, err)
	assert.Contains(t, out, "Wheat")
	assert.Contains(t, out, "2275")
}

func TestIngestPolicies_NeedsLLM(t *testing.T) {
	useTestConfig(t)
	doc := filepath.Join(t.TempDir(), "scheme.txt")
	require.NoError(t, os.WriteFile(doc, []byte("PM-KISAN pays eligible farmers."), 0o644))

	_, _, err := run(t, "", "ingest", "policies", doc)
	assert.ErrorIs(t, err, core.ErrLLMUnavailable)
}

func TestDB_Shell(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "tables\nschema mandi_prices\nDELETE FROM mandi_prices\nquit\n", "db")
	require.NoError(t, err)
	assert.Contains(t, out, "mandi_prices")
	assert.Contains(t, out, "CREATE TABLE")
	assert.Contains(t, out, "Error:")
}

func TestToken(t *testing.T) {
	useTestConfig(t)

	out, _, err := run(t, "", "token", "--subject", "field-app", "--secret", "s3cret")
	require.NoError(t, err)
	sub, err := auth.NewIssuer("s3cret", 0).ValidateJWT(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "field-app", sub)

	_, _, err = run(t, "", "token", "--subject", "field-app")
	assert.ErrorContains(t, err, "no signing secret")
}
