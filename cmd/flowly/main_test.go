package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/config"
	"github.com/Veraticus/flowly/internal/model"
)

// useTestConfig points the commands at a fresh database in a temp dir.
func useTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	previous := appConfig
	appConfig = &config.Config{
		Location:     time.UTC,
		DatabasePath: filepath.Join(dir, "flowly.db"),
		LogLevel:     "info",
		LogFormat:    "console",
		ServerAddr:   config.DefaultServerAddr,
	}
	t.Cleanup(func() { appConfig = previous })
	return dir
}

// run executes a freshly built command tree so flag state never leaks
// between invocations.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, nil, args...)
}

func runWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "flowly", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(accountsCmd(), transactionsCmd(), metricsCmd(), inventoryCmd(),
		exportCmd(), importCmd(), settingsCmd(), migrateCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if in != nil {
		root.SetIn(in)
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFindAccount(t *testing.T) {
	accounts := []model.Account{
		{ID: "a1", Name: "Checking"},
		{ID: "a2", Name: "Savings"},
		{ID: "a3", Name: "savings"},
	}

	got, err := findAccount(accounts, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)

	got, err = findAccount(accounts, " checking ")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	got, err = findAccount(accounts, "savings")
	require.NoError(t, err)
	assert.Equal(t, "a3", got.ID)

	_, err = findAccount(accounts, "SAVINGS")
	assert.ErrorIs(t, err, common.ErrInvalidAccount)

	_, err = findAccount(accounts, "Brokerage")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReferenceTime(t *testing.T) {
	useTestConfig(t)

	got, err := referenceTime("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC), got)

	_, err = referenceTime("March 9")
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestLedgerWorkflow(t *testing.T) {
	dir := useTestConfig(t)

	out, err := run(t, "accounts", "add", "Checking", "--balance", "500", "--default")
	require.NoError(t, err)
	assert.Contains(t, out, "Created account Checking")

	_, err = run(t, "accounts", "add", "Cash Box", "--balance", "20", "--color", "green")
	require.NoError(t, err)

	_, err = run(t, "transactions", "add", "--type", "purchase", "--party", "Mill", "--out", "60", "--units", "10", "--date", "2024-01-10")
	require.NoError(t, err)
	_, err = run(t, "transactions", "add", "--type", "sale", "--party", "Jane", "--in", "100", "--units", "4", "--date", "2024-01-15", "--account", "cash box")
	require.NoError(t, err)

	_, err = run(t, "transactions", "add", "--type", "sale", "--party", "Bob", "--in", "10")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), "units")

	out, err = run(t, "metrics", "--as-of", "2024-01-15", "--window", "overall")
	require.NoError(t, err)
	assert.Equal(t, "$40.00\n", out)

	out, err = run(t, "metrics", "--as-of", "2024-01-15", "--window", "daily")
	require.NoError(t, err)
	assert.Equal(t, "$100.00\n", out)

	csvPath := filepath.Join(dir, "out.csv")
	_, err = run(t, "export", "csv", "--output", csvPath)
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-01-15,Sale,Jane,Cash Box,100,,4,", lines[1])
	assert.Equal(t, "2024-01-10,Purchase,Mill,Checking,,60,10,", lines[2])

	out, err = run(t, "import", "csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transactions")

	out, err = run(t, "metrics", "--as-of", "2024-01-15", "--window", "overall")
	require.NoError(t, err)
	assert.Equal(t, "$80.00\n", out)

	out, err = run(t, "accounts", "delete", "Checking", "--yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDefaultAccount)
	assert.Empty(t, out)

	_, err = run(t, "accounts", "delete", "Cash Box", "--yes")
	require.NoError(t, err)

	out, err = run(t, "transactions", "list", "--type", "sale")
	require.NoError(t, err)
	assert.Contains(t, out, "Unknown Account")
}

func TestSettingsCommand(t *testing.T) {
	useTestConfig(t)

	_, err := run(t, "settings", "set", "--unit-label", "kg", "--theme", "dark")
	require.NoError(t, err)

	out, err := run(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "kg")
	assert.Contains(t, out, "dark")

	_, err = run(t, "settings", "set", "--theme", "neon")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestMigrateStatus(t *testing.T) {
	useTestConfig(t)

	out, err := run(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "from version 0 to 3")
}

func TestTransactionsAdd_InteractiveCanceled(t *testing.T) {
	useTestConfig(t)

	_, err := run(t, "accounts", "add", "Checking", "--default")
	require.NoError(t, err)

	out, err := runWithInput(t, strings.NewReader("\x03"), "transactions", "add", "--interactive")
	require.NoError(t, err)
	assert.Contains(t, out, "Canceled")

	out, err = run(t, "transactions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions recorded yet")
}
