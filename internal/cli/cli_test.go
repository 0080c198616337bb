package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/rcctl/internal/app"
	"github.com/specialistvlad/rcctl/internal/testutil"
)

const (
	testKey     = "sk_test_key"
	testProject = "proj1a2b3c"
)

// isolate clears credential variables and points HOME at an empty
// directory so no real config file or shell setting leaks in.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REVENUECAT_API_KEY", "REVENUECAT_PROJECT_ID", "RCCTL_PROFILE", "RCCTL_CONFIG",
		"RCCTL_BASE_URL", "RCCTL_TIMEOUT", "RCCTL_LOG_LEVEL", "RCCTL_LOG_FORMAT", "NO_COLOR",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("HOME", t.TempDir())
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
}

// run executes the CLI against backend with valid credentials prepended.
func run(t *testing.T, backend *testutil.Backend, args ...string) (string, string, error) {
	t.Helper()
	full := []string{"-k", testKey, "-p", testProject, "--base-url", backend.BaseURL()}
	return execute(t, append(full, args...)...)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errW := &bytes.Buffer{}, &bytes.Buffer{}
	err := Execute(context.Background(), args, out, errW)
	return out.String(), errW.String(), err
}

func requireExit(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected *ExitError, got %T: %v", err, err)
	require.Equal(t, code, exitErr.Code, "unexpected exit code for %q", exitErr.Message)
	return exitErr
}

func TestExecute_Version(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "rcctl "+app.Version+"\n", out)
}

func TestExecute_HelpWithoutCommand(t *testing.T) {
	isolate(t)

	out, _, err := execute(t)

	require.NoError(t, err)
	assert.Contains(t, out, "virtualcurrencies")
	assert.Contains(t, out, "--api-key")
}

func TestExecute_UsageErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown flag", args: []string{"--bogus"}, want: "unknown flag: --bogus"},
		{name: "unknown command", args: []string{"bogus"}, want: `unknown command "bogus"`},
		{name: "missing argument", args: []string{"entitlements", "add", "user_1", "entl_pro"}, want: "accepts 3 arg(s), received 2"},
		{name: "too many arguments", args: []string{"entitlements", "get", "a", "b"}, want: "accepts at most 1 arg(s), received 2"},
		{name: "bad amount", args: []string{"virtualcurrencies", "add", "user_1", "GLD", "ten"}, want: `invalid amount "ten"`},
		{name: "missing api key", args: []string{"customers", "get", "user_1"}, want: "missing API key"},
		{name: "missing project id", args: []string{"-k", "sk_1", "customers", "get", "user_1"}, want: "missing project ID"},
		{name: "bad log level", args: []string{"--log-level", "loud", "-k", "k", "-p", "p", "customers", "get", "u"}, want: "log-level"},
		{name: "unknown profile", args: []string{"--profile", "nope", "customers", "get", "u"}, want: `unknown profile "nope"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)

			_, _, err := execute(t, tc.args...)

			exitErr := requireExit(t, err, ExitUsage)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestExecute_CustomersGet(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)
	backend.AddCustomer("$RCAnonymousID:abc123")

	out, _, err := run(t, backend, "customers", "get", "$RCAnonymousID:abc123")

	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "$RCAnonymousID:abc123", doc["id"])
	assert.Equal(t, "/v2/projects/proj1a2b3c/customers/%24RCAnonymousID%3Aabc123", backend.LastRequest().EscapedPath)
}

func TestExecute_CustomersGetField(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)
	backend.AddCustomer("user_1")

	out, _, err := run(t, backend, "customers", "get", "user_1", "--field", "project_id")

	require.NoError(t, err)
	assert.Equal(t, testProject+"\n", out)
}

func TestExecute_BackendErrorIsRuntimeFailure(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)

	out, _, err := run(t, backend, "customers", "get", "ghost")

	exitErr := requireExit(t, err, ExitRuntime)
	assert.Equal(t, "API request failed: 404 Not Found", exitErr.Message)
	assert.Empty(t, out)
}

func TestExecute_WrongKeyIsRuntimeFailure(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)

	_, _, err := execute(t, "-k", "sk_wrong", "-p", testProject, "--base-url", backend.BaseURL(), "entitlements", "get")

	exitErr := requireExit(t, err, ExitRuntime)
	assert.Equal(t, "API request failed: 401 Unauthorized", exitErr.Message)
}

func TestExecute_CredentialsFromEnvironment(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)
	backend.AddEntitlement("entl_pro", "pro", "Pro Access")
	t.Setenv("REVENUECAT_API_KEY", testKey)
	t.Setenv("REVENUECAT_PROJECT_ID", testProject)
	t.Setenv("RCCTL_BASE_URL", backend.BaseURL())

	out, _, err := execute(t, "entitlements", "get")

	require.NoError(t, err)
	assert.Contains(t, out, "│ entl_pro │ Pro Access │")
}

func TestExecute_EntitlementsLifecycle(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)
	backend.AddEntitlement("entl_pro", "pro", "Pro Access")

	// --- Grant ---
	out, _, err := run(t, backend, "entitlements", "add", "user_1", "entl_pro", "2h")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Successfully granted entitlement entl_pro to user user_1\n  Expires: ")
	_, granted := backend.GrantOf("user_1", "entl_pro")
	require.True(t, granted)

	// --- List ---
	out, _, err = run(t, backend, "entitlements", "get", "user_1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pro Access")

	// --- Revoke ---
	out, _, err = run(t, backend, "entitlements", "del", "user_1", "entl_pro")
	require.NoError(t, err)
	assert.Equal(t, "✓ Successfully revoked entitlement entl_pro from user user_1\n", out)

	out, _, err = run(t, backend, "entitlements", "get", "user_1")
	require.NoError(t, err)
	assert.Equal(t, "No active entitlements found for this customer.\n", out)
}

func TestExecute_InvalidExpirationSendsNothing(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)

	_, _, err := run(t, backend, "entitlements", "add", "user_1", "entl_pro", "7x")

	exitErr := requireExit(t, err, ExitRuntime)
	assert.Contains(t, exitErr.Message, `Invalid expiration format: "7x"`)
	assert.Empty(t, backend.Requests())
}

func TestExecute_VirtualCurrencies(t *testing.T) {
	testCases := []struct {
		name          string
		args          []string
		wantBalance   int64
		wantAdjust    int64
		wantReference string
	}{
		{name: "add", args: []string{"add", "user_1", "GLD", "100"}, wantBalance: 200, wantAdjust: 100},
		{name: "add negative without separator", args: []string{"add", "user_1", "GLD", "-50", "-r", "refund_7"}, wantBalance: 50, wantAdjust: -50, wantReference: "refund_7"},
		{name: "add negative after separator", args: []string{"add", "user_1", "GLD", "--", "-25"}, wantBalance: 75, wantAdjust: -25},
		{name: "del", args: []string{"del", "user_1", "GLD", "30", "--reference", "order_42"}, wantBalance: 70, wantAdjust: -30, wantReference: "order_42"},
		{name: "del negative input", args: []string{"del", "user_1", "GLD", "-30"}, wantBalance: 70, wantAdjust: -30},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			isolate(t)
			backend := testutil.NewBackend(t, testKey, testProject)
			backend.AddCurrency("GLD", "Gold", "")
			backend.SetBalance("user_1", "GLD", 100)

			// --- Act ---
			out, _, err := run(t, backend, append([]string{"virtualcurrencies"}, tc.args...)...)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.wantBalance, backend.Balance("user_1", "GLD"))
			assert.Contains(t, out, "Successfully updated Gold. New balance: ")

			var body struct {
				Adjustments map[string]int64 `json:"adjustments"`
				Reference   string           `json:"reference"`
			}
			require.NoError(t, json.Unmarshal(backend.LastRequest().Body, &body))
			assert.Equal(t, map[string]int64{"GLD": tc.wantAdjust}, body.Adjustments)
			assert.Equal(t, tc.wantReference, body.Reference)
		})
	}
}

func TestExecute_NegativeUserIDStaysInPlace(t *testing.T) {
	// --- Arrange ---
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)
	backend.SetBalance("-42", "gems", 5)
	backend.SetBalance("user_1", "gems", 5)

	// --- Act ---
	_, _, err := run(t, backend, "virtualcurrencies", "add", "-42", "gems", "10")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, int64(15), backend.Balance("-42", "gems"))
	assert.Equal(t, int64(5), backend.Balance("user_1", "gems"))
	assert.Equal(t, "/v2/projects/proj1a2b3c/customers/-42/virtual_currencies/update_balance", backend.LastRequest().EscapedPath)

	var body struct {
		Adjustments map[string]int64 `json:"adjustments"`
	}
	require.NoError(t, json.Unmarshal(backend.LastRequest().Body, &body))
	assert.Equal(t, map[string]int64{"gems": 10}, body.Adjustments)
}

func TestExecute_NegativeCurrencyCodeIsNotAnAmount(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)

	_, _, err := run(t, backend, "virtualcurrencies", "del", "user_1", "-7")

	exitErr := requireExit(t, err, ExitUsage)
	assert.Contains(t, exitErr.Message, "accepts 3 arg(s), received 2")
	assert.Empty(t, backend.Requests())
}

func TestExecute_VirtualCurrenciesGet(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)

	out, _, err := run(t, backend, "virtualcurrencies", "get", "user_1")
	require.NoError(t, err)
	assert.Equal(t, "No virtual currency balances found for this customer.\n", out)

	backend.AddCurrency("GLD", "", "Premium coins")
	backend.SetBalance("user_1", "GLD", 5)
	out, _, err = run(t, backend, "virtualcurrencies", "get", "user_1")
	require.NoError(t, err)
	assert.Contains(t, out, "│ GLD      │ GLD  │ 5       │ Premium coins │")
}

func TestExecute_DebugLogsCarryInvocationID(t *testing.T) {
	isolate(t)
	backend := testutil.NewBackend(t, testKey, testProject)
	backend.AddCustomer("user_1")

	_, logs, err := run(t, backend, "--log-level", "debug", "--log-format", "json", "customers", "get", "user_1")

	require.NoError(t, err)
	assert.Contains(t, logs, `"invocation_id":`)
	assert.Contains(t, logs, `"msg":"Command started."`)
}

func TestLiftNegativeNumbers(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "nothing to lift",
			args: []string{"virtualcurrencies", "add", "u", "GLD", "5"},
			want: []string{"virtualcurrencies", "add", "u", "GLD", "5"},
		},
		{
			name: "trailing negative",
			args: []string{"virtualcurrencies", "add", "u", "GLD", "-5", "-r", "x"},
			want: []string{"virtualcurrencies", "add", "-r", "x", "--", "u", "GLD", "-5"},
		},
		{
			name: "flag value untouched",
			args: []string{"virtualcurrencies", "add", "-r", "-7", "u", "GLD", "5"},
			want: []string{"virtualcurrencies", "add", "-r", "-7", "u", "GLD", "5"},
		},
		{
			name: "existing separator",
			args: []string{"virtualcurrencies", "add", "u", "GLD", "-5", "--", "x"},
			want: []string{"virtualcurrencies", "add", "--", "u", "GLD", "-5", "x"},
		},
		{
			name: "negative user id keeps its slot",
			args: []string{"virtualcurrencies", "add", "-42", "gems", "10"},
			want: []string{"virtualcurrencies", "add", "--", "-42", "gems", "10"},
		},
		{
			name: "global flags before command",
			args: []string{"-k", "key", "virtualcurrencies", "del", "u", "GLD", "-3"},
			want: []string{"-k", "key", "virtualcurrencies", "del", "--", "u", "GLD", "-3"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := newRootCmd(io.Discard, io.Discard, "")
			cmd, _, err := root.Find(tc.args)
			require.NoError(t, err)

			got := liftNegativeNumbers(cmd, tc.args)

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("liftNegativeNumbers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
