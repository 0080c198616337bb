package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/rcctl/internal/app"
	"github.com/specialistvlad/rcctl/internal/config"
	"github.com/specialistvlad/rcctl/internal/expiry"
	"github.com/specialistvlad/rcctl/internal/revenuecat"
	"github.com/specialistvlad/rcctl/internal/testutil"
)

const (
	apiKey    = "sk_test_key"
	projectID = "proj1a2b3c"
)

// setupApp creates an App pointed at a fresh fake backend.
func setupApp(t *testing.T) (*app.App, *testutil.Backend, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	backend := testutil.NewBackend(t, apiKey, projectID)
	cfg, err := app.NewConfig(app.Config{
		APIKey:    apiKey,
		ProjectID: projectID,
		BaseURL:   backend.BaseURL(),
		Timeout:   5 * time.Second,
		LogLevel:  "debug",
		LogFormat: "json",
		Location:  time.UTC,
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a := app.NewApp(out, logs, cfg)
	t.Cleanup(a.Close)
	return a, backend, out, logs
}

func TestNewConfig_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := app.NewConfig(app.Config{ProjectID: projectID})
	require.ErrorIs(t, err, config.ErrMissingAPIKey)

	_, err = app.NewConfig(app.Config{APIKey: apiKey})
	require.ErrorIs(t, err, config.ErrMissingProjectID)
}

func TestShowCustomer(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, backend, out, _ := setupApp(t)
	backend.AddCustomer("user_1")

	// --- Act ---
	err := a.ShowCustomer(context.Background(), "user_1", "")

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\n  \"id\": \"user_1\",\n")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, projectID, doc["project_id"])
}

func TestShowCustomer_Field(t *testing.T) {
	t.Parallel()

	a, backend, out, _ := setupApp(t)
	backend.AddCustomer("user_1")

	require.NoError(t, a.ShowCustomer(context.Background(), "user_1", "first_seen_at"))
	assert.Equal(t, "1700000000000\n", out.String())

	err := a.ShowCustomer(context.Background(), "user_1", "no.such.path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no.such.path")
}

func TestShowCustomer_NotFound(t *testing.T) {
	t.Parallel()

	a, _, out, _ := setupApp(t)

	err := a.ShowCustomer(context.Background(), "ghost", "")

	var apiErr *revenuecat.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "API request failed: 404 Not Found", err.Error())
	assert.Empty(t, out.String())
}

func TestShowActiveEntitlements(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, backend, out, logs := setupApp(t)
	exp := time.Date(2026, time.February, 15, 14, 30, 0, 0, time.UTC).UnixMilli()
	backend.AddEntitlement("entl_pro", "pro", "Pro Access")
	backend.Grant("user_1", "entl_pro", &exp)
	backend.Grant("user_1", "entl_legacy", nil)

	// --- Act ---
	err := a.ShowActiveEntitlements(context.Background(), "user_1")

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Pro Access")
	assert.Contains(t, out.String(), "15/02/2026, 14:30")
	assert.Contains(t, out.String(), "│ entl_legacy │ entl_legacy")
	assert.Contains(t, out.String(), "Never")
	assert.Contains(t, logs.String(), "invocation_id")
}

func TestShowActiveEntitlements_Empty(t *testing.T) {
	t.Parallel()

	a, backend, out, _ := setupApp(t)
	backend.AddCustomer("user_1")

	require.NoError(t, a.ShowActiveEntitlements(context.Background(), "user_1"))
	assert.Equal(t, "No active entitlements found for this customer.\n", out.String())
}

func TestShowCatalog(t *testing.T) {
	t.Parallel()

	a, backend, out, _ := setupApp(t)
	require.NoError(t, a.ShowCatalog(context.Background()))
	assert.Equal(t, "No entitlements found in this project.\n", out.String())

	out.Reset()
	backend.AddEntitlement("entl_pro", "pro", "Pro Access")
	require.NoError(t, a.ShowCatalog(context.Background()))
	assert.Contains(t, out.String(), "│ entl_pro │ Pro Access │")
}

func TestGrant(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, backend, out, _ := setupApp(t)
	backend.AddEntitlement("entl_pro", "pro", "Pro Access")
	before := time.Now()

	// --- Act ---
	err := a.Grant(context.Background(), "user_1", "entl_pro", "7d")

	// --- Assert ---
	require.NoError(t, err)
	stored, ok := backend.GrantOf("user_1", "entl_pro")
	require.True(t, ok)
	require.NotNil(t, stored)
	want := before.Add(7 * 24 * time.Hour).UnixMilli()
	assert.InDelta(t, want, *stored, float64(time.Minute.Milliseconds()))

	assert.Contains(t, out.String(), "✓ Successfully granted entitlement entl_pro to user user_1\n")
	assert.Contains(t, out.String(), "  Expires: ")
	assert.Contains(t, out.String(), "from now")
}

func TestGrant_Never(t *testing.T) {
	t.Parallel()

	a, backend, _, _ := setupApp(t)
	backend.AddEntitlement("entl_pro", "pro", "Pro Access")
	before := time.Now()

	require.NoError(t, a.Grant(context.Background(), "user_1", "entl_pro", "never"))

	stored, ok := backend.GrantOf("user_1", "entl_pro")
	require.True(t, ok)
	assert.GreaterOrEqual(t, *stored, before.UnixMilli()+expiry.NeverOffset)
}

func TestGrant_InvalidExpirationSendsNothing(t *testing.T) {
	t.Parallel()

	a, backend, out, _ := setupApp(t)

	err := a.Grant(context.Background(), "user_1", "entl_pro", "tomorrow")

	require.ErrorIs(t, err, expiry.ErrInvalidFormat)
	assert.Contains(t, err.Error(), `"tomorrow"`)
	assert.Empty(t, backend.Requests())
	assert.Empty(t, out.String())
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	a, backend, out, _ := setupApp(t)
	backend.Grant("user_1", "entl_pro", nil)

	require.NoError(t, a.Revoke(context.Background(), "user_1", "entl_pro"))

	_, ok := backend.GrantOf("user_1", "entl_pro")
	assert.False(t, ok)
	assert.Equal(t, "✓ Successfully revoked entitlement entl_pro from user user_1\n", out.String())
}

func TestShowBalances(t *testing.T) {
	t.Parallel()

	a, backend, out, _ := setupApp(t)
	require.NoError(t, a.ShowBalances(context.Background(), "user_1"))
	assert.Equal(t, "No virtual currency balances found for this customer.\n", out.String())

	out.Reset()
	backend.AddCurrency("GLD", "Gold", "")
	backend.SetBalance("user_1", "GLD", 25)
	require.NoError(t, a.ShowBalances(context.Background(), "user_1"))
	assert.Contains(t, out.String(), "│ Gold     │ GLD  │ 25      │ -           │")
}

func TestAdjustBalance(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		amount    int64
		reference string
		want      int64
	}{
		{name: "credit", amount: 100, want: 125},
		{name: "debit with reference", amount: -20, reference: "order_42", want: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			a, backend, out, _ := setupApp(t)
			backend.AddCurrency("GLD", "Gold", "Premium coins")
			backend.SetBalance("user_1", "GLD", 25)

			// --- Act ---
			err := a.AdjustBalance(context.Background(), "user_1", "GLD", tc.amount, tc.reference)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.want, backend.Balance("user_1", "GLD"))
			assert.Contains(t, out.String(), "Successfully updated Gold. New balance: ")

			var body map[string]any
			require.NoError(t, json.Unmarshal(backend.LastRequest().Body, &body))
			if tc.reference == "" {
				assert.NotContains(t, body, "reference")
			} else {
				assert.Equal(t, tc.reference, body["reference"])
			}
		})
	}
}

func TestAdjustBalance_Rejected(t *testing.T) {
	t.Parallel()

	a, backend, out, _ := setupApp(t)
	backend.SetBalance("user_1", "GLD", 10)

	err := a.AdjustBalance(context.Background(), "user_1", "GLD", -50, "")

	require.True(t, errors.Is(err, revenuecat.ErrRequestFailed))
	assert.Equal(t, "API request failed: 422 Unprocessable Entity", err.Error())
	assert.Equal(t, int64(10), backend.Balance("user_1", "GLD"))
	assert.Empty(t, out.String())
}

func TestUserAgentCarriesVersion(t *testing.T) {
	t.Parallel()

	a, backend, _, _ := setupApp(t)
	backend.AddCustomer("user_1")

	require.NoError(t, a.ShowCustomer(context.Background(), "user_1", ""))
	assert.Equal(t, "rcctl/"+app.Version, backend.LastRequest().Header.Get("User-Agent"))
}
