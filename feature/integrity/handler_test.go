package integrity

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"umbrella-station/core/reconcile"
	"umbrella-station/core/storage/mocks"
	"umbrella-station/feature/integrity/checks"
	"umbrella-station/feature/rental/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T, l Ledger, client *mocks.Client) *fiber.App {
	var svc *Service
	if client == nil {
		svc = newTestService(t, l, nil)
	} else {
		svc = newTestService(t, l, client)
	}
	app := fiber.New()
	require.NoError(t, NewFeature(svc).Load(app))
	return app
}

func TestHandler_Consistency(t *testing.T) {
	l := &fakeLedger{
		snap:    reconcile.Snapshot{reconcile.Vacant},
		rentals: []models.ActiveRental{{Unit: 1, Account: "a@bssm.hs.kr", DueAt: now.Add(time.Hour)}},
	}
	app := setupApp(t, l, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/consistency", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report checks.ConsistencyReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Consistent)
	assert.Equal(t, 1, report.Active)
}

func TestHandler_ConsistencyError(t *testing.T) {
	app := setupApp(t, &fakeLedger{err: errors.New("boom")}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/consistency", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestHandler_Schema(t *testing.T) {
	app := setupApp(t, &fakeLedger{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/schema", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report checks.SchemaReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Matched)
}

func TestHandler_StorageFix(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "journal").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "journal", mock.Anything).Return(nil).Once()
	app := setupApp(t, &fakeLedger{}, client)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/storage", nil))
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "checked", body["status"])
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/storage?fix=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "fixed", body["status"])
	client.AssertExpectations(t)
}

func TestHandler_All(t *testing.T) {
	app := setupApp(t, &fakeLedger{snap: reconcile.Snapshot{reconcile.Occupied}}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Healthy)
}

func TestFeature(t *testing.T) {
	f := NewFeature(newTestService(t, &fakeLedger{}, nil))
	assert.Equal(t, "integrity", f.Name())
	assert.True(t, f.IsEnabled())
}
