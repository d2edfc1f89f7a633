package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/entities"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
)

func newRouteFixture() (*RouteService, *fakeRouteRepo) {
	routes := newFakeRouteRepo()
	svc := NewRouteService(routes, fakeTxManager{}, 100, zap.NewNop())
	return svc, routes
}

func TestRouteForDate_ProgressCountsSkippedInTotalOnly(t *testing.T) {
	svc, routes := newRouteFixture()
	instance, stops := seedRoute(routes, 3)

	// 2 completed + 1 skipped: the run is done but progress reads 2/3.
	routes.stops[stops[0].ID].Status = constants.StopStatusCompleted
	routes.stops[stops[1].ID].Status = constants.StopStatusCompleted
	routes.stops[stops[2].ID].Status = constants.StopStatusSkipped
	routes.instances[instance.ID].Status = constants.RouteStatusCompleted

	result, err := svc.RouteForDate(technicianCtx(1, 10), 0, "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalStops)
	assert.Equal(t, 2, result.CompletedStops)
	assert.Equal(t, 1, result.SkippedStops)
	assert.Equal(t, 67, result.ProgressPct)
	require.Len(t, result.Stops, 3)
}

func TestRouteForDate_FreshInstanceHasZeroProgress(t *testing.T) {
	svc, routes := newRouteFixture()
	seedRoute(routes, 4)

	result, err := svc.RouteForDate(technicianCtx(1, 10), 0, "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProgressPct)
	assert.Equal(t, constants.RouteStatusScheduled, result.Status)
}

func TestRouteForDate_NoInstanceReadsNotFound(t *testing.T) {
	svc, routes := newRouteFixture()
	seedRoute(routes, 1)

	_, err := svc.RouteForDate(technicianCtx(1, 10), 0, "2026-01-06")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRouteForDate_TechnicianCannotReadOthersRoute(t *testing.T) {
	svc, routes := newRouteFixture()
	seedRoute(routes, 1)

	_, err := svc.RouteForDate(technicianCtx(1, 11), 10, "2026-01-05")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRouteForDate_AdminReadsAnyTechnician(t *testing.T) {
	svc, routes := newRouteFixture()
	seedRoute(routes, 2)

	result, err := svc.RouteForDate(adminCtx(1, 1), 10, "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), result.TechnicianID)
}

func TestRouteForDate_RejectsBadDate(t *testing.T) {
	svc, _ := newRouteFixture()

	_, err := svc.RouteForDate(technicianCtx(1, 10), 0, "05/01/2026")
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestReorderStops_RewritesSequence(t *testing.T) {
	svc, routes := newRouteFixture()
	instance, stops := seedRoute(routes, 3)

	err := svc.ReorderStops(technicianCtx(1, 10), instance.ID, dto.ReorderStopsDTO{
		OrderedStopIDs: []uint64{stops[2].ID, stops[0].ID, stops[1].ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, routes.stops[stops[2].ID].SequenceOrder)
	assert.Equal(t, 1, routes.stops[stops[0].ID].SequenceOrder)
	assert.Equal(t, 2, routes.stops[stops[1].ID].SequenceOrder)

	// Re-fetching the route returns the stops in the new order.
	result, err := svc.RouteForDate(technicianCtx(1, 10), 0, "2026-01-05")
	require.NoError(t, err)
	require.Len(t, result.Stops, 3)
	assert.Equal(t, stops[2].ID, result.Stops[0].ID)
	assert.Equal(t, stops[0].ID, result.Stops[1].ID)
	assert.Equal(t, stops[1].ID, result.Stops[2].ID)
}

func TestReorderStops_CompletedInstanceLocked(t *testing.T) {
	svc, routes := newRouteFixture()
	instance, stops := seedRoute(routes, 2)
	routes.instances[instance.ID].Status = constants.RouteStatusCompleted

	err := svc.ReorderStops(technicianCtx(1, 10), instance.ID, dto.ReorderStopsDTO{
		OrderedStopIDs: []uint64{stops[1].ID, stops[0].ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrInstanceLocked)

	// Order is untouched.
	assert.Equal(t, 0, routes.stops[stops[0].ID].SequenceOrder)
	assert.Equal(t, 1, routes.stops[stops[1].ID].SequenceOrder)
}

func TestReorderStops_RejectsWrongSet(t *testing.T) {
	svc, routes := newRouteFixture()
	instance, stops := seedRoute(routes, 2)
	ctx := technicianCtx(1, 10)

	err := svc.ReorderStops(ctx, instance.ID, dto.ReorderStopsDTO{
		OrderedStopIDs: []uint64{stops[0].ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrderSet)

	err = svc.ReorderStops(ctx, instance.ID, dto.ReorderStopsDTO{
		OrderedStopIDs: []uint64{stops[0].ID, 9999},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrderSet)

	err = svc.ReorderStops(ctx, instance.ID, dto.ReorderStopsDTO{
		OrderedStopIDs: []uint64{stops[0].ID, stops[0].ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrderSet)
}

func TestReorderStops_ScopedToOwner(t *testing.T) {
	svc, routes := newRouteFixture()
	instance, stops := seedRoute(routes, 2)

	err := svc.ReorderStops(technicianCtx(1, 11), instance.ID, dto.ReorderStopsDTO{
		OrderedStopIDs: []uint64{stops[1].ID, stops[0].ID},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHistory_TechnicianForcedToOwnRows(t *testing.T) {
	svc, routes := newRouteFixture()
	date, _ := time.Parse("2006-01-02", "2026-01-05")
	routes.addInstance(entities.RouteInstance{CompanyID: 1, TechnicianID: 10, RouteDate: date, Status: constants.RouteStatusCompleted})
	routes.addInstance(entities.RouteInstance{CompanyID: 1, TechnicianID: 11, RouteDate: date, Status: constants.RouteStatusCompleted})

	rows, err := svc.History(technicianCtx(1, 10), nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(10), rows[0].TechnicianID)
}

func TestHistory_NewestFirstWithDefaultAndCappedLimit(t *testing.T) {
	svc, routes := newRouteFixture()
	for day := 1; day <= 3; day++ {
		routes.addInstance(entities.RouteInstance{
			CompanyID: 1, TechnicianID: 10,
			RouteDate: time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
			Status:    constants.RouteStatusCompleted,
		})
	}

	rows, err := svc.History(adminCtx(1, 1), nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-01-03", rows[0].RouteDate)
	assert.Equal(t, uint64(20), routes.lastHistoryLimit)

	_, err = svc.History(adminCtx(1, 1), nil, 5000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), routes.lastHistoryLimit)
}

func TestUpdateNotes_ScopedToCompany(t *testing.T) {
	svc, routes := newRouteFixture()
	instance, _ := seedRoute(routes, 1)

	err := svc.UpdateNotes(adminCtx(2, 1), instance.ID, dto.UpdateNotesDTO{Notes: "bring chlorine"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = svc.UpdateNotes(adminCtx(1, 1), instance.ID, dto.UpdateNotesDTO{Notes: "bring chlorine"})
	require.NoError(t, err)
	require.NotNil(t, routes.instances[instance.ID].Notes)
	assert.Equal(t, "bring chlorine", *routes.instances[instance.ID].Notes)
}
