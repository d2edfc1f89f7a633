package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/entities"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
)

// 2026-01-05 is a Monday (day 1).
const mondayDate = "2026-01-05"

func newMaterializerFixture() (*MaterializerService, *fakeAssignmentRepo, *fakeRouteRepo) {
	assignments := newFakeAssignmentRepo()
	routes := newFakeRouteRepo()
	svc := NewMaterializerService(assignments, routes, fakeTxManager{}, 31, zap.NewNop())
	return svc, assignments, routes
}

func TestGenerate_CreatesInstancePerTechnicianWithDensifiedStops(t *testing.T) {
	svc, assignments, routes := newMaterializerFixture()

	// Technician 10's Monday template has gaps in route_order; the
	// materialized stops must still come out 0..N-1 in template order.
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 100, DayOfWeek: 1, RouteOrder: 5, Active: true})
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 101, DayOfWeek: 1, RouteOrder: 20, Active: true})
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 102, DayOfWeek: 1, RouteOrder: 10, Active: true})
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 11, ClientID: 103, DayOfWeek: 1, RouteOrder: 0, Active: true})

	result, err := svc.Generate(adminCtx(1, 1), dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: mondayDate})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)

	date, _ := time.Parse("2006-01-02", mondayDate)
	instance, err := routes.FindInstanceByTechDate(nil, nil, 1, 10, date)
	require.NoError(t, err)
	assert.Equal(t, constants.RouteStatusScheduled, instance.Status)

	stops, err := routes.ListStops(nil, nil, instance.ID)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	for position, stop := range stops {
		assert.Equal(t, position, stop.SequenceOrder)
		assert.Equal(t, constants.StopStatusPending, stop.Status)
	}
	// Template order 5 < 10 < 20 maps to clients 100, 102, 101.
	assert.Equal(t, uint64(100), stops[0].ClientID)
	assert.Equal(t, uint64(102), stops[1].ClientID)
	assert.Equal(t, uint64(101), stops[2].ClientID)
}

func TestGenerate_IsIdempotent(t *testing.T) {
	svc, assignments, routes := newMaterializerFixture()
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 100, DayOfWeek: 1, RouteOrder: 0, Active: true})

	payload := dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: mondayDate}

	first, err := svc.Generate(adminCtx(1, 1), payload)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := svc.Generate(adminCtx(1, 1), payload)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, routes.instances, 1)
	assert.Len(t, routes.stops, 1)
}

func TestGenerate_ExistingInstanceIgnoresTemplateChanges(t *testing.T) {
	svc, assignments, routes := newMaterializerFixture()
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 100, DayOfWeek: 1, RouteOrder: 0, Active: true})

	payload := dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: mondayDate}
	_, err := svc.Generate(adminCtx(1, 1), payload)
	require.NoError(t, err)

	// A client added to the template after materialization must not
	// appear on the already-generated instance.
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 101, DayOfWeek: 1, RouteOrder: 1, Active: true})

	result, err := svc.Generate(adminCtx(1, 1), payload)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, routes.stops, 1)
}

func TestGenerate_SpansMultipleDays(t *testing.T) {
	svc, assignments, _ := newMaterializerFixture()
	// Monday and Tuesday templates for the same technician.
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 100, DayOfWeek: 1, RouteOrder: 0, Active: true})
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 101, DayOfWeek: 2, RouteOrder: 0, Active: true})

	result, err := svc.Generate(adminCtx(1, 1), dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: "2026-01-07"})
	require.NoError(t, err)
	// Monday and Tuesday match; Wednesday has no template.
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)
}

func TestGenerate_SkipsInactiveAssignments(t *testing.T) {
	svc, assignments, routes := newMaterializerFixture()
	assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: 100, DayOfWeek: 1, RouteOrder: 0, Active: false})

	result, err := svc.Generate(adminCtx(1, 1), dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: mondayDate})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, routes.instances)
}

// brokenDateRouteRepo fails instance creation on one date, standing in
// for a store hiccup partway through a range.
type brokenDateRouteRepo struct {
	*fakeRouteRepo
	failDate time.Time
}

func (r *brokenDateRouteRepo) CreateInstance(ctx context.Context, tx pgx.Tx, inst entities.RouteInstance) (*entities.RouteInstance, error) {
	if inst.RouteDate.Equal(r.failDate) {
		return nil, errors.New("connection reset by peer")
	}
	return r.fakeRouteRepo.CreateInstance(ctx, tx, inst)
}

func TestGenerate_FailedDateIsReportedAndOthersCommit(t *testing.T) {
	assignments := newFakeAssignmentRepo()
	// Monday, Tuesday and Wednesday templates for the same technician.
	for day := 1; day <= 3; day++ {
		assignments.add(entities.RecurringAssignment{CompanyID: 1, TechnicianID: 10, ClientID: uint64(99 + day), DayOfWeek: day, RouteOrder: 0, Active: true})
	}
	tuesday, _ := time.Parse("2006-01-02", "2026-01-06")
	routes := &brokenDateRouteRepo{fakeRouteRepo: newFakeRouteRepo(), failDate: tuesday}
	svc := NewMaterializerService(assignments, routes, fakeTxManager{}, 31, zap.NewNop())

	result, err := svc.Generate(adminCtx(1, 1), dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: "2026-01-07"})
	require.NoError(t, err)

	// Monday and Wednesday commit; Tuesday is reported, not fatal.
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "2026-01-06", result.Errors[0].Date)

	monday, _ := time.Parse("2006-01-02", mondayDate)
	_, err = routes.FindInstanceByTechDate(nil, nil, 1, 10, monday)
	assert.NoError(t, err)
	_, err = routes.FindInstanceByTechDate(nil, nil, 1, 10, tuesday)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGenerate_RequiresAdmin(t *testing.T) {
	svc, _, _ := newMaterializerFixture()

	_, err := svc.Generate(technicianCtx(1, 10), dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: mondayDate})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGenerate_ValidatesDateRange(t *testing.T) {
	svc, _, _ := newMaterializerFixture()
	ctx := adminCtx(1, 1)

	var invalid *apperrors.InvalidInputError

	_, err := svc.Generate(ctx, dto.GenerateRoutesDTO{StartDate: "05.01.2026", EndDate: mondayDate})
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.Generate(ctx, dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: "2026-01-04"})
	assert.ErrorAs(t, err, &invalid)

	// 32 days exceeds the 31-day cap.
	_, err = svc.Generate(ctx, dto.GenerateRoutesDTO{StartDate: mondayDate, EndDate: "2026-02-05"})
	assert.ErrorAs(t, err, &invalid)
}
