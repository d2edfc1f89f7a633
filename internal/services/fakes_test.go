package services

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"pool-service/internal/entities"
	"pool-service/internal/repositories"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/types"
	"pool-service/pkg/utils"
)

// The service layer only ever touches storage through the repository
// interfaces and TxManagerInterface, so the fakes below back them with
// maps. Repositories accept a nil tx and fall back to the pool, which
// is why fakeTxManager can hand fn a nil transaction.

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func adminCtx(companyID, userID uint64) context.Context {
	return utils.WithIdentity(context.Background(), utils.Identity{
		UserID: userID, CompanyID: companyID, Role: constants.RoleAdmin,
	})
}

func technicianCtx(companyID, userID uint64) context.Context {
	return utils.WithIdentity(context.Background(), utils.Identity{
		UserID: userID, CompanyID: companyID, Role: constants.RoleTechnician,
	})
}

// --- assignments ---

type fakeAssignmentRepo struct {
	nextID      uint64
	assignments map[uint64]*entities.RecurringAssignment
	clientNames map[uint64]string
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments: make(map[uint64]*entities.RecurringAssignment),
		clientNames: make(map[uint64]string),
	}
}

func (f *fakeAssignmentRepo) add(a entities.RecurringAssignment) *entities.RecurringAssignment {
	f.nextID++
	a.ID = f.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	f.assignments[a.ID] = &a
	return &a
}

func (f *fakeAssignmentRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.RecurringAssignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAssignmentRepo) FindTuple(_ context.Context, _ pgx.Tx, companyID, technicianID, clientID uint64, dayOfWeek int) (*entities.RecurringAssignment, error) {
	for _, a := range f.assignments {
		if a.CompanyID == companyID && a.TechnicianID == technicianID &&
			a.ClientID == clientID && a.DayOfWeek == dayOfWeek {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, tx pgx.Tx, a entities.RecurringAssignment) (*entities.RecurringAssignment, error) {
	if _, err := f.FindTuple(ctx, tx, a.CompanyID, a.TechnicianID, a.ClientID, a.DayOfWeek); err == nil {
		return nil, apperrors.ErrDuplicateAssignment
	}
	a.Active = true
	return f.add(a), nil
}

func (f *fakeAssignmentRepo) Reactivate(_ context.Context, _ pgx.Tx, id uint64, routeOrder int) (*entities.RecurringAssignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	a.Active = true
	a.RouteOrder = routeOrder
	copied := *a
	return &copied, nil
}

func (f *fakeAssignmentRepo) Delete(_ context.Context, _ pgx.Tx, id uint64) error {
	if _, ok := f.assignments[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.assignments, id)
	return nil
}

func (f *fakeAssignmentRepo) SetActive(_ context.Context, _ pgx.Tx, id uint64, active bool) error {
	a, ok := f.assignments[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.Active = active
	return nil
}

func (f *fakeAssignmentRepo) MaxRouteOrder(_ context.Context, _ pgx.Tx, technicianID uint64, dayOfWeek int) (int, error) {
	max := -1
	for _, a := range f.assignments {
		if a.Active && a.TechnicianID == technicianID && a.DayOfWeek == dayOfWeek && a.RouteOrder > max {
			max = a.RouteOrder
		}
	}
	return max, nil
}

func (f *fakeAssignmentRepo) ListGroup(_ context.Context, _ pgx.Tx, technicianID uint64, dayOfWeek int) ([]*entities.RecurringAssignment, error) {
	group := make([]*entities.RecurringAssignment, 0)
	for _, a := range f.assignments {
		if a.Active && a.TechnicianID == technicianID && a.DayOfWeek == dayOfWeek {
			copied := *a
			group = append(group, &copied)
		}
	}
	sort.Slice(group, func(i, j int) bool {
		if group[i].RouteOrder != group[j].RouteOrder {
			return group[i].RouteOrder < group[j].RouteOrder
		}
		return group[i].ID < group[j].ID
	})
	return group, nil
}

func (f *fakeAssignmentRepo) ListActiveByCompanyAndDay(_ context.Context, companyID uint64, dayOfWeek int) ([]*entities.RecurringAssignment, error) {
	list := make([]*entities.RecurringAssignment, 0)
	for _, a := range f.assignments {
		if a.Active && a.CompanyID == companyID && a.DayOfWeek == dayOfWeek {
			copied := *a
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].TechnicianID != list[j].TechnicianID {
			return list[i].TechnicianID < list[j].TechnicianID
		}
		if list[i].RouteOrder != list[j].RouteOrder {
			return list[i].RouteOrder < list[j].RouteOrder
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (f *fakeAssignmentRepo) UpdateRouteOrders(_ context.Context, _ pgx.Tx, orders map[uint64]int) error {
	for id, order := range orders {
		a, ok := f.assignments[id]
		if !ok {
			return apperrors.ErrNotFound
		}
		a.RouteOrder = order
	}
	return nil
}

func (f *fakeAssignmentRepo) ListByCompany(_ context.Context, companyID uint64, technicianID *uint64, dayOfWeek *int) ([]repositories.AssignmentWithClient, error) {
	list := make([]repositories.AssignmentWithClient, 0)
	for _, a := range f.assignments {
		if !a.Active || a.CompanyID != companyID {
			continue
		}
		if technicianID != nil && a.TechnicianID != *technicianID {
			continue
		}
		if dayOfWeek != nil && a.DayOfWeek != *dayOfWeek {
			continue
		}
		list = append(list, repositories.AssignmentWithClient{
			RecurringAssignment: *a,
			ClientName:          f.clientNames[a.ClientID],
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].TechnicianID != list[j].TechnicianID {
			return list[i].TechnicianID < list[j].TechnicianID
		}
		if list[i].DayOfWeek != list[j].DayOfWeek {
			return list[i].DayOfWeek < list[j].DayOfWeek
		}
		if list[i].RouteOrder != list[j].RouteOrder {
			return list[i].RouteOrder < list[j].RouteOrder
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// --- routes ---

type fakeRouteRepo struct {
	nextInstanceID   uint64
	nextStopID       uint64
	instances        map[uint64]*entities.RouteInstance
	stops            map[uint64]*entities.RouteStop
	technicianNames  map[uint64]string
	lastHistoryLimit uint64
}

func newFakeRouteRepo() *fakeRouteRepo {
	return &fakeRouteRepo{
		instances:       make(map[uint64]*entities.RouteInstance),
		stops:           make(map[uint64]*entities.RouteStop),
		technicianNames: make(map[uint64]string),
	}
}

func (f *fakeRouteRepo) addInstance(inst entities.RouteInstance) *entities.RouteInstance {
	f.nextInstanceID++
	inst.ID = f.nextInstanceID
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}
	f.instances[inst.ID] = &inst
	return &inst
}

func (f *fakeRouteRepo) addStop(stop entities.RouteStop) *entities.RouteStop {
	f.nextStopID++
	stop.ID = f.nextStopID
	if stop.CreatedAt.IsZero() {
		stop.CreatedAt = time.Now()
	}
	f.stops[stop.ID] = &stop
	return &stop
}

func (f *fakeRouteRepo) CreateInstance(_ context.Context, _ pgx.Tx, inst entities.RouteInstance) (*entities.RouteInstance, error) {
	for _, existing := range f.instances {
		if existing.CompanyID == inst.CompanyID && existing.TechnicianID == inst.TechnicianID &&
			existing.RouteDate.Equal(inst.RouteDate) {
			return nil, apperrors.ErrDuplicateInstance
		}
	}
	return f.addInstance(inst), nil
}

func (f *fakeRouteRepo) InsertStops(_ context.Context, _ pgx.Tx, stops []entities.RouteStop) error {
	for _, stop := range stops {
		f.addStop(stop)
	}
	return nil
}

func (f *fakeRouteRepo) FindInstanceByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.RouteInstance, error) {
	inst, ok := f.instances[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *inst
	return &copied, nil
}

func (f *fakeRouteRepo) FindInstanceByTechDate(_ context.Context, _ pgx.Tx, companyID, technicianID uint64, date time.Time) (*entities.RouteInstance, error) {
	for _, inst := range f.instances {
		if inst.CompanyID == companyID && inst.TechnicianID == technicianID && inst.RouteDate.Equal(date) {
			copied := *inst
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeRouteRepo) LockInstance(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RouteInstance, error) {
	return f.FindInstanceByID(ctx, tx, id)
}

func (f *fakeRouteRepo) UpdateInstanceStatus(_ context.Context, _ pgx.Tx, id uint64, status string, startTime, completedAt *time.Time) error {
	inst, ok := f.instances[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	inst.Status = status
	if startTime != nil {
		inst.StartTime = startTime
	}
	if completedAt != nil {
		inst.CompletedAt = completedAt
	}
	return nil
}

func (f *fakeRouteRepo) UpdateInstanceNotes(_ context.Context, id uint64, notes string) error {
	inst, ok := f.instances[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	inst.Notes = &notes
	return nil
}

func (f *fakeRouteRepo) ListStops(_ context.Context, _ pgx.Tx, instanceID uint64) ([]*entities.RouteStop, error) {
	stops := make([]*entities.RouteStop, 0)
	for _, stop := range f.stops {
		if stop.RouteInstanceID == instanceID {
			copied := *stop
			stops = append(stops, &copied)
		}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].SequenceOrder < stops[j].SequenceOrder })
	return stops, nil
}

func (f *fakeRouteRepo) FindStopByID(_ context.Context, _ pgx.Tx, stopID uint64) (*entities.RouteStop, *entities.RouteInstance, error) {
	stop, ok := f.stops[stopID]
	if !ok {
		return nil, nil, apperrors.ErrNotFound
	}
	inst, ok := f.instances[stop.RouteInstanceID]
	if !ok {
		return nil, nil, apperrors.ErrNotFound
	}
	stopCopy := *stop
	instCopy := *inst
	return &stopCopy, &instCopy, nil
}

func (f *fakeRouteRepo) UpdateStop(_ context.Context, _ pgx.Tx, stop *entities.RouteStop) error {
	stored, ok := f.stops[stop.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	stored.Status = stop.Status
	stored.SkipReason = stop.SkipReason
	stored.ActualArrival = stop.ActualArrival
	stored.ActualDeparture = stop.ActualDeparture
	stored.ServiceRecordID = stop.ServiceRecordID
	return nil
}

func (f *fakeRouteRepo) UpdateStopOrders(_ context.Context, _ pgx.Tx, instanceID uint64, orders map[uint64]int) error {
	for id, order := range orders {
		stop, ok := f.stops[id]
		if !ok || stop.RouteInstanceID != instanceID {
			return apperrors.ErrNotFound
		}
		stop.SequenceOrder = order
	}
	return nil
}

func (f *fakeRouteRepo) ListHistory(_ context.Context, companyID uint64, technicianID *uint64, limit uint64) ([]repositories.RouteSummaryRow, error) {
	f.lastHistoryLimit = limit
	rows := make([]repositories.RouteSummaryRow, 0)
	for _, inst := range f.instances {
		if inst.CompanyID != companyID {
			continue
		}
		if technicianID != nil && inst.TechnicianID != *technicianID {
			continue
		}
		row := repositories.RouteSummaryRow{
			Instance:       *inst,
			TechnicianName: f.technicianNames[inst.TechnicianID],
		}
		for _, stop := range f.stops {
			if stop.RouteInstanceID != inst.ID {
				continue
			}
			row.TotalStops++
			switch stop.Status {
			case constants.StopStatusCompleted:
				row.CompletedStops++
			case constants.StopStatusSkipped:
				row.SkippedStops++
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Instance.RouteDate.Equal(rows[j].Instance.RouteDate) {
			return rows[i].Instance.RouteDate.After(rows[j].Instance.RouteDate)
		}
		return rows[i].Instance.ID > rows[j].Instance.ID
	})
	if uint64(len(rows)) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// --- clients and users ---

type fakeClientRepo struct {
	clients map[uint64]*entities.Client
	// assignments mirrors the anti-join ListAvailableByDay performs
	// against recurring_assignments.
	assignments *fakeAssignmentRepo
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[uint64]*entities.Client)}
}

func (f *fakeClientRepo) GetClients(_ context.Context, companyID uint64, _ types.Filter) ([]*entities.Client, uint64, error) {
	list := make([]*entities.Client, 0)
	for _, c := range f.clients {
		if c.CompanyID == companyID && c.Active {
			copied := *c
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, uint64(len(list)), nil
}

func (f *fakeClientRepo) FindClient(_ context.Context, companyID, id uint64) (*entities.Client, error) {
	c, ok := f.clients[id]
	if !ok || c.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeClientRepo) ListAvailableByDay(_ context.Context, companyID uint64, dayOfWeek int) ([]*entities.Client, error) {
	list := make([]*entities.Client, 0)
	for _, c := range f.clients {
		if c.CompanyID != companyID || !c.Active ||
			c.PreferredServiceDay == nil || *c.PreferredServiceDay != dayOfWeek {
			continue
		}
		if f.assignedOnDay(c.ID, dayOfWeek) {
			continue
		}
		copied := *c
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (f *fakeClientRepo) assignedOnDay(clientID uint64, dayOfWeek int) bool {
	if f.assignments == nil {
		return false
	}
	for _, a := range f.assignments.assignments {
		if a.Active && a.ClientID == clientID && a.DayOfWeek == dayOfWeek {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*entities.User)}
}

func (f *fakeUserRepo) FindUser(_ context.Context, companyID, id uint64) (*entities.User, error) {
	u, ok := f.users[id]
	if !ok || u.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetTechnicians(_ context.Context, companyID uint64) ([]*entities.User, error) {
	list := make([]*entities.User, 0)
	for _, u := range f.users {
		if u.CompanyID == companyID && u.Role == constants.RoleTechnician && u.Active {
			copied := *u
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
