package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRepository_Integration_ListAvailableByDay(t *testing.T) {
	requireTestPool(t)
	cleanupTables(t, testPool)
	ctx := context.Background()

	tuesday, wednesday := 2, 3
	technicianID := seedTechnician(t, testPool, "carlos@integration.test")
	free := seedClient(t, testPool, "Harborview HOA", &tuesday)
	taken := seedClient(t, testPool, "Sunset Villas", &tuesday)
	released := seedClient(t, testPool, "Palm Court Motel", &tuesday)
	wrongDay := seedClient(t, testPool, "Riverbend Rec Center", &wednesday)
	seedClient(t, testPool, "No Preference Pool", nil)

	// taken has an active Tuesday assignment; released only a disabled one.
	_, err := testPool.Exec(ctx,
		`INSERT INTO recurring_assignments (company_id, technician_id, client_id, day_of_week, route_order, active)
		 VALUES (1, $1, $2, $3, 0, TRUE), (1, $1, $4, $3, 1, FALSE)`,
		technicianID, taken, tuesday, released)
	require.NoError(t, err)

	repo := NewClientRepository(testPool)
	available, err := repo.ListAvailableByDay(ctx, 1, tuesday)
	require.NoError(t, err)

	ids := make([]uint64, 0, len(available))
	for _, c := range available {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []uint64{free, released}, ids)
	assert.NotContains(t, ids, taken)
	assert.NotContains(t, ids, wrongDay)
}
