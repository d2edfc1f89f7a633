package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

const demoCompanyID = 1

// SeedDemoData populates a demo company: two technicians, eight clients
// with preferred service days, and a week of recurring assignments.
// Safe to run repeatedly: rows are matched by email/name before insert.
func SeedDemoData(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("seeding demo data...")

	technicianIDs, err := seedTechnicians(ctx, db)
	if err != nil {
		log.Fatalf("failed to seed technicians: %v", err)
	}
	clientIDs, err := seedClients(ctx, db)
	if err != nil {
		log.Fatalf("failed to seed clients: %v", err)
	}
	if err := seedAssignments(ctx, db, technicianIDs, clientIDs); err != nil {
		log.Fatalf("failed to seed assignments: %v", err)
	}

	log.Println("demo data seeded")
}

func seedTechnicians(ctx context.Context, db *pgxpool.Pool) ([]uint64, error) {
	users := []struct {
		name  string
		email string
		role  string
	}{
		{"Dana Meyers", "admin@demo.pool-service.local", "admin"},
		{"Carlos Vega", "carlos@demo.pool-service.local", "technician"},
		{"Jess Tran", "jess@demo.pool-service.local", "technician"},
	}

	ids := make([]uint64, 0, len(users))
	for _, u := range users {
		var id uint64
		err := db.QueryRow(ctx, `
			INSERT INTO users (company_id, name, email, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			demoCompanyID, u.name, u.email, u.role).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.email, err)
		}
		if u.role == "technician" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func seedClients(ctx context.Context, db *pgxpool.Pool) ([]uint64, error) {
	clients := []struct {
		name    string
		address string
		phone   string
		day     int
	}{
		{"Harborview HOA", "12 Harbor Rd", "555-0101", 1},
		{"Blue Lagoon Apartments", "300 Lagoon Way", "555-0102", 1},
		{"Sunset Villas", "77 Sunset Blvd", "555-0103", 1},
		{"Palm Court Motel", "9 Palm Ct", "555-0104", 2},
		{"Riverbend Rec Center", "410 River St", "555-0105", 2},
		{"Oakwood Residence", "85 Oakwood Dr", "555-0106", 3},
		{"Cypress Community Pool", "2 Cypress Ln", "555-0107", 4},
		{"Marina Fitness Club", "18 Marina Pkwy", "555-0108", 5},
	}

	ids := make([]uint64, 0, len(clients))
	for _, c := range clients {
		var id uint64
		err := db.QueryRow(ctx, `
			SELECT id FROM clients WHERE company_id = $1 AND name = $2`,
			demoCompanyID, c.name).Scan(&id)
		if err != nil {
			err = db.QueryRow(ctx, `
				INSERT INTO clients (company_id, name, address, phone, preferred_service_day)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				demoCompanyID, c.name, c.address, c.phone, c.day).Scan(&id)
			if err != nil {
				return nil, fmt.Errorf("client %s: %w", c.name, err)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedAssignments(ctx context.Context, db *pgxpool.Pool, technicianIDs, clientIDs []uint64) error {
	if len(technicianIDs) < 2 || len(clientIDs) < 6 {
		return fmt.Errorf("not enough seeded technicians or clients")
	}

	// First technician covers the Monday block, second the midweek block.
	assignments := []struct {
		technician uint64
		client     uint64
		day        int
		order      int
	}{
		{technicianIDs[0], clientIDs[0], 1, 0},
		{technicianIDs[0], clientIDs[1], 1, 1},
		{technicianIDs[0], clientIDs[2], 1, 2},
		{technicianIDs[1], clientIDs[3], 2, 0},
		{technicianIDs[1], clientIDs[4], 2, 1},
		{technicianIDs[1], clientIDs[5], 3, 0},
	}

	for _, a := range assignments {
		_, err := db.Exec(ctx, `
			INSERT INTO recurring_assignments (company_id, technician_id, client_id, day_of_week, route_order)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (company_id, technician_id, client_id, day_of_week) DO NOTHING`,
			demoCompanyID, a.technician, a.client, a.day, a.order)
		if err != nil {
			return fmt.Errorf("assignment technician=%d client=%d: %w", a.technician, a.client, err)
		}
	}
	return nil
}
