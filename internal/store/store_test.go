package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/locallink/backend/internal/model/listing"
)

func openSQLite(t *testing.T) *ListingStore {
	t.Helper()
	st, err := Open(SQLite, filepath.Join(t.TempDir(), "listings.db"))
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := Migrate(context.Background(), st.DB(), st.Driver()); err != nil {
		t.Fatalf("Migrate err: %v", err)
	}
	return st
}

func TestListingStoreCreateAndQuery(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	st.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, l := range []listing.Listing{
		{UserID: "u1", Name: "Ravi", ServiceName: "Plumbing", Description: "Leak repairs", Location: "Indiranagar", Availability: "Daily", Charges: "$30", Contact: "9876543210"},
		{UserID: "u2", Name: "Meera", ServiceName: "Home Baking", Description: "Custom cakes", Location: "Jayanagar", Availability: "Weekends", Charges: "$15", Contact: "meera@example.com"},
	} {
		if _, err := st.Create(ctx, l); err != nil {
			t.Fatalf("Create err: %v", err)
		}
	}

	all, err := st.Query(ctx, listing.Filter{})
	if err != nil {
		t.Fatalf("Query err: %v", err)
	}
	if len(all) != 2 || all[0].ServiceName != "Home Baking" {
		t.Fatalf("expected newest listing first, got %+v", all)
	}
	if all[0].ID == "" || all[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and creation time, got %+v", all[0])
	}

	filtered, err := st.Query(ctx, listing.Filter{Keyword: "indira"})
	if err != nil {
		t.Fatalf("Query err: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "Ravi" {
		t.Fatalf("expected keyword match, got %+v", filtered)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := openSQLite(t)

	if err := Migrate(context.Background(), st.DB(), st.Driver()); err != nil {
		t.Fatalf("second Migrate err: %v", err)
	}
}

func TestParseDriver(t *testing.T) {
	cases := map[string]Driver{"postgres": Postgres, "PGX": Postgres, "sqlite3": SQLite}
	for in, want := range cases {
		got, err := ParseDriver(in)
		if err != nil || got != want {
			t.Fatalf("ParseDriver(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDriver("mysql"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestListingStoreQueryFilters(t *testing.T) {
	st := openSQLite(t)
	ctx := context.Background()

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	st.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, l := range []listing.Listing{
		{UserID: "u1", Name: "Ravi", ServiceName: "Plumbing", Description: "Leak repairs", Location: "Indiranagar"},
		{UserID: "u2", Name: "Meera", ServiceName: "Home Baking", Description: "Custom CAKES", Location: "Jayanagar"},
		{UserID: "u1", Name: "Ravi", ServiceName: "Electrician", Description: "100% safe wiring", Location: "Indiranagar"},
		{UserID: "u3", Name: "Sunil", ServiceName: "Plumbing", Description: "Bathroom fittings", Location: "HSR_Layout"},
	} {
		if _, err := st.Create(ctx, l); err != nil {
			t.Fatalf("Create err: %v", err)
		}
	}

	cases := []struct {
		name   string
		filter listing.Filter
		want   []string
	}{
		{"by user", listing.Filter{UserID: "u1"}, []string{"Electrician", "Plumbing"}},
		{"by service", listing.Filter{Service: "Plumbing"}, []string{"Plumbing", "Plumbing"}},
		{"all services", listing.Filter{Service: listing.AllServices, Limit: 1}, []string{"Plumbing"}},
		{"user and service", listing.Filter{UserID: "u1", Service: "Plumbing"}, []string{"Plumbing"}},
		{"keyword is case insensitive", listing.Filter{Keyword: "cakes"}, []string{"Home Baking"}},
		{"percent is literal", listing.Filter{Keyword: "100%"}, []string{"Electrician"}},
		{"underscore is literal", listing.Filter{Keyword: "a_a"}, nil},
		{"any terms", listing.Filter{AnyTerms: []string{"wiring", "bathroom"}}, []string{"Plumbing", "Electrician"}},
		{"limit", listing.Filter{Limit: 2}, []string{"Plumbing", "Electrician"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := st.Query(ctx, tc.filter)
			if err != nil {
				t.Fatalf("Query err: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d listings, got %+v", len(tc.want), got)
			}
			for i, l := range got {
				if l.ServiceName != tc.want[i] {
					t.Fatalf("listing %d: expected %s, got %s", i, tc.want[i], l.ServiceName)
				}
			}
		})
	}
}
