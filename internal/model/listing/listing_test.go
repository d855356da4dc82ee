package listing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validForm() FormValues {
	return FormValues{
		Name:         "Asha",
		ServiceName:  "Maths Tutoring",
		Description:  "One-to-one maths lessons for grades 6 to 10.",
		Location:     "560001",
		Availability: "Weekends",
		Charges:      "$20/hour",
		Contact:      "asha@example.com",
	}
}

func TestNewListingTrimsValues(t *testing.T) {
	form := validForm()
	form.ServiceName = "  Maths Tutoring  "

	l, err := NewListing("user-1", form)
	if err != nil {
		t.Fatalf("NewListing err: %v", err)
	}
	if l.ServiceName != "Maths Tutoring" {
		t.Fatalf("expected trimmed service name, got %q", l.ServiceName)
	}
	if l.UserID != "user-1" {
		t.Fatalf("unexpected user id %q", l.UserID)
	}
}

func TestNewListingReportsEveryInvalidField(t *testing.T) {
	_, err := NewListing("", FormValues{ServiceName: "ab", Description: "short", Charges: "", Contact: "123"})
	if !errors.Is(err, ErrInvalidListing) {
		t.Fatalf("expected ErrInvalidListing, got %v", err)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	got := map[string]bool{}
	for _, f := range ve.Fields {
		got[f.Field] = true
	}
	for _, field := range []string{"userId", "serviceName", "description", "availability", "charges", "contact"} {
		if !got[field] {
			t.Fatalf("expected %s to be reported, got %+v", field, ve.Fields)
		}
	}
}

func TestNewListingRejectsOverlongServiceName(t *testing.T) {
	form := validForm()
	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}
	form.ServiceName = string(long)

	if _, err := NewListing("user-1", form); !errors.Is(err, ErrInvalidListing) {
		t.Fatalf("expected ErrInvalidListing, got %v", err)
	}
}

func TestFilterMatchesKeywordAcrossFields(t *testing.T) {
	l := Listing{Name: "Ravi", ServiceName: "Plumbing", Description: "Leak repairs", Location: "Indiranagar"}

	cases := map[string]bool{
		"":            true,
		"plumb":       true,
		"RAVI":        true,
		"leak":        true,
		"indiranagar": true,
		"electrician": false,
	}
	for keyword, want := range cases {
		if got := (Filter{Keyword: keyword}).Matches(l); got != want {
			t.Fatalf("keyword %q: got %v want %v", keyword, got, want)
		}
	}
}

func TestFilterServiceAndTerms(t *testing.T) {
	l := Listing{ServiceName: "Plumbing", Description: "Pipes and taps"}

	if !(Filter{Service: AllServices}).Matches(l) {
		t.Fatal("all should match every service")
	}
	if (Filter{Service: "Baking"}).Matches(l) {
		t.Fatal("service filter should be exact")
	}
	if !(Filter{AnyTerms: []string{"electric", "taps"}}).Matches(l) {
		t.Fatal("expected one matching term to be enough")
	}
	if (Filter{AnyTerms: []string{"electric"}}).Matches(l) {
		t.Fatal("expected no match")
	}
}

func TestMemoryStoreQueryNewestFirstWithLimit(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore([]Listing{
		{ID: "old", ServiceName: "Plumbing", CreatedAt: base},
		{ID: "new", ServiceName: "Plumbing", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "mid", ServiceName: "Baking", CreatedAt: base.Add(time.Hour)},
	})

	got, err := store.Query(context.Background(), Filter{Limit: 2})
	if err != nil {
		t.Fatalf("Query err: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestMemoryStoreCreateAssignsIdentity(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	first, err := store.Create(ctx, Listing{ServiceName: "Baking"})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	second, _ := store.Create(ctx, Listing{ServiceName: "Tailoring"})

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected unique ids, got %q and %q", first.ID, second.ID)
	}

	got, _ := store.Query(ctx, Filter{})
	if len(got) != 2 || got[0].ID != second.ID {
		t.Fatalf("expected most recent listing first, got %+v", got)
	}
}

func TestServicesKeepsFirstSeenOrder(t *testing.T) {
	got := Services([]Listing{{ServiceName: "Plumbing"}, {ServiceName: "Baking"}, {ServiceName: "Plumbing"}})
	want := []string{"all", "Plumbing", "Baking"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestFormValuesPrefersExtractedFields(t *testing.T) {
	profile := Profile{DisplayName: "Asha K", Location: "Koramangala"}

	values := Fields{ServiceName: "Baking", Location: "560034"}.FormValues(profile)
	if values.Name != "Asha K" {
		t.Fatalf("expected profile name fallback, got %q", values.Name)
	}
	if values.Location != "560034" {
		t.Fatalf("expected extracted location to win, got %q", values.Location)
	}
}

func TestMemoryStoreQueryByUser(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore([]Listing{
		{ID: "a", UserID: "u1", ServiceName: "Plumbing", CreatedAt: base},
		{ID: "b", UserID: "u2", ServiceName: "Plumbing", CreatedAt: base.Add(time.Hour)},
		{ID: "c", UserID: "u1", ServiceName: "Baking", CreatedAt: base.Add(2 * time.Hour)},
	})

	got, err := store.Query(context.Background(), Filter{UserID: "u1"})
	if err != nil {
		t.Fatalf("Query err: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("expected only u1 listings newest first, got %+v", got)
	}

	got, _ = store.Query(context.Background(), Filter{UserID: "u1", Service: "Plumbing"})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected user and service to combine, got %+v", got)
	}

	if got, _ := store.Query(context.Background(), Filter{UserID: "nobody"}); len(got) != 0 {
		t.Fatalf("expected no listings, got %+v", got)
	}
}
