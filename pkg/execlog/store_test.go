package execlog

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// storeFactories builds each Store implementation against a fresh backing.
var storeFactories = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store {
		return NewMemoryStore(0)
	},
	"sqlite": func(t *testing.T) Store {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "execlog.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore failed: %v", err)
		}
		return store
	},
}

func sampleEntries(base time.Time) []Entry {
	return []Entry{
		{
			RuleCode:       "promo-expense-ratio",
			RuleName:       "Promotion expense ratio check",
			StartedAt:      base,
			FinishedAt:     base.Add(2 * time.Millisecond),
			Duration:       2 * time.Millisecond,
			Status:         StatusSuccess,
			Result:         "evaluated 3 facts, 1 finding",
			Executor:       "scheduler",
			Environment:    "test",
			RuleVersion:    1,
			RuleSetVersion: 7,
		},
		{
			RuleCode:       "promo-expense-ratio",
			RuleName:       "Promotion expense ratio check",
			StartedAt:      base.Add(time.Minute),
			FinishedAt:     base.Add(time.Minute + 6*time.Millisecond),
			Duration:       6 * time.Millisecond,
			Status:         StatusFailure,
			Error:          `rule promo-expense-ratio: execution failed: unknown fact attribute "gmv"`,
			Executor:       "scheduler",
			Environment:    "test",
			RuleVersion:    1,
			RuleSetVersion: 7,
		},
		{
			RuleCode:       "large-cash-payment",
			RuleName:       "Large cash payment",
			StartedAt:      base.Add(2 * time.Minute),
			FinishedAt:     base.Add(2*time.Minute + time.Millisecond),
			Duration:       time.Millisecond,
			Status:         StatusSuccess,
			Result:         "evaluated 3 facts, 0 findings",
			Executor:       "api",
			Environment:    "test",
			RuleVersion:    2,
			RuleSetVersion: 8,
		},
	}
}

func TestStore_AppendAndQuery(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			ctx := context.Background()
			base := time.Now().Add(-time.Hour).Truncate(time.Microsecond)
			if err := store.Append(ctx, sampleEntries(base)...); err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			all, err := store.Query(ctx, Filter{})
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("Query returned %d entries, want 3", len(all))
			}
			// Most recent first.
			if all[0].RuleCode != "large-cash-payment" {
				t.Errorf("first entry = %s, want large-cash-payment", all[0].RuleCode)
			}
			if all[0].ID == "" {
				t.Error("entry ID not assigned on append")
			}
			if all[0].RuleSetVersion != 8 {
				t.Errorf("RuleSetVersion = %d, want 8", all[0].RuleSetVersion)
			}

			byRule, err := store.Query(ctx, Filter{RuleCode: "promo-expense-ratio"})
			if err != nil {
				t.Fatalf("Query by rule failed: %v", err)
			}
			if len(byRule) != 2 {
				t.Errorf("Query by rule returned %d entries, want 2", len(byRule))
			}

			failures, err := store.Query(ctx, Filter{Status: StatusFailure})
			if err != nil {
				t.Fatalf("Query by status failed: %v", err)
			}
			if len(failures) != 1 {
				t.Fatalf("Query by status returned %d entries, want 1", len(failures))
			}
			if failures[0].Error == "" {
				t.Error("failure entry has no error text")
			}

			windowed, err := store.Query(ctx, Filter{
				Since: base.Add(30 * time.Second),
				Until: base.Add(90 * time.Second),
			})
			if err != nil {
				t.Fatalf("Query by time range failed: %v", err)
			}
			if len(windowed) != 1 {
				t.Errorf("Query by time range returned %d entries, want 1", len(windowed))
			}

			limited, err := store.Query(ctx, Filter{Limit: 1, Offset: 1})
			if err != nil {
				t.Fatalf("Query with limit/offset failed: %v", err)
			}
			if len(limited) != 1 {
				t.Fatalf("Query with limit returned %d entries, want 1", len(limited))
			}
			if limited[0].RuleCode != "promo-expense-ratio" {
				t.Errorf("offset entry = %s, want promo-expense-ratio", limited[0].RuleCode)
			}
		})
	}
}

func TestStore_Stats(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()

			ctx := context.Background()
			base := time.Now().Add(-time.Hour).Truncate(time.Microsecond)
			if err := store.Append(ctx, sampleEntries(base)...); err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			stats, err := store.Stats(ctx, "promo-expense-ratio")
			if err != nil {
				t.Fatalf("Stats failed: %v", err)
			}
			if stats.Total != 2 {
				t.Errorf("Total = %d, want 2", stats.Total)
			}
			if stats.Failures != 1 {
				t.Errorf("Failures = %d, want 1", stats.Failures)
			}
			if stats.AvgDuration != 4*time.Millisecond {
				t.Errorf("AvgDuration = %v, want 4ms", stats.AvgDuration)
			}
			if stats.MaxDuration != 6*time.Millisecond {
				t.Errorf("MaxDuration = %v, want 6ms", stats.MaxDuration)
			}
			if !stats.LastExecution.Equal(base.Add(time.Minute)) {
				t.Errorf("LastExecution = %v, want %v", stats.LastExecution, base.Add(time.Minute))
			}

			empty, err := store.Stats(ctx, "no-such-rule")
			if err != nil {
				t.Fatalf("Stats for unknown rule failed: %v", err)
			}
			if empty.Total != 0 {
				t.Errorf("Total for unknown rule = %d, want 0", empty.Total)
			}
		})
	}
}

func TestMemoryStore_Bounded(t *testing.T) {
	store := NewMemoryStore(5)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		err := store.Append(ctx, Entry{
			RuleCode:  fmt.Sprintf("r-%03d", i),
			StartedAt: time.Now(),
			Status:    StatusSuccess,
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("retained %d entries, want 5", len(all))
	}
	// The oldest entries were dropped.
	if all[len(all)-1].RuleCode != "r-005" {
		t.Errorf("oldest retained entry = %s, want r-005", all[len(all)-1].RuleCode)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execlog.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	base := time.Now().Add(-time.Hour).Truncate(time.Microsecond)
	if err := store.Append(ctx, sampleEntries(base)...); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
	defer reopened.Close()

	all, err := reopened.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query after reopen failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Query after reopen returned %d entries, want 3", len(all))
	}
}
