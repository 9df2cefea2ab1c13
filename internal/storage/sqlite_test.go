package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/peoplegraph/peoplegraph/internal/document"
)

// setupTestDB creates a test database loaded with a small document.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	doc := &document.Document{
		Nodes: []document.Node{
			{ID: "andrew huberman", SID: "ah", Name: "Andrew Huberman", Type: "person", DocID: "d1", Value: 900},
			{ID: "matthew walker", Name: "Matthew Walker", Type: "person", DocID: "d2", Value: 40},
			{ID: "andrew weil", Name: "Andrew Weil", Type: "person", Value: 3},
			{ID: "sleep", Name: "Sleep", Type: "topic", Value: 1},
		},
		Links: []document.Link{
			{Source: "andrew huberman", Target: "matthew walker"},
			{Source: "matthew walker", Target: "sleep"},
			{Source: "sleep", Target: "ghost"},
			{Source: "sleep", Target: "sleep"},
		},
	}

	nodes, links, err := db.RebuildFromDocument(doc)
	if err != nil {
		t.Fatalf("RebuildFromDocument() error = %v", err)
	}
	if nodes != 4 || links != 4 {
		t.Fatalf("RebuildFromDocument() = %d, %d; want 4, 4", nodes, links)
	}
	return db
}

func TestGetNode(t *testing.T) {
	db := setupTestDB(t)

	n, err := db.GetNode("andrew huberman")
	if err != nil {
		t.Fatalf("GetNode() error = %v", err)
	}
	if n == nil {
		t.Fatal("GetNode() returned nil")
	}
	want := document.Node{ID: "andrew huberman", SID: "ah", Name: "Andrew Huberman", Type: "person", DocID: "d1", Value: 900}
	if !reflect.DeepEqual(*n, want) {
		t.Errorf("GetNode() = %+v, want %+v", *n, want)
	}

	missing, err := db.GetNode("nobody")
	if err != nil {
		t.Fatalf("GetNode(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetNode(missing) = %+v, want nil", missing)
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"andrew", []string{"andrew huberman", "andrew weil"}},
		{"hub", []string{"andrew huberman"}},
		{"andrew we", []string{"andrew weil"}},
		{"walker", []string{"matthew walker"}},
		{"nobody", nil},
		{"   ", nil},
		{`"quoted`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := db.Search(tt.query, 10)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.query, err)
			}
			var ids []string
			for _, n := range got {
				ids = append(ids, n.ID)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, ids, tt.want)
			}
		})
	}
}

func TestSearch_Limit(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Search("andrew", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "andrew huberman" {
		t.Errorf("Search() = %+v", got)
	}
}

func TestDegreeAndLinks(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		id      string
		degree  int
		indices []int
	}{
		{"andrew huberman", 1, []int{0}},
		{"matthew walker", 2, []int{0, 1}},
		{"sleep", 4, []int{1, 2, 3}},
		{"ghost", 1, []int{2}},
		{"nobody", 0, nil},
	}

	for _, tt := range tests {
		deg, err := db.Degree(tt.id)
		if err != nil {
			t.Fatalf("Degree(%s) error = %v", tt.id, err)
		}
		if deg != tt.degree {
			t.Errorf("Degree(%s) = %d, want %d", tt.id, deg, tt.degree)
		}

		idx, err := db.LinkIndices(tt.id)
		if err != nil {
			t.Fatalf("LinkIndices(%s) error = %v", tt.id, err)
		}
		if !reflect.DeepEqual(idx, tt.indices) {
			t.Errorf("LinkIndices(%s) = %v, want %v", tt.id, idx, tt.indices)
		}
	}
}

func TestRebuildReplacesContent(t *testing.T) {
	db := setupTestDB(t)

	doc := &document.Document{Nodes: []document.Node{{ID: "solo", Name: "Solo", Type: "person"}}}
	if _, _, err := db.RebuildFromDocument(doc); err != nil {
		t.Fatalf("RebuildFromDocument() error = %v", err)
	}

	nodes, err := db.CountNodes()
	if err != nil || nodes != 1 {
		t.Errorf("CountNodes() = %d, %v; want 1", nodes, err)
	}
	if idx, err := db.LinkIndices("sleep"); err != nil || len(idx) != 0 {
		t.Errorf("LinkIndices(sleep) = %v, %v; want none", idx, err)
	}

	got, err := db.Search("andrew", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("stale FTS rows after rebuild: %+v", got)
	}
}
