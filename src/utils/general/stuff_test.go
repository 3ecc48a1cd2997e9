package general

import (
	"path/filepath"
	"testing"
)

func TestGetCurrentFilepath(t *testing.T) {
	path := GetCurrentFilepath()
	if path == "" {
		t.Error("Expected non-empty filepath")
	}
	if !filepath.IsAbs(path) {
		t.Error("Expected absolute path")
	}
}

func TestGetCurrentDir(t *testing.T) {
	dir := GetCurrentDir()
	if dir == "" {
		t.Error("Expected non-empty directory")
	}
	if !filepath.IsAbs(dir) {
		t.Error("Expected absolute path")
	}
}

func TestGenerateUUID5StringFromByteArray(t *testing.T) {
	a := GenerateUUID5StringFromByteArray([]byte("agent-0"))
	b := GenerateUUID5StringFromByteArray([]byte("agent-0"))
	c := GenerateUUID5StringFromByteArray([]byte("agent-1"))
	if a != b {
		t.Errorf("Expected deterministic UUID5, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected different UUIDs for different inputs")
	}
	if len(a) != 36 {
		t.Errorf("Expected canonical UUID string, got %s", a)
	}
}

func TestItemInSlice(t *testing.T) {
	if !ItemInSlice([]string{"A", "B"}, "A") {
		t.Error("Expected to find item")
	}
	if ItemInSlice([]string{"A", "B"}, "C") {
		t.Error("Did not expect to find item")
	}
}

func TestNoDuplicateItemsInSlice(t *testing.T) {
	if !NoDuplicateItemsInSlice([]int{1, 2, 3}) {
		t.Error("Expected no duplicates")
	}
	if NoDuplicateItemsInSlice([]int{1, 2, 1}) {
		t.Error("Expected duplicates to be detected")
	}
}

func TestIndexOfItem(t *testing.T) {
	if got := IndexOfItem([]string{"a", "b", "c"}, "b"); got != 1 {
		t.Errorf("Expected index 1, got %d", got)
	}
	if got := IndexOfItem([]string{"a"}, "z"); got != -1 {
		t.Errorf("Expected -1 for missing item, got %d", got)
	}
}
