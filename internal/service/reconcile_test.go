package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
)

func origAt(position int, storageURL string, originalURL string) models.ArchiveOrig {
	o := models.ArchiveOrig{ID: int64(100 + position), ArchiveID: 7, Position: position, StorageURL: storageURL, StorageType: models.StorageTypeS3}
	if originalURL != "" {
		o.OriginalURL = &originalURL
	}
	return o
}

func actions(plan []SlotPlan) []SlotAction {
	out := make([]SlotAction, len(plan))
	for i, p := range plan {
		out[i] = p.Action
	}
	return out
}

// existing [A, B, C], desired ["", keep-B-by-path, new URL] →
// delete A, keep B, replace C.
func TestBuildReconcilePlanPositional(t *testing.T) {
	existing := []models.ArchiveOrig{
		origAt(0, "archives/origs/a.html", ""),
		origAt(1, "archives/origs/b.html", ""),
		origAt(2, "archives/origs/c.html", "https://old.example/c"),
	}
	slots := []dto.ArchiveSlot{
		{},
		{StorageURL: "archives/origs/b.html"},
		{OriginalURL: "https://new.example/c", HasURL: true},
	}

	plan := buildReconcilePlan(slots, existing)
	require.Len(t, plan, 3)
	assert.Equal(t, []SlotAction{SlotDelete, SlotKeep, SlotCreate}, actions(plan))
	assert.Equal(t, int64(100), plan[0].Existing.ID)
	assert.Equal(t, int64(102), plan[2].Existing.ID, "create at an occupied position replaces the stored row")
}

func TestBuildReconcilePlanEmptyURLMeansKeep(t *testing.T) {
	existing := []models.ArchiveOrig{origAt(0, "archives/origs/a.html", "https://example.com/a")}
	slots := []dto.ArchiveSlot{{OriginalURL: "", HasURL: true}}

	plan := buildReconcilePlan(slots, existing)
	require.Len(t, plan, 1)
	assert.Equal(t, SlotKeep, plan[0].Action)
}

func TestBuildReconcilePlanAbsentEntryMeansDelete(t *testing.T) {
	existing := []models.ArchiveOrig{origAt(0, "archives/origs/a.html", "")}

	plan := buildReconcilePlan(nil, existing)
	require.Len(t, plan, 1)
	assert.Equal(t, SlotDelete, plan[0].Action)
}

func TestBuildReconcilePlanBothSuppliedBothMustMatch(t *testing.T) {
	existing := []models.ArchiveOrig{origAt(0, "archives/origs/a.html", "https://example.com/a")}

	matching := []dto.ArchiveSlot{{StorageURL: "archives/origs/a.html", OriginalURL: "https://example.com/a", HasURL: true}}
	plan := buildReconcilePlan(matching, existing)
	require.Len(t, plan, 1)
	assert.Equal(t, SlotKeep, plan[0].Action)

	urlChanged := []dto.ArchiveSlot{{StorageURL: "archives/origs/a.html", OriginalURL: "https://example.com/other", HasURL: true}}
	plan = buildReconcilePlan(urlChanged, existing)
	require.Len(t, plan, 1)
	assert.Equal(t, SlotCreate, plan[0].Action)
}

// An uploaded file replaces the stored item even when an empty URL entry is
// present at the same slot.
func TestBuildReconcilePlanNewUploadWinsOverKeep(t *testing.T) {
	existing := []models.ArchiveOrig{origAt(0, "archives/origs/a.html", "")}
	slots := []dto.ArchiveSlot{{
		File:        &dto.UploadedFile{Filename: "new.html", Data: []byte("<html>new</html>")},
		OriginalURL: "",
		HasURL:      true,
	}}

	plan := buildReconcilePlan(slots, existing)
	require.Len(t, plan, 1)
	assert.Equal(t, SlotCreate, plan[0].Action)
}

func TestBuildReconcilePlanPendingClaimForcesCreate(t *testing.T) {
	existing := []models.ArchiveOrig{origAt(0, "archives/origs/a.html", "")}
	slots := []dto.ArchiveSlot{{StorageURL: "archives/origs/a.html", PendingOrigID: 42}}

	plan := buildReconcilePlan(slots, existing)
	require.Len(t, plan, 1)
	assert.Equal(t, SlotCreate, plan[0].Action)
}

func TestBuildReconcilePlanGrowsBeyondExisting(t *testing.T) {
	existing := []models.ArchiveOrig{origAt(0, "archives/origs/a.html", "")}
	slots := []dto.ArchiveSlot{
		{StorageURL: "archives/origs/a.html"},
		{OriginalURL: "https://example.com/new", HasURL: true},
	}

	plan := buildReconcilePlan(slots, existing)
	require.Len(t, plan, 2)
	assert.Equal(t, []SlotAction{SlotKeep, SlotCreate}, actions(plan))
	assert.Nil(t, plan[1].Existing)
}

func TestBuildReconcilePlanAllSlotsOmittedDeletesEverything(t *testing.T) {
	existing := []models.ArchiveOrig{
		origAt(0, "archives/origs/a.html", ""),
		origAt(1, "archives/origs/b.html", ""),
	}

	plan := buildReconcilePlan([]dto.ArchiveSlot{}, existing)
	require.Len(t, plan, 2)
	assert.Equal(t, []SlotAction{SlotDelete, SlotDelete}, actions(plan))
}
