package service

import (
	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
)

// SlotAction is the per-position decision of a reconciliation plan.
type SlotAction string

const (
	SlotKeep   SlotAction = "keep"
	SlotCreate SlotAction = "create"
	SlotDelete SlotAction = "delete"
)

// SlotPlan is one position of a reconciliation plan. Existing is nil for
// positions beyond the stored items; Slot is the zero value for positions
// beyond the request.
type SlotPlan struct {
	Position int
	Action   SlotAction
	Slot     dto.ArchiveSlot
	Existing *models.ArchiveOrig
}

// buildReconcilePlan compares the desired slots against the stored origs
// (ordered by position) and decides keep/create/delete per position. Pure: no
// I/O, no mutation of its inputs.
//
// Identity rules for keep: a supplied storage path must equal the stored
// item's storage path; a supplied non-empty URL must equal the stored item's
// original URL; when both are supplied both must match. An empty-string URL
// with no other input means keep. An uploaded file or a pending id always
// forces create, even alongside inputs that would otherwise match.
func buildReconcilePlan(slots []dto.ArchiveSlot, existing []models.ArchiveOrig) []SlotPlan {
	n := len(slots)
	if len(existing) > n {
		n = len(existing)
	}

	plan := make([]SlotPlan, 0, n)
	for i := 0; i < n; i++ {
		var slot dto.ArchiveSlot
		if i < len(slots) {
			slot = slots[i]
		}
		var current *models.ArchiveOrig
		if i < len(existing) {
			current = &existing[i]
		}

		entry := SlotPlan{Position: i, Slot: slot, Existing: current}
		entry.Action = decideSlot(slot, current, i < len(slots))
		if entry.Action == "" {
			continue
		}
		plan = append(plan, entry)
	}
	return plan
}

func decideSlot(slot dto.ArchiveSlot, current *models.ArchiveOrig, present bool) SlotAction {
	hasFile := slot.File != nil
	hasStorage := slot.StorageURL != ""
	hasURL := slot.HasURL && slot.OriginalURL != ""
	hasPending := slot.PendingOrigID != 0
	keepOnly := slot.HasURL && slot.OriginalURL == "" && !hasFile && !hasStorage && !hasPending

	if current == nil {
		if !present || slot.Empty() || keepOnly {
			// nothing desired, nothing stored
			return ""
		}
		return SlotCreate
	}

	if !present || slot.Empty() {
		return SlotDelete
	}
	if keepOnly {
		return SlotKeep
	}
	// a fresh upload or a pending claim always replaces the stored item
	if hasFile || hasPending {
		return SlotCreate
	}
	if hasStorage || hasURL {
		storageMatches := !hasStorage || slot.StorageURL == current.StorageURL
		urlMatches := !hasURL || (current.OriginalURL != nil && slot.OriginalURL == *current.OriginalURL)
		if storageMatches && urlMatches {
			return SlotKeep
		}
	}
	return SlotCreate
}
