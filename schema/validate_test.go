package schema

import (
	"testing"

	"complaintdraft-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	covered := models.Element{
		ID:    "deception",
		Slots: models.Slots{Must: []string{"deceptive_act"}},
		Questions: []models.Question{
			{ID: "q1", Slot: "deceptive_act"},
		},
	}

	tests := []struct {
		name    string
		offense models.Offense
		wantErr error
	}{
		{
			name:    "valid",
			offense: models.Offense{Offense: "fraud", Elements: []models.Element{covered}},
		},
		{
			name:    "no elements",
			offense: models.Offense{Offense: "fraud"},
			wantErr: ErrEmptySchema,
		},
		{
			name:    "duplicate element",
			offense: models.Offense{Offense: "fraud", Elements: []models.Element{covered, covered}},
			wantErr: ErrDuplicateElement,
		},
		{
			name: "nice to have slots need no question",
			offense: models.Offense{Offense: "fraud", Elements: []models.Element{{
				ID:    "loss",
				Slots: models.Slots{NiceToHave: []string{"bank"}},
			}}},
		},
		{
			name: "uncovered must slot",
			offense: models.Offense{Offense: "fraud", Elements: []models.Element{{
				ID:        "loss",
				Slots:     models.Slots{Must: []string{"loss_amount"}},
				Questions: []models.Question{{ID: "q", Text: "free narrative"}},
			}}},
			wantErr: ErrSlotCoverage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.offense)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUncoveredSlots_PreservesOrderAndDedupes(t *testing.T) {
	el := models.Element{
		Slots: models.Slots{Must: []string{"b", "a", "b", "c"}},
		Questions: []models.Question{
			{ID: "q", Slot: "c"},
		},
	}
	assert.Equal(t, []string{"b", "a"}, uncoveredSlots(el))
}
