package service

import (
	"fmt"

	"complaintdraft-backend/models"
)

// FollowUp is the next question to ask
type FollowUp struct {
	ElementID string `json:"element"`
	Question  string `json:"question"`
}

// SelectFollowUp returns the first question of the first element, in schema
// order, that is missing or unclear. Elements absent from collected count as
// unclear. It returns nil only when every element is satisfied.
func SelectFollowUp(collected models.Collected, offense *models.Offense) *FollowUp {
	for _, el := range offense.Elements {
		state, ok := collected[el.ID]
		if ok && state.Status == models.StatusSatisfied {
			continue
		}

		question := fmt.Sprintf("Please tell me more about %s.", el.Label)
		if len(el.Questions) > 0 {
			question = el.Questions[0].Text
		}
		return &FollowUp{ElementID: el.ID, Question: question}
	}
	return nil
}
