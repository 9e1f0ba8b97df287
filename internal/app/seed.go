package app

import "github.com/hylla/kanboard/internal/domain"

// DefaultSeedCards returns the example cards used to populate an empty board.
func DefaultSeedCards() []domain.CardPayload {
	return []domain.CardPayload{
		{Title: "Implement login page", Description: "Create login form with validation", Status: domain.StatusBacklog},
		{Title: "Design database schema", Description: "Plan the initial database structure", Status: domain.StatusBacklog},
		{Title: "Create board component", Description: "Implement drag and drop functionality", Status: domain.StatusDoing},
		{Title: "User profile page", Description: "Needs design review before deployment", Status: domain.StatusReview},
		{Title: "Setup project", Description: "Initialize the project skeleton", Status: domain.StatusDone},
	}
}
