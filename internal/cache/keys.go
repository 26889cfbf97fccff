package cache

import "time"

const (
	// Featured homepage listings: cars:featured -> JSON array of car views
	KeyFeaturedListings = "cars:featured"

	// Form draft state: draft:listing:{draft_id} -> JSON form state
	KeyDraft = "draft:listing:%s"

	// Drafts owned by an admin: set draft:owner:{user_id} -> draft ids
	KeyDraftOwner = "draft:owner:%s"

	// Login attempts: ratelimit:login:{client}
	KeyLoginRateLimit = "ratelimit:login"
)

var (
	TTLFeatured = 5 * time.Minute
)
