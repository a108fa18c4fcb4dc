package gm

// Content ratings for injection text. The gatekeeper itself writes no prose,
// but injected details surface in character responses, so the host's rating
// applies to them too.
const (
	RatingG    = "G"
	RatingPG   = "PG"
	RatingPG13 = "PG-13"
	RatingR    = "R"
)

const (
	ChaosMin = 0
	ChaosMax = 5
)

// WorldSettings are the style parameters echoed into every oracle snapshot.
type WorldSettings struct {
	Setting     string `json:"setting"` // e.g. "realistic", "fantasy"
	Tone        string `json:"tone"`    // e.g. "drama", "horror", "slice-of-life"
	Pacing      string `json:"pacing"`  // e.g. "slow", "balanced", "fast"
	ChaosFactor int    `json:"chaos_factor"`
}

// Settings is the durable gatekeeper configuration. Seeds live here as the
// source of truth; the active GM document carries a working copy the oracle
// annotates.
type Settings struct {
	Enabled       bool          `json:"enabled"`
	World         WorldSettings `json:"world"`
	ContentRating string        `json:"content_rating"`
	UserSeeds     []Seed        `json:"user_seeds"`
}

func NewSettings() *Settings {
	return &Settings{
		Enabled: false,
		World: WorldSettings{
			Setting:     "realistic",
			Tone:        "drama",
			Pacing:      "balanced",
			ChaosFactor: 2,
		},
		ContentRating: RatingR,
		UserSeeds:     make([]Seed, 0),
	}
}

// AddSeed creates a waiting seed and appends it to the durable list.
func (s *Settings) AddSeed(text string) Seed {
	seed := NewSeed(text)
	s.UserSeeds = append(s.UserSeeds, seed)
	return seed
}

// RemoveSeed deletes a seed by ID. Returns false when no seed matched.
func (s *Settings) RemoveSeed(id int64) bool {
	for i, seed := range s.UserSeeds {
		if seed.ID == id {
			s.UserSeeds = append(s.UserSeeds[:i], s.UserSeeds[i+1:]...)
			return true
		}
	}
	return false
}

// UnresolvedSeeds returns the seeds still awaiting payoff, for the snapshot.
func (s *Settings) UnresolvedSeeds() []Seed {
	out := make([]Seed, 0, len(s.UserSeeds))
	for _, seed := range s.UserSeeds {
		if seed.Status != SeedResolved {
			out = append(out, seed)
		}
	}
	return out
}

// Normalize clamps the chaos factor and fills defaults on settings loaded
// from storage.
func (s *Settings) Normalize() {
	if s.World.ChaosFactor < ChaosMin {
		s.World.ChaosFactor = ChaosMin
	}
	if s.World.ChaosFactor > ChaosMax {
		s.World.ChaosFactor = ChaosMax
	}
	if s.ContentRating == "" {
		s.ContentRating = RatingR
	}
	if s.UserSeeds == nil {
		s.UserSeeds = make([]Seed, 0)
	}
}
