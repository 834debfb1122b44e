package store

import "time"

// DB is the roll history interface.
type DB interface {
	Close() error
	Migrate() error
	SaveRoll(roll *Roll) error
	GetRoll(id string) (*Roll, error)
	ListRolls(query RollsQuery) (*RollsList, error)
}

// RollsQuery holds query parameters for listing rolls.
type RollsQuery struct {
	Seed    string `json:"seed,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// RollsList is a paginated rolls response.
type RollsList struct {
	Rolls      []Roll `json:"rolls"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PerPage    int    `json:"perPage"`
	TotalPages int    `json:"totalPages"`
}

// Roll is one resolved roll. Trajectories are not stored: they are
// reproduced on demand from the seed and nonce.
type Roll struct {
	ID            string    `json:"id" db:"id"`
	Seed          string    `json:"seed" db:"seed"`
	Nonce         uint64    `json:"nonce" db:"nonce"`
	DiceCount     int       `json:"dice_count" db:"dice_count"`
	Faces         []int     `json:"faces" db:"faces"`
	Desired       []int     `json:"desired,omitempty" db:"desired"`
	Report        string    `json:"report" db:"report"`
	Steps         int       `json:"steps" db:"steps"`
	Retries       int       `json:"retries" db:"retries"`
	TimedOut      bool      `json:"timed_out" db:"timed_out"`
	EngineVersion string    `json:"engine_version" db:"engine_version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
