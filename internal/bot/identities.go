package bot

import "math/rand"

// botNames is the pool of display names for CPU seats.
var botNames = []string{
	"Ada", "Blaise", "Curie", "Dijkstra", "Erdos", "Fermat",
	"Gauss", "Hopper", "Iris", "Jarvis", "Kepler", "Lovelace",
	"Mobius", "Newton", "Oracle", "Pascal", "Quine", "Riemann",
}

// PickName draws a random display name. Uniqueness within a room is the
// caller's problem.
func PickName(rng *rand.Rand) string {
	return botNames[rng.Intn(len(botNames))]
}
