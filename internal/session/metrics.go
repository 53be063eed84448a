package session

import "expvar"

// Counters surface on the admin debug vars endpoint.
var (
	gamesCreated    = expvar.NewInt("games_created_total")
	gamesJoined     = expvar.NewInt("games_joined_total")
	gamesCompleted  = expvar.NewInt("games_completed_total")
	gamesCancelled  = expvar.NewInt("games_cancelled_total")
	rollsResolved   = expvar.NewInt("rolls_resolved_total")
	timeoutForfeits = expvar.NewInt("timeout_forfeits_total")
	persistFailures = expvar.NewInt("persist_failures_total")
)
