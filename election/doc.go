// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election resolves the election's effective open/closed status.

# The Clock Gate

Every ballot-token transition is gated on the election schedule. The gate
reads three persisted settings (election_status, election_open_time,
election_close_time) and resolves them at an explicit instant:

	gate := election.NewGate(db, 7) // UTC+7
	st, err := gate.Resolve(time.Now())
	if !st.Open() { ... }

A persisted "open" or "closed" wins verbatim; "scheduled" compares the
instant against the configured window. The comparison uses a fixed UTC
offset from configuration, never the host zone, so redeploying the server in
a different environment cannot move the election window.

Handlers resolve the status once per request and hand the Status value to
the ballot store. The store itself never calls time.Now, which keeps the
state machine deterministic under test.
*/
package election
