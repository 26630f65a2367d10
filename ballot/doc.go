// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot implements the ballot-token lifecycle engine.

# Lifecycle

	inactive --activate--> activated --scan--> voting --submit--> used
	                           |
	                        (timeout)
	                           v
	                        expired

activate, scan, and submit are driven by requests; expired is owned entirely
by the sweeper. used and expired are terminal.

# Conditional Updates

Every transition is one UPDATE of the form

	SET status = next, ... WHERE code = ? AND status = prior

and succeeds only if exactly one row matched. Two kiosks scanning the same
token within milliseconds resolve cleanly: one update matches, the other
matches zero rows, re-reads the token, and returns InvalidStateError carrying
the state it actually found. The same mechanism settles sweeper-vs-kiosk
races without locks.

# Anonymity

A token's voter_id is non-null only in activated and voting. FinalizeVote
clears it in the same UPDATE that moves the token to used, inside one
transaction that also marks the voter and inserts the vote row - so a crash
can never leave a vote that is still traceable to a voter, or a voter with no
terminal status. The vote table has no voter column at all.

# Errors

All failures callers can provoke are typed: ErrTokenNotFound,
InvalidStateError, ElectionClosedError, StationMismatchError, ErrAlreadyVoted,
ErrAlreadyAbsent, ErrVoterHasActiveToken. StorageError wraps writes that did
not commit; retrying the same request is safe because an already-applied
transition reports InvalidStateError rather than applying twice.
*/
package ballot
