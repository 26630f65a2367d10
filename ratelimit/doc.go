// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratelimit provides a persisted sliding-window attempt counter.

Counters are keyed by (identifier, action) and stored in the rate_limit
table, created lazily on first attempt:

	lim := ratelimit.NewLimiter(db)
	d, err := lim.Allow(clientIP, ratelimit.ActionValidate, 10, 5*time.Minute, time.Now())
	if !d.Allowed { ... }

A counter whose window has fully elapsed is reset in place; otherwise the
attempt count is incremented with a conditional update (attempts < max), so
the limit holds even under concurrent callers. Counting is approximate by
contract - the guarantee is that attempts are never unbounded.

The limiter fronts login, token activation, and token validation.
*/
package ratelimit
