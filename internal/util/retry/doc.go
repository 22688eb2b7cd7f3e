// Package retry provides the two waiting strategies used against cloud APIs.
//
// [WithExponentialBackoff] retries transient provider failures (locked or
// rate-limited resources) with growing delays. [Poll] re-checks a condition a
// fixed number of times at a fixed interval, which is how instance activation
// is awaited after boot.
package retry
