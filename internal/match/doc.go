// Package match runs engine matches: it splits the games of a match over a
// pool of workers, plays each game through a Runner, accumulates results in
// a shared Aggregator and reports progress to a Sink. Manager wraps this for
// asynchronous matches that are persisted and streamed over the API.
package match
