// Package player identifies the engines taking part in a match and defines
// the interface through which a game asks an engine process for moves.
// The UCI implementation lives in the uci subpackage.
package player
