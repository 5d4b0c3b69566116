// Package memory provides in-process implementations of the coach ports:
// a session store, a script loader and a scripted backend.
package memory
