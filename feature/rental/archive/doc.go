// Package archive keeps a journal of processed station events in object
// storage, one JSON object per event under events/YYYY/MM/DD/<id>.json.
//
// Journal writes are best effort; callers log failures and carry on.
package archive
