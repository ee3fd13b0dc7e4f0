// Package httpapi exposes the authentication service over JSON HTTP.
//
// Every response carries a success flag and a human-readable message; the
// error translation from service sentinels to status codes lives in
// respond.go so handlers stay thin. Routes, throttling, and request logging
// are assembled in NewRouter.
package httpapi
