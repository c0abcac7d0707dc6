// Package httpapi serves read-only daemon state over HTTP for dashboards and
// scripts. Control operations are deliberately absent; those go through the
// IPC socket.
package httpapi
