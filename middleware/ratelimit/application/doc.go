// Package application decide allow/deny e adquire vagas com timeout.
//
// Depende apenas de domain.
package application
